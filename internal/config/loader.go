package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DirName is the per-project and per-user state directory.
const DirName = ".critic"

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from files and environment variables.
	// Priority: defaults → user config → project config → environment (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
	homeDir    string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	home, _ := os.UserHomeDir()
	return &loader{
		rootDir: rootDir,
		homeDir: home,
	}
}

// NewFileLoader creates a loader that reads an explicit config file instead
// of .critic/config.yml. The file must exist.
func NewFileLoader(configFile string) Loader {
	home, _ := os.UserHomeDir()
	return &loader{
		configFile: configFile,
		homeDir:    home,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (CRITIC_*)
// 2. Project config (.critic/config.yml or .critic/config.yaml) or explicit file
// 3. User config (~/.critic/config.yml)
// 4. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// Enable environment variable overrides
	v.SetEnvPrefix("CRITIC")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., CRITIC_LLM_PROVIDER)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnv(v)

	setDefaults(v)

	if l.homeDir != "" {
		if err := mergeIfExists(v, filepath.Join(l.homeDir, DirName, "config.yml")); err != nil {
			return nil, err
		}
	}

	if l.configFile != "" {
		if err := mergeFile(v, l.configFile); err != nil {
			return nil, err
		}
	} else {
		for _, name := range []string{"config.yml", "config.yaml"} {
			path := filepath.Join(l.rootDir, DirName, name)
			if _, err := os.Stat(path); err == nil {
				if err := mergeFile(v, path); err != nil {
					return nil, err
				}
				break
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func mergeIfExists(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return mergeFile(v, path)
}

func mergeFile(v *viper.Viper, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()

	if err := v.MergeConfig(f); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// bindEnv binds every leaf key so nested values can be overridden even when
// no config file sets them.
func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"paths.include",
		"paths.ignore",
		"extraction.workers",
		"extraction.output",
		"critic.max_complexity",
		"critic.max_nesting",
		"critic.max_lines",
		"critic.max_magic_numbers",
		"critic.require_docstring",
		"critic.max_tokens",
		"critic.file_max_tokens",
		"critic.refactor_max_tokens",
		"critic.temperature",
		"llm.provider",
		"llm.model",
		"llm.endpoint",
		"llm.api_key",
		"embedding.provider",
		"embedding.model",
		"embedding.endpoint",
		"embedding.api_key",
		"embedding.dimensions",
		"embedding.batch_size",
		"index.dir",
		"index.search_limit",
	} {
		v.BindEnv(key)
	}
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("paths.include", defaults.Paths.Include)
	v.SetDefault("paths.ignore", defaults.Paths.Ignore)

	v.SetDefault("extraction.workers", defaults.Extraction.Workers)
	v.SetDefault("extraction.output", defaults.Extraction.Output)

	v.SetDefault("critic.max_complexity", defaults.Critic.MaxComplexity)
	v.SetDefault("critic.max_nesting", defaults.Critic.MaxNesting)
	v.SetDefault("critic.max_lines", defaults.Critic.MaxLines)
	v.SetDefault("critic.max_magic_numbers", defaults.Critic.MaxMagicNumbers)
	v.SetDefault("critic.require_docstring", defaults.Critic.RequireDocstring)
	v.SetDefault("critic.max_tokens", defaults.Critic.MaxTokens)
	v.SetDefault("critic.file_max_tokens", defaults.Critic.FileMaxTokens)
	v.SetDefault("critic.refactor_max_tokens", defaults.Critic.RefactorMaxTokens)
	v.SetDefault("critic.temperature", defaults.Critic.Temperature)

	v.SetDefault("llm.provider", defaults.LLM.Provider)
	v.SetDefault("llm.model", defaults.LLM.Model)
	v.SetDefault("llm.endpoint", defaults.LLM.Endpoint)
	v.SetDefault("llm.api_key", defaults.LLM.APIKey)

	v.SetDefault("embedding.provider", defaults.Embedding.Provider)
	v.SetDefault("embedding.model", defaults.Embedding.Model)
	v.SetDefault("embedding.endpoint", defaults.Embedding.Endpoint)
	v.SetDefault("embedding.api_key", defaults.Embedding.APIKey)
	v.SetDefault("embedding.dimensions", defaults.Embedding.Dimensions)
	v.SetDefault("embedding.batch_size", defaults.Embedding.BatchSize)

	v.SetDefault("index.dir", defaults.Index.Dir)
	v.SetDefault("index.search_limit", defaults.Index.SearchLimit)
}

// LoadConfig is a convenience function that creates a loader and loads config.
// It uses the current working directory as the root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}

// WriteDefault writes the default configuration as YAML. It refuses to
// overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
