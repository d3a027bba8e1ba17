// Package config provides configuration loading for code-critic.
//
// Configuration is layered (highest priority first):
//  1. Environment variables (CRITIC_*, e.g. CRITIC_LLM_MODEL)
//  2. Project config (.critic/config.yml) or an explicit --config file
//  3. User config (~/.critic/config.yml)
//  4. Built-in defaults
package config

import (
	"github.com/mvp-joe/code-critic/internal/parser"
)

// Config represents the complete code-critic configuration.
type Config struct {
	Paths      PathsConfig      `yaml:"paths" mapstructure:"paths"`
	Extraction ExtractionConfig `yaml:"extraction" mapstructure:"extraction"`
	Critic     CriticConfig     `yaml:"critic" mapstructure:"critic"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Embedding  EmbeddingConfig  `yaml:"embedding" mapstructure:"embedding"`
	Index      IndexConfig      `yaml:"index" mapstructure:"index"`
}

// PathsConfig defines which files to extract and which to ignore.
type PathsConfig struct {
	Include []string `yaml:"include" mapstructure:"include"` // glob patterns for source files
	Ignore  []string `yaml:"ignore" mapstructure:"ignore"`   // glob patterns to ignore
}

// ExtractionConfig controls the parse stage.
type ExtractionConfig struct {
	Workers int    `yaml:"workers" mapstructure:"workers"` // 0 means one per CPU
	Output  string `yaml:"output" mapstructure:"output"`   // default chunk document path
}

// CriticConfig holds the selection thresholds and generation limits for the
// critique and refactor stages.
type CriticConfig struct {
	MaxComplexity     int     `yaml:"max_complexity" mapstructure:"max_complexity"`
	MaxNesting        int     `yaml:"max_nesting" mapstructure:"max_nesting"`
	MaxLines          int     `yaml:"max_lines" mapstructure:"max_lines"`
	MaxMagicNumbers   int     `yaml:"max_magic_numbers" mapstructure:"max_magic_numbers"`
	RequireDocstring  bool    `yaml:"require_docstring" mapstructure:"require_docstring"`
	MaxTokens         int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	FileMaxTokens     int     `yaml:"file_max_tokens" mapstructure:"file_max_tokens"`
	RefactorMaxTokens int     `yaml:"refactor_max_tokens" mapstructure:"refactor_max_tokens"`
	Temperature       float64 `yaml:"temperature" mapstructure:"temperature"`
}

// LLMConfig configures the text-generation backend.
type LLMConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"` // "ollama", "openai" or "fake"
	Model    string `yaml:"model" mapstructure:"model"`
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"` // empty uses the provider default
	APIKey   string `yaml:"api_key,omitempty" mapstructure:"api_key"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"` // "ollama", "openai" or "mock"
	Model      string `yaml:"model" mapstructure:"model"`
	Endpoint   string `yaml:"endpoint" mapstructure:"endpoint"`
	APIKey     string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	Dimensions int    `yaml:"dimensions" mapstructure:"dimensions"` // mock provider only
	BatchSize  int    `yaml:"batch_size" mapstructure:"batch_size"`
}

// IndexConfig locates the vector index and chunk catalog.
type IndexConfig struct {
	Dir         string `yaml:"dir" mapstructure:"dir"`
	SearchLimit int    `yaml:"search_limit" mapstructure:"search_limit"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Include: append([]string{}, parser.DefaultInclude...),
			Ignore:  append([]string{}, parser.DefaultIgnore...),
		},
		Extraction: ExtractionConfig{
			Workers: 0,
			Output:  "parsed_repo.json",
		},
		Critic: CriticConfig{
			MaxComplexity:     10,
			MaxNesting:        3,
			MaxLines:          50,
			MaxMagicNumbers:   3,
			RequireDocstring:  true,
			MaxTokens:         512,
			FileMaxTokens:     2048,
			RefactorMaxTokens: 1024,
			Temperature:       0.7,
		},
		LLM: LLMConfig{
			Provider: "ollama",
			Model:    "llama3",
			Endpoint: "http://localhost:11434",
		},
		Embedding: EmbeddingConfig{
			Provider:   "ollama",
			Model:      "nomic-embed-text",
			Endpoint:   "http://localhost:11434",
			Dimensions: 768,
			BatchSize:  16,
		},
		Index: IndexConfig{
			Dir:         ".critic/index",
			SearchLimit: 5,
		},
	}
}

// WalkOptions converts the paths and extraction sections into options for
// a repository walk.
func (c *Config) WalkOptions() parser.WalkOptions {
	return parser.WalkOptions{
		Include: c.Paths.Include,
		Ignore:  c.Paths.Ignore,
		Workers: c.Extraction.Workers,
	}
}
