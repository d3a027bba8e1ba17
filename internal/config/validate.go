package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidProvider indicates an unsupported LLM or embedding provider
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrEmptyModel indicates a missing model name
	ErrEmptyModel = errors.New("empty model")

	// ErrInvalidDimensions indicates invalid embedding dimensions
	ErrInvalidDimensions = errors.New("invalid embedding dimensions")

	// ErrInvalidBatchSize indicates a non-positive embedding batch size
	ErrInvalidBatchSize = errors.New("invalid batch size")

	// ErrInvalidThreshold indicates a negative critic threshold
	ErrInvalidThreshold = errors.New("invalid threshold")

	// ErrInvalidTokens indicates a non-positive token budget
	ErrInvalidTokens = errors.New("invalid max tokens")

	// ErrInvalidTemperature indicates a temperature outside [0, 2]
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidWorkers indicates a negative worker count
	ErrInvalidWorkers = errors.New("invalid worker count")

	// ErrEmptyIndexDir indicates a missing index directory
	ErrEmptyIndexDir = errors.New("empty index directory")

	// ErrInvalidSearchLimit indicates a non-positive search limit
	ErrInvalidSearchLimit = errors.New("invalid search limit")
)

var (
	llmProviders       = []string{"ollama", "openai", "fake"}
	embeddingProviders = []string{"ollama", "openai", "mock"}
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateExtraction(&cfg.Extraction); err != nil {
		errs = append(errs, err)
	}

	if err := validateCritic(&cfg.Critic); err != nil {
		errs = append(errs, err)
	}

	if err := validateLLM(&cfg.LLM); err != nil {
		errs = append(errs, err)
	}

	if err := validateEmbedding(&cfg.Embedding); err != nil {
		errs = append(errs, err)
	}

	if err := validateIndex(&cfg.Index); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateExtraction(cfg *ExtractionConfig) error {
	if cfg.Workers < 0 {
		return fmt.Errorf("%w: workers cannot be negative, got %d", ErrInvalidWorkers, cfg.Workers)
	}
	return nil
}

func validateCritic(cfg *CriticConfig) error {
	var errs []error

	thresholds := map[string]int{
		"max_complexity":    cfg.MaxComplexity,
		"max_nesting":       cfg.MaxNesting,
		"max_lines":         cfg.MaxLines,
		"max_magic_numbers": cfg.MaxMagicNumbers,
	}
	for _, name := range []string{"max_complexity", "max_nesting", "max_lines", "max_magic_numbers"} {
		if thresholds[name] < 0 {
			errs = append(errs, fmt.Errorf("%w: %s cannot be negative, got %d", ErrInvalidThreshold, name, thresholds[name]))
		}
	}

	tokens := map[string]int{
		"max_tokens":          cfg.MaxTokens,
		"file_max_tokens":     cfg.FileMaxTokens,
		"refactor_max_tokens": cfg.RefactorMaxTokens,
	}
	for _, name := range []string{"max_tokens", "file_max_tokens", "refactor_max_tokens"} {
		if tokens[name] <= 0 {
			errs = append(errs, fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidTokens, name, tokens[name]))
		}
	}

	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		errs = append(errs, fmt.Errorf("%w: temperature must be between 0 and 2, got %.2f", ErrInvalidTemperature, cfg.Temperature))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateLLM(cfg *LLMConfig) error {
	var errs []error

	provider := strings.ToLower(cfg.Provider)
	if !contains(llmProviders, provider) {
		errs = append(errs, fmt.Errorf("%w: llm provider must be one of %s, got '%s'",
			ErrInvalidProvider, strings.Join(llmProviders, ", "), cfg.Provider))
	}

	if provider != "fake" && strings.TrimSpace(cfg.Model) == "" {
		errs = append(errs, fmt.Errorf("%w: llm model is required", ErrEmptyModel))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateEmbedding(cfg *EmbeddingConfig) error {
	var errs []error

	provider := strings.ToLower(cfg.Provider)
	if !contains(embeddingProviders, provider) {
		errs = append(errs, fmt.Errorf("%w: embedding provider must be one of %s, got '%s'",
			ErrInvalidProvider, strings.Join(embeddingProviders, ", "), cfg.Provider))
	}

	if provider != "mock" && strings.TrimSpace(cfg.Model) == "" {
		errs = append(errs, fmt.Errorf("%w: embedding model is required", ErrEmptyModel))
	}

	if provider == "mock" && cfg.Dimensions <= 0 {
		errs = append(errs, fmt.Errorf("%w: dimensions must be positive, got %d", ErrInvalidDimensions, cfg.Dimensions))
	}

	if cfg.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: batch_size must be positive, got %d", ErrInvalidBatchSize, cfg.BatchSize))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateIndex(cfg *IndexConfig) error {
	var errs []error

	if strings.TrimSpace(cfg.Dir) == "" {
		errs = append(errs, fmt.Errorf("%w: index dir is required", ErrEmptyIndexDir))
	}

	if cfg.SearchLimit <= 0 {
		errs = append(errs, fmt.Errorf("%w: search_limit must be positive, got %d", ErrInvalidSearchLimit, cfg.SearchLimit))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// joinErrors combines multiple errors into a single error with clear
// formatting. The result still matches each wrapped sentinel with errors.Is.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	return &validationError{errs: errs}
}

type validationError struct {
	errs []error
}

func (e *validationError) Error() string {
	var msgs []string
	for _, err := range e.errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

func (e *validationError) Unwrap() []error {
	return e.errs
}
