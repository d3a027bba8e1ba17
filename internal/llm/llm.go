// Package llm provides the text-generation backends used by the critic.
//
// A Model turns a fully rendered prompt into a completion. Implementations
// exist for Ollama, OpenAI-compatible servers and an in-memory fake.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedProvider indicates an unknown provider name.
	ErrUnsupportedProvider = errors.New("unsupported llm provider")

	// ErrEmptyResponse indicates the backend returned no text.
	ErrEmptyResponse = errors.New("empty response from model")
)

// Model generates text from a prompt.
type Model interface {
	Generate(ctx context.Context, prompt string, options ...CallOption) (string, error)
}

// CallOption adjusts a single Generate call.
type CallOption func(*CallOptions)

// CallOptions holds per-call generation settings. Zero values leave the
// backend's own defaults in place.
type CallOptions struct {
	MaxTokens   int
	Temperature *float64
}

// WithMaxTokens caps the number of generated tokens.
func WithMaxTokens(n int) CallOption {
	return func(o *CallOptions) {
		o.MaxTokens = n
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) CallOption {
	return func(o *CallOptions) {
		o.Temperature = &t
	}
}

func applyOptions(options []CallOption) CallOptions {
	var o CallOptions
	for _, opt := range options {
		opt(&o)
	}
	return o
}

// Config contains configuration for creating a model.
type Config struct {
	// Provider is "ollama", "openai" or "fake".
	Provider string

	// Model is the backend model name, e.g. "llama3" or "gpt-4o-mini".
	Model string

	// Endpoint overrides the backend base URL. Empty uses the provider default.
	Endpoint string

	// APIKey for OpenAI-compatible servers.
	APIKey string
}

// New creates a model based on the configuration.
func New(cfg Config) (Model, error) {
	switch strings.ToLower(cfg.Provider) {
	case "ollama", "":
		return NewOllama(cfg.Endpoint, cfg.Model)
	case "openai":
		return NewOpenAI(cfg.Endpoint, cfg.APIKey, cfg.Model)
	case "fake":
		return NewFake("This code looks fine."), nil
	default:
		return nil, fmt.Errorf("%w: %s (supported: ollama, openai, fake)", ErrUnsupportedProvider, cfg.Provider)
	}
}
