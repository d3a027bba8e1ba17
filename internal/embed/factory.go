package embed

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedProvider indicates an unknown embedding provider name.
var ErrUnsupportedProvider = errors.New("unsupported embedding provider")

// Config contains configuration for creating an embedding provider.
type Config struct {
	// Provider specifies which embedding provider to use ("ollama", "openai", "mock")
	Provider string

	// Endpoint is the base URL of the embedding service. Empty uses the
	// provider default.
	Endpoint string

	// APIKey for OpenAI-compatible servers
	APIKey string

	// Model name, e.g. "nomic-embed-text" or "text-embedding-3-small"
	Model string

	// Dimensions sizes the mock provider's vectors
	Dimensions int
}

// NewProvider creates an embedding provider based on the configuration.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "ollama", "": // empty defaults to ollama
		return newOllamaProvider(config.Endpoint, config.Model)
	case "openai":
		return newOpenAIProvider(config.Endpoint, config.APIKey, config.Model)
	case "mock":
		return NewMockProvider(config.Dimensions), nil
	default:
		return nil, fmt.Errorf("%w: %s (supported: ollama, openai, mock)", ErrUnsupportedProvider, config.Provider)
	}
}
