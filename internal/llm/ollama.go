package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// OllamaModel generates text through an Ollama server's generate endpoint.
type OllamaModel struct {
	client *api.Client
	model  string
}

var _ Model = (*OllamaModel)(nil)

// NewOllama connects to the Ollama server at endpoint. An empty endpoint
// falls back to OLLAMA_HOST and then the local default.
func NewOllama(endpoint, model string) (*OllamaModel, error) {
	if model == "" {
		return nil, fmt.Errorf("ollama: model is required")
	}

	client, err := newOllamaClient(endpoint)
	if err != nil {
		return nil, err
	}

	return &OllamaModel{client: client, model: model}, nil
}

func newOllamaClient(endpoint string) (*api.Client, error) {
	if endpoint == "" {
		client, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		return client, nil
	}

	base, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama endpoint %q: %w", endpoint, err)
	}
	return api.NewClient(base, http.DefaultClient), nil
}

// Generate runs a single non-streaming completion.
func (m *OllamaModel) Generate(ctx context.Context, prompt string, options ...CallOption) (string, error) {
	opts := applyOptions(options)

	genOpts := map[string]any{}
	if opts.MaxTokens > 0 {
		genOpts["num_predict"] = opts.MaxTokens
	}
	if opts.Temperature != nil {
		genOpts["temperature"] = *opts.Temperature
	}

	stream := false
	req := &api.GenerateRequest{
		Model:   m.model,
		Prompt:  prompt,
		Stream:  &stream,
		Options: genOpts,
	}

	var out strings.Builder
	err := m.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate failed: %w", err)
	}

	if out.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return out.String(), nil
}
