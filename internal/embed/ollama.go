package embed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/ollama/ollama/api"
)

// ollamaProvider embeds text through an Ollama server's embed endpoint.
type ollamaProvider struct {
	client *api.Client
	model  string

	mu         sync.Mutex
	dimensions int
}

func newOllamaProvider(endpoint, model string) (*ollamaProvider, error) {
	if model == "" {
		return nil, fmt.Errorf("ollama: embedding model is required")
	}

	var client *api.Client
	if endpoint == "" {
		c, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		client = c
	} else {
		base, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama endpoint %q: %w", endpoint, err)
		}
		client = api.NewClient(base, http.DefaultClient)
	}

	return &ollamaProvider{client: client, model: model}, nil
}

// Initialize checks that the server answers.
func (p *ollamaProvider) Initialize(ctx context.Context) error {
	if err := p.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("ollama server not reachable: %w", err)
	}
	return nil
}

func (p *ollamaProvider) Embed(ctx context.Context, texts []string, mode EmbedMode) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	input := make([]string, len(texts))
	for i, text := range texts {
		input[i] = prefixFor(mode) + text
	}

	resp, err := p.client.Embed(ctx, &api.EmbedRequest{
		Model: p.model,
		Input: input,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embed failed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama returned %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}

	p.recordDimensions(resp.Embeddings[0])
	return resp.Embeddings, nil
}

func (p *ollamaProvider) recordDimensions(vec []float32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dimensions == 0 {
		p.dimensions = len(vec)
	}
}

func (p *ollamaProvider) Dimensions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dimensions
}

func (p *ollamaProvider) Close() error {
	return nil
}
