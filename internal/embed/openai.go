package embed

import (
	"context"
	"fmt"
	"sync"

	"github.com/sashabaranov/go-openai"
)

// openAIProvider embeds text through the OpenAI embeddings API or a
// compatible server.
type openAIProvider struct {
	client *openai.Client
	model  string

	mu         sync.Mutex
	dimensions int
}

func newOpenAIProvider(endpoint, apiKey, model string) (*openAIProvider, error) {
	if model == "" {
		return nil, fmt.Errorf("openai: embedding model is required")
	}

	cfg := openai.DefaultConfig(apiKey)
	if endpoint != "" {
		cfg.BaseURL = endpoint
	}

	return &openAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

// Initialize is a no-op; credentials are checked by the first request.
func (p *openAIProvider) Initialize(ctx context.Context) error {
	return nil
}

func (p *openAIProvider) Embed(ctx context.Context, texts []string, mode EmbedMode) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(p.model),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d texts", len(resp.Data), len(texts))
	}

	// Data carries its input index; do not rely on response order.
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("openai returned embedding with out-of-range index %d", d.Index)
		}
		out[d.Index] = d.Embedding
	}

	p.mu.Lock()
	if p.dimensions == 0 {
		p.dimensions = len(out[0])
	}
	p.mu.Unlock()

	return out, nil
}

func (p *openAIProvider) Dimensions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dimensions
}

func (p *openAIProvider) Close() error {
	return nil
}
