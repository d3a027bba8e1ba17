package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIModel generates text through the chat completions API of OpenAI or
// any compatible server (vLLM, LM Studio, llama.cpp server).
type OpenAIModel struct {
	client *openai.Client
	model  string
}

var _ Model = (*OpenAIModel)(nil)

// NewOpenAI creates a chat completion model. An empty endpoint uses the
// public OpenAI API.
func NewOpenAI(endpoint, apiKey, model string) (*OpenAIModel, error) {
	if model == "" {
		return nil, fmt.Errorf("openai: model is required")
	}

	return &OpenAIModel{
		client: openai.NewClientWithConfig(newOpenAIConfig(endpoint, apiKey)),
		model:  model,
	}, nil
}

func newOpenAIConfig(endpoint, apiKey string) openai.ClientConfig {
	cfg := openai.DefaultConfig(apiKey)
	if endpoint != "" {
		cfg.BaseURL = endpoint
	}
	return cfg
}

// Generate sends the prompt as a single user message.
func (m *OpenAIModel) Generate(ctx context.Context, prompt string, options ...CallOption) (string, error) {
	opts := applyOptions(options)

	req := openai.ChatCompletionRequest{
		Model: m.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	if opts.Temperature != nil {
		req.Temperature = float32(*opts.Temperature)
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
