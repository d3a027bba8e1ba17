package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for llm models:
// - New dispatches on provider name and rejects unknown providers
// - Ollama model sends a non-streaming generate request with num_predict and temperature
// - Ollama model surfaces server errors and empty responses
// - OpenAI model sends a chat completion with max_tokens and temperature
// - Fake cycles responses, records prompts and options, honours Err and cancellation

func TestNew(t *testing.T) {
	t.Parallel()

	m, err := New(Config{Provider: "fake"})
	require.NoError(t, err)
	assert.IsType(t, &Fake{}, m)

	m, err = New(Config{Provider: "ollama", Model: "llama3", Endpoint: "http://localhost:11434"})
	require.NoError(t, err)
	assert.IsType(t, &OllamaModel{}, m)

	m, err = New(Config{Provider: "OpenAI", Model: "gpt-4o-mini", APIKey: "sk-test"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIModel{}, m)

	_, err = New(Config{Provider: "ollama", Endpoint: "http://localhost:11434"})
	require.Error(t, err)

	_, err = New(Config{Provider: "llamacpp", Model: "x"})
	require.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestOllamaModel_Generate(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3","response":"Extract a helper.","done":true}` + "\n"))
	}))
	defer srv.Close()

	m, err := NewOllama(srv.URL, "llama3")
	require.NoError(t, err)

	out, err := m.Generate(context.Background(), "critique this", WithMaxTokens(512), WithTemperature(0.7))
	require.NoError(t, err)
	assert.Equal(t, "Extract a helper.", out)

	assert.Equal(t, "llama3", got["model"])
	assert.Equal(t, "critique this", got["prompt"])
	assert.Equal(t, false, got["stream"])
	opts, ok := got["options"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 512, opts["num_predict"])
	assert.InDelta(t, 0.7, opts["temperature"], 1e-9)
}

func TestOllamaModel_Errors(t *testing.T) {
	t.Parallel()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'nope' not found"}`))
	}))
	defer failing.Close()

	m, err := NewOllama(failing.URL, "nope")
	require.NoError(t, err)
	_, err = m.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"model":"llama3","response":"","done":true}` + "\n"))
	}))
	defer empty.Close()

	m, err = NewOllama(empty.URL, "llama3")
	require.NoError(t, err)
	_, err = m.Generate(context.Background(), "hi")
	require.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOpenAIModel_Generate(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "Reduce nesting."}}]
		}`))
	}))
	defer srv.Close()

	m, err := NewOpenAI(srv.URL+"/v1", "sk-test", "gpt-4o-mini")
	require.NoError(t, err)

	out, err := m.Generate(context.Background(), "critique this", WithMaxTokens(1024), WithTemperature(0.5))
	require.NoError(t, err)
	assert.Equal(t, "Reduce nesting.", out)

	assert.Equal(t, "gpt-4o-mini", got["model"])
	assert.EqualValues(t, 1024, got["max_tokens"])
	assert.InDelta(t, 0.5, got["temperature"], 1e-6)
	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	assert.Equal(t, "critique this", msgs[0].(map[string]any)["content"])
}

func TestOpenAIModel_NoChoices(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	m, err := NewOpenAI(srv.URL+"/v1", "sk-test", "gpt-4o-mini")
	require.NoError(t, err)
	_, err = m.Generate(context.Background(), "hi")
	require.ErrorIs(t, err, ErrEmptyResponse)
}

func TestFake(t *testing.T) {
	t.Parallel()

	f := NewFake("one", "two")
	ctx := context.Background()

	for _, want := range []string{"one", "two", "one"} {
		got, err := f.Generate(ctx, "p-"+want, WithMaxTokens(10))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, 3, f.CallCount())
	assert.Equal(t, []string{"p-one", "p-two", "p-one"}, f.Prompts())
	assert.Equal(t, 10, f.Options()[0].MaxTokens)
	assert.Nil(t, f.Options()[0].Temperature)

	f.Err = errors.New("backend down")
	_, err := f.Generate(ctx, "x")
	require.EqualError(t, err, "backend down")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = f.Generate(cancelled, "x")
	require.ErrorIs(t, err, context.Canceled)

	_, err = NewFake().Generate(ctx, "x")
	require.ErrorIs(t, err, ErrEmptyResponse)
}
