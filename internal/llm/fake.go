package llm

import (
	"context"
	"sync"
)

// Fake is an in-memory Model that cycles through canned responses and
// records every prompt it receives.
type Fake struct {
	// Err, when set, is returned from every Generate call.
	Err error

	mu        sync.Mutex
	responses []string
	index     int
	prompts   []string
	options   []CallOptions
}

var _ Model = (*Fake)(nil)

// NewFake creates a fake that returns responses in order, wrapping around.
func NewFake(responses ...string) *Fake {
	return &Fake{responses: responses}
}

// Generate returns the next canned response.
func (f *Fake) Generate(ctx context.Context, prompt string, options ...CallOption) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.prompts = append(f.prompts, prompt)
	f.options = append(f.options, applyOptions(options))

	if f.Err != nil {
		return "", f.Err
	}
	if len(f.responses) == 0 {
		return "", ErrEmptyResponse
	}

	response := f.responses[f.index]
	f.index = (f.index + 1) % len(f.responses)
	return response, nil
}

// Prompts returns the prompts received so far.
func (f *Fake) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// Options returns the resolved call options for each Generate call.
func (f *Fake) Options() []CallOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CallOptions(nil), f.options...)
}

// CallCount returns the number of Generate calls.
func (f *Fake) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}
