package git

import (
	"context"
	"sync"
)

// MockCloner is a mock implementation of Cloner for testing. It hands out
// Dir without touching the network and records every requested URL.
type MockCloner struct {
	Dir string
	Err error

	mu      sync.Mutex
	urls    []string
	cleaned int
}

// NewMockCloner creates a mock that "clones" into dir.
func NewMockCloner(dir string) *MockCloner {
	return &MockCloner{Dir: dir}
}

func (m *MockCloner) Clone(ctx context.Context, url string) (string, func(), error) {
	m.mu.Lock()
	m.urls = append(m.urls, url)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	if m.Err != nil {
		return "", nil, m.Err
	}
	return m.Dir, func() {
		m.mu.Lock()
		m.cleaned++
		m.mu.Unlock()
	}, nil
}

// URLs returns the URLs passed to Clone, in call order.
func (m *MockCloner) URLs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.urls...)
}

// Cleanups returns how many times a cleanup func was called.
func (m *MockCloner) Cleanups() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cleaned
}
