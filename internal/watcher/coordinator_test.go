package watcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Coordinator:
// - A file change pauses the watcher, extracts, then resumes
// - Extraction errors are reported and do not stop the coordinator
// - Empty change lists are ignored
// - Start errors are returned and the watcher is stopped
// - Context cancellation stops the watcher

type mockFileWatcher struct {
	mu         sync.Mutex
	startErr   error
	callback   func(files []string)
	started    chan struct{}
	calls      []string
	stopCalled bool
}

func newMockFileWatcher() *mockFileWatcher {
	return &mockFileWatcher{started: make(chan struct{})}
}

func (m *mockFileWatcher) Start(ctx context.Context, callback func(files []string)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return m.startErr
	}
	m.callback = callback
	close(m.started)
	return nil
}

func (m *mockFileWatcher) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalled = true
	return nil
}

func (m *mockFileWatcher) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "pause")
}

func (m *mockFileWatcher) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "resume")
}

func (m *mockFileWatcher) trigger(files []string) {
	m.mu.Lock()
	cb := m.callback
	m.mu.Unlock()
	cb(files)
}

func (m *mockFileWatcher) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockFileWatcher) snapshot() ([]string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...), m.stopCalled
}

type mockExtractor struct {
	watcher *mockFileWatcher
	err     error

	mu      sync.Mutex
	changed [][]string
}

func (m *mockExtractor) Extract(ctx context.Context, changed []string) (*ExtractStats, error) {
	m.watcher.record("extract")
	m.mu.Lock()
	m.changed = append(m.changed, changed)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return &ExtractStats{Files: 2, Chunks: 5}, nil
}

func runCoordinator(t *testing.T, c *Coordinator) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	t.Cleanup(cancel)
	return cancel, done
}

func TestCoordinator_ExtractsOnChange(t *testing.T) {
	t.Parallel()

	fw := newMockFileWatcher()
	ex := &mockExtractor{watcher: fw}
	c := NewCoordinator(fw, ex)

	var gotStats *ExtractStats
	c.OnExtract = func(changed []string, stats *ExtractStats, err error) {
		gotStats = stats
		assert.NoError(t, err)
	}

	cancel, done := runCoordinator(t, c)
	<-fw.started

	fw.trigger([]string{"a.py", "b.py"})

	calls, _ := fw.snapshot()
	assert.Equal(t, []string{"pause", "extract", "resume"}, calls)
	assert.Equal(t, [][]string{{"a.py", "b.py"}}, ex.changed)
	require.NotNil(t, gotStats)
	assert.Equal(t, 5, gotStats.Chunks)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	_, stopped := fw.snapshot()
	assert.True(t, stopped)
}

func TestCoordinator_ExtractErrorIsReported(t *testing.T) {
	t.Parallel()

	fw := newMockFileWatcher()
	boom := errors.New("boom")
	ex := &mockExtractor{watcher: fw, err: boom}
	c := NewCoordinator(fw, ex)

	var gotErr error
	c.OnExtract = func(changed []string, stats *ExtractStats, err error) { gotErr = err }

	runCoordinator(t, c)
	<-fw.started

	fw.trigger([]string{"a.py"})
	assert.ErrorIs(t, gotErr, boom)

	// The coordinator keeps handling changes
	fw.trigger([]string{"b.py"})
	assert.Len(t, ex.changed, 2)
}

func TestCoordinator_IgnoresEmptyChanges(t *testing.T) {
	t.Parallel()

	fw := newMockFileWatcher()
	ex := &mockExtractor{watcher: fw}
	runCoordinator(t, NewCoordinator(fw, ex))
	<-fw.started

	fw.trigger(nil)
	calls, _ := fw.snapshot()
	assert.Empty(t, calls)
}

func TestCoordinator_StartError(t *testing.T) {
	t.Parallel()

	fw := newMockFileWatcher()
	fw.startErr = errors.New("no inotify")
	c := NewCoordinator(fw, &mockExtractor{watcher: fw})

	select {
	case err := <-func() <-chan error {
		ch := make(chan error, 1)
		go func() { ch <- c.Run(context.Background()) }()
		return ch
	}():
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after start error")
	}

	_, stopped := fw.snapshot()
	assert.True(t, stopped)
}
