package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mvp-joe/code-critic/internal/embed"
)

// Test Plan for CLIProgressReporter:
// - formatNumber inserts thousands separators, including for negatives
// - A quiet reporter draws nothing for any stage
// - TrackEmbedding drains its channel and closes done
// - A visible reporter renders the embedding bar to its writer

func TestFormatNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-4200, "-4,200"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatNumber(tt.in))
	}
}

func TestCLIProgressReporter_QuietDrawsNothing(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewCLIProgressReporter(&buf, true)

	p.OnExtractProgress(1, 2)
	p.OnExtractProgress(2, 2)
	p.OnStageStart("critique", 3)
	p.OnItemDone("a")
	p.OnStageComplete("critique")

	updates := make(chan embed.BatchProgress, 1)
	done := make(chan struct{})
	updates <- embed.BatchProgress{Batch: 1, Batches: 1, Embedded: 4, Total: 4}
	close(updates)
	p.TrackEmbedding(4, updates, done)

	<-done
	assert.Empty(t, buf.String())
}

func TestCLIProgressReporter_TrackEmbedding(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewCLIProgressReporter(&buf, false)

	updates := make(chan embed.BatchProgress)
	done := make(chan struct{})
	go p.TrackEmbedding(4, updates, done)

	updates <- embed.BatchProgress{Batch: 1, Batches: 2, Embedded: 2, Total: 4}
	updates <- embed.BatchProgress{Batch: 2, Batches: 2, Embedded: 4, Total: 4}
	close(updates)
	<-done

	assert.Contains(t, buf.String(), "Generating embeddings")
}
