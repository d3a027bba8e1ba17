package watcher

import (
	"context"
	"log"
)

// Coordinator routes debounced file changes to an Extractor. The watcher is
// paused while an extraction runs so changes made meanwhile are delivered as
// one follow-up batch.
type Coordinator struct {
	files     FileWatcher
	extractor Extractor

	// OnExtract, when set, is called after every extraction attempt.
	OnExtract func(changed []string, stats *ExtractStats, err error)
}

// NewCoordinator creates a coordinator.
func NewCoordinator(files FileWatcher, extractor Extractor) *Coordinator {
	return &Coordinator{files: files, extractor: extractor}
}

// Run starts the file watcher and blocks until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) error {
	if err := c.files.Start(ctx, func(files []string) { c.handleFileChange(ctx, files) }); err != nil {
		c.stop()
		return err
	}

	<-ctx.Done()
	c.stop()
	return ctx.Err()
}

func (c *Coordinator) stop() {
	if err := c.files.Stop(); err != nil {
		log.Printf("Warning: file watcher stop failed: %v", err)
	}
}

func (c *Coordinator) handleFileChange(ctx context.Context, files []string) {
	if len(files) == 0 || ctx.Err() != nil {
		return
	}

	c.files.Pause()
	defer c.files.Resume()

	log.Printf("Processing %d file change(s)...", len(files))

	stats, err := c.extractor.Extract(ctx, files)
	if err != nil {
		log.Printf("Error: extraction failed: %v", err)
	} else {
		log.Printf("✓ Extracted %d chunks from %d file(s) (%d failed)", stats.Chunks, stats.Files, stats.Failed)
	}

	if c.OnExtract != nil {
		c.OnExtract(files, stats, err)
	}
}
