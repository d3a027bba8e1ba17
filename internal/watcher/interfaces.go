package watcher

import "context"

// FileWatcher monitors source files for changes with debouncing and pause/resume support.
type FileWatcher interface {
	// Start begins watching, calling callback with debounced file changes.
	Start(ctx context.Context, callback func(files []string)) error

	// Stop stops the file watcher and cleans up resources.
	Stop() error

	// Pause stops firing callbacks but continues accumulating events.
	Pause()

	// Resume resumes firing callbacks. If events accumulated during pause, fires immediately.
	Resume()
}

// Extractor regenerates the chunk document.
type Extractor interface {
	// Extract re-runs extraction. changed lists the files that triggered it.
	Extract(ctx context.Context, changed []string) (*ExtractStats, error)
}

// ExtractStats summarizes one re-extraction.
type ExtractStats struct {
	Files  int
	Chunks int
	Failed int
}
