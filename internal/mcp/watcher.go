package mcp

import (
	"context"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mvp-joe/code-critic/internal/storage"
)

// Reloadable is an interface for components that can be reloaded.
type Reloadable interface {
	Reload(ctx context.Context) error
}

// IndexWatcher reloads a Reloadable after the catalog in an index directory
// is rewritten, for example by `critic embed` running in another process.
type IndexWatcher struct {
	reloadable   Reloadable
	watcher      *fsnotify.Watcher
	debounceTime time.Duration
	stopCh       chan struct{}
	doneCh       chan struct{}
	startOnce    sync.Once
	stopOnce     sync.Once
}

// NewIndexWatcher watches indexDir, which must exist.
func NewIndexWatcher(reloadable Reloadable, indexDir string) (*IndexWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := w.Add(indexDir); err != nil {
		w.Close()
		return nil, err
	}

	return &IndexWatcher{
		reloadable:   reloadable,
		watcher:      w,
		debounceTime: 500 * time.Millisecond,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}, nil
}

// Start begins watching in the background.
func (iw *IndexWatcher) Start(ctx context.Context) {
	iw.startOnce.Do(func() { go iw.watch(ctx) })
}

// Stop stops watching. Safe to call more than once, and before Start.
func (iw *IndexWatcher) Stop() {
	iw.stopOnce.Do(func() {
		close(iw.stopCh)
		started := true
		iw.startOnce.Do(func() { started = false })
		if started {
			<-iw.doneCh
		}
		iw.watcher.Close()
	})
}

func (iw *IndexWatcher) watch(ctx context.Context) {
	defer close(iw.doneCh)

	var timer *time.Timer
	reloadCh := make(chan struct{}, 1)
	stopTimer := func() {
		if timer != nil {
			timer.Stop()
		}
	}

	for {
		select {
		case <-ctx.Done():
			stopTimer()
			return

		case <-iw.stopCh:
			stopTimer()
			return

		case event, ok := <-iw.watcher.Events:
			if !ok {
				return
			}
			if !isCatalogEvent(event) {
				continue
			}
			stopTimer()
			timer = time.AfterFunc(iw.debounceTime, func() {
				select {
				case reloadCh <- struct{}{}:
				default:
				}
			})

		case <-reloadCh:
			iw.reload(ctx)

		case err, ok := <-iw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Warning: index watcher error: %v", err)
		}
	}
}

// isCatalogEvent matches writes to the catalog database and its journal.
func isCatalogEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	return strings.HasPrefix(filepath.Base(event.Name), storage.CatalogFile)
}

func (iw *IndexWatcher) reload(ctx context.Context) {
	log.Printf("Reloading index...")
	start := time.Now()

	if err := iw.reloadable.Reload(ctx); err != nil {
		log.Printf("Error reloading index: %v (keeping old state)", err)
		return
	}

	log.Printf("Reloaded index in %v", time.Since(start))
}
