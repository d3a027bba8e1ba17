package watcher

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a batch of changes is delivered.
const DefaultDebounce = 500 * time.Millisecond

// Options configures a file watcher.
type Options struct {
	// Extensions lists the file extensions that trigger callbacks (".py").
	Extensions []string

	// SkipDir reports whether a directory, given relative to the watched
	// root with forward slashes, should not be watched. May be nil.
	SkipDir func(rel string) bool

	// Debounce overrides DefaultDebounce when positive.
	Debounce time.Duration
}

// fileWatcher implements FileWatcher on top of fsnotify.
type fileWatcher struct {
	watcher       *fsnotify.Watcher
	root          string
	extensions    map[string]bool
	skipDir       func(rel string) bool
	debounceTime  time.Duration
	callback      func(files []string)
	ctx           context.Context
	cancel        context.CancelFunc
	paused        bool
	pausedMu      sync.RWMutex
	pending       map[string]bool // Changed files not yet delivered
	pendingMu     sync.Mutex
	debounceTimer *time.Timer
	timerMu       sync.Mutex
	stopOnce      sync.Once
	doneCh        chan struct{}
}

// NewFileWatcher creates a watcher for every directory under root that
// SkipDir does not exclude.
func NewFileWatcher(root string, opts Options) (FileWatcher, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("watch root is not a directory: " + root)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	extMap := make(map[string]bool, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		extMap[ext] = true
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw := &fileWatcher{
		watcher:      w,
		root:         root,
		extensions:   extMap,
		skipDir:      opts.SkipDir,
		debounceTime: debounce,
		pending:      make(map[string]bool),
		doneCh:       make(chan struct{}),
	}

	if err := fw.addTree(root); err != nil {
		w.Close()
		return nil, err
	}

	return fw, nil
}

// Start begins watching for file changes.
func (fw *fileWatcher) Start(ctx context.Context, callback func(files []string)) error {
	if callback == nil {
		return nil
	}

	fw.callback = callback
	fw.ctx, fw.cancel = context.WithCancel(ctx)

	go fw.watch()
	return nil
}

// Stop stops the file watcher. Safe to call more than once.
func (fw *fileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		if fw.cancel != nil {
			fw.cancel()
			<-fw.doneCh
		} else {
			close(fw.doneCh)
		}
		err = fw.watcher.Close()
	})
	return err
}

// Pause stops firing callbacks but continues accumulating events.
func (fw *fileWatcher) Pause() {
	fw.pausedMu.Lock()
	defer fw.pausedMu.Unlock()
	fw.paused = true
}

// Resume resumes firing callbacks, delivering anything that accumulated
// while paused.
func (fw *fileWatcher) Resume() {
	fw.pausedMu.Lock()
	wasPaused := fw.paused
	fw.paused = false
	fw.pausedMu.Unlock()

	if wasPaused {
		fw.flush()
	}
}

func (fw *fileWatcher) watch() {
	defer close(fw.doneCh)

	fire := make(chan struct{}, 1)

	for {
		select {
		case <-fw.ctx.Done():
			fw.stopDebounceTimer()
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fw.addTree(event.Name); err != nil {
						log.Printf("Warning: failed to watch new directory %s: %v", event.Name, err)
					}
				}
			}

			if !fw.relevant(event) {
				continue
			}

			fw.pendingMu.Lock()
			fw.pending[event.Name] = true
			fw.pendingMu.Unlock()

			fw.resetDebounceTimer(fire)

		case <-fire:
			fw.pausedMu.RLock()
			paused := fw.paused
			fw.pausedMu.RUnlock()
			if !paused {
				fw.flush()
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Warning: file watcher error: %v", err)
		}
	}
}

// flush delivers and clears the pending set, sorted for stable output.
func (fw *fileWatcher) flush() {
	fw.pendingMu.Lock()
	if len(fw.pending) == 0 {
		fw.pendingMu.Unlock()
		return
	}
	files := make([]string, 0, len(fw.pending))
	for file := range fw.pending {
		files = append(files, file)
	}
	fw.pending = make(map[string]bool)
	fw.pendingMu.Unlock()

	sort.Strings(files)
	if fw.callback != nil {
		fw.callback(files)
	}
}

func (fw *fileWatcher) resetDebounceTimer(fire chan struct{}) {
	fw.timerMu.Lock()
	defer fw.timerMu.Unlock()

	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
	}

	fw.debounceTimer = time.AfterFunc(fw.debounceTime, func() {
		select {
		case fire <- struct{}{}:
		default:
		}
	})
}

func (fw *fileWatcher) stopDebounceTimer() {
	fw.timerMu.Lock()
	defer fw.timerMu.Unlock()

	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
		fw.debounceTimer = nil
	}
}

// relevant reports whether event touches a watched file type. Renames count
// because editors often save by renaming a temp file over the original.
func (fw *fileWatcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return fw.extensions[filepath.Ext(event.Name)]
}

// addTree watches dir and every subdirectory not excluded by skipDir.
func (fw *fileWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			log.Printf("Warning: error accessing %s: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		if path != fw.root && fw.skipDir != nil {
			if rel, err := filepath.Rel(fw.root, path); err == nil && fw.skipDir(filepath.ToSlash(rel)) {
				return filepath.SkipDir
			}
		}

		if err := fw.watcher.Add(path); err != nil {
			log.Printf("Warning: failed to watch directory %s: %v", path, err)
		}
		return nil
	})
}
