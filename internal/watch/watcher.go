// Package watch rebuilds when the inputs of a run change on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"mjset/internal/logging"
)

// DefaultDebounce lets editors finish their save before a rebuild starts.
const DefaultDebounce = 300 * time.Millisecond

// ChangeFunc is called once per settled burst of changes with the changed files.
type ChangeFunc func(ctx context.Context, paths []string)

// Watcher watches a fixed set of files. It watches their parent directories so
// that atomic saves (write to temp, rename over) are seen.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	files       map[string]struct{}
	dirs        []string
	onChange    ChangeFunc
	log         *zap.Logger
	debounceMap map[string]time.Time
	debounceDur time.Duration
	tick        time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats Stats
}

// Stats tracks watcher activity.
type Stats struct {
	Events        int
	Rebuilds      int
	Errors        int
	LastEventTime time.Time
	LastEventPath string
}

// New creates a watcher over files. Empty paths are ignored.
func New(files []string, onChange ChangeFunc, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		watcher:     fw,
		files:       make(map[string]struct{}),
		onChange:    onChange,
		log:         logging.For(logger, logging.CategoryWatch),
		debounceMap: make(map[string]time.Time),
		debounceDur: DefaultDebounce,
		tick:        50 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}

	seen := make(map[string]bool)
	for _, f := range files {
		if f == "" {
			continue
		}
		abs, err := filepath.Abs(f)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to resolve %s: %w", f, err)
		}
		w.files[abs] = struct{}{}
		if dir := filepath.Dir(abs); !seen[dir] {
			seen[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}
	sort.Strings(w.dirs)
	return w, nil
}

// SetDebounce changes the settle window. Call before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounceDur = d
	if d < w.tick {
		w.tick = max(d, time.Millisecond)
	}
}

// Start begins watching. It is non-blocking; the event loop runs until ctx
// is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	for _, dir := range w.dirs {
		if err := w.watcher.Add(dir); err != nil {
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		w.log.Debug("Watching directory", zap.String("dir", dir))
	}

	go w.run(ctx)

	w.log.Info("Watching for changes", zap.Int("files", len(w.files)))
	return nil
}

// Stop stops the watcher and waits for the event loop to exit. The watcher
// is closed even if it never started.
func (w *Watcher) Stop() {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}

	if err := w.watcher.Close(); err != nil {
		w.log.Error("Failed to close watcher", zap.Error(err))
	}
	w.log.Debug("Watcher stopped")
}

// Stats returns a snapshot of the counters.
func (w *Watcher) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	w.mu.RLock()
	ticker := time.NewTicker(w.tick)
	w.mu.RUnlock()
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context cancelled")
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("Watcher error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			w.processDebounced(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return
	}
	path := filepath.Clean(event.Name)
	if _, ok := w.files[path]; !ok {
		return
	}

	w.log.Debug("File changed", zap.String("path", path), zap.String("op", event.Op.String()))

	w.mu.Lock()
	w.stats.Events++
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = path
	w.debounceMap[path] = time.Now()
	w.mu.Unlock()
}

// processDebounced fires onChange once if every pending file has settled.
func (w *Watcher) processDebounced(ctx context.Context) {
	w.mu.Lock()
	if len(w.debounceMap) == 0 {
		w.mu.Unlock()
		return
	}
	now := time.Now()
	for _, t := range w.debounceMap {
		if now.Sub(t) < w.debounceDur {
			w.mu.Unlock()
			return
		}
	}
	paths := make([]string, 0, len(w.debounceMap))
	for p := range w.debounceMap {
		paths = append(paths, p)
	}
	clear(w.debounceMap)
	w.stats.Rebuilds++
	w.mu.Unlock()

	sort.Strings(paths)
	w.log.Info("Inputs changed, rebuilding", zap.Strings("paths", paths))
	if w.onChange != nil {
		w.onChange(ctx, paths)
	}
}
