// Package watch re-runs generation when a manifest or one of its source files
// changes on disk.
package watch

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"anubis/internal/logging"
)

// Watcher watches a fixed set of files and fires one callback per settled
// burst of changes. Callbacks never overlap.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	files       map[string]bool
	dirs        []string
	onChange    func(context.Context) error
	debounceDur time.Duration
	pending     bool
	lastEvent   time.Time
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	closeOnce   sync.Once

	stats Stats
}

// Stats tracks watcher activity.
type Stats struct {
	Events        int
	Runs          int
	Errors        int
	LastEventTime time.Time
	LastEventPath string
	LastEventType string
	LastRunError  string
}

// New creates a watcher for paths. Directories containing them are watched so
// editors that save by rename are still seen.
func New(paths []string, debounce time.Duration, onChange func(context.Context) error) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, errors.New("watch: no paths given")
	}
	if onChange == nil {
		return nil, errors.New("watch: nil callback")
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:     fw,
		files:       make(map[string]bool, len(paths)),
		onChange:    onChange,
		debounceDur: debounce,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}

	seenDir := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, err
		}
		w.files[abs] = true
		if dir := filepath.Dir(abs); !seenDir[dir] {
			seenDir[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}
	return w, nil
}

// Start begins watching. It is non-blocking.
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
			return err
		}
		logging.Watch("watching directory: %s", dir)
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop, including any
// callback in flight.
func (w *Watcher) Stop() {
	w.mu.Lock()
	wasRunning := w.running
	w.running = false
	w.mu.Unlock()

	w.closeOnce.Do(func() {
		close(w.stopCh)
		if wasRunning {
			<-w.doneCh
		}
		if err := w.watcher.Close(); err != nil {
			logging.Get(logging.CategoryWatch).Error("error closing watcher: %v", err)
		}
		logging.Watch("stopped")
	})
}

// Done is closed when the event loop exits.
func (w *Watcher) Done() <-chan struct{} { return w.doneCh }

// Stats returns a snapshot of the counters.
func (w *Watcher) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

func (w *Watcher) tickInterval() time.Duration {
	if tick := w.debounceDur / 4; tick < 100*time.Millisecond {
		return max(tick, time.Millisecond)
	}
	return 100 * time.Millisecond
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.tickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Watch("context cancelled")
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
			logging.Get(logging.CategoryWatch).Error("watcher error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			w.fireIfSettled(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	name := filepath.Clean(event.Name)
	if !w.files[name] {
		return
	}

	var eventType string
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = "create"
	case event.Op&fsnotify.Write != 0:
		eventType = "modify"
	case event.Op&fsnotify.Remove != 0:
		eventType = "delete"
	case event.Op&fsnotify.Rename != 0:
		eventType = "rename"
	default:
		return // chmod
	}
	logging.WatchDebug("%s event for %s", eventType, name)

	w.mu.Lock()
	now := time.Now()
	w.stats.Events++
	w.stats.LastEventTime = now
	w.stats.LastEventPath = name
	w.stats.LastEventType = eventType
	w.pending = true
	w.lastEvent = now
	w.mu.Unlock()
}

func (w *Watcher) fireIfSettled(ctx context.Context) {
	w.mu.Lock()
	if !w.pending || time.Since(w.lastEvent) < w.debounceDur {
		w.mu.Unlock()
		return
	}
	w.pending = false
	w.mu.Unlock()

	logging.Watch("change settled, regenerating")
	err := w.onChange(ctx)

	w.mu.Lock()
	w.stats.Runs++
	if err != nil {
		w.stats.Errors++
		w.stats.LastRunError = err.Error()
	} else {
		w.stats.LastRunError = ""
	}
	w.mu.Unlock()

	if err != nil {
		logging.Get(logging.CategoryWatch).Error("regeneration failed: %v", err)
	}
}
