package audio

import (
	"context"
	"log/slog"
	"maps"
	"os"
	"sync"
	"time"
)

// Watcher polls sound files and calls back when one changes on disk.
type Watcher struct {
	mu     sync.RWMutex
	logger *slog.Logger

	// Watched paths with their last modification times
	watchedPaths map[string]time.Time
	pollInterval time.Duration
	onChange     func(path string)

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewWatcher creates a new sound file watcher.
func NewWatcher(onChange func(path string), logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		logger:       logger,
		onChange:     onChange,
		watchedPaths: make(map[string]time.Time),
		pollInterval: 2 * time.Second,
	}
}

// SetPollInterval sets the polling interval for file changes.
func (w *Watcher) SetPollInterval(interval time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pollInterval = interval
}

// SetPaths replaces the watched set.
func (w *Watcher) SetPaths(paths ...string) {
	next := make(map[string]time.Time, len(paths))
	for _, path := range paths {
		if path == "" {
			continue
		}
		var modTime time.Time
		if info, err := os.Stat(path); err == nil {
			modTime = info.ModTime()
		}
		next[path] = modTime
	}

	w.mu.Lock()
	w.watchedPaths = next
	w.mu.Unlock()
}

// Paths returns the watched paths.
func (w *Watcher) Paths() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	paths := make([]string, 0, len(w.watchedPaths))
	for path := range w.watchedPaths {
		paths = append(paths, path)
	}
	return paths
}

// Start begins polling.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	interval := w.pollInterval
	w.mu.Unlock()

	go w.watchLoop(ctx, interval, w.stopCh, w.doneCh)

	w.logger.Debug("audio watcher started", "interval", interval)
	return nil
}

// Stop stops polling.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	done := w.doneCh
	w.mu.Unlock()

	<-done
	w.logger.Debug("audio watcher stopped")
}

// IsRunning returns whether the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

func (w *Watcher) watchLoop(ctx context.Context, interval time.Duration, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			w.checkForChanges()
		}
	}
}

// checkForChanges reports files whose modification time moved forward.
func (w *Watcher) checkForChanges() {
	w.mu.RLock()
	paths := maps.Clone(w.watchedPaths)
	onChange := w.onChange
	w.mu.RUnlock()

	for path, lastModTime := range paths {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}

		modTime := info.ModTime()
		if !modTime.After(lastModTime) {
			continue
		}

		w.mu.Lock()
		if _, still := w.watchedPaths[path]; still {
			w.watchedPaths[path] = modTime
		}
		w.mu.Unlock()

		w.logger.Debug("sound file changed", "path", path)
		if onChange != nil {
			onChange(path)
		}
	}
}
