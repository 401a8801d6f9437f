package preview

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DebounceInterval coalesces bursts of file events into one change.
const DebounceInterval = 100 * time.Millisecond

// Re-adding a watch after the file was replaced retries for up to
// rewatchAttempts*rewatchDelay.
const (
	rewatchAttempts = 20
	rewatchDelay    = 50 * time.Millisecond
)

// Watcher watches a single file and reports debounced changes. Editors that
// save by replacing the file are handled by re-adding the watch.
type Watcher struct {
	watcher *fsnotify.Watcher
	path    string
	logger  zerolog.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher starts watching path.
func NewWatcher(path string, logger zerolog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{watcher: fw, path: path, logger: logger}, nil
}

// Run delivers debounced change notifications to onChange until ctx ends or
// Close is called. It closes the underlying watcher on return.
func (w *Watcher) Run(ctx context.Context, onChange func()) {
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			switch {
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
				w.debounce(onChange)
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				if w.rewatch(ctx) {
					w.debounce(onChange)
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Str("path", w.path).Msg("watcher error")
		}
	}
}

// rewatch waits for the file to reappear and watches it again.
func (w *Watcher) rewatch(ctx context.Context) bool {
	_ = w.watcher.Remove(w.path)
	for range rewatchAttempts {
		if err := w.watcher.Add(w.path); err == nil {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(rewatchDelay):
		}
	}
	w.logger.Warn().Str("path", w.path).Msg("file disappeared, stopped watching")
	return false
}

func (w *Watcher) debounce(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(DebounceInterval, fn)
}

// Close stops the watcher and any pending notification.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.watcher.Close()
}
