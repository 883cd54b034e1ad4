// Package watcher monitors the session directory for changes made outside
// the current process, so long-lived views (the TUI picker, `sessions list
// --watch`) stay in sync with sessions edited or deleted by other revisit
// invocations.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ciciliostudio/revisit/internal/logging"
)

// SessionWatcher monitors a session directory and reports which sessions
// changed, debounced so a burst of writes to one file yields one callback
type SessionWatcher struct {
	dir     string
	watcher *fsnotify.Watcher

	debounce time.Duration

	mu       sync.RWMutex
	watching bool
	pending  map[string]time.Time

	onChanged func(sessions []string) error
}

// New creates a watcher over the given session directory
func New(dir string, debounce time.Duration) (*SessionWatcher, error) {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &SessionWatcher{
		dir:      dir,
		watcher:  fsWatcher,
		debounce: debounce,
		pending:  make(map[string]time.Time),
	}, nil
}

// SetChangeCallback sets the callback invoked with changed session names
func (sw *SessionWatcher) SetChangeCallback(callback func(sessions []string) error) {
	sw.onChanged = callback
}

// Start begins watching and blocks until the context is cancelled
func (sw *SessionWatcher) Start(ctx context.Context) error {
	sw.mu.Lock()
	if sw.watching {
		sw.mu.Unlock()
		return fmt.Errorf("watcher is already running")
	}
	sw.watching = true
	sw.mu.Unlock()

	if err := sw.watcher.Add(sw.dir); err != nil {
		return fmt.Errorf("failed to watch session directory: %w", err)
	}

	ticker := time.NewTicker(sw.debounce)
	defer ticker.Stop()

	logging.Info("Watching session directory %s (debounce: %s)", sw.dir, sw.debounce)

	for {
		select {
		case <-ctx.Done():
			sw.Stop()
			return ctx.Err()

		case event, ok := <-sw.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}

			name, relevant := sw.sessionForEvent(event)
			if !relevant {
				continue
			}

			sw.mu.Lock()
			sw.pending[name] = time.Now()
			sw.mu.Unlock()

		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			logging.Warn("Session watcher error: %v", err)

		case <-ticker.C:
			if err := sw.flushPending(); err != nil {
				logging.Error("Failed to process session changes: %v", err)
			}
		}
	}
}

// Stop stops the watcher
func (sw *SessionWatcher) Stop() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.watching {
		sw.watcher.Close()
		sw.watching = false
	}
}

// IsWatching reports whether the watcher loop is running
func (sw *SessionWatcher) IsWatching() bool {
	sw.mu.RLock()
	defer sw.mu.RUnlock()
	return sw.watching
}

// sessionForEvent maps a filesystem event to a session name. Temp files
// from atomic saves and quarantined corrupt files are not sessions.
func (sw *SessionWatcher) sessionForEvent(event fsnotify.Event) (string, bool) {
	const interesting = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename
	if event.Op&interesting == 0 {
		return "", false
	}

	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return "", false
	}
	if strings.HasSuffix(base, ".tmp") || strings.Contains(base, ".corrupt.") {
		return "", false
	}
	if filepath.Ext(base) != ".json" {
		return "", false
	}

	return strings.TrimSuffix(base, ".json"), true
}

// flushPending invokes the callback for sessions whose last event is older
// than the debounce window
func (sw *SessionWatcher) flushPending() error {
	sw.mu.Lock()

	if len(sw.pending) == 0 {
		sw.mu.Unlock()
		return nil
	}

	threshold := time.Now().Add(-sw.debounce)
	var changed []string
	for name, stamp := range sw.pending {
		if stamp.Before(threshold) {
			changed = append(changed, name)
			delete(sw.pending, name)
		}
	}

	sw.mu.Unlock()

	if len(changed) == 0 {
		return nil
	}

	logging.Debug("Detected changes in %d session(s)", len(changed))

	if sw.onChanged != nil {
		return sw.onChanged(changed)
	}
	return nil
}

// PendingSessions returns sessions waiting out the debounce window
func (sw *SessionWatcher) PendingSessions() map[string]time.Time {
	sw.mu.RLock()
	defer sw.mu.RUnlock()

	result := make(map[string]time.Time, len(sw.pending))
	for k, v := range sw.pending {
		result[k] = v
	}
	return result
}
