package watcher

import (
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionForEvent(t *testing.T) {
	sw, err := New(t.TempDir(), 100*time.Millisecond)
	require.NoError(t, err)
	defer sw.Stop()

	tests := []struct {
		name     string
		event    fsnotify.Event
		session  string
		relevant bool
	}{
		{
			name:     "session write",
			event:    fsnotify.Event{Name: "/p/.revisit/sessions/login.json", Op: fsnotify.Write},
			session:  "login",
			relevant: true,
		},
		{
			name:     "session removed",
			event:    fsnotify.Event{Name: "/p/.revisit/sessions/login.json", Op: fsnotify.Remove},
			session:  "login",
			relevant: true,
		},
		{
			name:     "atomic save temp file",
			event:    fsnotify.Event{Name: "/p/.revisit/sessions/login-123.tmp", Op: fsnotify.Create},
			relevant: false,
		},
		{
			name:     "quarantined corrupt file",
			event:    fsnotify.Event{Name: "/p/.revisit/sessions/login.json.corrupt.1700000000", Op: fsnotify.Create},
			relevant: false,
		},
		{
			name:     "hidden file",
			event:    fsnotify.Event{Name: "/p/.revisit/sessions/.DS_Store", Op: fsnotify.Write},
			relevant: false,
		},
		{
			name:     "non-json file",
			event:    fsnotify.Event{Name: "/p/.revisit/sessions/notes.txt", Op: fsnotify.Write},
			relevant: false,
		},
		{
			name:     "chmod only",
			event:    fsnotify.Event{Name: "/p/.revisit/sessions/login.json", Op: fsnotify.Chmod},
			relevant: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, relevant := sw.sessionForEvent(tt.event)
			assert.Equal(t, tt.relevant, relevant)
			if tt.relevant {
				assert.Equal(t, tt.session, name)
			}
		})
	}
}

func TestFlushPendingDebounces(t *testing.T) {
	sw, err := New(t.TempDir(), 50*time.Millisecond)
	require.NoError(t, err)
	defer sw.Stop()

	var got [][]string
	sw.SetChangeCallback(func(sessions []string) error {
		got = append(got, sessions)
		return nil
	})

	sw.mu.Lock()
	sw.pending["login"] = time.Now()
	sw.mu.Unlock()

	// Still inside the debounce window: nothing flushes
	require.NoError(t, sw.flushPending())
	assert.Empty(t, got)
	assert.Len(t, sw.PendingSessions(), 1)

	time.Sleep(60 * time.Millisecond)

	require.NoError(t, sw.flushPending())
	require.Len(t, got, 1)
	assert.Equal(t, []string{"login"}, got[0])
	assert.Empty(t, sw.PendingSessions())
}
