package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) *Logger {
	t.Helper()
	l := &Logger{level: LevelInfo}
	require.NoError(t, l.open(filepath.Join(t.TempDir(), "revisit.log")))
	t.Cleanup(func() { l.Close() })
	return l
}

func TestWrite_LevelFiltering(t *testing.T) {
	l := newTestLogger(t)

	l.write(LevelDebug, "hidden %d", 1)
	l.write(LevelWarn, "shown %d", 2)

	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "[WARN] shown 2")
}

func TestRotate_KeepsOneGeneration(t *testing.T) {
	l := newTestLogger(t)
	l.write(LevelInfo, "first")

	l.mu.Lock()
	l.size = rotateAt
	l.mu.Unlock()
	l.write(LevelInfo, "second")

	old, err := os.ReadFile(l.Path() + ".old")
	require.NoError(t, err)
	assert.Contains(t, string(old), "first")

	cur, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Contains(t, string(cur), "second")
	assert.NotContains(t, string(cur), "first")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
	assert.Equal(t, LevelWarn, ParseLevel("warn"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("loud"))
}
