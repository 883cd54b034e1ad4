package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordAndHistory(t *testing.T) {
	j := openTestJournal(t)

	id1, err := j.RecordRun("login", KindCapture, true, "", 1200*time.Millisecond)
	require.NoError(t, err)
	assert.NotEmpty(t, id1)

	id2, err := j.RecordRun("login", KindResume, false, "navigation failed", 300*time.Millisecond)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	_, err = j.RecordRun("checkout", KindReplay, true, "", 50*time.Millisecond)
	require.NoError(t, err)

	runs, err := j.History("login", 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Newest first
	assert.Equal(t, KindResume, runs[0].Kind)
	assert.False(t, runs[0].OK)
	assert.Equal(t, "navigation failed", runs[0].Detail)
	assert.Equal(t, int64(300), runs[0].DurationMs)

	assert.Equal(t, KindCapture, runs[1].Kind)
	assert.True(t, runs[1].OK)
	assert.Equal(t, int64(1200), runs[1].DurationMs)
}

func TestHistoryAcrossAllSessions(t *testing.T) {
	j := openTestJournal(t)

	_, err := j.RecordRun("a", KindCapture, true, "", time.Second)
	require.NoError(t, err)
	_, err = j.RecordRun("b", KindReplay, true, "", time.Second)
	require.NoError(t, err)

	runs, err := j.History("", 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestHistoryLimit(t *testing.T) {
	j := openTestJournal(t)

	for i := 0; i < 5; i++ {
		_, err := j.RecordRun("login", KindReplay, true, "", time.Millisecond)
		require.NoError(t, err)
	}

	runs, err := j.History("login", 3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestPurge(t *testing.T) {
	j := openTestJournal(t)

	_, err := j.RecordRun("login", KindCapture, true, "", time.Second)
	require.NoError(t, err)
	_, err = j.RecordRun("checkout", KindCapture, true, "", time.Second)
	require.NoError(t, err)

	require.NoError(t, j.Purge("login"))

	runs, err := j.History("", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "checkout", runs[0].Session)
}

func TestStatistics(t *testing.T) {
	j := openTestJournal(t)

	_, err := j.RecordRun("login", KindCapture, true, "", time.Second)
	require.NoError(t, err)
	_, err = j.RecordRun("login", KindResume, false, "timeout", time.Second)
	require.NoError(t, err)
	_, err = j.RecordRun("checkout", KindReplay, true, "", time.Second)
	require.NoError(t, err)

	stats, err := j.Statistics()
	require.NoError(t, err)
	assert.Equal(t, 3, stats["total_runs"])
	assert.Equal(t, 1, stats["failed_runs"])
	assert.Equal(t, 2, stats["sessions"])
}
