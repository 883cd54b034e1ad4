package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveAndLoad(t *testing.T) {
	store := NewStore(t.TempDir())

	rec := NewRecord("login-flow")
	rec.PushHistory("https://example.com/login")
	rec.SetCookie(Cookie{Name: "sid", Domain: "example.com", Path: "/", Value: "abc"})

	require.NoError(t, store.Save(rec))

	got := store.LoadOrCreate("login-flow")
	assert.Equal(t, "https://example.com/login", got.CurrentURL)
	require.Len(t, got.Cookies, 1)
	assert.Equal(t, "abc", got.Cookies[0].Value)
	assert.NotZero(t, got.LastAccessed)
}

func TestStore_LoadOrCreate_Missing(t *testing.T) {
	store := NewStore(t.TempDir())

	got := store.LoadOrCreate("brand-new")
	require.NotNil(t, got)
	assert.Equal(t, "brand-new", got.Name)
	assert.Equal(t, -1, got.HistoryIndex)
}

func TestStore_LoadOrCreate_QuarantinesCorruptFile(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	path := store.Path("broken")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(path, []byte("{{{ definitely not json"), 0644))

	got := store.LoadOrCreate("broken")
	require.NotNil(t, got)
	assert.Equal(t, "broken", got.Name)
	assert.Empty(t, got.History)

	// Original file renamed aside, not deleted
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var quarantined bool
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".corrupt.") {
			quarantined = true
		}
	}
	assert.True(t, quarantined, "expected a quarantined backup file")
}

func TestStore_Save_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	rec := NewRecord("atomic")
	require.NoError(t, store.Save(rec))
	require.NoError(t, store.Save(rec))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasSuffix(entry.Name(), ".tmp"), "leftover temp file: %s", entry.Name())
	}
}

func TestStore_Delete(t *testing.T) {
	store := NewStore(t.TempDir())

	rec := NewRecord("doomed")
	require.NoError(t, store.Save(rec))
	require.NoError(t, store.Delete("doomed"))

	_, err := os.Stat(store.Path("doomed"))
	assert.True(t, os.IsNotExist(err))

	// Deleting a missing session is not an error
	assert.NoError(t, store.Delete("doomed"))
}

func TestStore_List(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	a := NewRecord("alpha")
	a.PushHistory("https://example.com/a")
	require.NoError(t, store.Save(a))

	b := NewRecord("beta")
	require.NoError(t, store.Save(b))

	// An unreadable entry is skipped, not fatal
	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk.json"), []byte("not json"), 0644))

	summaries, err := store.List()
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "alpha", summaries[0].Name)
	assert.Equal(t, "https://example.com/a", summaries[0].URL)
	assert.Equal(t, "beta", summaries[1].Name)
	assert.NotEmpty(t, summaries[0].LastAccessed)
}

func TestStore_List_EmptyDir(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "does-not-exist"))

	summaries, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, summaries)
}
