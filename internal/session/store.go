package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ciciliostudio/revisit/internal/logging"
)

// Store persists session records as one JSON file per name. Writes are
// atomic (temp file, sync, rename) so concurrent readers never observe a
// partial file. Corrupt files are quarantined, never fatal.
type Store struct {
	dir string
}

// Summary describes one stored session for listings
type Summary struct {
	Name         string
	URL          string
	Size         int64
	LastAccessed string
}

// NewStore creates a store rooted at the given directory
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the directory the store writes into
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file path for a session name
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.json", name))
}

// LoadOrCreate loads the named session, returning a fresh record when none
// exists. A corrupt file is renamed aside with a timestamp suffix and a
// fresh record is returned; this call never fails.
func (s *Store) LoadOrCreate(name string) *Record {
	path := s.Path(name)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warn("Could not read session %s: %v", name, err)
		}
		return NewRecord(name)
	}

	rec, err := Deserialize(data)
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			s.quarantine(path)
		}
		logging.Warn("Session %s was corrupt, starting fresh: %v", name, err)
		return NewRecord(name)
	}

	if rec.Name == "" {
		rec.Name = name
	}
	return rec
}

// Save writes the record atomically and refreshes its last-accessed time
func (s *Store) Save(rec *Record) error {
	if rec.Name == "" {
		return fmt.Errorf("cannot save session without a name")
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create sessions directory: %w", err)
	}

	rec.Touch()
	data, err := rec.Serialize()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, rec.Name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp session file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close session file: %w", err)
	}

	if err := os.Rename(tmpPath, s.Path(rec.Name)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace session file: %w", err)
	}

	return nil
}

// Delete removes the named session file
func (s *Store) Delete(name string) error {
	err := os.Remove(s.Path(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session %s: %w", name, err)
	}
	return nil
}

// List returns summaries for every readable session file, sorted by name.
// Unreadable or invalid entries are skipped, not fatal.
func (s *Store) List() ([]Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Summary{}, nil
		}
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var summaries []Summary
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		rec, err := Deserialize(data)
		if err != nil {
			continue
		}

		name := rec.Name
		if name == "" {
			name = strings.TrimSuffix(entry.Name(), ".json")
		}

		info, err := entry.Info()
		var size int64
		if err == nil {
			size = info.Size()
		}

		summaries = append(summaries, Summary{
			Name:         name,
			URL:          rec.CurrentURL,
			Size:         size,
			LastAccessed: humanTime(rec.LastAccessed),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Name < summaries[j].Name
	})

	return summaries, nil
}

// quarantine renames a corrupt file aside so it is preserved for inspection
func (s *Store) quarantine(path string) {
	backup := fmt.Sprintf("%s.corrupt.%d", path, time.Now().Unix())
	if err := os.Rename(path, backup); err != nil {
		logging.Warn("Could not quarantine corrupt session file %s: %v", path, err)
		return
	}
	logging.Info("Quarantined corrupt session file to %s", backup)
}

func humanTime(unix int64) string {
	if unix == 0 {
		return "never"
	}
	return time.Unix(unix, 0).Format("2006-01-02 15:04:05")
}
