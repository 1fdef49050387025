package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wricardo/campus-monopoly/game/engine"
)

// ErrPersistence wraps every snapshot and player record write failure
var ErrPersistence = errors.New("persistence failed")

// SnapshotFilename returns the default snapshot name for a moment in time
func SnapshotFilename(t time.Time) string {
	return fmt.Sprintf("umd_monopoly_%s.json", t.Format("20060102_150405"))
}

// SaveSnapshot writes the snapshot as indented JSON into dir and returns
// the file name used. An empty filename picks a timestamped default.
func SaveSnapshot(dir string, snapshot engine.Snapshot, filename string) (string, error) {
	if filename == "" {
		filename = SnapshotFilename(time.Now())
	}
	if strings.ContainsAny(filename, `/\`) || filename == "." || filename == ".." {
		return "", fmt.Errorf("%w: invalid file name %q", ErrPersistence, filename)
	}
	if filepath.Ext(filename) == "" {
		filename += ".json"
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: marshal snapshot: %v", ErrPersistence, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("%w: create %s: %v", ErrPersistence, dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		return "", fmt.Errorf("%w: write %s: %v", ErrPersistence, filename, err)
	}
	return filename, nil
}

// LoadPlayerRecord reads a saved player record. Missing or malformed
// files report false rather than an error.
func LoadPlayerRecord(path string) (*engine.PlayerRecord, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var rec engine.PlayerRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false
	}
	return &rec, true
}

// SavePlayerRecord writes a player record as indented JSON
func SavePlayerRecord(path string, rec engine.PlayerRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal player record: %v", ErrPersistence, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrPersistence, path, err)
	}
	return nil
}

// SnapshotStore saves snapshots into a fixed directory
type SnapshotStore struct {
	dir string
}

// NewSnapshotStore creates a store rooted at dir
func NewSnapshotStore(dir string) *SnapshotStore {
	return &SnapshotStore{dir: dir}
}

// Dir returns the directory snapshots are written to
func (s *SnapshotStore) Dir() string {
	return s.dir
}

// SaveSnapshot implements service.SnapshotStore
func (s *SnapshotStore) SaveSnapshot(snapshot engine.Snapshot, filename string) (string, error) {
	return SaveSnapshot(s.dir, snapshot, filename)
}
