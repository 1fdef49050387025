package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/campus-monopoly/game/service"
)

const sessionExt = ".json"

// FilePersistence keeps each session in <dir>/<id>.json. Writes go through a
// temporary file and a rename, so a crash mid-save leaves the previous turn
// on disk rather than a truncated record.
type FilePersistence struct {
	dir     string
	configs service.ConfigManager
}

// NewFilePersistence creates dir if needed
func NewFilePersistence(dir string, configs service.ConfigManager) (*FilePersistence, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create sessions directory: %w", err)
	}
	return &FilePersistence{dir: dir, configs: configs}, nil
}

func (fp *FilePersistence) path(id string) (string, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" || strings.ContainsAny(id, `/\. `) {
		return "", ErrInvalidSessionID
	}
	return filepath.Join(fp.dir, id+sessionExt), nil
}

// Save writes the session's config and state
func (fp *FilePersistence) Save(session *service.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}
	path, err := fp.path(session.ID)
	if err != nil {
		return err
	}
	data, err := encodeSession(session)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(fp.dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("save session %s: %w", session.ID, err)
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("save session %s: %w", session.ID, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save session %s: %w", session.ID, err)
	}
	return nil
}

// Load rebuilds a session from its file
func (fp *FilePersistence) Load(id string) (*service.Session, error) {
	path, err := fp.path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return decodeSession(data, fp.configs)
}

// Delete removes the session's file
func (fp *FilePersistence) Delete(id string) error {
	path, err := fp.path(id)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// ListAll returns the stored session IDs in order
func (fp *FilePersistence) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fp.dir)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != sessionExt {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, sessionExt))
	}
	sort.Strings(ids)
	return ids, nil
}

// Exists reports whether a file is stored for id
func (fp *FilePersistence) Exists(id string) bool {
	path, err := fp.path(id)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}
