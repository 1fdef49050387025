package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/campus-monopoly/game/engine"
	"github.com/wricardo/campus-monopoly/game/service"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// DefaultConfigName is loaded as the default when present
const DefaultConfigName = "umd"

const extension = ".json"

// board is a validated configuration with its listing summary
type board struct {
	config *engine.GameConfig
	info   *service.ConfigInfo
}

// Manager loads board configurations from a directory of JSON files. Every
// file is checked by building its board before it is cached, so a cached
// configuration can always start a game.
type Manager struct {
	dir      string
	mu       sync.RWMutex
	boards   map[string]*board
	fallback *engine.GameConfig
}

// NewManager creates a manager for dir, which must exist. The default board
// is umd.json, else the first valid file, else the built-in campus board.
func NewManager(dir string) (*Manager, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("config directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("config directory %s: not a directory", dir)
	}

	m := &Manager{
		dir:    dir,
		boards: make(map[string]*board),
	}
	if err := m.RefreshCache(); err != nil {
		return nil, err
	}
	return m, nil
}

// configID turns a name or file name into a cache key. Names that could
// leave the directory have no ID.
func configID(name string) (string, bool) {
	id := strings.TrimSuffix(strings.TrimSpace(name), extension)
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", false
	}
	return id, true
}

func (m *Manager) path(id string) string {
	return filepath.Join(m.dir, id+extension)
}

// LoadConfig returns the configuration stored as <name>.json
func (m *Manager) LoadConfig(name string) (*engine.GameConfig, error) {
	b, err := m.load(name)
	if err != nil {
		return nil, err
	}
	return b.config, nil
}

func (m *Manager) load(name string) (*board, error) {
	id, ok := configID(name)
	if !ok {
		return nil, ErrConfigNotFound
	}

	m.mu.RLock()
	b, cached := m.boards[id]
	m.mu.RUnlock()
	if cached {
		return b, nil
	}

	data, err := os.ReadFile(m.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", id, err)
	}

	config, err := decode(data)
	if err != nil {
		return nil, err
	}
	b, err = check(id, config)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// another reader may have won the race
	if existing, ok := m.boards[id]; ok {
		return existing, nil
	}
	m.boards[id] = b
	return b, nil
}

// decode rejects fields the engine does not know
func decode(data []byte) (*engine.GameConfig, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var config engine.GameConfig
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &config, nil
}

// check validates the rules and builds the board once to summarize it
func check(id string, config *engine.GameConfig) (*board, error) {
	if err := engine.ValidateGameConfig(config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	b, err := engine.NewBoard(config)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	properties := 0
	for _, p := range engine.BuildCatalog(config, b) {
		if p.Purchasable() {
			properties++
		}
	}
	return &board{
		config: config,
		info: &service.ConfigInfo{
			Filename:      id + extension,
			ConfigID:      id,
			Name:          config.Name,
			Description:   config.Description,
			BoardSize:     b.Size(),
			GroupCount:    len(b.Groups()),
			PropertyCount: properties,
			StartingCash:  config.StartingCash,
			TurnCap:       config.TurnCap,
			JailArrest:    config.JailArrest,
		},
	}, nil
}

// ids lists the configuration files in the directory, sorted
func (m *Manager) ids() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("read config directory: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != extension {
			continue
		}
		if id, ok := configID(entry.Name()); ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// ListConfigs summarizes every valid configuration. Files that fail to load
// are left out.
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	ids, err := m.ids()
	if err != nil {
		return nil, err
	}
	var infos []*service.ConfigInfo
	for _, id := range ids {
		b, err := m.load(id)
		if err != nil {
			continue
		}
		infos = append(infos, b.info)
	}
	return infos, nil
}

// GetDefault returns the board new sessions use when none is named
func (m *Manager) GetDefault() *engine.GameConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fallback
}

// SetDefault makes the named configuration the default
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.fallback = config
	m.mu.Unlock()
	return nil
}

// ReloadConfig drops a cached configuration and reads it again from disk
func (m *Manager) ReloadConfig(name string) error {
	id, ok := configID(name)
	if !ok {
		return ErrConfigNotFound
	}
	m.mu.Lock()
	delete(m.boards, id)
	m.mu.Unlock()
	_, err := m.load(id)
	return err
}

// RefreshCache empties the cache and picks the default again
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.boards = make(map[string]*board)
	m.mu.Unlock()

	config, err := m.LoadConfig(DefaultConfigName)
	if err != nil {
		config = m.firstValid()
	}
	m.mu.Lock()
	m.fallback = config
	m.mu.Unlock()
	return nil
}

func (m *Manager) firstValid() *engine.GameConfig {
	ids, err := m.ids()
	if err != nil {
		return engine.DefaultGameConfig()
	}
	for _, id := range ids {
		if config, err := m.LoadConfig(id); err == nil {
			return config
		}
	}
	return engine.DefaultGameConfig()
}

// Count returns the number of cached configurations
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.boards)
}

// SaveConfig validates config and writes it to <name>.json. The file is
// written beside its destination and renamed into place so readers never
// see half a board.
func (m *Manager) SaveConfig(name string, config *engine.GameConfig) error {
	id, ok := configID(name)
	if !ok {
		return fmt.Errorf("%w: invalid file name %q", ErrInvalidConfig, name)
	}
	b, err := check(id, config)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	tmp, err := os.CreateTemp(m.dir, "."+id+"-*.tmp")
	if err != nil {
		return fmt.Errorf("write config %s: %w", id, err)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("write config %s: %w", id, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write config %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write config %s: %w", id, err)
	}
	if err := os.Rename(tmp.Name(), m.path(id)); err != nil {
		return fmt.Errorf("write config %s: %w", id, err)
	}

	m.mu.Lock()
	m.boards[id] = b
	m.mu.Unlock()
	return nil
}
