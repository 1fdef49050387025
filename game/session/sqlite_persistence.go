package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wricardo/campus-monopoly/game/service"
)

const sessionsSchema = `CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	config_name TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	data TEXT NOT NULL
)`

// SQLitePersistence implements SessionPersistence with a single SQLite table
type SQLitePersistence struct {
	sqlDB         *sql.DB
	configManager service.ConfigManager
	timeout       time.Duration
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// NewSQLitePersistence opens (or creates) the database at path
func NewSQLitePersistence(path string, configManager service.ConfigManager) (*SQLitePersistence, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sessionsSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create sessions table: %w", err)
	}
	return &SQLitePersistence{
		sqlDB:         sqlDB,
		configManager: configManager,
		timeout:       5 * time.Second,
	}, nil
}

// Close closes the SQLite handle
func (sp *SQLitePersistence) Close() error {
	if sp == nil || sp.sqlDB == nil {
		return nil
	}
	return sp.sqlDB.Close()
}

func (sp *SQLitePersistence) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), sp.timeout)
}

// Save upserts the session row
func (sp *SQLitePersistence) Save(session *service.Session) error {
	jsonData, err := encodeSession(session)
	if err != nil {
		return err
	}
	ctx, cancel := sp.ctx()
	defer cancel()

	_, err = sp.sqlDB.ExecContext(ctx,
		`INSERT INTO sessions (id, config_name, updated_at, data) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   config_name = excluded.config_name,
		   updated_at = excluded.updated_at,
		   data = excluded.data`,
		strings.ToLower(session.ID),
		session.ConfigID,
		toMillis(time.Now()),
		string(jsonData),
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", session.ID, err)
	}
	return nil
}

// Load reads one session row
func (sp *SQLitePersistence) Load(id string) (*service.Session, error) {
	ctx, cancel := sp.ctx()
	defer cancel()

	var data string
	err := sp.sqlDB.QueryRowContext(ctx,
		`SELECT data FROM sessions WHERE id = ?`, strings.ToLower(id)).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return decodeSession([]byte(data), sp.configManager)
}

// Delete removes a session row
func (sp *SQLitePersistence) Delete(id string) error {
	ctx, cancel := sp.ctx()
	defer cancel()

	res, err := sp.sqlDB.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, strings.ToLower(id))
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListAll returns every stored session ID, most recently updated first
func (sp *SQLitePersistence) ListAll() ([]string, error) {
	ctx, cancel := sp.ctx()
	defer cancel()

	rows, err := sp.sqlDB.QueryContext(ctx, `SELECT id FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Exists reports whether a row exists for the ID
func (sp *SQLitePersistence) Exists(id string) bool {
	ctx, cancel := sp.ctx()
	defer cancel()

	var one int
	err := sp.sqlDB.QueryRowContext(ctx,
		`SELECT 1 FROM sessions WHERE id = ?`, strings.ToLower(id)).Scan(&one)
	return err == nil
}
