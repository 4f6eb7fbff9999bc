package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wricardo/klondike/game/service"
)

const timeFormat = time.RFC3339Nano

const createSessionsTable = `
CREATE TABLE IF NOT EXISTS sessions (
	id               TEXT PRIMARY KEY,
	config_name      TEXT NOT NULL,
	created_at       TEXT NOT NULL,
	last_accessed_at TEXT NOT NULL,
	state            TEXT NOT NULL
)`

// SQLitePersistence implements SessionPersistence on a SQLite database, one
// row per session with the game state stored as JSON.
type SQLitePersistence struct {
	db            *sql.DB
	configManager service.ConfigManager
}

// NewSQLitePersistence opens (or creates) the database at path. Use
// ":memory:" for a throwaway store.
func NewSQLitePersistence(path string, configManager service.ConfigManager) (*SQLitePersistence, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(createSessionsTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create sessions table: %w", err)
	}

	return &SQLitePersistence{db: db, configManager: configManager}, nil
}

// Close closes the underlying database.
func (sp *SQLitePersistence) Close() error {
	if sp == nil || sp.db == nil {
		return nil
	}
	return sp.db.Close()
}

// Save upserts the session row
func (sp *SQLitePersistence) Save(session *service.Session) error {
	data, err := persistedData(sp.configManager, session)
	if err != nil {
		return err
	}

	state, err := json.Marshal(data.GameState)
	if err != nil {
		return fmt.Errorf("failed to marshal game state: %w", err)
	}

	_, err = sp.db.Exec(`
		INSERT INTO sessions (id, config_name, created_at, last_accessed_at, state)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			config_name = excluded.config_name,
			last_accessed_at = excluded.last_accessed_at,
			state = excluded.state`,
		strings.ToLower(data.ID),
		data.ConfigName,
		data.CreatedAt.UTC().Format(timeFormat),
		data.LastAccessedAt.UTC().Format(timeFormat),
		string(state),
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", data.ID, err)
	}
	return nil
}

// Load reads a session row and restores it
func (sp *SQLitePersistence) Load(id string) (*service.Session, error) {
	var (
		data                  PersistedSessionData
		createdAt, accessedAt string
		state                 string
	)
	row := sp.db.QueryRow(
		`SELECT id, config_name, created_at, last_accessed_at, state FROM sessions WHERE id = ?`,
		strings.ToLower(id),
	)
	if err := row.Scan(&data.ID, &data.ConfigName, &createdAt, &accessedAt, &state); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	var err error
	if data.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if data.LastAccessedAt, err = time.Parse(timeFormat, accessedAt); err != nil {
		return nil, fmt.Errorf("parse last_accessed_at: %w", err)
	}
	if err := json.Unmarshal([]byte(state), &data.GameState); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game state: %w", err)
	}

	return restoreSession(sp.configManager, &data)
}

// Delete removes a session row
func (sp *SQLitePersistence) Delete(id string) error {
	res, err := sp.db.Exec(`DELETE FROM sessions WHERE id = ?`, strings.ToLower(id))
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListAll returns all persisted session IDs
func (sp *SQLitePersistence) ListAll() ([]string, error) {
	rows, err := sp.db.Query(`SELECT id FROM sessions ORDER BY created_at`)
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

// Exists checks if a session row exists
func (sp *SQLitePersistence) Exists(id string) bool {
	var one int
	err := sp.db.QueryRow(`SELECT 1 FROM sessions WHERE id = ?`, strings.ToLower(id)).Scan(&one)
	return err == nil
}

var _ SessionPersistence = (*SQLitePersistence)(nil)
