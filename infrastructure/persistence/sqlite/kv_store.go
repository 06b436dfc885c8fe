// Package sqlite stores canvas values in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"canvas-backend/application/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS canvas_kv (
	canvas_id  TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (canvas_id, key)
);`

// KeyValueStore keeps one canvas's values in a SQLite table. Several canvases
// can share a database file; each sees only its own keys.
type KeyValueStore struct {
	db       *sql.DB
	dbPath   string
	canvasID string
	now      func() time.Time
}

// Open opens or creates the database at dbPath and initializes the schema.
func Open(dbPath, canvasID string) (*KeyValueStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open canvas db: %w", err)
	}
	// One writer at a time keeps SQLite from returning SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &KeyValueStore{db: db, dbPath: dbPath, canvasID: canvasID, now: time.Now}, nil
}

// Get retrieves the value under key
func (s *KeyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM canvas_kv WHERE canvas_id = ? AND key = ?`,
		s.canvasID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

// Put stores value under key, replacing any previous value
func (s *KeyValueStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO canvas_kv (canvas_id, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (canvas_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.canvasID, key, value, s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Path returns the database file path.
func (s *KeyValueStore) Path() string { return s.dbPath }

// Close closes the database connection.
func (s *KeyValueStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

var _ ports.KeyValueStore = (*KeyValueStore)(nil)
