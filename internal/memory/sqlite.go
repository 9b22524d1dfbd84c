package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a local SQLite database file.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens the database at dbPath, creating it and its schema
// when missing.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate creates the tables if they don't exist.
func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		user_id    TEXT NOT NULL,
		key        TEXT NOT NULL,
		value      TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, key)
	);

	CREATE TABLE IF NOT EXISTS group_settings (
		chat_id TEXT PRIMARY KEY,
		mode    TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SetMemory upserts one fact. An existing (user, key) row keeps its rowid,
// so listing order stays first-insert order across overwrites.
func (s *SQLiteStore) SetMemory(ctx context.Context, userID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO memories (user_id, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query, userID, key, value, time.Now().Unix())
	return err
}

// Memories returns the user's facts oldest first.
func (s *SQLiteStore) Memories(ctx context.Context, userID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM memories WHERE user_id = ? ORDER BY rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Value); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// DeleteMemory removes one fact and reports whether a row was deleted.
func (s *SQLiteStore) DeleteMemory(ctx context.Context, userID, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM memories WHERE user_id = ? AND key = ?`, userID, key)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GroupMode returns the stored reply mode for a chat, defaulting to
// DefaultGroupMode when no row exists.
func (s *SQLiteStore) GroupMode(ctx context.Context, chatID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var mode string
	err := s.db.QueryRowContext(ctx,
		`SELECT mode FROM group_settings WHERE chat_id = ?`, chatID).Scan(&mode)
	if err == sql.ErrNoRows {
		return DefaultGroupMode, nil
	}
	if err != nil {
		return "", err
	}
	return mode, nil
}

// SetGroupMode records the reply mode for a chat, overwriting any previous
// value. Mode validation is the caller's job; the store keeps what it is
// given.
func (s *SQLiteStore) SetGroupMode(ctx context.Context, chatID, mode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO group_settings (chat_id, mode)
		VALUES (?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET mode = excluded.mode
	`

	_, err := s.db.ExecContext(ctx, query, chatID, mode)
	return err
}

// Stats reports row counts for both tables.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memories`).Scan(&st.Memories); err != nil {
		return Stats{}, err
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM group_settings`).Scan(&st.GroupModes); err != nil {
		return Stats{}, err
	}
	return st, nil
}

// Maintain runs SQLite upkeep. Called from the nightly job.
func (s *SQLiteStore) Maintain(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `PRAGMA optimize`)
	return err
}

// Ping verifies the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
