package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const tokenSchema = `
CREATE TABLE IF NOT EXISTS client_token (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	value TEXT NOT NULL,
	expires_at INTEGER NOT NULL DEFAULT 0,
	saved_at INTEGER NOT NULL
);`

// SQLiteStore keeps the token in a single-row SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite token store: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating token directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set pragma: %w", err)
	}
	if _, err := db.Exec(tokenSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context) (*Token, error) {
	var (
		tok              Token
		expires, savedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT value, expires_at, saved_at FROM client_token WHERE id = 1",
	).Scan(&tok.Value, &expires, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading token: %w", err)
	}
	if expires > 0 {
		tok.ExpiresAt = time.UnixMilli(expires).UTC()
	}
	tok.SavedAt = time.UnixMilli(savedAt).UTC()
	return &tok, nil
}

func (s *SQLiteStore) Set(ctx context.Context, tok *Token) error {
	var expires int64
	if !tok.ExpiresAt.IsZero() {
		expires = tok.ExpiresAt.UnixMilli()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO client_token (id, value, expires_at, saved_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET value = excluded.value,
			expires_at = excluded.expires_at, saved_at = excluded.saved_at`,
		tok.Value, expires, tok.SavedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("writing token: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM client_token WHERE id = 1"); err != nil {
		return fmt.Errorf("deleting token: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
