package session

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteTokenStore persists the token pair in a local SQLite database so a
// session survives client restarts.
type SQLiteTokenStore struct {
	db *sql.DB
}

// NewSQLiteTokenStore opens or creates the token database at the given path.
func NewSQLiteTokenStore(dbPath string) (*SQLiteTokenStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("failed to open session db: %w", err)
	}

	s := &SQLiteTokenStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate session db: %w", err)
	}
	return s, nil
}

func (s *SQLiteTokenStore) migrate() error {
	// Single-row table: one client instance holds at most one session.
	schema := `
	CREATE TABLE IF NOT EXISTS session (
		id            INTEGER PRIMARY KEY CHECK (id = 1),
		token         TEXT NOT NULL,
		refresh_token TEXT NOT NULL DEFAULT '',
		expires_at    TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteTokenStore) Save(token, refreshToken string, expiresAt time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO session (id, token, refresh_token, expires_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET token = excluded.token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at`,
		token, refreshToken, expiresAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save session token: %w", err)
	}
	return nil
}

func (s *SQLiteTokenStore) Load() (string, string, error) {
	var token, refreshToken, expiresAt string
	err := s.db.QueryRow(`SELECT token, refresh_token, expires_at FROM session WHERE id = 1`).
		Scan(&token, &refreshToken, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", nil
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to load session token: %w", err)
	}

	exp, err := time.Parse(time.RFC3339, expiresAt)
	if err != nil || time.Now().After(exp) {
		// Expired or unreadable entries are dropped rather than returned.
		s.Clear()
		return "", "", nil
	}
	return token, refreshToken, nil
}

func (s *SQLiteTokenStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM session WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to clear session token: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteTokenStore) Close() error {
	return s.db.Close()
}
