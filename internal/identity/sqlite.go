package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const timeFormat = time.RFC3339Nano

// DefaultSQLitePath returns the default location of the identity database.
func DefaultSQLitePath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user cache directory: %w", err)
	}
	return filepath.Join(dir, appDirName, "identity.db"), nil
}

// SQLiteStore persists the identity in a SQLite key/value table.
type SQLiteStore struct {
	db    *sql.DB
	clock func() time.Time
}

// OpenSQLiteStore opens (creating if needed) the database at path.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	if cleanPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cleanPath), 0700); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	dsn := cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS identity (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create identity table: %w", err)
	}

	return &SQLiteStore{db: db, clock: time.Now}, nil
}

func (s *SQLiteStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("identity store is not configured")
	}
	return nil
}

// Get returns the stored email.
func (s *SQLiteStore) Get(ctx context.Context) (string, bool, error) {
	if err := s.ensureDB(); err != nil {
		return "", false, err
	}

	var email string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM identity WHERE key = ?`, Key).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query identity: %w", err)
	}
	return email, true, nil
}

// Set upserts the stored email.
func (s *SQLiteStore) Set(ctx context.Context, email string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	if strings.TrimSpace(email) == "" {
		return ErrEmptyIdentity
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO identity (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		Key, email, s.clock().UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("store identity: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
