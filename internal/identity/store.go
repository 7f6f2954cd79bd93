package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/mail"
	"strings"
)

// Key is the storage key of the pending identity in every backend.
const Key = "user_email"

// StorageType selects an identity store backend.
type StorageType string

const (
	StorageMemory StorageType = "memory"
	StorageFile   StorageType = "file"
	StorageSQLite StorageType = "sqlite"
	StorageValkey StorageType = "valkey"
)

// ErrEmptyIdentity is returned by Set when the email is blank.
var ErrEmptyIdentity = errors.New("identity: email is empty")

// Store holds a single durable identity value.
type Store interface {
	// Get returns the stored email. ok is false when nothing was ever stored.
	Get(ctx context.Context) (email string, ok bool, err error)

	// Set stores email, replacing any previous value.
	Set(ctx context.Context, email string) error
}

// Config selects and configures the identity store backend.
type Config struct {
	// Type is the backend: "memory", "file", "sqlite" or "valkey" (default: "file")
	Type StorageType

	// Path is the file or SQLite database path.
	// Defaults to a file under the user cache directory.
	Path string

	// Valkey configuration (used when Type is "valkey")
	Valkey ValkeyConfig
}

// NewStore creates the backend described by cfg. The returned store also
// implements io.Closer when it holds external resources.
func NewStore(ctx context.Context, cfg Config, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Type == "" {
		cfg.Type = StorageFile
	}

	var (
		store Store
		err   error
	)
	switch cfg.Type {
	case StorageMemory:
		store = NewMemoryStore()
	case StorageFile:
		path := cfg.Path
		if path == "" {
			path, err = DefaultFilePath()
			if err != nil {
				return nil, err
			}
		}
		store, err = NewFileStore(path)
	case StorageSQLite:
		path := cfg.Path
		if path == "" {
			path, err = DefaultSQLitePath()
			if err != nil {
				return nil, err
			}
		}
		store, err = OpenSQLiteStore(ctx, path)
	case StorageValkey:
		store, err = NewValkeyStore(ctx, cfg.Valkey)
	default:
		return nil, fmt.Errorf("unsupported identity storage type %q (supported: memory, file, sqlite, valkey)", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s identity store: %w", cfg.Type, err)
	}

	logger.Info("identity store ready", slog.String("type", string(cfg.Type)))
	return store, nil
}

// Close releases the store's resources if it holds any.
func Close(s Store) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// ValidateEmail checks that email is a single bare address and returns it
// trimmed. Display names ("Jane <jane@example.com>") are rejected.
func ValidateEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", ErrEmptyIdentity
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return "", fmt.Errorf("invalid email address %q: %w", email, err)
	}
	if addr.Name != "" || addr.Address != email {
		return "", fmt.Errorf("invalid email address %q: expected a bare address", email)
	}
	return email, nil
}
