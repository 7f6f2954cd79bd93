package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const appDirName = "integrationhub"

// DefaultFilePath returns the default location of the identity file.
func DefaultFilePath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user cache directory: %w", err)
	}
	return filepath.Join(dir, appDirName, "identity.json"), nil
}

// FileStore persists the identity as a small JSON document.
type FileStore struct {
	path string
	mu   sync.Mutex
}

type fileDocument struct {
	UserEmail string `json:"user_email"`
}

// NewFileStore creates a store backed by the file at path.
// The file and its directory are created on the first Set.
func NewFileStore(path string) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("identity file path is required")
	}
	return &FileStore{path: filepath.Clean(path)}, nil
}

// Path returns the file location.
func (s *FileStore) Path() string {
	return s.path
}

// Get reads the stored email.
func (s *FileStore) Get(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read identity file: %w", err)
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", false, fmt.Errorf("failed to decode identity file %s: %w", s.path, err)
	}
	if doc.UserEmail == "" {
		return "", false, nil
	}
	return doc.UserEmail, true, nil
}

// Set writes email, replacing the file atomically.
func (s *FileStore) Set(ctx context.Context, email string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(email) == "" {
		return ErrEmptyIdentity
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create identity directory: %w", err)
	}

	data, err := json.Marshal(fileDocument{UserEmail: email})
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".identity-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary identity file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write identity file: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set identity file permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close identity file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace identity file: %w", err)
	}
	return nil
}
