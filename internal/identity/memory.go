package identity

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore keeps the identity in process memory.
// It does not survive a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	email string
	set   bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get returns the stored email.
func (s *MemoryStore) Get(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email, s.set, nil
}

// Set replaces the stored email.
func (s *MemoryStore) Set(ctx context.Context, email string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(email) == "" {
		return ErrEmptyIdentity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.email = email
	s.set = true
	return nil
}
