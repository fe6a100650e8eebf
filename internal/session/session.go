// Package session keeps the current signed-in identity in a durable
// key-value record outside the relational store, so signing out never
// touches note or location data.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Identity is the at-most-one current-user record.
type Identity struct {
	AccountID  int64     `json:"account_id"`
	Username   string    `json:"username"`
	SessionID  string    `json:"session_id"`
	SignedInAt time.Time `json:"signed_in_at"`
}

// Store persists the identity as a single JSON file, replaced atomically.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("session store: empty path")
	}
	return &Store{path: path}, nil
}

// Set records identity as the current user. A missing session id is minted
// and a zero sign-in time is stamped.
func (s *Store) Set(identity Identity) error {
	if identity.AccountID == 0 {
		return fmt.Errorf("set identity: account id is required")
	}
	if identity.Username == "" {
		return fmt.Errorf("set identity: username is required")
	}
	if identity.SessionID == "" {
		identity.SessionID = uuid.NewString()
	}
	if identity.SignedInAt.IsZero() {
		identity.SignedInAt = time.Now().UTC()
	}

	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("set identity: marshal: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("set identity: create dir: %w", err)
	}

	// Write-then-rename so readers never observe a torn record.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("set identity: write: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("set identity: replace: %w", err)
	}
	return nil
}

// Current returns the signed-in identity, or nil when signed out.
func (s *Store) Current() (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("current identity: read: %w", err)
	}

	var identity Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, fmt.Errorf("current identity: unmarshal: %w", err)
	}
	return &identity, nil
}

// Clear signs the current user out. Clearing an already-empty store is a
// no-op.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear identity: %w", err)
	}
	return nil
}
