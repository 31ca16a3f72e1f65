// ABOUTME: Token store holding the signed-in admin's credential and user snapshot
// ABOUTME: Provides in-memory and config-dir file implementations behind one interface

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// User is the denormalized user record saved at sign-in time.
// It is not refreshed automatically.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Session is the token plus the user it was issued to
type Session struct {
	Token string
	User  User
}

// Store is the single source of truth for whether a session is active.
// Token and user are always written and cleared together.
type Store interface {
	Get() (Session, bool)
	Set(token string, user User) error
	Clear() error
}

// MemoryStore keeps the session in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	current *Session
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get returns the current session, ok is false when signed out
func (m *MemoryStore) Get() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.current == nil || m.current.Token == "" {
		return Session{}, false
	}
	return *m.current, true
}

// Set replaces any previous session
func (m *MemoryStore) Set(token string, user User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = &Session{Token: token, User: user}
	return nil
}

// Clear removes token and user
func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = nil
	return nil
}

// sessionFileName is the document holding both storage keys
const sessionFileName = "session.json"

// fileData mirrors the two persisted keys
type fileData struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// FileStore persists the session as a single JSON document in the config
// directory so token and user can never drift apart on disk.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates a store rooted at the given config directory
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Path returns the session file location
func (f *FileStore) Path() string {
	return filepath.Join(f.dir, sessionFileName)
}

// Get reads the session file. A missing or unreadable file means signed out.
func (f *FileStore) Get() (Session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.Path())
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("Failed to read session file", "path", f.Path(), "error", err)
		}
		return Session{}, false
	}

	var stored fileData
	if err := json.Unmarshal(data, &stored); err != nil {
		slog.Warn("Ignoring corrupt session file", "path", f.Path(), "error", err)
		return Session{}, false
	}

	// Half-written records count as signed out
	if stored.Token == "" || stored.User == nil {
		return Session{}, false
	}

	return Session{Token: stored.Token, User: *stored.User}, true
}

// Set writes token and user in one atomic rename
func (f *FileStore) Set(token string, user User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(f.dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(fileData{Token: token, User: &user}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, sessionFileName+".*")
	if err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write session: %w", err)
	}

	if err := os.Rename(tmpPath, f.Path()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear deletes the session file. Clearing an empty store is not an error.
func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
