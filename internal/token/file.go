package token

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const refreshTokenFile = "refresh_token"

// FileStore keeps the refresh token in a 0600 file under dir and the access
// token in memory. Safe for concurrent use.
type FileStore struct {
	mu        sync.Mutex
	dir       string
	access    string
	hasAccess bool
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates the storage directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating storage dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) AccessToken() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access, s.hasAccess
}

func (s *FileStore) SetAccessToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = token
	s.hasAccess = token != ""
}

func (s *FileStore) RefreshToken(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path())
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading refresh token slot: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func (s *FileStore) SetRefreshToken(_ context.Context, tok string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Write-then-rename so a crash never leaves a truncated slot behind.
	tmp, err := os.CreateTemp(s.dir, refreshTokenFile+".*")
	if err != nil {
		return fmt.Errorf("creating refresh token slot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("restricting refresh token slot: %w", err)
	}
	if _, err := tmp.WriteString(tok); err != nil {
		tmp.Close()
		return fmt.Errorf("writing refresh token slot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing refresh token slot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path()); err != nil {
		return fmt.Errorf("committing refresh token slot: %w", err)
	}
	return nil
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.access = ""
	s.hasAccess = false

	if err := os.Remove(s.path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing refresh token slot: %w", err)
	}
	return nil
}

func (s *FileStore) path() string {
	return filepath.Join(s.dir, refreshTokenFile)
}
