// Package tokenmock provides an in-memory token.Store with error injection
// for state machine tests.
package tokenmock

import (
	"context"
	"sync"

	"github.com/dayplanhq/dayplan-cli/internal/token"
)

type StoreOption func(*Store)

type Store struct {
	mu        sync.Mutex
	access    string
	hasAccess bool
	refresh   string

	refreshReadErr  error
	refreshWriteErr error
	clearErr        error

	refreshWrites int
}

func WithRefreshToken(tok string) StoreOption {
	return func(s *Store) { s.refresh = tok }
}

func WithRefreshReadError(err error) StoreOption {
	return func(s *Store) { s.refreshReadErr = err }
}

func WithRefreshWriteError(err error) StoreOption {
	return func(s *Store) { s.refreshWriteErr = err }
}

func WithClearError(err error) StoreOption {
	return func(s *Store) { s.clearErr = err }
}

var _ = token.Store(&Store{})

func NewStore(opts ...StoreOption) *Store {
	s := &Store{}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Store) AccessToken() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access, s.hasAccess
}

func (s *Store) SetAccessToken(tok string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = tok
	s.hasAccess = tok != ""
}

func (s *Store) RefreshToken(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refreshReadErr != nil {
		return "", s.refreshReadErr
	}
	return s.refresh, nil
}

func (s *Store) SetRefreshToken(_ context.Context, tok string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refreshWriteErr != nil {
		return s.refreshWriteErr
	}
	s.refresh = tok
	s.refreshWrites++
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clearErr != nil {
		return s.clearErr
	}
	s.access = ""
	s.hasAccess = false
	s.refresh = ""
	return nil
}

// RefreshWrites reports how many times the durable slot was written.
func (s *Store) RefreshWrites() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshWrites
}
