package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/webgate/authportal/internal/core/domain"
)

// UserStore persists accounts as one JSON array. The file is the unit of
// durability: every mutation rewrites it completely.
type UserStore struct {
	path string
	mu   sync.Mutex
	log  zerolog.Logger
}

func NewUserStore(path string, log zerolog.Logger) *UserStore {
	return &UserStore{path: path, log: log}
}

// Load returns the stored accounts. A missing file is an empty store; an
// unreadable or corrupt one is logged and also treated as empty.
func (s *UserStore) Load(_ context.Context) []domain.Account {
	accounts, err := s.read()
	if err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("could not load users, continuing with an empty list")
		return []domain.Account{}
	}
	return accounts
}

// Save replaces the file with accounts.
func (s *UserStore) Save(_ context.Context, accounts []domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(accounts)
}

// Update reads the current accounts, passes them to fn and writes back what
// fn returns, all under the store's lock. Unlike Load, a corrupt file aborts
// the update so it is never overwritten with a partial list.
func (s *UserStore) Update(ctx context.Context, fn func([]domain.Account) ([]domain.Account, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	accounts, err := s.read()
	if err != nil {
		return fmt.Errorf("load users: %w: %w", domain.ErrStorage, err)
	}

	next, err := fn(accounts)
	if err != nil {
		return err
	}
	return s.write(next)
}

// Check reports whether the store's directory is usable.
func (s *UserStore) Check(_ context.Context) error {
	info, err := os.Stat(filepath.Dir(s.path))
	if err != nil {
		return fmt.Errorf("users directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("users directory: %s is not a directory", filepath.Dir(s.path))
	}
	return nil
}

func (s *UserStore) read() ([]domain.Account, error) {
	accounts := []domain.Account{}
	if _, err := readJSON(s.path, &accounts); err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	return accounts, nil
}

func (s *UserStore) write(accounts []domain.Account) error {
	if accounts == nil {
		accounts = []domain.Account{}
	}
	if err := writeJSON(s.path, accounts); err != nil {
		return fmt.Errorf("save users: %w: %w", domain.ErrStorage, err)
	}
	return nil
}
