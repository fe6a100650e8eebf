// Package app wires the store, session record and configuration into the
// operations the UI layer calls. It owns the process-wide store handle:
// the handle is created lazily exactly once and shared by every caller.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/nazrinhakim/notemap/internal/config"
	"github.com/nazrinhakim/notemap/internal/crypto"
	"github.com/nazrinhakim/notemap/internal/log"
	"github.com/nazrinhakim/notemap/internal/session"
	"github.com/nazrinhakim/notemap/internal/storage"
)

type Service struct {
	cfg      config.Config
	logger   *slog.Logger
	sessions *session.Store

	openOnce sync.Once
	store    *storage.Store
	openErr  error
}

func New(cfg config.Config, logger *slog.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		var err error
		logger, err = log.New(cfg.Logging.Level, os.Stderr)
		if err != nil {
			return nil, err
		}
	}

	sessions, err := session.NewStore(cfg.SessionFile())
	if err != nil {
		return nil, err
	}

	return &Service{
		cfg:      cfg,
		logger:   logger,
		sessions: sessions,
	}, nil
}

// Store returns the shared handle, opening the database (and migrating its
// schema) on first use. Every subsequent call returns the same handle; an
// open failure is sticky because the application cannot run against a
// half-migrated schema.
func (s *Service) Store() (*storage.Store, error) {
	s.openOnce.Do(func() {
		digest, err := crypto.ForScheme(s.cfg.Credential.Scheme)
		if err != nil {
			s.openErr = err
			return
		}
		s.store, s.openErr = storage.Open(s.cfg.Storage.Path, storage.Options{
			Digest:        digest,
			BusyTimeoutMS: s.cfg.Storage.BusyTimeoutMS,
		})
		if s.openErr == nil {
			s.logger.Info("store opened", "path", s.store.Path())
		}
	})
	return s.store, s.openErr
}

func (s *Service) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

func (s *Service) SignUp(ctx context.Context, username, password string) (int64, error) {
	store, err := s.Store()
	if err != nil {
		return 0, err
	}

	id, err := store.Accounts.Create(ctx, username, password)
	if err != nil {
		return 0, fmt.Errorf("sign up: %w", err)
	}
	s.logger.Info("account created", "account_id", id, "username", username)
	return id, nil
}

// SignIn authenticates and records the identity as the current user.
func (s *Service) SignIn(ctx context.Context, username, password string) (*session.Identity, error) {
	store, err := s.Store()
	if err != nil {
		return nil, err
	}

	id, err := store.Accounts.Authenticate(ctx, username, password)
	if err != nil {
		s.logger.Warn("sign in rejected", "username", username)
		return nil, fmt.Errorf("sign in: %w", err)
	}

	account, err := store.Accounts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	identity := session.Identity{AccountID: account.ID, Username: account.Username}
	if err := s.sessions.Set(identity); err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	current, err := s.sessions.Current()
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	s.logger.Info("signed in", "account_id", account.ID, "username", account.Username)
	return current, nil
}

// SignOut clears the current identity only; relational data is untouched.
func (s *Service) SignOut() error {
	if err := s.sessions.Clear(); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	s.logger.Info("signed out")
	return nil
}

func (s *Service) CurrentIdentity() (*session.Identity, error) {
	return s.sessions.Current()
}

// DeleteAccount removes the account with its notes and locations, then
// clears the session when it names the deleted account.
func (s *Service) DeleteAccount(ctx context.Context, accountID int64) error {
	store, err := s.Store()
	if err != nil {
		return err
	}

	if err := store.Accounts.Delete(ctx, accountID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	current, err := s.sessions.Current()
	if err != nil {
		return fmt.Errorf("delete account: read session: %w", err)
	}
	if current != nil && current.AccountID == accountID {
		if err := s.sessions.Clear(); err != nil {
			return fmt.Errorf("delete account: clear session: %w", err)
		}
	}

	s.logger.Info("account deleted", "account_id", accountID)
	return nil
}
