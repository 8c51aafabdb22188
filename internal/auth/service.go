// Package auth holds the login session. Credential verification is delegated
// wholesale to the remote demo API; the storefront never sees or stores a
// password, only the opaque token the API issues.
package auth

import (
	"context"
	"errors"
	"log"
	"sync"

	"storefront/internal/domain"
	"storefront/internal/kvstore"
)

// tokenKey is the storage key the session token is persisted under.
const tokenKey = "token"

// Verifier exchanges credentials for a token. Implemented by the fakestore
// client.
type Verifier interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// Service tracks the current session. Like the cart, the session is
// process-wide: one logged-in user at a time.
type Service struct {
	mu       sync.RWMutex
	token    string
	verifier Verifier
	storage  kvstore.Store
	logger   *log.Logger
}

// New builds a Service, restoring a previously persisted token so a restart
// does not log the user out.
func New(ctx context.Context, verifier Verifier, storage kvstore.Store, logger *log.Logger) *Service {
	s := &Service{verifier: verifier, storage: storage, logger: logger}

	data, err := storage.Get(ctx, tokenKey)
	switch {
	case err == nil:
		s.token = string(data)
	case errors.Is(err, domain.ErrNotFound):
	default:
		logger.Printf("loading session token: %v", err)
	}
	return s
}

// Login verifies credentials against the remote API and keeps the issued
// token, persisting it for the next start. The verifier's error is returned
// untouched so callers can distinguish bad credentials from an unreachable
// remote.
func (s *Service) Login(ctx context.Context, username, password string) error {
	token, err := s.verifier.Login(ctx, username, password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if err := s.storage.Set(ctx, tokenKey, []byte(token)); err != nil {
		// The session still works for this process; it just won't
		// survive a restart.
		s.logger.Printf("persist session token: %v", err)
	}
	return nil
}

// Logout drops the session token, in memory and from storage.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return s.storage.Delete(ctx, tokenKey)
}

// IsAuthenticated reports whether a session token is held.
func (s *Service) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// Token returns the current session token, empty when logged out.
func (s *Service) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}
