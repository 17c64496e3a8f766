package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"learncode/internal/domain/model"
)

var (
	ErrNoCredential      = errors.New("not signed in")
	ErrInvalidCredential = errors.New("credential rejected")
)

// Verifier resolves a bearer token to its principal.
type Verifier interface {
	VerifyToken(ctx context.Context, token string) (*model.User, error)
}

// Session owns the credential. It is the only writer of the store; views
// read the principal through Principal.
type Session struct {
	mu        sync.RWMutex
	store     CredentialStore
	verifier  Verifier
	token     string
	principal *model.User
}

func New(store CredentialStore, verifier Verifier) *Session {
	return &Session{store: store, verifier: verifier}
}

// Token is the bearer token for outgoing requests, "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Principal returns a copy of the signed-in user.
func (s *Session) Principal() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.principal == nil {
		return model.User{}, false
	}
	return *s.principal, true
}

// Login verifies token and, once accepted, stores it.
func (s *Session) Login(ctx context.Context, token string) (*model.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrNoCredential
	}
	user, err := s.verifier.VerifyToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if err := s.store.Save(token); err != nil {
		return nil, err
	}
	s.set(token, user)
	return user, nil
}

func (s *Session) Logout() error {
	s.set("", nil)
	return s.store.Clear()
}

// Restore reads the stored credential and validates it with the server. A
// rejected credential is discarded. Nothing is fetched when no credential is
// stored.
func (s *Session) Restore(ctx context.Context) (*model.User, error) {
	token, err := s.store.Load()
	if err != nil || token == "" {
		s.set("", nil)
		return nil, ErrNoCredential
	}
	user, err := s.verifier.VerifyToken(ctx, token)
	if err != nil {
		s.set("", nil)
		if cerr := s.store.Clear(); cerr != nil {
			return nil, fmt.Errorf("%w: %v (clear: %v)", ErrInvalidCredential, err, cerr)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	s.set(token, user)
	return user, nil
}

func (s *Session) set(token string, user *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	if user == nil {
		s.principal = nil
		return
	}
	u := *user
	s.principal = &u
}
