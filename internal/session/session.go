package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/fjod/shopflow/internal/domain"
	"github.com/fjod/shopflow/internal/storage"
)

const (
	tokenKey = "token"
	userKey  = "user"
)

// Session is the shopper's identity for the lifetime of the process. The
// token is persisted so a restart stays signed in.
type Session struct {
	mu    sync.RWMutex
	store storage.Store
	token string
	user  *domain.User
}

// Open restores a previously persisted token and user.
func Open(ctx context.Context, store storage.Store) (*Session, error) {
	s := &Session{store: store}

	tok, err := store.Get(ctx, tokenKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("load token: %w", err)
	}
	s.token = string(tok)

	raw, err := store.Get(ctx, userKey)
	if err == nil {
		var u domain.User
		if json.Unmarshal(raw, &u) == nil {
			s.user = &u
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return s, nil
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

func (s *Session) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// SignIn persists the token first; memory only changes once storage agrees.
func (s *Session) SignIn(ctx context.Context, token string, user *domain.User) error {
	if token == "" {
		return domain.Validationf("empty access token")
	}
	if err := s.store.Set(ctx, tokenKey, []byte(token)); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	if user != nil {
		raw, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("marshal user: %w", err)
		}
		if err := s.store.Set(ctx, userKey, raw); err != nil {
			return fmt.Errorf("save user: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	if user != nil {
		u := *user
		s.user = &u
	} else {
		s.user = nil
	}
	return nil
}

// SignOut forgets the identity. Memory is cleared even when storage fails,
// so a rejected token is never sent again.
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	return errors.Join(s.store.Remove(ctx, tokenKey), s.store.Remove(ctx, userKey))
}
