package storefront

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/ikkim/vibe-storefront/pkg/logger"
	"github.com/ikkim/vibe-storefront/pkg/shopapi"
)

// UserListener is called after the session's user changed identity.
// prev or next is nil for the unauthenticated state.
type UserListener func(ctx context.Context, prev, next *shopapi.User)

// SessionStore holds the authenticated user. A nil user means signed out.
type SessionStore struct {
	api AuthAPI

	mu        sync.RWMutex
	user      *shopapi.User
	version   uint64
	loading   bool
	listeners []UserListener

	initOnce sync.Once
}

func NewSessionStore(api AuthAPI) *SessionStore {
	return &SessionStore{
		api:     api,
		loading: true,
	}
}

// OnUserChange registers fn for every user transition.
func (s *SessionStore) OnUserChange(fn UserListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// CurrentUser returns the signed-in user or nil.
func (s *SessionStore) CurrentUser() *shopapi.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Loading is true until Init has resolved the initial session.
func (s *SessionStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Init resolves an existing session once. Whatever the outcome, loading ends.
// A Login or Logout that completes while Init is resolving wins over its answer.
func (s *SessionStore) Init(ctx context.Context) {
	s.initOnce.Do(func() {
		s.mu.RLock()
		version := s.version
		s.mu.RUnlock()

		user, err := s.api.CurrentUser(ctx)
		if err != nil {
			if errors.Is(err, shopapi.ErrUnauthorized) {
				logger.Debug("No existing session", nil)
			} else {
				logger.Warn("Failed to resolve existing session", map[string]interface{}{
					"error": err.Error(),
				})
			}
			user = nil
		}

		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()

		if !s.updateUser(ctx, user, &version) {
			logger.Debug("Session changed while resolving, keeping it", nil)
			return
		}
		if user != nil {
			logger.Info("Session resumed", map[string]interface{}{
				"user_id": user.ID,
			})
		}
	})
}

// Login submits credentials. On failure the current user is left untouched.
func (s *SessionStore) Login(ctx context.Context, email, password string) (*shopapi.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, &AuthError{Op: "login", Message: "email and password are required"}
	}

	logger.Info("Login attempt", map[string]interface{}{
		"email": email,
	})

	user, err := s.api.Login(ctx, email, password)
	if err != nil {
		logger.Warn("Login failed", map[string]interface{}{
			"email": email,
			"error": err.Error(),
		})
		return nil, newAuthError("login", err)
	}
	if user == nil {
		return nil, &AuthError{Op: "login", Message: "the shop returned no user"}
	}

	s.setUser(ctx, user)

	logger.Info("User logged in successfully", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return user, nil
}

// Logout asks the backend to end the session and clears the local user even
// when that request fails. The request error is returned for display only.
func (s *SessionStore) Logout(ctx context.Context) error {
	var reqErr error
	if err := s.api.Logout(ctx); err != nil {
		logger.Warn("Logout request failed, clearing local session anyway", map[string]interface{}{
			"error": err.Error(),
		})
		reqErr = newRequestError("logout", err)
	}

	s.setUser(ctx, nil)
	logger.Info("User logged out", nil)
	return reqErr
}

func (s *SessionStore) setUser(ctx context.Context, next *shopapi.User) {
	s.updateUser(ctx, next, nil)
}

// updateUser replaces the user and notifies listeners on a transition. With
// a non-nil expect it does nothing unless no update happened since expect
// was read.
func (s *SessionStore) updateUser(ctx context.Context, next *shopapi.User, expect *uint64) bool {
	s.mu.Lock()
	if expect != nil && s.version != *expect {
		s.mu.Unlock()
		return false
	}
	prev := s.user
	s.user = next
	s.version++
	listeners := append([]UserListener(nil), s.listeners...)
	s.mu.Unlock()

	if sameUser(prev, next) {
		return true
	}
	for _, fn := range listeners {
		fn(ctx, prev, next)
	}
	return true
}

func sameUser(a, b *shopapi.User) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID == b.ID
}
