// Package session owns the authentication state of the client: the token
// pair, the logged-in user, durable token persistence and the
// authenticated/deauthenticated event stream other components subscribe to.
package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"photodeck/internal/model"
)

// tokenTTL is the fixed lifetime of a persisted session token.
const tokenTTL = 24 * time.Hour

// Event is a session lifecycle notification.
type Event int

const (
	// EventAuthenticated fires whenever the store transitions from
	// absent-token to present-token.
	EventAuthenticated Event = iota
	// EventDeauthenticated fires on logout or invalidation.
	EventDeauthenticated
)

// Listener receives session events. Listeners run synchronously on the
// goroutine that triggered the transition, outside the store's lock.
type Listener func(Event)

// Store holds the current session. The persisted token is the startup source
// of truth; in-memory state is authoritative afterwards.
type Store struct {
	mu           sync.RWMutex
	tokens       TokenStore
	logger       *zap.Logger
	token        string
	refreshToken string
	user         *model.User
	epoch        uint64
	listeners    []Listener
}

// NewStore creates a Store backed by the given token persistence.
func NewStore(tokens TokenStore, logger *zap.Logger) *Store {
	return &Store{tokens: tokens, logger: logger}
}

// Subscribe registers a listener for session events. Not safe to call
// concurrently with transitions; wire subscribers during startup.
func (s *Store) Subscribe(l Listener) {
	s.listeners = append(s.listeners, l)
}

// Restore loads a persisted token at startup. A present token marks the
// session tentatively authenticated; validity is only confirmed when a later
// authorized request succeeds or fails. Reports whether a token was found.
func (s *Store) Restore() bool {
	token, refreshToken, err := s.tokens.Load()
	if err != nil {
		s.logger.Warn("Failed to restore persisted session", zap.Error(err))
		return false
	}
	if token == "" {
		return false
	}

	s.mu.Lock()
	s.token = token
	s.refreshToken = refreshToken
	s.user = nil
	s.epoch++
	s.mu.Unlock()

	s.logger.Info("Session restored from storage")
	s.publish(EventAuthenticated)
	return true
}

// Login installs a token pair and user after a successful login response and
// persists the tokens with the fixed expiry.
func (s *Store) Login(token, refreshToken string, user model.User) {
	if err := s.tokens.Save(token, refreshToken, time.Now().Add(tokenTTL)); err != nil {
		// Persistence failure degrades to a memory-only session.
		s.logger.Warn("Failed to persist session token", zap.Error(err))
	}

	s.mu.Lock()
	s.token = token
	s.refreshToken = refreshToken
	u := user
	s.user = &u
	s.epoch++
	s.mu.Unlock()

	s.logger.Info("Session established", zap.String("username", user.Username))
	s.publish(EventAuthenticated)
}

// UpdateAccessToken swaps in a refreshed access token without touching the
// user, the epoch or subscribers.
func (s *Store) UpdateAccessToken(token string) {
	s.mu.Lock()
	s.token = token
	refreshToken := s.refreshToken
	s.mu.Unlock()

	if err := s.tokens.Save(token, refreshToken, time.Now().Add(tokenTTL)); err != nil {
		s.logger.Warn("Failed to persist refreshed token", zap.Error(err))
	}
}

// Logout clears the persisted and in-memory session. It does not call the
// backend.
func (s *Store) Logout() {
	s.clear("Session closed")
}

// Invalidate is the authorization-failure hook: any component whose
// authorized request is rejected must call it. Behaves like Logout.
func (s *Store) Invalidate() {
	s.clear("Session invalidated by authorization failure")
}

func (s *Store) clear(reason string) {
	if err := s.tokens.Clear(); err != nil {
		s.logger.Warn("Failed to clear persisted session", zap.Error(err))
	}

	s.mu.Lock()
	wasAuthenticated := s.token != ""
	s.token = ""
	s.refreshToken = ""
	s.user = nil
	s.epoch++
	s.mu.Unlock()

	if wasAuthenticated {
		s.logger.Info(reason)
		s.publish(EventDeauthenticated)
	}
}

func (s *Store) publish(ev Event) {
	for _, l := range s.listeners {
		l(ev)
	}
}

// Token returns the current access token, or "" when logged out. Usable
// directly as an api.TokenFunc.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// RefreshToken returns the current refresh token, or "".
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// User returns a copy of the logged-in user, or nil. It is only populated
// after a successful login response, never for a restored session.
func (s *Store) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Authenticated reports whether a token is present.
func (s *Store) Authenticated() bool {
	return s.Token() != ""
}

// Epoch returns the session generation counter. Async work captures the epoch
// it started under and discards its result when the epoch has moved on.
func (s *Store) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}
