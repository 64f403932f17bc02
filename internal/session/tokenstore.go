package session

import (
	"sync"
	"time"
)

// TokenStore persists the session token pair across client restarts.
// Implementations must treat an expired entry as absent.
type TokenStore interface {
	Save(token, refreshToken string, expiresAt time.Time) error
	Load() (token, refreshToken string, err error)
	Clear() error
}

// MemoryTokenStore is an in-process TokenStore. Used by tests and by callers
// that explicitly opt out of persistence.
type MemoryTokenStore struct {
	mu           sync.Mutex
	token        string
	refreshToken string
	expiresAt    time.Time
}

// NewMemoryTokenStore creates an empty in-memory token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (m *MemoryTokenStore) Save(token, refreshToken string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.refreshToken = refreshToken
	m.expiresAt = expiresAt
	return nil
}

func (m *MemoryTokenStore) Load() (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" || time.Now().After(m.expiresAt) {
		return "", "", nil
	}
	return m.token, m.refreshToken, nil
}

func (m *MemoryTokenStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.refreshToken = ""
	m.expiresAt = time.Time{}
	return nil
}
