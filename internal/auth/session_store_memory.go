package auth

import (
	"context"
	"sync"
)

// NewInMemoryRefreshStore returns a RefreshTokenStore backed by a map.
func NewInMemoryRefreshStore() *InMemoryRefreshStore {
	return &InMemoryRefreshStore{tokens: make(map[string]string)}
}

// InMemoryRefreshStore implements RefreshTokenStore for tests and local development.
type InMemoryRefreshStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// SetRefreshToken stores token for userID; nil clears it.
func (s *InMemoryRefreshStore) SetRefreshToken(_ context.Context, userID string, token *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == nil {
		delete(s.tokens, userID)
		return nil
	}
	s.tokens[userID] = *token
	return nil
}

// RefreshToken returns the stored token or ErrNoRefreshToken.
func (s *InMemoryRefreshStore) RefreshToken(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[userID]
	if !ok {
		return "", ErrNoRefreshToken
	}
	return token, nil
}

// Has reports whether userID holds a refresh token.
func (s *InMemoryRefreshStore) Has(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tokens[userID]
	return ok
}
