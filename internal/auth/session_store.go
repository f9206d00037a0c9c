package auth

import (
	"context"
	"time"

	"recipeapp/internal/cache"
)

const revokedSessionKeyPrefix = "revoked:session:"

// SessionStoreInterface defines revocation bookkeeping for issued session tokens.
type SessionStoreInterface interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// SessionStore keeps revoked session IDs in Redis until the token would have expired anyway.
type SessionStore struct {
	cache *cache.Client
}

var _ SessionStoreInterface = (*SessionStore)(nil)

// NewSessionStore creates a new session store.
func NewSessionStore(cache *cache.Client) *SessionStore {
	return &SessionStore{cache: cache}
}

// Revoke marks a session as logged out.
func (s *SessionStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.cache.Set(ctx, revokedSessionKeyPrefix+tokenID, []byte("1"), ttl)
}

// IsRevoked checks whether a session was logged out. Redis errors read as not revoked.
func (s *SessionStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	data, err := s.cache.Get(ctx, revokedSessionKeyPrefix+tokenID)
	if err != nil {
		return false, nil
	}
	return data != nil, nil
}
