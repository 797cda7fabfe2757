// Package session provides the Redis-backed session store. Each login writes
// one record with a TTL equal to the refresh-token lifetime; every
// authenticated request reads it back to confirm the session is still live.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/storyforge/authkit/jwt"
)

// ErrNotFound is returned by Get when no record exists for the session ID.
var ErrNotFound = errors.New("session not found")

// ErrRedisUnavailable wraps backend failures so callers can distinguish an
// absent session from an outage and fail fast on the latter.
var ErrRedisUnavailable = errors.New("redis unavailable")

// Store persists session records and mints the token pair for new sessions.
type Store struct {
	redis  redis.UniversalClient
	tokens *jwt.Manager
	prefix string
	ttl    time.Duration
}

// NewStore creates a session [Store]. ttl must be the refresh-token lifetime;
// prefix sets the Redis key namespace.
func NewStore(client redis.UniversalClient, tokens *jwt.Manager, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = "session"
	}
	return &Store{redis: client, tokens: tokens, prefix: prefix, ttl: ttl}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

// Create generates a fresh session ID, issues both tokens with that ID
// embedded, and writes the record in a single key write with the refresh
// lifetime as TTL.
func (s *Store) Create(ctx context.Context, user jwt.Snapshot) (*Bundle, error) {
	rec := Record{
		SessionID: uuid.NewString(),
		User:      user,
		CreatedAt: time.Now().UTC(),
	}

	access, err := s.tokens.IssueAccess(rec.SessionID, user)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefresh(rec.SessionID, user)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	if err := s.redis.Set(ctx, s.key(rec.SessionID), data, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return &Bundle{
		SessionID:    rec.SessionID,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// Get returns the record for sessionID, [ErrNotFound] when it is absent or
// has lapsed, or an [ErrRedisUnavailable]-wrapped error on backend failure.
func (s *Store) Get(ctx context.Context, sessionID string) (*Record, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("corrupt session record: %w", err)
	}
	rec.SessionID = sessionID

	return &rec, nil
}

// Invalidate deletes the session record. Deleting a session that does not
// exist is not an error.
func (s *Store) Invalidate(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
