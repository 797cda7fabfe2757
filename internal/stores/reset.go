// Package stores holds small Redis-backed challenge stores used by the
// engine's recovery flows.
package stores

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrResetNotFound is returned when a reset token is unknown, expired, or
// already consumed.
var ErrResetNotFound = errors.New("reset record not found")

// ErrResetRedisUnavailable wraps backend failures.
var ErrResetRedisUnavailable = errors.New("reset redis unavailable")

// PasswordResetStore keeps one-shot password-reset challenges. Only the
// SHA-256 of the token is stored; the plaintext exists solely in the email
// sent to the user.
type PasswordResetStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewPasswordResetStore creates a store under the given key prefix.
func NewPasswordResetStore(client redis.UniversalClient, prefix string) *PasswordResetStore {
	if prefix == "" {
		prefix = "pwreset"
	}
	return &PasswordResetStore{redis: client, prefix: prefix}
}

func (s *PasswordResetStore) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return s.prefix + ":" + hex.EncodeToString(sum[:])
}

// Issue creates a fresh challenge for userID and returns the plaintext
// token. Issuing a new challenge does not revoke earlier ones; they age out
// on their own TTL.
func (s *PasswordResetStore) Issue(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	if err := s.redis.Set(ctx, s.key(token), userID, ttl).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrResetRedisUnavailable, err)
	}

	return token, nil
}

// Consume atomically retrieves and deletes the challenge, returning the user
// it was issued for. A token can therefore be redeemed at most once.
func (s *PasswordResetStore) Consume(ctx context.Context, token string) (string, error) {
	userID, err := s.redis.GetDel(ctx, s.key(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrResetNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrResetRedisUnavailable, err)
	}
	return userID, nil
}
