// Package rate provides the Redis-backed failed-login attempt counter. Keys
// are fixed-window counters: INCR plus a conditional EXPIRE armed on the
// first failure, deleted outright on a successful login.
package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps backend failures. The orchestrator fails fast on
// it instead of treating an outage as a countable login failure.
var ErrRedisUnavailable = errors.New("redis unavailable")

const failurePrefix = "fla:"

// Limiter counts consecutive failed login attempts per client IP.
type Limiter struct {
	redis redis.UniversalClient
	ttl   time.Duration
}

// New creates a [Limiter]. ttl is the counter window measured from the first
// failure; the reference configuration uses 300 seconds.
func New(client redis.UniversalClient, ttl time.Duration) *Limiter {
	return &Limiter{redis: client, ttl: ttl}
}

func failureKey(ip string) string {
	return failurePrefix + ip
}

// RecordFailure increments the counter for ip, arming the TTL when this is
// the first failure in the window.
func (l *Limiter) RecordFailure(ctx context.Context, ip string) error {
	if ip == "" {
		return nil
	}

	count, err := l.redis.Incr(ctx, failureKey(ip)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, failureKey(ip), l.ttl).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return nil
}

// Clear removes the counter for ip. Called after a successful login so the
// next failure starts counting from 1, never from a stale value.
func (l *Limiter) Clear(ctx context.Context, ip string) error {
	if ip == "" {
		return nil
	}
	if err := l.redis.Del(ctx, failureKey(ip)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Exceeds reports whether the current count for ip has reached threshold.
// A missing counter reads as zero. Reads have no side effects.
func (l *Limiter) Exceeds(ctx context.Context, ip string, threshold int) (bool, error) {
	count, err := l.Count(ctx, ip)
	if err != nil {
		return false, err
	}
	return count >= threshold, nil
}

// Count returns the current failure count for ip, zero when absent.
func (l *Limiter) Count(ctx context.Context, ip string) (int, error) {
	if ip == "" {
		return 0, nil
	}

	count, err := l.redis.Get(ctx, failureKey(ip)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return int(count), nil
}
