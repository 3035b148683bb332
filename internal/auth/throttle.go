package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const loginFailurePrefix = "login:failures:"

// LoginThrottle counts failed logins per email in Redis and locks the email
// out once the count reaches the limit. Redis errors never block a login.
type LoginThrottle struct {
	client      redis.Cmdable
	maxAttempts int
	window      time.Duration
	logger      *zap.Logger
}

// NewLoginThrottle builds a throttle. A nil client or non-positive limit disables it.
func NewLoginThrottle(client redis.Cmdable, maxAttempts int, window time.Duration, logger *zap.Logger) *LoginThrottle {
	if logger == nil {
		logger = zap.NewNop()
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &LoginThrottle{client: client, maxAttempts: maxAttempts, window: window, logger: logger}
}

func (t *LoginThrottle) enabled() bool {
	return t != nil && t.client != nil && t.maxAttempts > 0
}

func throttleKey(email string) string {
	return loginFailurePrefix + strings.ToLower(strings.TrimSpace(email))
}

// Allowed reports whether another login attempt for email may proceed.
func (t *LoginThrottle) Allowed(ctx context.Context, email string) bool {
	if !t.enabled() {
		return true
	}
	count, err := t.client.Get(ctx, throttleKey(email)).Int()
	if errors.Is(err, redis.Nil) {
		return true
	}
	if err != nil {
		t.logger.Warn("login throttle unavailable", zap.Error(err))
		return true
	}
	return count < t.maxAttempts
}

// RecordFailure increments the failure counter, starting the lockout window on the first failure.
func (t *LoginThrottle) RecordFailure(ctx context.Context, email string) {
	if !t.enabled() {
		return
	}
	key := throttleKey(email)
	count, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		t.logger.Warn("login throttle unavailable", zap.Error(err))
		return
	}
	if count == 1 {
		if err := t.client.Expire(ctx, key, t.window).Err(); err != nil {
			t.logger.Warn("login throttle expiry not set", zap.Error(err))
		}
	}
}

// Reset clears the counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, email string) {
	if !t.enabled() {
		return
	}
	if err := t.client.Del(ctx, throttleKey(email)).Err(); err != nil {
		t.logger.Warn("login throttle reset failed", zap.Error(err))
	}
}
