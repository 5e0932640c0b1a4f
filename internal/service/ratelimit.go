package service

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// LoginLimiter throttles login attempts per email over a fixed window.
// It fails open: when Redis is unreachable logins proceed unthrottled,
// since locking everyone out is worse than losing the throttle.
type LoginLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	logger *zap.Logger
}

// NewLoginLimiter builds a limiter. A nil client or non-positive limit
// disables throttling.
func NewLoginLimiter(client *redis.Client, limit int, window time.Duration, logger *zap.Logger) *LoginLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &LoginLimiter{client: client, limit: limit, window: window, logger: logger}
}

// Allow records one attempt for email and rejects when the window's
// budget is exhausted.
func (l *LoginLimiter) Allow(ctx context.Context, email string) error {
	if l == nil || l.client == nil || l.limit <= 0 {
		return nil
	}

	key := "login_attempts:" + strings.ToLower(strings.TrimSpace(email))
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		if l.logger != nil {
			l.logger.Warn("login limiter unavailable", zap.Error(err))
		}
		return nil
	}
	if count == 1 {
		l.client.Expire(ctx, key, l.window)
	}
	if count > int64(l.limit) {
		return apperrors.NewRateLimited("too many login attempts, try again later")
	}
	return nil
}
