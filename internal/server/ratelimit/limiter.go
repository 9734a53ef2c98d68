// Package ratelimit throttles failed logins with fixed-window counters in
// Redis: INCR on every failure, EXPIRE on the first one of a window.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sku-codemong/codemong-Backend-02/internal/common"
)

var ErrRedisUnavailable = errors.New("redis unavailable")

type Config struct {
	MaxAttempts int
	Window      time.Duration
}

// LoginLimiter counts failed logins per email and per client IP.
type LoginLimiter struct {
	redis  redis.UniversalClient
	config Config
}

func NewLoginLimiter(client redis.UniversalClient, cfg Config) *LoginLimiter {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	return &LoginLimiter{redis: client, config: cfg}
}

func emailKey(email string) string { return "login:email:" + strings.ToLower(email) }
func ipKey(ip string) string       { return "login:ip:" + ip }

func (l *LoginLimiter) keys(email, ip string) []string {
	keys := []string{emailKey(email)}
	if ip != "" {
		keys = append(keys, ipKey(ip))
	}
	return keys
}

// Check returns common.ErrRateLimited once either counter has reached the
// budget for the current window.
func (l *LoginLimiter) Check(ctx context.Context, email, ip string) error {
	for _, key := range l.keys(email, ip) {
		n, err := l.redis.Get(ctx, key).Int64()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		if n >= int64(l.config.MaxAttempts) {
			return common.ErrRateLimited
		}
	}
	return nil
}

// RecordFailure counts one failed attempt.
func (l *LoginLimiter) RecordFailure(ctx context.Context, email, ip string) error {
	for _, key := range l.keys(email, ip) {
		n, err := l.redis.Incr(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		if n == 1 {
			if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
			}
		}
	}
	return nil
}

// Reset forgets the email counter after a successful login. The IP counter
// is left alone so one good account cannot launder a spraying client.
func (l *LoginLimiter) Reset(ctx context.Context, email string) error {
	if err := l.redis.Del(ctx, emailKey(email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
