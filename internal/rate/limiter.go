// Package rate enforces per-identifier and per-IP attempt budgets for login
// and password-reset requests using Redis counters with a TTL cooldown.
package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLimited is returned when an attempt budget is exhausted.
var ErrLimited = errors.New("rate limited")

// Config holds throttle tuning parameters.
type Config struct {
	KeyPrefix        string
	MaxLoginAttempts int
	LoginCooldown    time.Duration
	MaxResetRequests int
	ResetCooldown    time.Duration
}

// Limiter tracks failed logins and reset requests in Redis.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a Limiter backed by the given Redis client.
func New(client redis.UniversalClient, cfg Config) *Limiter {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "ak"
	}
	return &Limiter{redis: client, config: cfg}
}

// CheckLogin reports whether the email+IP pair is still within its failed
// login budget.
func (l *Limiter) CheckLogin(ctx context.Context, email, ip string) error {
	if err := l.check(ctx, l.key("login", "u", email), l.config.MaxLoginAttempts); err != nil {
		return err
	}
	if ip != "" {
		return l.check(ctx, l.key("login", "ip", ip), l.config.MaxLoginAttempts)
	}
	return nil
}

// RecordLoginFailure counts one failed login for the email+IP pair.
func (l *Limiter) RecordLoginFailure(ctx context.Context, email, ip string) error {
	if err := l.increment(ctx, l.key("login", "u", email), l.config.MaxLoginAttempts, l.config.LoginCooldown); err != nil {
		return err
	}
	if ip != "" {
		return l.increment(ctx, l.key("login", "ip", ip), l.config.MaxLoginAttempts, l.config.LoginCooldown)
	}
	return nil
}

// ResetLogin clears the failed-login counters after a successful login.
func (l *Limiter) ResetLogin(ctx context.Context, email, ip string) error {
	keys := []string{l.key("login", "u", email)}
	if ip != "" {
		keys = append(keys, l.key("login", "ip", ip))
	}
	return l.redis.Del(ctx, keys...).Err()
}

// CheckReset reports whether the email is still within its reset-request
// budget.
func (l *Limiter) CheckReset(ctx context.Context, email string) error {
	return l.check(ctx, l.key("reset", "u", email), l.config.MaxResetRequests)
}

// RecordResetRequest counts one reset request for the email.
func (l *Limiter) RecordResetRequest(ctx context.Context, email string) error {
	return l.increment(ctx, l.key("reset", "u", email), l.config.MaxResetRequests, l.config.ResetCooldown)
}

func (l *Limiter) key(flow, kind, value string) string {
	return fmt.Sprintf("%s:throttle:%s:%s:%s", l.config.KeyPrefix, flow, kind, value)
}

func (l *Limiter) check(ctx context.Context, key string, budget int) error {
	if budget <= 0 {
		return nil
	}
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}
	if count >= int64(budget) {
		return ErrLimited
	}
	return nil
}

func (l *Limiter) increment(ctx context.Context, key string, budget int, cooldown time.Duration) error {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if count == 1 && cooldown > 0 {
		if err := l.redis.Expire(ctx, key, cooldown).Err(); err != nil {
			return err
		}
	}
	if budget > 0 && count > int64(budget) {
		return ErrLimited
	}
	return nil
}
