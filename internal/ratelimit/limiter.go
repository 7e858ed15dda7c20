package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// rule is a fixed-window limit for one endpoint purpose
type rule struct {
	window time.Duration
	max    int64
}

// Per-purpose limits, matching the public API's abuse profile: account
// creation is rare, dashboards are polled.
var rules = map[string]rule{
	"register":  {window: time.Hour, max: 5},
	"auth":      {window: 15 * time.Minute, max: 10},
	"purchase":  {window: time.Hour, max: 15},
	"dashboard": {window: 5 * time.Minute, max: 30},
}

var defaultRule = rule{window: 15 * time.Minute, max: 100}

// Limiter is a Redis-backed fixed-window rate limiter keyed by client IP
// and endpoint purpose.
type Limiter struct {
	client *redis.Client
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

func ipKey(ip, purpose string) string {
	return fmt.Sprintf("ratelimit:%s:%s", purpose, ip)
}

func ruleFor(purpose string) rule {
	if r, ok := rules[purpose]; ok {
		return r
	}
	return defaultRule
}

// CheckIPRateLimitWithPurpose reports whether the IP has exhausted its
// window for the given purpose
func (l *Limiter) CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error) {
	count, err := l.client.Get(ctx, ipKey(ip, purpose)).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read rate limit counter: %w", err)
	}

	return count >= ruleFor(purpose).max, nil
}

// RecordIPRequestWithPurpose counts one request against the IP's window.
// The window TTL is set only when the counter is created, so the window is
// fixed rather than sliding.
func (l *Limiter) RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error {
	key := ipKey(ip, purpose)

	pipe := l.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, ruleFor(purpose).window)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record request: %w", err)
	}
	_ = incr

	return nil
}
