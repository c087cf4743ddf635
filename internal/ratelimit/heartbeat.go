package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/fleetwatch/internal/config"
)

const keyHeartbeatAccount = "heartbeat:account:%s"

// HeartbeatLimiter throttles heartbeat ingestion per account. Disabled (or
// without redis) it fails open: every request is allowed.
type HeartbeatLimiter struct {
	enabled bool
	bucket  *TokenBucket
	rate    float64
	burst   int
}

func NewHeartbeatLimiter(cfg config.Config, client *redis.Client) *HeartbeatLimiter {
	if !cfg.RateLimit.Enabled || client == nil {
		return nil
	}
	return &HeartbeatLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    cfg.RateLimit.HeartbeatRate,
		burst:   cfg.RateLimit.HeartbeatBurst,
	}
}

func (l *HeartbeatLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *HeartbeatLimiter) Allow(ctx context.Context, accountID string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyHeartbeatAccount, strings.TrimSpace(accountID)), l.rate, l.burst)
}
