package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// releaseLeaseScript deletes the key only when the caller still holds it, so
// a lease that expired and was re-acquired elsewhere is never released by the
// previous holder.
const releaseLeaseScript = `
local holder = redis.call("get", KEYS[1])
if holder == ARGV[1] then
  return redis.call("del", KEYS[1])
end
return 0
`

// Locker is a lease-style distributed lock backed by SETNX with a TTL. Each
// acquisition mints a fresh holder token; release is a no-op for anyone else.
type Locker struct {
	client  *redis.Client
	release *redis.Script
}

func NewLocker(client *redis.Client) *Locker {
	if client == nil {
		return nil
	}
	return &Locker{
		client:  client,
		release: redis.NewScript(releaseLeaseScript),
	}
}

// Acquire attempts to take the lease. It returns the holder token and whether
// the lease was obtained; a held lease is not an error.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if l == nil || l.client == nil {
		return "", false, errors.New("lease client not configured")
	}
	if key == "" || ttl <= 0 {
		return "", false, fmt.Errorf("invalid lease request: key=%q ttl=%s", key, ttl)
	}

	token := "lease-" + uuid.NewString()
	acquired, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, acquired, nil
}

// Release gives the lease back. Only the holder token that acquired it can
// delete the key; stale tokens are ignored.
func (l *Locker) Release(ctx context.Context, key, token string) error {
	if l == nil || l.client == nil {
		return nil
	}
	if key == "" || token == "" {
		return nil
	}
	return l.release.Run(ctx, l.client, []string{key}, token).Err()
}
