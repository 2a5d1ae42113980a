package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redcloud442/aurora/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RequestLimiter implements domain.RequestLimiter with one key per allowance
// that expires at the end of its window.
type RequestLimiter struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRequestLimiter creates a RequestLimiter backed by the given Client.
func NewRequestLimiter(c *Client) *RequestLimiter {
	return &RequestLimiter{rdb: c.rdb, now: time.Now}
}

func allowanceKey(key string) string {
	return "aurora:allowance:" + key
}

// Reserve takes the allowance for key until the given time.
func (rl *RequestLimiter) Reserve(ctx context.Context, key string, until time.Time) (bool, error) {
	if !until.After(rl.now()) {
		return false, fmt.Errorf("redis: reserve %s: window already closed", key)
	}

	err := rl.rdb.SetArgs(ctx, allowanceKey(key), rl.now().UTC().Format(time.RFC3339), redis.SetArgs{
		Mode:     "NX",
		ExpireAt: until,
	}).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis: reserve %s: %w", key, err)
	}
	return true, nil
}

// Release gives the allowance for key back.
func (rl *RequestLimiter) Release(ctx context.Context, key string) error {
	if err := rl.rdb.Del(ctx, allowanceKey(key)).Err(); err != nil {
		return fmt.Errorf("redis: release %s: %w", key, err)
	}
	return nil
}

var _ domain.RequestLimiter = (*RequestLimiter)(nil)
