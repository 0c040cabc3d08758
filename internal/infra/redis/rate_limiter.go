package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// RateLimiter is a fixed-window counter keyed by caller-supplied keys.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}

	if count == 1 {
		err = r.client.Expire(ctx, key, window)
		if err != nil {
			return false, err
		}
	}

	if count > int64(limit) {
		return false, nil
	}

	return true, nil
}

// AccessAttemptKey buckets start attempts per access token without storing the token.
func AccessAttemptKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return fmt.Sprintf("rate_limit:access:%s", hex.EncodeToString(sum[:8]))
}
