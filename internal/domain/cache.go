package domain

import (
	"context"
	"time"
)

// RateLimiter throttles inbound requests per client key.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
