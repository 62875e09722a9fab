// Package cache is the short-lived key/value store shared by the desk
// services: statistics snapshots, duplicate-scan windows, login rate limits
// and idempotency records. It runs in process or on Redis.
package cache

import (
	"context"
	"time"
)

type Cache interface {
	// Get returns the value and true when the key is present and not expired.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetNX stores value only when key is absent and reports whether it did.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// Incr increments a counter; the first increment starts its ttl.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Delete(ctx context.Context, key string) error
	Close() error
}
