package ports

import (
	"context"
	"time"
)

// Cache is a string key-value store with per-key expiry, used for sessions
// and pending email verifications. A ttl <= 0 means the key never expires.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
