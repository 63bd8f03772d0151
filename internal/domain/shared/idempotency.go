package shared

import (
	"context"
	"time"
)

// DefaultIdempotencyTTL covers the longest outbox retry schedule with room to
// spare, so a redelivered OrderCreated never notifies a vendor twice.
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStore records which handler already completed which event.
// Keys are opaque to the store; callers scope them per handler.
type IdempotencyStore interface {
	// MarkProcessed reports true when key was not recorded before
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
	Close() error
}

// IdempotencyConfig controls duplicate suppression around event handlers
type IdempotencyConfig struct {
	// TTL is how long a completed key is remembered
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig enables suppression with DefaultIdempotencyTTL
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{TTL: DefaultIdempotencyTTL, Enabled: true}
}
