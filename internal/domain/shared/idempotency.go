package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers client-supplied idempotency keys so that a
// retried request replays the original result instead of repeating the work.
type IdempotencyStore interface {
	// Reserve claims key for ttl. It returns false if the key is already
	// reserved or completed.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Complete stores the result payload for a reserved key
	Complete(ctx context.Context, key string, payload []byte, ttl time.Duration) error

	// Result returns the stored payload. found is false while the key is
	// still in flight or unknown.
	Result(ctx context.Context, key string) (payload []byte, found bool, err error)

	// Release drops a reservation so the client can retry after a failure
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}
