package sessions

import (
	"context"
	"time"
)

// Store is the key-value store holding session records. Keys expire on their own after the
// TTL given to Put. Implementations report failures wrapped in ErrStoreUnavailable.
type Store interface {
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	// Get reports ok=false for an absent key.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Delete reports whether the key existed. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) (bool, error)
	// ScanDelete deletes every key starting with prefix and returns how many were removed.
	ScanDelete(ctx context.Context, prefix string) (int, error)
	Ping(ctx context.Context) error
	Close() error
}
