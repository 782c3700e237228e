package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested key does not exist or has expired.
var ErrNotFound = errors.New("not found")

// KV is the shared key/value handle used for the token-info cache and the
// retry locks. Implementations are external shared state; callers tolerate
// stale reads and lost updates, the only atomic primitive is SetNX.
type KV interface {
	// Get returns the value for key, or ErrNotFound when absent.
	Get(ctx context.Context, key string) (string, error)

	// SetEx stores value under key with the given time-to-live.
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error

	// SetNX stores value under key only if the key is absent. Returns true
	// when the write happened. This is the acquire half of the retry lock.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Del removes key. Deleting a missing key is not an error.
	Del(ctx context.Context, key string) error
}

// EventLog is the append/read handle over the contract-event history: an
// ordered newest-first list plus the legacy per-channel hashes.
type EventLog interface {
	// Push prepends a serialized event, keeping the list newest-first.
	// Retention is bounded; the oldest entries fall off.
	Push(ctx context.Context, payload string) error

	// Entries returns the whole list, newest first.
	Entries(ctx context.Context) ([]string, error)

	// Hash returns a legacy address->channel hash by key. A missing hash
	// yields an empty map, not an error.
	Hash(ctx context.Context, key string) (map[string]string, error)
}
