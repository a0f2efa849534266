// Package provider defines the storage abstraction used by cacheable.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// same []byte that was previously passed to Set for a key (no prepended/appended
// metadata, no re-encoding, no mutation).
//
// Important: the keyspace "single:<ns>:" is owned by cacheable. External code
// MUST NOT write values under it. Foreign writes are treated as corruption and
// deleted on read.
package provider

import (
	"context"
	"errors"
	"time"
)

// ErrUnsupported is returned by optional operations a store cannot perform.
var ErrUnsupported = errors.New("provider: operation not supported")

// Provider is a minimal byte store with TTLs. Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL. May ignore cost if unsupported.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key. Missing keys are not an error.
	Del(ctx context.Context, key string) error

	// Clear removes every key starting with prefix. Stores that cannot
	// enumerate keys may drop everything; see the adapter docs.
	Clear(ctx context.Context, prefix string) error

	// Close releases resources.
	Close(ctx context.Context) error
}

// Ranger is implemented by stores that can enumerate their entries.
type Ranger interface {
	// Range calls fn for every live key starting with prefix until fn
	// returns false or an error occurs. Order is unspecified.
	Range(ctx context.Context, prefix string, fn func(key string, value []byte) bool) error
}
