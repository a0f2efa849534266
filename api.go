package cacheable

import (
	"context"
	"time"
)

// Key identifies a cache slot. Any comparable value works; adapters render it
// to a storage key. A nil Key is skipped by Evict.
type Key = any

// Well-known option names.
const (
	OptReturn  = "return"  // what Set hands back; forced to ReturnValue on resolved specs
	OptTTL     = "ttl"     // time.Duration; entry lifetime for Set
	OptTimeout = "timeout" // time.Duration; bound for a single backend call

	ReturnValue = "value"
)

// Options are passed through to adapter Get/Set calls.
type Options map[string]any

// Duration returns the time.Duration stored under name, or 0.
func (o Options) Duration(name string) time.Duration {
	switch v := o[name].(type) {
	case time.Duration:
		return v
	case int:
		return time.Duration(v)
	case int64:
		return time.Duration(v)
	}
	return 0
}

// Bool returns the bool stored under name, or false.
func (o Options) Bool(name string) bool {
	b, _ := o[name].(bool)
	return b
}

// String returns the string stored under name, or "".
func (o Options) String(name string) string {
	s, _ := o[name].(string)
	return s
}

// with returns a copy of o with kv applied on top.
func (o Options) with(kv Options) Options {
	out := make(Options, len(o)+len(kv))
	for k, v := range o {
		out[k] = v
	}
	for k, v := range kv {
		out[k] = v
	}
	return out
}

// Adapter is the capability set actions consume from a cache backend.
//
// Get returns (value, true, nil) on hit and (nil, false, nil) on miss.
// Set returns the stored value when opts carry return=value.
// Each call receives its own copy of opts.
// Implementations must be safe for concurrent use.
type Adapter interface {
	Get(ctx context.Context, key Key, opts Options) (any, bool, error)
	Set(ctx context.Context, key Key, value any, opts Options) (any, error)
	Delete(ctx context.Context, key Key) error
	Flush(ctx context.Context) error
}

// Func is the wrapped computation.
type Func[V any] func(ctx context.Context) (V, error)

// Predicate decides whether a computed value is stored.
type Predicate func(v any) bool

// Always stores every value.
func Always(any) bool { return true }

// NotNil rejects nil values, including typed nil pointers, maps and slices.
func NotNil(v any) bool { return !isNil(v) }

// MatchFunc adapts a typed predicate. Values of another type never match.
func MatchFunc[V any](fn func(V) bool) Predicate {
	return func(v any) bool {
		tv, ok := v.(V)
		if !ok {
			return false
		}
		return fn(tv)
	}
}

// Kind selects the action an operation is wrapped with.
type Kind int

const (
	KindCache  Kind = iota + 1 // read-through
	KindEvict                  // write-through delete
	KindUpdate                 // write-through update
)

func (k Kind) String() string {
	switch k {
	case KindCache:
		return "cache"
	case KindEvict:
		return "evict"
	case KindUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// Identity names a wrapped operation. Owner is typically the package path or
// receiver type and Name the function or method.
type Identity struct {
	Owner string
	Name  string
}

func (id Identity) String() string {
	if id.Owner == "" {
		return id.Name
	}
	return id.Owner + "." + id.Name
}
