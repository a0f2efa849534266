package cacheable

import (
	"context"
	"fmt"
)

// Run executes compute under the action described by s.
//
// There is no single-flight: concurrent misses on the same key each run
// compute and each Set, and the backend decides which write wins.
func Run[V any](ctx context.Context, s *Spec, compute Func[V]) (V, error) {
	switch s.kind {
	case KindCache:
		return runCache(ctx, s, compute)
	case KindEvict:
		return runEvict(ctx, s, compute)
	case KindUpdate:
		return runUpdate(ctx, s, compute)
	}
	var zero V
	return zero, &ConfigurationError{Field: "kind", Reason: fmt.Sprintf("unknown action %d", s.kind)}
}

// Wrap returns op wrapped with the action of s. The key is the one resolved
// into s, so all calls share it regardless of the argument.
func Wrap[A, V any](s *Spec, op func(context.Context, A) (V, error)) func(context.Context, A) (V, error) {
	return func(ctx context.Context, arg A) (V, error) {
		return Run(ctx, s, func(ctx context.Context) (V, error) { return op(ctx, arg) })
	}
}

// WrapKeyed is like Wrap but derives the primary key from the argument.
// Evict still deletes the resolved Keys after it, and AllEntries still wins.
func WrapKeyed[A, V any](s *Spec, keyOf func(A) Key, op func(context.Context, A) (V, error)) func(context.Context, A) (V, error) {
	return func(ctx context.Context, arg A) (V, error) {
		ks := *s
		ks.key = keyOf(arg)
		return Run(ctx, &ks, func(ctx context.Context) (V, error) { return op(ctx, arg) })
	}
}

// runCache: get; on hit return it; on miss compute once and store if matched.
func runCache[V any](ctx context.Context, s *Spec, compute Func[V]) (V, error) {
	var zero V
	cached, ok, err := s.cache.Get(ctx, s.key, s.opts.with(nil))
	if err != nil {
		return zero, backendErr("get", s.key, err)
	}
	if ok {
		s.log.Debug("cache hit", Fields{"op": s.id.String(), "key": s.key})
		return as[V]("get", s.key, cached)
	}

	v, err := compute(ctx)
	if err != nil {
		return v, err
	}
	return store(ctx, s, v)
}

// runEvict deletes (or flushes) first, then computes. A backend failure aborts
// before compute runs.
func runEvict[V any](ctx context.Context, s *Spec, compute Func[V]) (V, error) {
	var zero V
	if s.allEntries {
		s.log.Debug("evicting all entries", Fields{"op": s.id.String()})
		if err := s.cache.Flush(ctx); err != nil {
			return zero, backendErr("flush", nil, err)
		}
		return compute(ctx)
	}

	if err := evictKey(ctx, s, s.key); err != nil {
		return zero, err
	}
	for _, k := range s.keys {
		if err := evictKey(ctx, s, k); err != nil {
			return zero, err
		}
	}
	return compute(ctx)
}

func evictKey(ctx context.Context, s *Spec, k Key) error {
	if isNil(k) {
		return nil
	}
	if err := s.cache.Delete(ctx, k); err != nil {
		return backendErr("delete", k, err)
	}
	return nil
}

// runUpdate always computes, then stores if matched.
func runUpdate[V any](ctx context.Context, s *Spec, compute Func[V]) (V, error) {
	v, err := compute(ctx)
	if err != nil {
		return v, err
	}
	return store(ctx, s, v)
}

func store[V any](ctx context.Context, s *Spec, v V) (V, error) {
	if !s.match(v) {
		s.log.Debug("store skipped by match", Fields{"op": s.id.String(), "key": s.key})
		return v, nil
	}
	stored, err := s.cache.Set(ctx, s.key, v, s.opts.with(nil))
	if err != nil {
		var zero V
		return zero, backendErr("set", s.key, err)
	}
	return as[V]("set", s.key, stored)
}
