// Package cacheable attaches caching behavior to plain Go operations.
//
// An operation is wrapped with one of three actions, resolved once into an
// immutable Spec and reused for every call:
//   - Cache: read-through. Get; on a miss compute once and Set if Match holds.
//   - Evict: delete Key then Keys in order (nil keys skipped), or Flush when
//     AllEntries is set, then compute. Eviction runs before compute; a failed
//     delete aborts the call and compute does not run.
//   - Update: always compute, then Set if Match holds.
//
// Actions talk to the cache through the Adapter interface. Cache[V] is the
// bundled Adapter: a typed layer over a byte Provider (Ristretto, BigCache,
// Redis, memory) with a Codec[V] and a GenStore of per-key generations.
//
// Keys:
//
//	single:<ns>:<key>  - entries
//	epoch:<ns>         - namespace epoch, bumped by Flush
//
// Without an explicit key every call to an operation shares one slot derived
// from its Identity. Use WrapKeyed to key by argument:
//
//	users, _ := cacheable.New[User](cacheable.Options[User]{
//		Namespace: "user",
//		Provider:  redisProvider,
//		Codec:     codec.JSON[User]{},
//	})
//	spec := cacheable.MustResolve(cacheable.KindCache, cacheable.Declared{
//		Cache: users,
//		Opts:  cacheable.Options{cacheable.OptTTL: 5 * time.Minute},
//		Match: cacheable.NotNil,
//	}, cacheable.IdentityOf(repo.LoadUser))
//	loadUser := cacheable.WrapKeyed(spec, func(id string) cacheable.Key { return id }, repo.LoadUser)
//
// There is no single-flight: concurrent misses on one key all compute and
// all Set.
//
// Dump and Load forward to a Persister looked up by name in a Registry;
// package snapshot provides a file-based Persister.
package cacheable
