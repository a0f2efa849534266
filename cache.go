package cacheable

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	c "github.com/unkn0wn-root/cacheable/codec"
	gen "github.com/unkn0wn-root/cacheable/genstore"
	"github.com/unkn0wn-root/cacheable/internal/util"
	"github.com/unkn0wn-root/cacheable/internal/wire"
	pr "github.com/unkn0wn-root/cacheable/provider"
)

const (
	defaultTTL          = 10 * time.Minute
	defaultGenRetention = 30 * 24 * time.Hour
	defaultSweep        = time.Hour
)

type SetCostFunc func(storageKey string, raw []byte) int64

// Options tune a Cache. Namespace, Provider and Codec are required.
type Options[V any] struct {
	Namespace string // logical namespace to avoid collisions. e.g. "user", "profile", "order"
	Provider  pr.Provider
	Codec     c.Codec[V]

	Logger          Logger        // nil => NopLogger
	Hooks           Hooks         // nil => NopHooks
	DefaultTTL      time.Duration // used when Set opts carry no ttl; 0 => 10m
	CleanupInterval time.Duration // local gen sweep; 0 => 1h
	GenRetention    time.Duration // local gen retention; 0 => 30d
	Disabled        bool          // pass-through: every Get misses, writes are dropped
	ComputeSetCost  SetCostFunc   // default 1
	GenStore        gen.GenStore  // nil => in-process genstore.Local owned by the Cache
}

// Cache is an Adapter storing V values in a byte Provider.
//
// Entries are stamped with the namespace epoch and the key generation current
// at write time. Delete bumps the key generation and Flush bumps the epoch, so
// every entry written before them is dropped on read even when the provider
// itself could not remove it (another replica's local store, a failed Del).
type Cache[V any] struct {
	ns             string
	prefix         string
	epochKey       string
	provider       pr.Provider
	codec          c.Codec[V]
	log            Logger
	hooks          Hooks
	enabled        bool
	defaultTTL     time.Duration
	computeSetCost SetCostFunc
	gen            gen.GenStore
	ownsGen        bool
}

var _ Adapter = (*Cache[struct{}])(nil)

func New[V any](opts Options[V]) (*Cache[V], error) {
	if opts.Provider == nil {
		return nil, &ConfigurationError{Field: "provider", Reason: "provider is required"}
	}
	if opts.Codec == nil {
		return nil, &ConfigurationError{Field: "codec", Reason: "codec is required"}
	}
	if opts.Namespace == "" {
		return nil, &ConfigurationError{Field: "namespace", Reason: "namespace is required"}
	}

	cc := &Cache[V]{
		ns:       opts.Namespace,
		prefix:   "single:" + opts.Namespace + ":",
		epochKey: "epoch:" + opts.Namespace,
		provider: opts.Provider,
		codec:    opts.Codec,
		enabled:  !opts.Disabled,
	}

	cc.log = coalesce[Logger](opts.Logger, NopLogger{})
	cc.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	cc.defaultTTL = coalesce(opts.DefaultTTL, defaultTTL)

	if opts.ComputeSetCost != nil {
		cc.computeSetCost = opts.ComputeSetCost
	} else {
		cc.computeSetCost = func(string, []byte) int64 { return 1 }
	}

	if opts.GenStore != nil {
		cc.gen = opts.GenStore
	} else {
		cc.gen = gen.NewLocal(gen.LocalOptions{
			CleanupInterval: coalesce(opts.CleanupInterval, defaultSweep),
			Retention:       coalesce(opts.GenRetention, defaultGenRetention),
		})
		cc.ownsGen = true
	}
	return cc, nil
}

func (cc *Cache[V]) Namespace() string         { return cc.ns }
func (cc *Cache[V]) Enabled() bool             { return cc.enabled }
func (cc *Cache[V]) DefaultTTL() time.Duration { return cc.defaultTTL }

// Close closes the genstore when the Cache created it, then the provider.
func (cc *Cache[V]) Close(ctx context.Context) error {
	if cc.ownsGen {
		_ = cc.gen.Close(ctx)
	}
	return cc.provider.Close(ctx)
}

// Get implements Adapter. The returned value is a V.
func (cc *Cache[V]) Get(ctx context.Context, key Key, opts Options) (any, bool, error) {
	v, ok, err := cc.Fetch(ctx, key, opts)
	if err != nil || !ok {
		return nil, false, err
	}
	return v, true, nil
}

// Fetch is the typed form of Get.
func (cc *Cache[V]) Fetch(ctx context.Context, key Key, opts Options) (V, bool, error) {
	var zero V
	if !cc.enabled {
		return zero, false, nil
	}
	sk, err := cc.storageKey(key)
	if err != nil {
		return zero, false, &BackendError{Op: "get", Key: key, Err: err}
	}
	ctx, cancel := withTimeout(ctx, opts)
	defer cancel()

	raw, ok, err := cc.provider.Get(ctx, sk)
	if err != nil {
		return zero, false, &BackendError{Op: "get", Key: key, Err: err}
	}
	if !ok {
		cc.hooks.Miss(cc.ns)
		return zero, false, nil
	}

	epoch, g, payload, err := wire.DecodeEntry(raw)
	if err != nil {
		cc.selfHeal(ctx, sk, "corrupt")
		return zero, false, nil
	}
	curEpoch, curGen, err := cc.gens(ctx, sk)
	if err != nil {
		return zero, false, &BackendError{Op: "get", Key: key, Err: err}
	}
	if epoch != curEpoch || g != curGen {
		cc.selfHeal(ctx, sk, "gen_mismatch")
		return zero, false, nil
	}
	v, err := cc.codec.Decode(payload)
	if err != nil {
		cc.selfHeal(ctx, sk, "value_decode")
		return zero, false, nil
	}
	cc.hooks.Hit(cc.ns)
	return v, true, nil
}

// Set implements Adapter. value must be a V (nil stores the zero V).
// It returns the value when opts carry return=value and nil otherwise.
func (cc *Cache[V]) Set(ctx context.Context, key Key, value any, opts Options) (any, error) {
	v, err := as[V]("set", key, value)
	if err != nil {
		return nil, err
	}
	if err := cc.Store(ctx, key, v, opts); err != nil {
		return nil, err
	}
	if opts.String(OptReturn) == ReturnValue {
		return v, nil
	}
	return nil, nil
}

// Store is the typed form of Set. Opts may carry ttl and timeout.
func (cc *Cache[V]) Store(ctx context.Context, key Key, v V, opts Options) error {
	if !cc.enabled {
		return nil
	}
	sk, err := cc.storageKey(key)
	if err != nil {
		return &BackendError{Op: "set", Key: key, Err: err}
	}
	payload, err := cc.codec.Encode(v)
	if err != nil {
		return &BackendError{Op: "set", Key: key, Err: fmt.Errorf("encode: %w", err)}
	}
	ctx, cancel := withTimeout(ctx, opts)
	defer cancel()

	if err := cc.write(ctx, sk, payload, opts.Duration(OptTTL)); err != nil {
		return &BackendError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// Delete bumps the key generation and removes the entry. Either step alone
// invalidates the entry, so Delete fails only when both do.
func (cc *Cache[V]) Delete(ctx context.Context, key Key) error {
	if !cc.enabled {
		return nil
	}
	sk, err := cc.storageKey(key)
	if err != nil {
		return &BackendError{Op: "delete", Key: key, Err: err}
	}
	newGen, bumpErr := cc.gen.Bump(ctx, sk)
	if bumpErr != nil {
		cc.hooks.GenBumpError(sk, bumpErr)
		cc.log.Warn("gen bump failed on delete", Fields{"key": sk, "err": bumpErr})
	}
	if err := cc.provider.Del(ctx, sk); err != nil {
		if bumpErr != nil {
			return &BackendError{Op: "delete", Key: key, Err: errors.Join(err, bumpErr)}
		}
		cc.log.Warn("provider delete failed; entry invalidated by generation", Fields{"key": sk, "err": err})
	}
	cc.log.Debug("deleted key", Fields{"key": sk, "gen": newGen})
	return nil
}

// Flush bumps the namespace epoch and clears the namespace in the provider.
// Like Delete it fails only when both steps fail.
func (cc *Cache[V]) Flush(ctx context.Context) error {
	if !cc.enabled {
		return nil
	}
	epoch, bumpErr := cc.gen.Bump(ctx, cc.epochKey)
	if bumpErr != nil {
		cc.hooks.GenBumpError(cc.epochKey, bumpErr)
		cc.log.Warn("epoch bump failed on flush", Fields{"ns": cc.ns, "err": bumpErr})
	}
	if err := cc.provider.Clear(ctx, cc.prefix); err != nil {
		if bumpErr != nil {
			return &BackendError{Op: "flush", Err: errors.Join(err, bumpErr)}
		}
		cc.log.Warn("provider clear failed; namespace invalidated by epoch", Fields{"ns": cc.ns, "err": err})
	}
	cc.hooks.Flushed(cc.ns)
	cc.log.Debug("flushed namespace", Fields{"ns": cc.ns, "epoch": epoch})
	return nil
}

// Export calls fn with every valid entry as (key, encoded value). Keys are
// rendered storage keys without the namespace prefix. Requires a provider.Ranger.
func (cc *Cache[V]) Export(ctx context.Context, fn func(key string, payload []byte) error) error {
	rg, ok := cc.provider.(pr.Ranger)
	if !ok {
		return fmt.Errorf("export %s: %w", cc.ns, pr.ErrUnsupported)
	}
	var cbErr error
	err := rg.Range(ctx, cc.prefix, func(sk string, raw []byte) bool {
		epoch, g, payload, err := wire.DecodeEntry(raw)
		if err != nil {
			return true
		}
		curEpoch, curGen, err := cc.gens(ctx, sk)
		if err != nil {
			cbErr = err
			return false
		}
		if epoch != curEpoch || g != curGen {
			return true
		}
		if err := fn(strings.TrimPrefix(sk, cc.prefix), payload); err != nil {
			cbErr = err
			return false
		}
		return true
	})
	if err != nil {
		return err
	}
	return cbErr
}

// Import stores an exported entry. The payload must decode with the Cache codec.
// ttl <= 0 uses DefaultTTL.
func (cc *Cache[V]) Import(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if !cc.enabled {
		return nil
	}
	if _, err := cc.codec.Decode(payload); err != nil {
		return fmt.Errorf("import %q: %w", key, err)
	}
	return cc.write(ctx, cc.prefix+key, payload, ttl)
}

func (cc *Cache[V]) write(ctx context.Context, sk string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = cc.defaultTTL
	}
	epoch, g, err := cc.gens(ctx, sk)
	if err != nil {
		return err
	}
	raw := wire.EncodeEntry(epoch, g, payload)
	ok, err := cc.provider.Set(ctx, sk, raw, cc.computeSetCost(sk, raw), ttl)
	if err != nil {
		return err
	}
	if !ok {
		cc.hooks.ProviderSetRejected(sk)
		cc.log.Debug("set rejected by provider (pressure)", Fields{"key": sk})
	}
	return nil
}

func (cc *Cache[V]) gens(ctx context.Context, sk string) (epoch, g uint64, err error) {
	m, err := cc.gen.SnapshotMany(ctx, []string{cc.epochKey, sk})
	if err != nil {
		cc.hooks.GenSnapshotError(2, err)
		return 0, 0, fmt.Errorf("gen snapshot: %w", err)
	}
	return m[cc.epochKey], m[sk], nil
}

func (cc *Cache[V]) selfHeal(ctx context.Context, sk, reason string) {
	_ = cc.provider.Del(ctx, sk)
	cc.hooks.SelfHeal(sk, reason)
	cc.log.Debug("self-healed entry", Fields{"key": sk, "reason": reason})
}

func (cc *Cache[V]) storageKey(key Key) (string, error) {
	ks, err := util.KeyString(key)
	if err != nil {
		return "", err
	}
	return cc.prefix + ks, nil
}

func withTimeout(ctx context.Context, opts Options) (context.Context, context.CancelFunc) {
	if d := opts.Duration(OptTimeout); d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return ctx, func() {}
}
