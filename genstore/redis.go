package genstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configure a Redis store.
type RedisOptions struct {
	// Namespace prefixes generation keys: gen:<ns>:<key>. Should match the
	// Cache namespace so unrelated caches never share counters.
	Namespace string
	// TTL is refreshed on every bump; 0 disables expiry. An expired
	// generation reads as 0 and stale entries self-heal on read.
	TTL time.Duration
	// CloseClient closes the client on Close. Set only when the store owns it.
	CloseClient bool
}

// Redis shares generations across processes and survives restarts.
type Redis struct {
	rdb  redis.UniversalClient
	opts RedisOptions
}

var _ GenStore = (*Redis)(nil)

func NewRedis(client redis.UniversalClient, opts RedisOptions) *Redis {
	return &Redis{rdb: client, opts: opts}
}

func (s *Redis) key(k string) string { return "gen:" + s.opts.Namespace + ":" + k }

func (s *Redis) Snapshot(ctx context.Context, key string) (uint64, error) {
	res, err := s.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return parseGen(key, res)
}

// SnapshotMany issues a single MGET. With a cluster client all keys must hash
// to one slot; use a hash-tagged Namespace ("{users}") there.
func (s *Redis) SnapshotMany(ctx context.Context, keys []string) (map[string]uint64, error) {
	out := make(map[string]uint64, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	rk := make([]string, len(keys))
	for i, k := range keys {
		rk[i] = s.key(k)
	}
	vals, err := s.rdb.MGet(ctx, rk...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		g, err := parseGen(keys[i], v)
		if err != nil {
			return nil, err
		}
		out[keys[i]] = g
	}
	return out, nil
}

// Bump increments the generation; with a TTL, INCR + EXPIRE share one round-trip.
func (s *Redis) Bump(ctx context.Context, key string) (uint64, error) {
	k := s.key(key)
	if s.opts.TTL <= 0 {
		return s.rdb.Incr(ctx, k).Uint64()
	}
	var incr *redis.IntCmd
	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.Expire(ctx, k, s.opts.TTL)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Uint64()
}

// Cleanup is a no-op; Redis expires keys itself when TTL is set.
func (s *Redis) Cleanup(time.Duration) {}

func (s *Redis) Close(context.Context) error {
	if !s.opts.CloseClient {
		return nil
	}
	if err := s.rdb.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}

func parseGen(key string, v any) (uint64, error) {
	var str string
	switch vv := v.(type) {
	case nil:
		return 0, nil
	case string:
		str = vv
	case []byte:
		str = string(vv)
	default:
		str = fmt.Sprint(vv)
	}
	u, err := strconv.ParseUint(str, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis gen parse at %s: %w", key, err)
	}
	return u, nil
}
