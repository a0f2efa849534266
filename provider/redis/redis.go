package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pr "github.com/unkn0wn-root/cacheable/provider"
)

var ErrNilClient = errors.New("redis provider: nil client")

const defaultScanCount = 500

type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
	scanCount   int64
}

var (
	_ pr.Provider = (*Redis)(nil)
	_ pr.Ranger   = (*Redis)(nil)
)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool  // set true only if this provider exclusively owns the client
	ScanCount   int64 // SCAN COUNT hint for Clear/Range; 0 => 500
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	sc := cfg.ScanCount
	if sc <= 0 {
		sc = defaultScanCount
	}
	return &Redis{rdb: cfg.Client, closeClient: cfg.CloseClient, scanCount: sc}, nil
}

func (p *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := p.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return b, true, nil
}

func (p *Redis) Set(ctx context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = 0 // treat non-positive TTLs as "no expiry" per provider contract
	}
	if err := p.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Redis) Del(ctx context.Context, key string) error {
	return p.rdb.Del(ctx, key).Err()
}

// Clear deletes every key matching prefix* with SCAN + DEL batches.
// On a cluster client every master is scanned.
func (p *Redis) Clear(ctx context.Context, prefix string) error {
	return p.eachNode(ctx, func(ctx context.Context, c goredis.UniversalClient) error {
		return p.scan(ctx, c, prefix, func(keys []string) (bool, error) {
			for _, k := range keys {
				// one key per DEL keeps cluster slots happy
				if err := c.Del(ctx, k).Err(); err != nil {
					return false, err
				}
			}
			return true, nil
		})
	})
}

// Range reads every key matching prefix*. Keys expiring mid-scan are skipped.
func (p *Redis) Range(ctx context.Context, prefix string, fn func(string, []byte) bool) error {
	stop := errors.New("stop")
	err := p.eachNode(ctx, func(ctx context.Context, c goredis.UniversalClient) error {
		return p.scan(ctx, c, prefix, func(keys []string) (bool, error) {
			cmds := make([]*goredis.StringCmd, len(keys))
			_, err := c.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
				for i, k := range keys {
					cmds[i] = pipe.Get(ctx, k)
				}
				return nil
			})
			if err != nil && !errors.Is(err, goredis.Nil) {
				return false, err
			}
			for i, cmd := range cmds {
				b, err := cmd.Bytes()
				if errors.Is(err, goredis.Nil) {
					continue
				}
				if err != nil {
					return false, err
				}
				if !fn(keys[i], b) {
					return false, stop
				}
			}
			return true, nil
		})
	})
	if errors.Is(err, stop) {
		return nil
	}
	return err
}

func (p *Redis) scan(ctx context.Context, c goredis.UniversalClient, prefix string, batch func([]string) (bool, error)) error {
	var cursor uint64
	for {
		keys, next, err := c.Scan(ctx, cursor, escapeGlob(prefix)+"*", p.scanCount).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			more, err := batch(keys)
			if err != nil {
				return err
			}
			if !more {
				return nil
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// escapeGlob quotes SCAN MATCH metacharacters so prefix is taken literally.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (p *Redis) eachNode(ctx context.Context, fn func(context.Context, goredis.UniversalClient) error) error {
	if cc, ok := p.rdb.(*goredis.ClusterClient); ok {
		return cc.ForEachMaster(ctx, func(ctx context.Context, c *goredis.Client) error {
			return fn(ctx, c)
		})
	}
	return fn(ctx, p.rdb)
}

// Close releases the underlying redis client only when this provider owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (p *Redis) Close(context.Context) error {
	if p.closeClient {
		if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
