package kioshun

import (
	"context"
	"strings"
	"time"

	kc "github.com/unkn0wn-root/kioshun"

	pr "github.com/unkn0wn-root/cacheable/provider"
)

// Kioshun stores raw entry bytes in a sharded kioshun cache.
type Kioshun struct {
	c *kc.InMemoryCache[string, []byte]
}

var _ pr.Provider = (*Kioshun)(nil)

type Config struct {
	MaxItems               int64             // total item capacity; 0 = unlimited
	ShardCount             int               // 0 = auto (CPU * multiplier)
	Policy                 kc.EvictionPolicy // LRU/LFU/FIFO/AdmissionLFU
	CleanupInterval        time.Duration     // 0 = disable background cleanup
	AdmissionResetInterval time.Duration     // only used by AdmissionLFU
	StatsEnabled           bool
}

// New forces DefaultTTL=0 so the ttl passed to Set is authoritative.
func New(cfg Config) *Kioshun {
	kcfg := kc.Config{
		MaxSize:                cfg.MaxItems,
		ShardCount:             cfg.ShardCount,
		CleanupInterval:        cfg.CleanupInterval,
		DefaultTTL:             0,
		EvictionPolicy:         cfg.Policy,
		StatsEnabled:           cfg.StatsEnabled,
		AdmissionResetInterval: cfg.AdmissionResetInterval,
	}
	return &Kioshun{c: kc.New[string, []byte](kcfg)}
}

func NewWithCache(c *kc.InMemoryCache[string, []byte]) *Kioshun { return &Kioshun{c: c} }

func (p *Kioshun) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := p.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	return v, true, nil
}

// Set reports ok=false when AdmissionLFU refused a new key under pressure.
// kioshun's Set has no admission result, so the key is checked afterwards.
// ttl <= 0 means no expiry; cost is ignored (capacity is counted in items).
func (p *Kioshun) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = kc.NoExpiration
	}
	if err := p.c.Set(key, value, ttl); err != nil {
		return false, err
	}
	return p.c.Exists(key), nil
}

func (p *Kioshun) Del(_ context.Context, key string) error {
	_ = p.c.Delete(key)
	return nil
}

// Clear drops everything for an empty prefix, otherwise deletes the listed
// keys that match.
func (p *Kioshun) Clear(ctx context.Context, prefix string) error {
	if prefix == "" {
		p.c.Clear()
		return nil
	}
	for _, k := range p.c.Keys() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if strings.HasPrefix(k, prefix) {
			_ = p.c.Delete(k)
		}
	}
	return nil
}

func (p *Kioshun) Close(_ context.Context) error {
	return p.c.Close()
}
