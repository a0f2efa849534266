// Package memory is a map-backed provider with per-entry TTLs.
// Expired entries are dropped lazily on access and by Range.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	pr "github.com/unkn0wn-root/cacheable/provider"
)

type entry struct {
	v   []byte
	exp time.Time // zero => no TTL
}

type Provider struct {
	mu  sync.RWMutex
	m   map[string]entry
	now func() time.Time
}

var (
	_ pr.Provider = (*Provider)(nil)
	_ pr.Ranger   = (*Provider)(nil)
)

func New() *Provider {
	return &Provider{m: make(map[string]entry), now: time.Now}
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.RLock()
	e, ok := p.m[key]
	p.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if p.expired(e) {
		p.mu.Lock()
		if cur, ok := p.m[key]; ok && p.expired(cur) {
			delete(p.m, key)
		}
		p.mu.Unlock()
		return nil, false, nil
	}
	return e.v, true, nil
}

// Set copies value; ttl <= 0 means no expiry.
func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	e := entry{v: append([]byte(nil), value...)}
	if ttl > 0 {
		e.exp = p.now().Add(ttl)
	}
	p.mu.Lock()
	p.m[key] = e
	p.mu.Unlock()
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	delete(p.m, key)
	p.mu.Unlock()
	return nil
}

func (p *Provider) Clear(_ context.Context, prefix string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if prefix == "" {
		p.m = make(map[string]entry)
		return nil
	}
	for k := range p.m {
		if strings.HasPrefix(k, prefix) {
			delete(p.m, k)
		}
	}
	return nil
}

// Range iterates over a point-in-time copy so fn may call back into p.
func (p *Provider) Range(ctx context.Context, prefix string, fn func(string, []byte) bool) error {
	type kv struct {
		k string
		v []byte
	}
	var live []kv
	p.mu.RLock()
	for k, e := range p.m {
		if strings.HasPrefix(k, prefix) && !p.expired(e) {
			live = append(live, kv{k, e.v})
		}
	}
	p.mu.RUnlock()

	for _, e := range live {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !fn(e.k, e.v) {
			return nil
		}
	}
	return nil
}

// Len counts stored entries, expired ones included.
func (p *Provider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.m)
}

func (p *Provider) Close(_ context.Context) error { return nil }

func (p *Provider) expired(e entry) bool {
	return !e.exp.IsZero() && p.now().After(e.exp)
}
