package kioshun

import (
	"context"
	"testing"
	"time"

	"github.com/unkn0wn-root/cacheable/provider/providertest"
)

func newProvider(t *testing.T) *Kioshun {
	t.Helper()
	p := New(Config{MaxItems: 1000, ShardCount: 4})
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p
}

func TestProviderContract(t *testing.T) {
	providertest.Run(t, newProvider(t), providertest.Caps{PrefixClear: true})
}

func TestNonPositiveTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t)

	if ok, err := p.Set(ctx, "forever", []byte("v"), 1, 0); err != nil || !ok {
		t.Fatalf("Set: ok=%v err=%v", ok, err)
	}
	if ok, err := p.Set(ctx, "short", []byte("v"), 1, 20*time.Millisecond); err != nil || !ok {
		t.Fatalf("Set: ok=%v err=%v", ok, err)
	}
	time.Sleep(50 * time.Millisecond)

	if _, ok, _ := p.Get(ctx, "short"); ok {
		t.Fatalf("entry with ttl outlived it")
	}
	if _, ok, _ := p.Get(ctx, "forever"); !ok {
		t.Fatalf("ttl<=0 entry expired")
	}
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t)
	for _, k := range []string{"single:a:1", "single:b:1"} {
		if _, err := p.Set(ctx, k, []byte("v"), 1, 0); err != nil {
			t.Fatal(err)
		}
	}
	if err := p.Clear(ctx, ""); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"single:a:1", "single:b:1"} {
		if _, ok, _ := p.Get(ctx, k); ok {
			t.Fatalf("%s survived Clear(\"\")", k)
		}
	}
}
