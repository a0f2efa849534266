package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/cacheable/provider/providertest"
)

func newProvider(t *testing.T, scan int64) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	p, err := New(Config{
		Client:      goredis.NewClient(&goredis.Options{Addr: mr.Addr()}),
		CloseClient: true,
		ScanCount:   scan,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p, mr
}

func TestProviderContract(t *testing.T) {
	p, _ := newProvider(t, 0)
	providertest.Run(t, p, providertest.Caps{PrefixClear: true})
}

func TestNilClient(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrNilClient) {
		t.Fatalf("expected ErrNilClient, got %v", err)
	}
}

func TestSetTTL(t *testing.T) {
	ctx := context.Background()
	p, mr := newProvider(t, 0)
	if _, err := p.Set(ctx, "k", []byte("v"), 1, time.Minute); err != nil {
		t.Fatal(err)
	}
	if ttl := mr.TTL("k"); ttl != time.Minute {
		t.Fatalf("ttl = %v", ttl)
	}
	mr.FastForward(2 * time.Minute)
	if _, ok, err := p.Get(ctx, "k"); ok || err != nil {
		t.Fatalf("expired key: ok=%v err=%v", ok, err)
	}
}

func TestClearSpansScanPages(t *testing.T) {
	ctx := context.Background()
	p, mr := newProvider(t, 2)
	for i := 0; i < 25; i++ {
		if _, err := p.Set(ctx, fmt.Sprintf("single:u:%d", i), []byte("v"), 1, 0); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := p.Set(ctx, "single:other:1", []byte("v"), 1, 0); err != nil {
		t.Fatal(err)
	}
	if err := p.Clear(ctx, "single:u:"); err != nil {
		t.Fatal(err)
	}
	if keys := mr.Keys(); len(keys) != 1 || keys[0] != "single:other:1" {
		t.Fatalf("keys after Clear: %v", keys)
	}
}

func TestGlobCharactersInPrefixAreLiteral(t *testing.T) {
	ctx := context.Background()
	p, mr := newProvider(t, 0)
	for _, k := range []string{"single:a*:1", "single:ab:1"} {
		if _, err := p.Set(ctx, k, []byte("v"), 1, 0); err != nil {
			t.Fatal(err)
		}
	}
	if err := p.Clear(ctx, "single:a*:"); err != nil {
		t.Fatal(err)
	}
	if keys := mr.Keys(); len(keys) != 1 || keys[0] != "single:ab:1" {
		t.Fatalf("keys after Clear: %v", keys)
	}
}

func TestCloseTwice(t *testing.T) {
	p, _ := newProvider(t, 0)
	if err := p.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
