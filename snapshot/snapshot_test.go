package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/unkn0wn-root/cacheable"
	"github.com/unkn0wn-root/cacheable/codec"
	"github.com/unkn0wn-root/cacheable/internal/wire"
	pr "github.com/unkn0wn-root/cacheable/provider"
	"github.com/unkn0wn-root/cacheable/provider/memory"
)

func newCache(t *testing.T, p pr.Provider) *cacheable.Cache[string] {
	t.Helper()
	c, err := cacheable.New[string](cacheable.Options[string]{
		Namespace: "users",
		Provider:  p,
		Codec:     codec.String{},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

func fill(t *testing.T, c *cacheable.Cache[string], kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		if err := c.Store(context.Background(), k, v, nil); err != nil {
			t.Fatalf("Store %s: %v", k, err)
		}
	}
}

func assertHas(t *testing.T, c *cacheable.Cache[string], kv map[string]string) {
	t.Helper()
	for k, want := range kv {
		got, ok, err := c.Fetch(context.Background(), k, nil)
		if err != nil || !ok || got != want {
			t.Fatalf("Fetch %s = %q,%v,%v want %q", k, got, ok, err, want)
		}
	}
}

func TestDumpLoadRoundTrip(t *testing.T) {
	data := map[string]string{"1": "ada", "2": "grace", "3": strings.Repeat("x", 4096)}

	for _, compress := range []bool{false, true} {
		name := "plain"
		if compress {
			name = "zstd"
		}
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), "users.snap")
			p := New(Config{})

			src := newCache(t, memory.New())
			fill(t, src, data)
			if err := p.Dump(ctx, src, path, cacheable.Options{OptCompress: compress}); err != nil {
				t.Fatalf("Dump: %v", err)
			}
			if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
				t.Fatalf("temp file left behind: %v", err)
			}

			dst := newCache(t, memory.New())
			if err := p.Load(ctx, dst, path, nil); err != nil {
				t.Fatalf("Load: %v", err)
			}
			assertHas(t, dst, data)
		})
	}
}

func TestCompressedIsSmaller(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	p := New(Config{})

	src := newCache(t, memory.New())
	fill(t, src, map[string]string{"a": strings.Repeat("abcdef", 2000)})

	plain, packed := filepath.Join(dir, "plain"), filepath.Join(dir, "packed")
	if err := p.Dump(ctx, src, plain, nil); err != nil {
		t.Fatal(err)
	}
	if err := p.Dump(ctx, src, packed, cacheable.Options{OptCompress: true}); err != nil {
		t.Fatal(err)
	}
	a, _ := os.Stat(plain)
	b, _ := os.Stat(packed)
	if b.Size() >= a.Size() {
		t.Fatalf("compressed %d >= plain %d", b.Size(), a.Size())
	}
}

func TestDumpSkipsInvalidatedEntries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "snap")
	p := New(Config{})

	src := newCache(t, memory.New())
	fill(t, src, map[string]string{"keep": "1", "gone": "2"})
	if err := src.Delete(ctx, "gone"); err != nil {
		t.Fatal(err)
	}
	if err := p.Dump(ctx, src, path, nil); err != nil {
		t.Fatal(err)
	}

	rec := &recordingSource{}
	if err := p.Load(ctx, rec, path, nil); err != nil {
		t.Fatal(err)
	}
	if len(rec.keys) != 1 || rec.keys[0] != "keep" {
		t.Fatalf("imported %v", rec.keys)
	}
}

type recordingSource struct {
	keys []string
	ttls []time.Duration
}

func (r *recordingSource) Export(context.Context, func(string, []byte) error) error { return nil }

func (r *recordingSource) Import(_ context.Context, key string, _ []byte, ttl time.Duration) error {
	r.keys = append(r.keys, key)
	r.ttls = append(r.ttls, ttl)
	return nil
}

func TestLoadPassesTTL(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "snap")
	p := New(Config{})

	src := newCache(t, memory.New())
	fill(t, src, map[string]string{"a": "1"})
	if err := p.Dump(ctx, src, path, nil); err != nil {
		t.Fatal(err)
	}

	rec := &recordingSource{}
	if err := p.Load(ctx, rec, path, cacheable.Options{OptTTL: time.Minute}); err != nil {
		t.Fatal(err)
	}
	if len(rec.ttls) != 1 || rec.ttls[0] != time.Minute {
		t.Fatalf("ttls = %v", rec.ttls)
	}
}

type failingSource struct {
	recordingSource
	err error
}

func (f *failingSource) Export(_ context.Context, fn func(string, []byte) error) error {
	if err := fn("a", []byte("1")); err != nil {
		return err
	}
	return f.err
}

// TestDumpExportFailureCleansUp covers the error path after the compressor
// has started: the error surfaces and no file is left behind.
func TestDumpExportFailureCleansUp(t *testing.T) {
	boom := errors.New("range failed")
	for _, compress := range []bool{false, true} {
		path := filepath.Join(t.TempDir(), "snap")
		err := New(Config{}).Dump(context.Background(), &failingSource{err: boom}, path, cacheable.Options{OptCompress: compress})
		if !errors.Is(err, boom) {
			t.Fatalf("compress=%v: expected export error, got %v", compress, err)
		}
		for _, p := range []string{path, path + ".tmp"} {
			if _, err := os.Stat(p); !os.IsNotExist(err) {
				t.Fatalf("compress=%v: %s left behind: %v", compress, p, err)
			}
		}
	}
}

type noRange struct{ pr.Provider }

func TestDumpUnsupportedProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap")
	src := newCache(t, noRange{memory.New()})

	err := New(Config{}).Dump(context.Background(), src, path, nil)
	if !errors.Is(err, pr.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("no file should be written: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestStateMustBeSource(t *testing.T) {
	err := New(Config{}).Dump(context.Background(), "not a cache", filepath.Join(t.TempDir(), "x"), nil)
	if !errors.Is(err, cacheable.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	p := New(Config{})

	bad := filepath.Join(dir, "bad")
	if err := os.WriteFile(bad, []byte("garbage!"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := p.Load(context.Background(), &recordingSource{}, bad, nil); !errors.Is(err, wire.ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}

	// a valid snapshot cut in the middle of its last record
	ctx := context.Background()
	good := filepath.Join(dir, "good")
	src := newCache(t, memory.New())
	fill(t, src, map[string]string{"a": strings.Repeat("v", 100)})
	if err := p.Dump(ctx, src, good, nil); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(good)
	if err := os.WriteFile(good, b[:len(b)-10], 0o600); err != nil {
		t.Fatal(err)
	}
	if err := p.Load(ctx, &recordingSource{}, good, nil); !errors.Is(err, wire.ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt for truncated file, got %v", err)
	}
}

func TestThroughRegistry(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "snap")
	c := newCache(t, memory.New())
	fill(t, c, map[string]string{"k": "v"})

	reg := cacheable.NewRegistry()
	if err := reg.Register("users", cacheable.Entry{Persister: New(Config{}), State: c}); err != nil {
		t.Fatal(err)
	}
	if err := cacheable.Dump(ctx, reg, "users", path, nil); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if err := c.Flush(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Fetch(ctx, "k", nil); ok {
		t.Fatalf("flush did not clear")
	}
	if err := cacheable.Load(ctx, reg, "users", path, nil); err != nil {
		t.Fatalf("Load: %v", err)
	}
	assertHas(t, c, map[string]string{"k": "v"})
}
