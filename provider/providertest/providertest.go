// Package providertest checks a provider.Provider against the behavior
// cacheable.Cache relies on.
package providertest

import (
	"bytes"
	"context"
	"sort"
	"testing"
	"time"

	pr "github.com/unkn0wn-root/cacheable/provider"
)

// Caps describe optional behavior a provider may lack.
type Caps struct {
	// PrefixClear is false when Clear drops everything regardless of prefix.
	PrefixClear bool
}

// Run exercises p. p must be empty and is left in an unspecified state.
func Run(t *testing.T, p pr.Provider, caps Caps) {
	t.Helper()
	ctx := context.Background()

	t.Run("MissOnEmpty", func(t *testing.T) {
		if _, ok, err := p.Get(ctx, "absent"); err != nil || ok {
			t.Fatalf("Get absent: ok=%v err=%v", ok, err)
		}
	})

	t.Run("SetGetDel", func(t *testing.T) {
		mustSet(t, p, "single:a:1", []byte("v1"))
		got, ok, err := p.Get(ctx, "single:a:1")
		if err != nil || !ok || !bytes.Equal(got, []byte("v1")) {
			t.Fatalf("Get = %q,%v,%v", got, ok, err)
		}
		if err := p.Del(ctx, "single:a:1"); err != nil {
			t.Fatalf("Del: %v", err)
		}
		if _, ok, _ := p.Get(ctx, "single:a:1"); ok {
			t.Fatalf("entry survived Del")
		}
		if err := p.Del(ctx, "single:a:1"); err != nil {
			t.Fatalf("Del of a missing key must not fail: %v", err)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		mustSet(t, p, "single:a:2", []byte("old"))
		mustSet(t, p, "single:a:2", []byte("new"))
		if got, _, _ := p.Get(ctx, "single:a:2"); string(got) != "new" {
			t.Fatalf("Get after overwrite = %q", got)
		}
	})

	t.Run("ClearPrefix", func(t *testing.T) {
		mustSet(t, p, "single:a:x", []byte("1"))
		mustSet(t, p, "single:a:y", []byte("2"))
		mustSet(t, p, "single:b:x", []byte("3"))
		if err := p.Clear(ctx, "single:a:"); err != nil {
			t.Fatalf("Clear: %v", err)
		}
		for _, k := range []string{"single:a:x", "single:a:y"} {
			if _, ok, _ := p.Get(ctx, k); ok {
				t.Fatalf("%s survived Clear", k)
			}
		}
		_, ok, _ := p.Get(ctx, "single:b:x")
		if caps.PrefixClear && !ok {
			t.Fatalf("Clear removed a key outside the prefix")
		}
	})

	rg, ok := p.(pr.Ranger)
	if !ok {
		return
	}
	t.Run("Range", func(t *testing.T) {
		if err := p.Clear(ctx, ""); err != nil {
			t.Fatalf("Clear all: %v", err)
		}
		mustSet(t, p, "single:r:1", []byte("a"))
		mustSet(t, p, "single:r:2", []byte("b"))
		mustSet(t, p, "single:other:1", []byte("c"))

		seen := map[string]string{}
		err := rg.Range(ctx, "single:r:", func(k string, v []byte) bool {
			seen[k] = string(v)
			return true
		})
		if err != nil {
			t.Fatalf("Range: %v", err)
		}
		if len(seen) != 2 || seen["single:r:1"] != "a" || seen["single:r:2"] != "b" {
			t.Fatalf("Range saw %v", seen)
		}

		var keys []string
		err = rg.Range(ctx, "single:", func(k string, _ []byte) bool {
			keys = append(keys, k)
			return false
		})
		if err != nil || len(keys) != 1 {
			t.Fatalf("Range must stop when fn returns false: keys=%v err=%v", sortStrings(keys), err)
		}
	})
}

func mustSet(t *testing.T, p pr.Provider, k string, v []byte) {
	t.Helper()
	ok, err := p.Set(context.Background(), k, v, 1, time.Minute)
	if err != nil || !ok {
		t.Fatalf("Set %s: ok=%v err=%v", k, ok, err)
	}
}

func sortStrings(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}
