// Package snapshot dumps a cache to a file and loads it back.
//
//	reg := cacheable.NewRegistry()
//	_ = reg.Register("users", cacheable.Entry{Persister: snapshot.New(snapshot.Config{}), State: users})
//	err := cacheable.Dump(ctx, reg, "users", "/var/lib/app/users.snap", cacheable.Options{"compress": true})
//
// Files start with a snapshot header followed by length-prefixed
// (key, payload) records, optionally zstd-compressed as a whole.
// Dump writes <path>.tmp and renames it over path once complete.
package snapshot

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/unkn0wn-root/cacheable"
	"github.com/unkn0wn-root/cacheable/internal/wire"
)

// Option names understood by Dump and Load.
const (
	OptCompress = "compress" // bool; Dump only
	OptTTL      = cacheable.OptTTL
)

// Source is a cache that can enumerate and accept encoded entries.
// *cacheable.Cache[V] implements it.
type Source interface {
	Export(ctx context.Context, fn func(key string, payload []byte) error) error
	Import(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}

type Config struct {
	Logger     cacheable.Logger // nil => NopLogger
	MaxPayload int              // largest record Load accepts; 0 => 64MiB
	FileMode   os.FileMode      // 0 => 0o600
}

// Persister implements cacheable.Persister for Source states.
type Persister struct {
	log        cacheable.Logger
	maxPayload int
	mode       os.FileMode
}

var _ cacheable.Persister = (*Persister)(nil)

func New(cfg Config) *Persister {
	p := &Persister{log: cfg.Logger, maxPayload: cfg.MaxPayload, mode: cfg.FileMode}
	if p.log == nil {
		p.log = cacheable.NopLogger{}
	}
	if p.maxPayload <= 0 {
		p.maxPayload = 64 << 20
	}
	if p.mode == 0 {
		p.mode = 0o600
	}
	return p
}

func source(state any) (Source, error) {
	src, ok := state.(Source)
	if !ok {
		return nil, &cacheable.ConfigurationError{Field: "state", Reason: fmt.Sprintf("%T cannot be snapshotted", state)}
	}
	return src, nil
}

// Dump writes every live entry of state to path.
func (p *Persister) Dump(ctx context.Context, state any, path string, opts cacheable.Options) (err error) {
	src, err := source(state)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, p.mode)
	if err != nil {
		return fmt.Errorf("snapshot dump: %w", err)
	}
	var zw *zstd.Encoder
	defer func() {
		if err != nil {
			if zw != nil {
				_ = zw.Close()
			}
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	bw := bufio.NewWriter(f)
	var flags byte
	if opts.Bool(OptCompress) {
		flags |= wire.FlagZstd
	}
	if err = wire.WriteHeader(bw, flags); err != nil {
		return fmt.Errorf("snapshot dump: %w", err)
	}

	var body io.Writer = bw
	if flags&wire.FlagZstd != 0 {
		if zw, err = zstd.NewWriter(bw); err != nil {
			return fmt.Errorf("snapshot dump: %w", err)
		}
		body = zw
	}

	n := 0
	err = src.Export(ctx, func(key string, payload []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		n++
		return wire.WriteRecord(body, key, payload)
	})
	if err != nil {
		return fmt.Errorf("snapshot dump: %w", err)
	}

	if zw != nil {
		if err = zw.Close(); err != nil {
			return fmt.Errorf("snapshot dump: %w", err)
		}
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("snapshot dump: %w", err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("snapshot dump: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("snapshot dump: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("snapshot dump: %w", err)
	}
	p.log.Info("snapshot written", cacheable.Fields{"path": path, "entries": n, "compressed": zw != nil})
	return nil
}

// Load imports every record of path into state. Records are stored with the
// ttl option, or the cache default when unset. A corrupt file stops Load with
// wire.ErrCorrupt after the records before the damage were imported.
func (p *Persister) Load(ctx context.Context, state any, path string, opts cacheable.Options) error {
	dst, err := source(state)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("snapshot load: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	flags, err := wire.ReadHeader(br)
	if err != nil {
		return fmt.Errorf("snapshot load %s: %w", path, err)
	}
	if flags&wire.FlagZstd != 0 {
		zr, err := zstd.NewReader(br)
		if err != nil {
			return fmt.Errorf("snapshot load: %w", err)
		}
		defer zr.Close()
		br = bufio.NewReader(zr)
	}

	ttl := opts.Duration(OptTTL)
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		key, payload, err := wire.ReadRecord(br, p.maxPayload)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("snapshot load %s (record %d): %w", path, n, err)
		}
		if err := dst.Import(ctx, key, payload, ttl); err != nil {
			return fmt.Errorf("snapshot load %s: %w", path, err)
		}
		n++
	}
	p.log.Info("snapshot loaded", cacheable.Fields{"path": path, "entries": n})
	return nil
}
