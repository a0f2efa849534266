package codec

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

const (
	rawMark  byte = 0
	zstdMark byte = 1
)

// Encoder and decoder are shared; EncodeAll and DecodeAll are safe for
// concurrent use.
var (
	zenc *zstd.Encoder
	zdec *zstd.Decoder
)

func init() {
	var err error
	if zenc, err = zstd.NewWriter(nil); err != nil {
		panic(err)
	}
	if zdec, err = zstd.NewReader(nil); err != nil {
		panic(err)
	}
}

// Zstd compresses the output of Inner when it reaches MinSize bytes.
// A leading mark byte records whether the rest is compressed, so MinSize can
// change without invalidating existing entries.
type Zstd[V any] struct {
	Inner   Codec[V]
	MinSize int // 0 => always compress
}

func (c Zstd[V]) Encode(v V) ([]byte, error) {
	b, err := c.Inner.Encode(v)
	if err != nil {
		return nil, err
	}
	if len(b) < c.MinSize {
		return append([]byte{rawMark}, b...), nil
	}
	return zenc.EncodeAll(b, []byte{zstdMark}), nil
}

func (c Zstd[V]) Decode(b []byte) (V, error) {
	var zero V
	if len(b) == 0 {
		return zero, fmt.Errorf("zstd codec: empty payload")
	}
	switch b[0] {
	case rawMark:
		return c.Inner.Decode(b[1:])
	case zstdMark:
		raw, err := zdec.DecodeAll(b[1:], nil)
		if err != nil {
			return zero, fmt.Errorf("zstd codec: %w", err)
		}
		return c.Inner.Decode(raw)
	default:
		return zero, fmt.Errorf("zstd codec: unknown mark %d", b[0])
	}
}
