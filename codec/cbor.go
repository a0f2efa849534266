package codec

import (
	"github.com/fxamacker/cbor/v2"
)

// CBOROptions select the encoding profile.
type CBOROptions struct {
	// Deterministic uses RFC 8949 core deterministic encoding (sorted map
	// keys, shortest forms) for byte-stable output. Otherwise the preferred
	// unsorted profile is used.
	Deterministic bool
	// RejectDupKeys fails Decode on maps with duplicate keys instead of
	// keeping the last one.
	RejectDupKeys bool
}

// CBOR serializes with fxamacker/cbor. Construct with NewCBOR or MustCBOR;
// the zero value is not usable. Times are encoded as RFC3339Nano strings.
type CBOR[V any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec[struct{}] = CBOR[struct{}]{}

func NewCBOR[V any](o CBOROptions) (CBOR[V], error) {
	eo := cbor.PreferredUnsortedEncOptions()
	if o.Deterministic {
		eo = cbor.CoreDetEncOptions()
	}
	eo.Time = cbor.TimeRFC3339Nano

	em, err := eo.EncMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	do := cbor.DecOptions{}
	if o.RejectDupKeys {
		do.DupMapKey = cbor.DupMapKeyEnforcedAPF
	}
	dm, err := do.DecMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	return CBOR[V]{enc: em, dec: dm}, nil
}

// MustCBOR is like NewCBOR but panics on error. Meant for package-level vars.
func MustCBOR[V any](o CBOROptions) CBOR[V] {
	c, err := NewCBOR[V](o)
	if err != nil {
		panic(err)
	}
	return c
}

func (c CBOR[V]) Encode(v V) ([]byte, error) {
	return c.enc.Marshal(v)
}

func (c CBOR[V]) Decode(b []byte) (V, error) {
	var v V
	err := c.dec.Unmarshal(b, &v)
	return v, err
}
