package util

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// canonical encodes with RFC 8949 core deterministic rules so equal values
// (maps included) always hash the same.
var canonical cbor.EncMode

func init() {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	canonical = em
}

// Digest returns the first 16 hex chars of SHA-256 over parts joined by NUL.
func Digest(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:8])
}

// KeyString renders a logical key as a storage key fragment.
// Strings, byte slices, integers, bools and fmt.Stringers are used verbatim;
// anything else is hashed from its canonical CBOR encoding and prefixed "h:".
func KeyString(k any) (string, error) {
	switch v := k.(type) {
	case nil:
		return "", fmt.Errorf("nil key")
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case int:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case bool:
		return strconv.FormatBool(v), nil
	case fmt.Stringer:
		return v.String(), nil
	}
	b, err := canonical.Marshal(k)
	if err != nil {
		return "", fmt.Errorf("key %T: %w", k, err)
	}
	sum := sha256.Sum256(b)
	return "h:" + hex.EncodeToString(sum[:8]), nil
}
