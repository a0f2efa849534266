package wire

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	version      byte = 1
	kindEntry    byte = 1
	kindSnapshot byte = 2

	// MaxKeyLen is the largest key a record can carry.
	MaxKeyLen = 0xFFFF
)

// Snapshot header flags.
const (
	FlagZstd byte = 1 << iota
)

var (
	ErrCorrupt = errors.New("cacheable: corrupt entry")
	magic4     = [...]byte{'C', 'B', 'L', 'E'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Entry: magic(4) | ver(1) | kind(1=entry) | epoch(u64 be) | gen(u64 be) | vlen(u32 be) | payload(vlen)
const entryHdr = 4 + 1 + 1 + 8 + 8 + 4

func EncodeEntry(epoch, gen uint64, payload []byte) []byte {
	b := make([]byte, entryHdr+len(payload))
	copy(b, magic4[:])
	b[4] = version
	b[5] = kindEntry
	binary.BigEndian.PutUint64(b[6:14], epoch)
	binary.BigEndian.PutUint64(b[14:22], gen)
	binary.BigEndian.PutUint32(b[22:26], uint32(len(payload)))
	copy(b[entryHdr:], payload)
	return b
}

// DecodeEntry rejects short frames, unknown headers and trailing bytes.
// payload aliases b.
func DecodeEntry(b []byte) (epoch, gen uint64, payload []byte, err error) {
	if len(b) < entryHdr || !hasMagic(b) || b[4] != version || b[5] != kindEntry {
		return 0, 0, nil, ErrCorrupt
	}
	epoch = binary.BigEndian.Uint64(b[6:14])
	gen = binary.BigEndian.Uint64(b[14:22])
	vlen := int(binary.BigEndian.Uint32(b[22:26]))
	if vlen != len(b)-entryHdr {
		return 0, 0, nil, ErrCorrupt
	}
	return epoch, gen, b[entryHdr:], nil
}

// Snapshot stream:
//
//	magic(4) | ver(1) | kind(2=snapshot) | flags(1)
//	{ keyLen(u16 be) | key(keyLen) | vlen(u32 be) | payload(vlen) } until EOF
func WriteHeader(w io.Writer, flags byte) error {
	_, err := w.Write([]byte{magic4[0], magic4[1], magic4[2], magic4[3], version, kindSnapshot, flags})
	return err
}

func ReadHeader(r io.Reader) (flags byte, err error) {
	var h [7]byte
	if _, err := io.ReadFull(r, h[:]); err != nil {
		return 0, fmt.Errorf("%w: header: %v", ErrCorrupt, err)
	}
	if !hasMagic(h[:]) || h[4] != version || h[5] != kindSnapshot {
		return 0, ErrCorrupt
	}
	return h[6], nil
}

func WriteRecord(w io.Writer, key string, payload []byte) error {
	if l := len(key); l == 0 || l > MaxKeyLen {
		return fmt.Errorf("cacheable: invalid record key length %d", l)
	}
	var hdr [2]byte
	binary.BigEndian.PutUint16(hdr[:], uint16(len(key)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := io.WriteString(w, key); err != nil {
		return err
	}
	var vl [4]byte
	binary.BigEndian.PutUint32(vl[:], uint32(len(payload)))
	if _, err := w.Write(vl[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadRecord returns io.EOF on a clean end of stream. A stream cut inside a
// record is ErrCorrupt. maxPayload <= 0 disables the size check.
func ReadRecord(r *bufio.Reader, maxPayload int) (key string, payload []byte, err error) {
	var kl [2]byte
	if _, err := io.ReadFull(r, kl[:]); err != nil {
		if err == io.EOF {
			return "", nil, io.EOF
		}
		return "", nil, ErrCorrupt
	}
	klen := int(binary.BigEndian.Uint16(kl[:]))
	if klen == 0 {
		return "", nil, ErrCorrupt
	}
	kb := make([]byte, klen)
	if _, err := io.ReadFull(r, kb); err != nil {
		return "", nil, ErrCorrupt
	}
	var vl [4]byte
	if _, err := io.ReadFull(r, vl[:]); err != nil {
		return "", nil, ErrCorrupt
	}
	vlen := int(binary.BigEndian.Uint32(vl[:]))
	if maxPayload > 0 && vlen > maxPayload {
		return "", nil, fmt.Errorf("%w: payload too large: %d > %d", ErrCorrupt, vlen, maxPayload)
	}
	payload = make([]byte, vlen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return "", nil, ErrCorrupt
	}
	return string(kb), payload, nil
}
