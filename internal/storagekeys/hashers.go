// Package storagekeys builds Substrate storage keys from pallet/entry
// names and map keys, using the hasher declared on each storage entry in
// the runtime metadata.
package storagekeys

import (
	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/blake2b"
)

// Hasher identifies one of the five storage key hashers Substrate
// supports. Concat variants retain the un-hashed key suffix, enabling
// Storage Query Layer enumeration to recover the original key.
type Hasher int

const (
	Identity Hasher = iota
	Twox64Concat
	Blake2_128Concat
	Twox128
	Blake2_128
)

// Concat reports whether this hasher preserves the original bytes after
// its digest, allowing the un-hashed suffix to be recovered from a key.
func (h Hasher) Concat() bool {
	switch h {
	case Identity, Twox64Concat, Blake2_128Concat:
		return true
	default:
		return false
	}
}

// Hash applies the hasher to data, optionally appending the raw bytes for
// *Concat / Identity variants.
func Hash(h Hasher, data []byte) []byte {
	switch h {
	case Identity:
		out := make([]byte, len(data))
		copy(out, data)
		return out
	case Twox64Concat:
		out := twox64(data)
		return append(out, data...)
	case Blake2_128Concat:
		out := blake2_128(data)
		return append(out, data...)
	case Twox128:
		return twox128(data)
	case Blake2_128:
		return blake2_128(data)
	default:
		panic("storagekeys: unknown hasher")
	}
}

// twox64 is the first 8 bytes of twox128 (a single seed-0 xxh64 digest,
// little-endian).
func twox64(data []byte) []byte {
	d := xxhash.NewWithSeed(0)
	d.Write(data)
	return leUint64(d.Sum64())
}

// twox128 concatenates two seeded xxh64 digests (seeds 0 and 1), the way
// Substrate's twox_128 primitive is defined, each rendered little-endian.
func twox128(data []byte) []byte {
	d0 := xxhash.NewWithSeed(0)
	d0.Write(data)
	d1 := xxhash.NewWithSeed(1)
	d1.Write(data)
	out := make([]byte, 0, 16)
	out = append(out, leUint64(d0.Sum64())...)
	out = append(out, leUint64(d1.Sum64())...)
	return out
}

func blake2_128(data []byte) []byte {
	h, _ := blake2b.New(16, nil)
	h.Write(data)
	return h.Sum(nil)
}

func leUint64(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}
