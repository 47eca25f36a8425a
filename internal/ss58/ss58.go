// Package ss58 implements the Substrate SS58 address codec: a base58
// encoding of a network-prefix byte (or byte pair), a 32-byte AccountId,
// and a blake2b-derived checksum.
package ss58

import (
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

const checksumLen = 2 // fixed for 32-byte AccountId32 payloads

var ss58Prefix = []byte("SS58PRE")

// Encode renders a 32-byte AccountId as an SS58 string under the given
// network prefix.
func Encode(account [32]byte, networkPrefix uint16) string {
	ident := identBytes(networkPrefix)
	payload := make([]byte, 0, len(ident)+32+checksumLen)
	payload = append(payload, ident...)
	payload = append(payload, account[:]...)
	sum := checksum(payload)
	payload = append(payload, sum[:checksumLen]...)
	return base58.Encode(payload)
}

// Decode parses an SS58 string back into its network prefix and 32-byte
// AccountId, verifying the embedded checksum.
func Decode(s string) (account [32]byte, networkPrefix uint16, err error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return account, 0, fmt.Errorf("ss58: invalid base58: %w", err)
	}

	identLen := 1
	if len(raw) > 0 && raw[0]&0b0100_0000 != 0 {
		identLen = 2
	}
	if len(raw) != identLen+32+checksumLen {
		return account, 0, fmt.Errorf("ss58: unexpected payload length %d", len(raw))
	}

	ident := raw[:identLen]
	body := raw[:identLen+32]
	gotSum := raw[identLen+32:]
	wantSum := checksum(body)
	for i := 0; i < checksumLen; i++ {
		if gotSum[i] != wantSum[i] {
			return account, 0, fmt.Errorf("ss58: checksum mismatch")
		}
	}

	networkPrefix = decodeIdent(ident)
	copy(account[:], raw[identLen:identLen+32])
	return account, networkPrefix, nil
}

func checksum(payload []byte) [64]byte {
	h, _ := blake2b.New(64, nil)
	h.Write(ss58Prefix)
	h.Write(payload)
	var out [64]byte
	copy(out[:], h.Sum(nil))
	return out
}

// identBytes encodes the network prefix the way the reference Substrate
// implementation does: a single byte for prefixes < 64, and a two-byte
// form for the (rarely used) 64..16383 range.
func identBytes(prefix uint16) []byte {
	if prefix < 64 {
		return []byte{byte(prefix)}
	}
	b0 := byte(0b0100_0000 | ((prefix & 0b0000_0000_1111_1100) >> 2))
	b1 := byte((prefix >> 8) | ((prefix & 0b0000_0000_0000_0011) << 6))
	return []byte{b0, b1}
}

func decodeIdent(ident []byte) uint16 {
	if len(ident) == 1 {
		return uint16(ident[0])
	}
	lower := uint16(ident[0]&0b0011_1111) << 2
	lower |= uint16(ident[1]) >> 6
	upper := uint16(ident[1]&0b0011_1111) << 8
	return upper | lower
}
