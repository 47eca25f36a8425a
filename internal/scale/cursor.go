package scale

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// Cursor walks a byte slice left to right. Each read advances the
// cursor exactly by the number of bytes it consumed, so a caller can
// always tell how much of the stream a given type occupied.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor wraps buf for reading from offset 0.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.buf) - c.pos }

// Pos returns the current offset.
func (c *Cursor) Pos() int { return c.pos }

// Bytes returns the n bytes at the cursor and advances past them.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	if n < 0 || c.pos+n > len(c.buf) {
		return nil, fmt.Errorf("scale: cursor underflow: need %d bytes, have %d", n, c.Remaining())
	}
	out := c.buf[c.pos : c.pos+n]
	c.pos += n
	return out, nil
}

// Byte reads a single byte.
func (c *Cursor) Byte() (byte, error) {
	b, err := c.Bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Bool decodes a SCALE bool: 0x00 = false, 0x01 = true.
func (c *Cursor) Bool() (bool, error) {
	b, err := c.Byte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0x00:
		return false, nil
	case 0x01:
		return true, nil
	default:
		return false, fmt.Errorf("scale: invalid bool byte 0x%02x", b)
	}
}

// FixedUint decodes an unsigned little-endian integer of the given byte
// width (1, 2, 4, 8, 16, 32) into a big.Int.
func (c *Cursor) FixedUint(width int) (*big.Int, error) {
	b, err := c.Bytes(width)
	if err != nil {
		return nil, err
	}
	out := new(big.Int)
	for i := width - 1; i >= 0; i-- {
		out.Lsh(out, 8)
		out.Or(out, big.NewInt(int64(b[i])))
	}
	return out, nil
}

// FixedInt decodes a two's-complement little-endian signed integer of
// the given byte width into a big.Int, preserving sign.
func (c *Cursor) FixedInt(width int) (*big.Int, error) {
	b, err := c.Bytes(width)
	if err != nil {
		return nil, err
	}
	u := new(big.Int)
	for i := width - 1; i >= 0; i-- {
		u.Lsh(u, 8)
		u.Or(u, big.NewInt(int64(b[i])))
	}
	bitLen := width * 8
	signBit := new(big.Int).Lsh(big.NewInt(1), uint(bitLen-1))
	if u.Cmp(signBit) >= 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(bitLen))
		u.Sub(u, mod)
	}
	return u, nil
}

// Compact decodes a SCALE compact-encoded unsigned integer. Substrate's
// compact encoding uses the low two bits of the first byte as a mode tag:
// 00 = single byte (6-bit value), 01 = two-byte (14-bit value),
// 10 = four-byte (30-bit value), 11 = big-integer mode where the upper
// six bits of the first byte give (byte-length - 4), followed by that
// many little-endian bytes.
func (c *Cursor) Compact() (*big.Int, error) {
	first, err := c.Byte()
	if err != nil {
		return nil, err
	}
	mode := first & 0b11
	switch mode {
	case 0b00:
		return big.NewInt(int64(first >> 2)), nil
	case 0b01:
		b, err := c.Byte()
		if err != nil {
			return nil, err
		}
		v := (uint16(first) >> 2) | (uint16(b) << 6)
		return big.NewInt(int64(v)), nil
	case 0b10:
		rest, err := c.Bytes(3)
		if err != nil {
			return nil, err
		}
		v := uint32(first) >> 2
		v |= uint32(rest[0]) << 6
		v |= uint32(rest[1]) << 14
		v |= uint32(rest[2]) << 22
		return big.NewInt(int64(v)), nil
	case 0b11:
		extraBytes := int(first>>2) + 4
		b, err := c.Bytes(extraBytes)
		if err != nil {
			return nil, err
		}
		out := new(big.Int)
		for i := extraBytes - 1; i >= 0; i-- {
			out.Lsh(out, 8)
			out.Or(out, big.NewInt(int64(b[i])))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("scale: unreachable compact mode")
	}
}

// CompactLen is a convenience for the common case of a compact-encoded
// length prefix (Vec<T>, str, etc.), returned as an int.
func (c *Cursor) CompactLen() (int, error) {
	n, err := c.Compact()
	if err != nil {
		return 0, err
	}
	if !n.IsUint64() || n.Uint64() > uint64(^uint(0)>>1) {
		return 0, fmt.Errorf("scale: compact length overflows int")
	}
	return int(n.Uint64()), nil
}

// CompactU128 decodes a compact integer through Compact and converts it
// to a uint256.Int for the Compact<u128>/u128 numeric-emission path,
// returning an error when the value needs more than 256 bits.
func (c *Cursor) CompactU128() (*uint256.Int, error) {
	n, err := c.Compact()
	if err != nil {
		return nil, err
	}
	u, overflow := uint256.FromBig(n)
	if overflow {
		return nil, fmt.Errorf("scale: compact value overflows u128/u256 range")
	}
	return u, nil
}

// Str decodes a SCALE string: a compact length prefix followed by UTF-8
// bytes.
func (c *Cursor) Str() (string, error) {
	n, err := c.CompactLen()
	if err != nil {
		return "", err
	}
	b, err := c.Bytes(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
