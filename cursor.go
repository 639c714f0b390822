package wasmdec

import (
	"encoding/binary"
	"unicode/utf8"
)

type (
	// Cursor reads a borrowed buffer front to back.
	// Position never moves backwards.
	// Fixed-width reads consume all their bytes or none,
	// LEB128 reads may stop in the middle of a sequence on error.
	Cursor struct {
		b []byte
		i int
	}
)

func NewCursor(b []byte) Cursor {
	return Cursor{b: b}
}

// Pos is the offset from the start of the buffer.
func (c *Cursor) Pos() int { return c.i }

// Len is the number of bytes left.
func (c *Cursor) Len() int { return len(c.b) - c.i }

func (c *Cursor) ReadByte() (byte, error) {
	if c.i >= len(c.b) {
		return 0, ErrBufferEndReached
	}

	c.i++

	return c.b[c.i-1], nil
}

// ReadBytes returns the next n bytes of the buffer without copying.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if n < 0 || n > c.Len() {
		return nil, ErrBufferEndReached
	}

	st := c.i
	c.i += n

	return c.b[st:c.i:c.i], nil
}

func (c *Cursor) Skip(n int) error {
	if n < 0 || n > c.Len() {
		return ErrBufferEndReached
	}

	c.i += n

	return nil
}

// Limit returns a cursor over the next n bytes.
// Positions of the returned cursor are the same as of c.
// c itself is not advanced.
func (c *Cursor) Limit(n int) (Cursor, error) {
	if n < 0 || n > c.Len() {
		return Cursor{}, ErrBufferEndReached
	}

	return Cursor{b: c.b[:c.i+n], i: c.i}, nil
}

func (c *Cursor) Uint8() (uint8, error) {
	return c.ReadByte()
}

func (c *Cursor) Uint16() (uint16, error) {
	b, err := c.ReadBytes(2)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint16(b), nil
}

func (c *Cursor) Uint32() (uint32, error) {
	b, err := c.ReadBytes(4)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(b), nil
}

func (c *Cursor) Uint64() (uint64, error) {
	b, err := c.ReadBytes(8)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint64(b), nil
}

func (c *Cursor) Varuint1() (bool, error) {
	x, err := c.ReadByte()
	if err != nil {
		return false, err
	}

	switch x {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, ErrInvalidVaruint1
	}
}

func (c *Cursor) Varuint7() (uint8, error) {
	x, err := c.ReadByte()
	if err != nil {
		return 0, err
	}

	if x&0x80 != 0 {
		return 0, ErrInvalidVaruint7
	}

	return x, nil
}

func (c *Cursor) Varint7() (int8, error) {
	x, err := c.ReadByte()
	if err != nil {
		return 0, err
	}

	if x&0x80 != 0 {
		return 0, ErrInvalidVarint7
	}

	if x&0x40 != 0 {
		x |= 0x80
	}

	return int8(x), nil
}

// Varuint32 reads at most 5 bytes.
// Bits of the 5th byte above the 32nd are dropped.
func (c *Cursor) Varuint32() (v uint32, err error) {
	for s := uint(0); s < 35; s += 7 {
		x, err := c.ReadByte()
		if err != nil {
			return 0, err
		}

		v |= uint32(x&0x7f) << s

		if x&0x80 == 0 {
			return v, nil
		}
	}

	return 0, ErrInvalidVaruint32
}

// Varint32 reads at most 5 bytes.
func (c *Cursor) Varint32() (v int32, err error) {
	var s uint

	for s < 35 {
		x, err := c.ReadByte()
		if err != nil {
			return 0, err
		}

		v |= int32(x&0x7f) << s
		s += 7

		if x&0x80 == 0 {
			if s < 32 && x&0x40 != 0 {
				v |= int32(-1) << s
			}

			return v, nil
		}
	}

	return 0, ErrInvalidVarint32
}

// Varint64 reads at most 9 bytes,
// so it covers values in [-1<<62, 1<<62).
func (c *Cursor) Varint64() (v int64, err error) {
	var s uint

	for s < 63 {
		x, err := c.ReadByte()
		if err != nil {
			return 0, err
		}

		v |= int64(x&0x7f) << s
		s += 7

		if x&0x80 == 0 {
			if s < 64 && x&0x40 != 0 {
				v |= int64(-1) << s
			}

			return v, nil
		}
	}

	return 0, ErrInvalidVarint64
}

// Name reads a length prefixed utf-8 string.
func (c *Cursor) Name() (string, error) {
	l, err := c.Varuint32()
	if err != nil {
		return "", err
	}

	b, err := c.ReadBytes(int(l))
	if err != nil {
		return "", err
	}

	if !utf8.Valid(b) {
		return "", ErrInvalidName
	}

	return string(b), nil
}

// vector reads a varuint32 element count.
// Every element takes at least one byte,
// so a count larger than the rest of the buffer is truncated input.
func (c *Cursor) vector() (int, error) {
	l, err := c.Varuint32()
	if err != nil {
		return 0, err
	}

	if uint64(l) > uint64(c.Len()) {
		return 0, ErrBufferEndReached
	}

	return int(l), nil
}
