package cbor

import "encoding/binary"

var be = binary.BigEndian

// cursor is a bounds-checked forward reader over a borrowed byte slice.
// On failure the position is left untouched, so a caller that gets
// ErrHitEnd can report the exact offset of the truncation.
type cursor struct {
	in  []byte
	off int
}

func (c *cursor) remaining() int { return len(c.in) - c.off }

func (c *cursor) tell() int { return c.off }

func (c *cursor) seek(off int) error {
	if off < 0 || off > len(c.in) {
		return ErrInvalidArgument
	}
	c.off = off
	return nil
}

func (c *cursor) readU8() (uint8, error) {
	if c.remaining() < 1 {
		return 0, ErrHitEnd
	}
	v := c.in[c.off]
	c.off++
	return v, nil
}

func (c *cursor) readU16() (uint16, error) {
	if c.remaining() < 2 {
		return 0, ErrHitEnd
	}
	v := be.Uint16(c.in[c.off:])
	c.off += 2
	return v, nil
}

func (c *cursor) readU32() (uint32, error) {
	if c.remaining() < 4 {
		return 0, ErrHitEnd
	}
	v := be.Uint32(c.in[c.off:])
	c.off += 4
	return v, nil
}

func (c *cursor) readU64() (uint64, error) {
	if c.remaining() < 8 {
		return 0, ErrHitEnd
	}
	v := be.Uint64(c.in[c.off:])
	c.off += 8
	return v, nil
}

// readSlice borrows n bytes from the input without copying.
func (c *cursor) readSlice(n uint64) ([]byte, error) {
	if n > uint64(c.remaining()) {
		return nil, ErrHitEnd
	}
	v := c.in[c.off : c.off+int(n) : c.off+int(n)]
	c.off += int(n)
	return v, nil
}

func (c *cursor) skipN(n uint64) error {
	if n > uint64(c.remaining()) {
		return ErrHitEnd
	}
	c.off += int(n)
	return nil
}

// peekByte returns the next byte without advancing.
func (c *cursor) peekByte() (byte, bool) {
	if c.remaining() < 1 {
		return 0, false
	}
	return c.in[c.off], true
}

// readHead consumes one CBOR head: the initial byte plus its 0/1/2/4/8
// byte argument. Reserved additional-info values 28-30 fail with
// ErrUnsupported. For ai == addInfoIndefinite the argument is zero; the
// caller decides whether that means indefinite length or a break.
func (c *cursor) readHead() (major uint8, ai uint8, arg uint64, err error) {
	start := c.off
	ib, err := c.readU8()
	if err != nil {
		return 0, 0, 0, err
	}
	major = getMajorType(ib)
	ai = getAddInfo(ib)
	switch {
	case ai <= addInfoDirect:
		return major, ai, uint64(ai), nil
	case ai == addInfoUint8:
		v, err := c.readU8()
		if err != nil {
			c.off = start
			return 0, 0, 0, err
		}
		return major, ai, uint64(v), nil
	case ai == addInfoUint16:
		v, err := c.readU16()
		if err != nil {
			c.off = start
			return 0, 0, 0, err
		}
		return major, ai, uint64(v), nil
	case ai == addInfoUint32:
		v, err := c.readU32()
		if err != nil {
			c.off = start
			return 0, 0, 0, err
		}
		return major, ai, uint64(v), nil
	case ai == addInfoUint64:
		v, err := c.readU64()
		if err != nil {
			c.off = start
			return 0, 0, 0, err
		}
		return major, ai, v, nil
	case ai == addInfoIndefinite:
		switch major {
		case majorTypeBytes, majorTypeText, majorTypeArray, majorTypeMap, majorTypeSimple:
			return major, ai, 0, nil
		default:
			c.off = start
			return 0, 0, 0, ErrUnsupported
		}
	default:
		// 28, 29, 30 are reserved
		c.off = start
		return 0, 0, 0, ErrUnsupported
	}
}
