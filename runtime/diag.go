package cbor

import (
	"encoding/hex"
	"math"
	"strconv"
	"strings"
)

// Diagnostic renders one encoded data item in the diagnostic notation
// of RFC 8949 section 8. Indefinite-length items keep their "_ "
// marker so the wire-level structure stays visible.
func Diagnostic(in []byte) (string, error) {
	var sb strings.Builder
	c := cursor{in: in}
	if err := diagItem(&sb, &c, 0); err != nil {
		return "", err
	}
	if c.remaining() > 0 {
		return "", ErrExtraBytes
	}
	return sb.String(), nil
}

func diagItem(sb *strings.Builder, c *cursor, depth int) error {
	major, ai, arg, err := c.readHead()
	if err != nil {
		return err
	}
	switch major {
	case majorTypeUint:
		sb.WriteString(strconv.FormatUint(arg, 10))
		return nil

	case majorTypeNegInt:
		sb.WriteByte('-')
		// The value is -(arg+1); arg+1 can exceed uint64.
		if arg == math.MaxUint64 {
			sb.WriteString("18446744073709551616")
		} else {
			sb.WriteString(strconv.FormatUint(arg+1, 10))
		}
		return nil

	case majorTypeBytes, majorTypeText:
		if ai == addInfoIndefinite {
			return diagChunks(sb, c, major)
		}
		b, err := c.readSlice(arg)
		if err != nil {
			return err
		}
		writeString(sb, major, b)
		return nil

	case majorTypeArray:
		return diagContainer(sb, c, ai, arg, depth, false)

	case majorTypeMap:
		return diagContainer(sb, c, ai, arg, depth, true)

	case majorTypeTag:
		sb.WriteString(strconv.FormatUint(arg, 10))
		sb.WriteByte('(')
		if err := diagItem(sb, c, depth); err != nil {
			return err
		}
		sb.WriteByte(')')
		return nil

	default:
		return diagTypeSeven(sb, ai, arg)
	}
}

func writeString(sb *strings.Builder, major uint8, b []byte) {
	if major == majorTypeBytes {
		sb.WriteString("h'")
		sb.WriteString(hex.EncodeToString(b))
		sb.WriteByte('\'')
		return
	}
	sb.WriteString(strconv.Quote(string(b)))
}

func diagChunks(sb *strings.Builder, c *cursor, major uint8) error {
	sb.WriteString("(_ ")
	first := true
	for {
		b, ok := c.peekByte()
		if !ok {
			return ErrHitEnd
		}
		if b == breakByte {
			c.off++
			break
		}
		cm, cai, carg, err := c.readHead()
		if err != nil {
			return err
		}
		if cm != major || cai == addInfoIndefinite {
			return ErrIndefiniteStringChunk
		}
		chunk, err := c.readSlice(carg)
		if err != nil {
			return err
		}
		if !first {
			sb.WriteString(", ")
		}
		first = false
		writeString(sb, major, chunk)
	}
	sb.WriteByte(')')
	return nil
}

func diagContainer(sb *strings.Builder, c *cursor, ai uint8, arg uint64, depth int, asMap bool) error {
	if depth >= MaxNestingDepth {
		return ErrNestingTooDeep
	}
	lbrace, rbrace := byte('['), byte(']')
	if asMap {
		lbrace, rbrace = '{', '}'
	}
	sb.WriteByte(lbrace)
	if ai == addInfoIndefinite {
		sb.WriteString("_ ")
		n := 0
		for {
			b, ok := c.peekByte()
			if !ok {
				return ErrHitEnd
			}
			if b == breakByte {
				if asMap && n%2 != 0 {
					return ErrBadBreak
				}
				c.off++
				break
			}
			if err := diagEntry(sb, c, depth, asMap, n); err != nil {
				return err
			}
			n++
		}
	} else {
		if arg > maxContainerCount {
			return ErrArrayTooLong
		}
		n := arg
		if asMap {
			n *= 2
		}
		for i := uint64(0); i < n; i++ {
			if err := diagEntry(sb, c, depth, asMap, int(i)); err != nil {
				return err
			}
		}
	}
	sb.WriteByte(rbrace)
	return nil
}

func diagEntry(sb *strings.Builder, c *cursor, depth int, asMap bool, n int) error {
	if n > 0 {
		if asMap && n%2 != 0 {
			sb.WriteString(": ")
		} else {
			sb.WriteString(", ")
		}
	}
	return diagItem(sb, c, depth+1)
}

func diagTypeSeven(sb *strings.Builder, ai uint8, arg uint64) error {
	switch ai {
	case addInfoIndefinite:
		return ErrBadBreak
	case addInfoUint16:
		writeFloat(sb, halfToDouble(uint16(arg)))
		return nil
	case addInfoUint32:
		writeFloat(sb, float64(math.Float32frombits(uint32(arg))))
		return nil
	case addInfoUint64:
		writeFloat(sb, math.Float64frombits(arg))
		return nil
	case addInfoUint8:
		if arg < 32 {
			return ErrBadTypeSeven
		}
	}
	switch arg {
	case simpleFalse:
		sb.WriteString("false")
	case simpleTrue:
		sb.WriteString("true")
	case simpleNull:
		sb.WriteString("null")
	case simpleUndefined:
		sb.WriteString("undefined")
	default:
		sb.WriteString("simple(")
		sb.WriteString(strconv.FormatUint(arg, 10))
		sb.WriteByte(')')
	}
	return nil
}

func writeFloat(sb *strings.Builder, f float64) {
	switch {
	case math.IsNaN(f):
		sb.WriteString("NaN")
	case math.IsInf(f, 1):
		sb.WriteString("Infinity")
	case math.IsInf(f, -1):
		sb.WriteString("-Infinity")
	default:
		s := strconv.FormatFloat(f, 'g', -1, 64)
		sb.WriteString(s)
		if !strings.ContainsAny(s, ".eE") {
			sb.WriteString(".0")
		}
	}
}
