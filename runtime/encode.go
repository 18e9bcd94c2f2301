package cbor

import (
	"math"

	"github.com/google/uuid"
)

// Frame kinds on the encoder's container stack.
const (
	encArray = iota
	encMap
	encBstr
)

type encFrame struct {
	kind  int
	start int    // offset where the contents begin
	items uint32 // items emitted at this level; maps count label+value as 2
}

// Encoder builds one encoded data item in preferred serialization.
// Container heads are inserted when the container closes, so counts
// never have to be known up front. The first error sticks; the Finish
// calls report it.
//
// The zero value encodes into a growing buffer, same as NewEncoder.
type Encoder struct {
	buf      []byte
	fixed    bool // output capped at cap(buf)
	sizeOnly bool
	size     int

	nest  [MaxNestingDepth]encFrame
	depth int

	err error
}

// NewEncoder returns an encoder with a growing output buffer.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// NewEncoderBuffer returns an encoder writing into buf's backing
// array. Exceeding cap(buf) fails with ErrTooSmall.
func NewEncoderBuffer(buf []byte) *Encoder {
	return &Encoder{buf: buf[:0], fixed: true}
}

// NewSizeEstimator returns an encoder that computes the encoded size
// without producing any output. FinishSize reports the result.
func NewSizeEstimator() *Encoder {
	return &Encoder{sizeOnly: true}
}

func (e *Encoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

// Err returns the pending error, if any.
func (e *Encoder) Err() error {
	return e.err
}

func (e *Encoder) ensure(n int) bool {
	if e.err != nil {
		return false
	}
	if e.fixed && len(e.buf)+n > cap(e.buf) {
		e.fail(ErrTooSmall)
		return false
	}
	return true
}

// putHead appends the preferred-serialization head for arg.
func putHead(dst []byte, major uint8, arg uint64) []byte {
	switch {
	case arg <= addInfoDirect:
		return append(dst, makeByte(major, uint8(arg)))
	case arg <= 0xff:
		return append(dst, makeByte(major, addInfoUint8), byte(arg))
	case arg <= 0xffff:
		return append(dst, makeByte(major, addInfoUint16), byte(arg>>8), byte(arg))
	case arg <= 0xffff_ffff:
		return append(dst, makeByte(major, addInfoUint32),
			byte(arg>>24), byte(arg>>16), byte(arg>>8), byte(arg))
	default:
		return append(dst, makeByte(major, addInfoUint64),
			byte(arg>>56), byte(arg>>48), byte(arg>>40), byte(arg>>32),
			byte(arg>>24), byte(arg>>16), byte(arg>>8), byte(arg))
	}
}

func (e *Encoder) emitHead(major uint8, arg uint64) {
	n := headSize(arg)
	if e.sizeOnly {
		if e.err == nil {
			e.size += n
		}
		return
	}
	if !e.ensure(n) {
		return
	}
	e.buf = putHead(e.buf, major, arg)
}

// emitArg appends a head with a forced argument width, used for the
// float encodings where the argument is the bit pattern.
func (e *Encoder) emitArg(major, ai uint8, arg uint64, n int) {
	if e.sizeOnly {
		if e.err == nil {
			e.size += 1 + n
		}
		return
	}
	if !e.ensure(1 + n) {
		return
	}
	e.buf = append(e.buf, makeByte(major, ai))
	for i := n - 1; i >= 0; i-- {
		e.buf = append(e.buf, byte(arg>>(8*uint(i))))
	}
}

func (e *Encoder) emitRaw(b []byte) {
	if e.sizeOnly {
		if e.err == nil {
			e.size += len(b)
		}
		return
	}
	if !e.ensure(len(b)) {
		return
	}
	e.buf = append(e.buf, b...)
}

// bump counts one item at the current nesting level.
func (e *Encoder) bump() {
	if e.err == nil && e.depth > 0 {
		e.nest[e.depth-1].items++
	}
}

// AddInt64 emits an integer of either sign in its shortest form.
func (e *Encoder) AddInt64(v int64) {
	e.bump()
	if v < 0 {
		e.emitHead(majorTypeNegInt, uint64(-(v + 1)))
		return
	}
	e.emitHead(majorTypeUint, uint64(v))
}

// AddUInt64 emits a non-negative integer.
func (e *Encoder) AddUInt64(v uint64) {
	e.bump()
	e.emitHead(majorTypeUint, v)
}

// AddNegUInt64 emits the negative integer -1-v, reaching the values
// below math.MinInt64 that only the wire format can hold.
func (e *Encoder) AddNegUInt64(v uint64) {
	e.bump()
	e.emitHead(majorTypeNegInt, v)
}

// AddBytes emits a definite-length byte string.
func (e *Encoder) AddBytes(b []byte) {
	e.bump()
	e.emitHead(majorTypeBytes, uint64(len(b)))
	e.emitRaw(b)
}

// AddText emits a definite-length text string. The caller is trusted
// to pass valid UTF-8.
func (e *Encoder) AddText(s string) {
	e.bump()
	e.emitHead(majorTypeText, uint64(len(s)))
	if e.sizeOnly {
		if e.err == nil {
			e.size += len(s)
		}
		return
	}
	if e.ensure(len(s)) {
		e.buf = append(e.buf, s...)
	}
}

// AddBool emits true or false.
func (e *Encoder) AddBool(v bool) {
	e.bump()
	if v {
		e.emitHead(majorTypeSimple, simpleTrue)
		return
	}
	e.emitHead(majorTypeSimple, simpleFalse)
}

// AddNull emits null.
func (e *Encoder) AddNull() {
	e.bump()
	e.emitHead(majorTypeSimple, simpleNull)
}

// AddUndefined emits undefined.
func (e *Encoder) AddUndefined() {
	e.bump()
	e.emitHead(majorTypeSimple, simpleUndefined)
}

// AddSimple emits a simple value. Values 24-31 are not encodable.
func (e *Encoder) AddSimple(v uint8) {
	if v >= 24 && v <= 31 {
		e.fail(ErrInvalidArgument)
		return
	}
	e.bump()
	e.emitHead(majorTypeSimple, uint64(v))
}

// AddDouble emits a float in the smallest of the three encodings that
// represents it exactly, per preferred serialization. NaN becomes the
// half-precision quiet NaN.
func (e *Encoder) AddDouble(f float64) {
	e.bump()
	e.putFloat(f)
}

func (e *Encoder) putFloat(f float64) {
	if featurePreferredFloat {
		if featureHalfPrec {
			if h, ok := doubleToHalfExact(f); ok {
				e.emitArg(majorTypeSimple, addInfoUint16, uint64(h), 2)
				return
			}
		}
		if s, ok := doubleToSingleExact(f); ok {
			e.emitArg(majorTypeSimple, addInfoUint32, uint64(s), 4)
			return
		}
	}
	e.emitArg(majorTypeSimple, addInfoUint64, math.Float64bits(f), 8)
}

// AddDoubleNoPreferred emits a float in the full 8-byte encoding.
func (e *Encoder) AddDoubleNoPreferred(f float64) {
	e.bump()
	e.emitArg(majorTypeSimple, addInfoUint64, math.Float64bits(f), 8)
}

// AddFloat emits a single-precision float, shrinking to half when the
// value survives the narrowing.
func (e *Encoder) AddFloat(f float32) {
	e.bump()
	if featurePreferredFloat && featureHalfPrec {
		if h, ok := doubleToHalfExact(float64(f)); ok {
			e.emitArg(majorTypeSimple, addInfoUint16, uint64(h), 2)
			return
		}
	}
	e.emitArg(majorTypeSimple, addInfoUint32, uint64(math.Float32bits(f)), 4)
}

// AddHalf emits a half-precision float from its IEEE 754 binary16 bit
// pattern, two bytes on the wire regardless of value.
func (e *Encoder) AddHalf(bits uint16) {
	e.bump()
	e.emitArg(majorTypeSimple, addInfoUint16, uint64(bits), 2)
}

// AddTag emits a tag number prefixing the next item. The tag itself
// does not count toward the enclosing container.
func (e *Encoder) AddTag(tag uint64) {
	e.emitHead(majorTypeTag, tag)
}

// AddDateEpoch emits tag 1 wrapping integer seconds.
func (e *Encoder) AddDateEpoch(seconds int64) {
	e.AddTag(tagEpochDateTime)
	e.AddInt64(seconds)
}

// AddDateString emits tag 0 wrapping an RFC 3339 date/time string.
func (e *Encoder) AddDateString(s string) {
	e.AddTag(tagDateTimeString)
	e.AddText(s)
}

// AddDaysEpoch emits tag 100 wrapping integer days.
func (e *Encoder) AddDaysEpoch(days int64) {
	e.AddTag(tagEpochDays)
	e.AddInt64(days)
}

// AddDaysString emits tag 1004 wrapping an RFC 3339 full-date string.
func (e *Encoder) AddDaysString(s string) {
	e.AddTag(tagDaysString)
	e.AddText(s)
}

// AddBignum emits tag 2 or 3 wrapping big-endian magnitude bytes.
// Negative selects tag 3, encoding -1-n for magnitude n.
func (e *Encoder) AddBignum(negative bool, magnitude []byte) {
	if negative {
		e.AddTag(tagNegBignum)
	} else {
		e.AddTag(tagPosBignum)
	}
	e.AddBytes(magnitude)
}

// AddDecimalFraction emits tag 4 with an int64 mantissa.
func (e *Encoder) AddDecimalFraction(mantissa, exponent int64) {
	e.AddTag(tagDecimalFraction)
	e.OpenArray()
	e.AddInt64(exponent)
	e.AddInt64(mantissa)
	e.CloseArray()
}

// AddBigFloat emits tag 5 with an int64 mantissa.
func (e *Encoder) AddBigFloat(mantissa, exponent int64) {
	e.AddTag(tagBigfloat)
	e.OpenArray()
	e.AddInt64(exponent)
	e.AddInt64(mantissa)
	e.CloseArray()
}

// AddURI emits tag 32 wrapping a URI text string.
func (e *Encoder) AddURI(s string) {
	e.AddTag(tagURI)
	e.AddText(s)
}

// AddRegex emits tag 35 wrapping a regular expression.
func (e *Encoder) AddRegex(s string) {
	e.AddTag(tagRegexp)
	e.AddText(s)
}

// AddMIME emits tag 36 wrapping a MIME message.
func (e *Encoder) AddMIME(s string) {
	e.AddTag(tagMIME)
	e.AddText(s)
}

// AddB64URLText emits tag 33 wrapping base64url text.
func (e *Encoder) AddB64URLText(s string) {
	e.AddTag(tagBase64URL)
	e.AddText(s)
}

// AddB64Text emits tag 34 wrapping base64 text.
func (e *Encoder) AddB64Text(s string) {
	e.AddTag(tagBase64)
	e.AddText(s)
}

// AddUUID emits tag 37 wrapping the 16 binary bytes of id.
func (e *Encoder) AddUUID(id uuid.UUID) {
	e.AddTag(tagUUID)
	e.AddBytes(id[:])
}

// AddBytesLenOnly accounts for a byte string of n bytes without
// providing them, which lets a size-only pass mirror an encode whose
// payload or signature does not exist yet. A writing encoder emits n
// zero bytes.
func (e *Encoder) AddBytesLenOnly(n int) {
	e.bump()
	e.emitHead(majorTypeBytes, uint64(n))
	if e.sizeOnly {
		if e.err == nil {
			e.size += n
		}
		return
	}
	if e.ensure(n) {
		e.buf = append(e.buf, make([]byte, n)...)
	}
}

// AddEncoded splices an already-encoded data item into the output.
// The bytes are trusted to be well-formed.
func (e *Encoder) AddEncoded(raw []byte) {
	e.bump()
	e.emitRaw(raw)
}

// AddSelfDescribe emits the tag 55799 magic prefix.
func (e *Encoder) AddSelfDescribe() {
	e.AddTag(tagSelfDescribeCBOR)
}

func (e *Encoder) open(kind int) {
	if e.err != nil {
		return
	}
	if e.depth == MaxNestingDepth {
		e.fail(ErrNestingTooDeep)
		return
	}
	e.bump()
	start := len(e.buf)
	if e.sizeOnly {
		start = e.size
	}
	e.nest[e.depth] = encFrame{kind: kind, start: start}
	e.depth++
}

// OpenArray starts an array; CloseArray ends it.
func (e *Encoder) OpenArray() {
	e.open(encArray)
}

// OpenMap starts a map; CloseMap ends it. Entries are emitted as
// alternating labels and values.
func (e *Encoder) OpenMap() {
	e.open(encMap)
}

// OpenBstrWrap starts a byte string whose contents are themselves
// encoded items, the enveloping construct protocols like COSE use for
// to-be-signed payloads.
func (e *Encoder) OpenBstrWrap() {
	e.open(encBstr)
}

func (e *Encoder) close(kind int) {
	if e.err != nil {
		return
	}
	if e.depth == 0 {
		e.fail(ErrTooManyCloses)
		return
	}
	f := &e.nest[e.depth-1]
	if f.kind != kind {
		e.fail(ErrCloseMismatch)
		return
	}
	var arg uint64
	switch kind {
	case encArray:
		arg = uint64(f.items)
	case encMap:
		if f.items%2 != 0 {
			e.fail(ErrCloseMismatch)
			return
		}
		arg = uint64(f.items / 2)
	case encBstr:
		if e.sizeOnly {
			arg = uint64(e.size - f.start)
		} else {
			arg = uint64(len(e.buf) - f.start)
		}
	}
	if kind != encBstr && arg > maxContainerCount {
		e.fail(ErrArrayTooLong)
		return
	}
	e.depth--
	e.insertHead(headMajor(kind), arg, f.start)
}

func headMajor(kind int) uint8 {
	switch kind {
	case encArray:
		return majorTypeArray
	case encMap:
		return majorTypeMap
	default:
		return majorTypeBytes
	}
}

// insertHead writes the container head in front of the contents that
// were emitted while it was open, shifting them up.
func (e *Encoder) insertHead(major uint8, arg uint64, start int) {
	n := headSize(arg)
	if e.sizeOnly {
		e.size += n
		return
	}
	if !e.ensure(n) {
		return
	}
	e.buf = append(e.buf, make([]byte, n)...)
	copy(e.buf[start+n:], e.buf[start:])
	var head [9]byte
	copy(e.buf[start:], putHead(head[:0], major, arg))
}

// CloseArray ends the innermost open array.
func (e *Encoder) CloseArray() {
	e.close(encArray)
}

// CloseMap ends the innermost open map.
func (e *Encoder) CloseMap() {
	e.close(encMap)
}

// CloseBstrWrap ends the innermost byte-string wrap.
func (e *Encoder) CloseBstrWrap() {
	e.close(encBstr)
}

// Labeled add operations for map building. The SZ-less N forms take
// integer labels.

// AddInt64ToMap emits a text label and an integer value.
func (e *Encoder) AddInt64ToMap(label string, v int64) {
	e.AddText(label)
	e.AddInt64(v)
}

// AddInt64ToMapN emits an integer label and an integer value.
func (e *Encoder) AddInt64ToMapN(label, v int64) {
	e.AddInt64(label)
	e.AddInt64(v)
}

// AddUInt64ToMap emits a text label and a non-negative integer value.
func (e *Encoder) AddUInt64ToMap(label string, v uint64) {
	e.AddText(label)
	e.AddUInt64(v)
}

// AddUInt64ToMapN emits an integer label and a non-negative value.
func (e *Encoder) AddUInt64ToMapN(label int64, v uint64) {
	e.AddInt64(label)
	e.AddUInt64(v)
}

// AddBytesToMap emits a text label and a byte-string value.
func (e *Encoder) AddBytesToMap(label string, v []byte) {
	e.AddText(label)
	e.AddBytes(v)
}

// AddBytesToMapN emits an integer label and a byte-string value.
func (e *Encoder) AddBytesToMapN(label int64, v []byte) {
	e.AddInt64(label)
	e.AddBytes(v)
}

// AddTextToMap emits a text label and a text value.
func (e *Encoder) AddTextToMap(label, v string) {
	e.AddText(label)
	e.AddText(v)
}

// AddTextToMapN emits an integer label and a text value.
func (e *Encoder) AddTextToMapN(label int64, v string) {
	e.AddInt64(label)
	e.AddText(v)
}

// AddBoolToMap emits a text label and a boolean value.
func (e *Encoder) AddBoolToMap(label string, v bool) {
	e.AddText(label)
	e.AddBool(v)
}

// AddBoolToMapN emits an integer label and a boolean value.
func (e *Encoder) AddBoolToMapN(label int64, v bool) {
	e.AddInt64(label)
	e.AddBool(v)
}

// AddDoubleToMap emits a text label and a float value.
func (e *Encoder) AddDoubleToMap(label string, v float64) {
	e.AddText(label)
	e.AddDouble(v)
}

// AddDoubleToMapN emits an integer label and a float value.
func (e *Encoder) AddDoubleToMapN(label int64, v float64) {
	e.AddInt64(label)
	e.AddDouble(v)
}

// AddEncodedToMapN emits an integer label and a pre-encoded value.
func (e *Encoder) AddEncodedToMapN(label int64, raw []byte) {
	e.AddInt64(label)
	e.AddEncoded(raw)
}

// Finish returns the encoded item. Every opened container must have
// been closed.
func (e *Encoder) Finish() ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	if e.depth != 0 {
		e.fail(ErrStillOpen)
		return nil, e.err
	}
	return e.buf, nil
}

// FinishSize reports the encoded size, the sole output of an encoder
// from NewSizeEstimator but also valid on the writing encoders.
func (e *Encoder) FinishSize() (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	if e.depth != 0 {
		e.fail(ErrStillOpen)
		return 0, e.err
	}
	if e.sizeOnly {
		return e.size, nil
	}
	return len(e.buf), nil
}
