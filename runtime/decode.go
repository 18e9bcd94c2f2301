package cbor

import (
	"math"
)

// DecodeMode selects how maps are surfaced by the decoder.
type DecodeMode int

const (
	// DecodeModeNormal pairs each map value with its label.
	DecodeModeNormal DecodeMode = iota
	// DecodeModeMapAsArray surfaces maps as arrays of alternating
	// labels and values, with no label typing restrictions.
	DecodeModeMapAsArray
	// DecodeModeMapStringsOnly restricts map labels to text strings.
	DecodeModeMapStringsOnly
)

// nestFrame tracks one open array or map while traversing.
type nestFrame struct {
	isMap     bool // normal-mode map, labels paired with values
	wireMap   bool // encoded as major type 5
	definite  bool
	total     uint32 // item count at this level; maps count label+value as 2
	remaining uint32
	start     int // offset of the first contained item
	end       int // offset just past the container, set when bounded
	bounded   bool
}

// Decoder is a pull decoder over a single encoded input. Traversal is
// strictly forward except where Rewind and the map getters re-scan a
// bounded container. The first error encountered sticks: every later
// operation returns it until GetAndResetError clears it, and
// well-formedness errors cannot be cleared at all.
type Decoder struct {
	c     cursor
	mode  DecodeMode
	alloc StringAllocator

	nest  [MaxNestingDepth]nestFrame
	depth int

	err    error
	sticky bool // err is not clearable
}

// NewDecoder returns a decoder over in using DecodeModeNormal.
func NewDecoder(in []byte) *Decoder {
	return NewDecoderMode(in, DecodeModeNormal)
}

// NewDecoderMode returns a decoder over in using the given map mode.
func NewDecoderMode(in []byte, mode DecodeMode) *Decoder {
	return &Decoder{c: cursor{in: in}, mode: mode}
}

// SetStringAllocator installs the allocator used to reassemble
// indefinite-length strings and to copy out allocated values. Without
// one, indefinite-length strings fail with ErrNoStringAllocator.
func (d *Decoder) SetStringAllocator(a StringAllocator) {
	d.alloc = a
}

// SetMemPool installs a BumpPool over buf as the string allocator.
func (d *Decoder) SetMemPool(buf []byte) error {
	p, err := NewBumpPool(buf)
	if err != nil {
		return err
	}
	d.alloc = p
	return nil
}

// recordError makes err the decoder's sticky error if none is set yet.
func (d *Decoder) recordError(err error) {
	if d.err != nil {
		return
	}
	d.err = err
	d.sticky = !Recoverable(err)
}

// GetAndResetError returns the pending error and clears it if it is
// recoverable. Well-formedness errors stay in place.
func (d *Decoder) GetAndResetError() error {
	err := d.err
	if err != nil && Recoverable(err) {
		d.err = nil
	}
	return err
}

// Err returns the pending error without clearing it.
func (d *Decoder) Err() error {
	return d.err
}

// Tell reports the current input offset, or math.MaxUint32 when an
// error is pending.
func (d *Decoder) Tell() uint32 {
	if d.err != nil {
		return math.MaxUint32
	}
	return uint32(d.c.tell())
}

// EndCheck reports whether there are no further items at the current
// traversal level.
func (d *Decoder) EndCheck() bool {
	if d.err != nil {
		return true
	}
	if d.depth == 0 {
		return d.c.remaining() == 0
	}
	f := &d.nest[d.depth-1]
	if f.definite {
		return f.remaining == 0
	}
	b, ok := d.c.peekByte()
	return !ok || b == 0xff
}

// GetNext decodes the next item in the traversal, descending into
// arrays and maps as their heads are consumed. At the end of the input
// or of an entered container it returns ErrNoMoreItems, which is not
// recorded as a pending error.
func (d *Decoder) GetNext() (Item, error) {
	return d.next(false)
}

func (d *Decoder) next(retainEmpty bool) (Item, error) {
	if d.err != nil {
		return Item{}, d.err
	}
	it, err := d.decodeItem(retainEmpty)
	if err != nil {
		if err != ErrNoMoreItems {
			d.recordError(err)
		}
		return Item{}, err
	}
	return it, nil
}

// decodeItem consumes one item, including its label when directly
// inside a normal-mode map, and settles any container closes that
// follow it so that NextLevel reflects where the traversal resumes.
func (d *Decoder) decodeItem(retainEmpty bool) (Item, error) {
	// Consume break bytes owed by enclosing indefinite-length
	// containers before looking for the item itself.
	for {
		if d.depth > 0 {
			f := &d.nest[d.depth-1]
			if f.definite && f.remaining == 0 {
				// Only reachable for entered containers;
				// settle pops exhausted unbounded frames.
				return Item{}, ErrNoMoreItems
			}
		}
		b, ok := d.c.peekByte()
		if !ok {
			if d.depth == 0 {
				return Item{}, ErrNoMoreItems
			}
			return Item{}, ErrHitEnd
		}
		if b != breakByte {
			break
		}
		if d.depth == 0 {
			return Item{}, ErrBadBreak
		}
		f := &d.nest[d.depth-1]
		if f.definite {
			return Item{}, ErrBadBreak
		}
		if f.bounded {
			return Item{}, ErrNoMoreItems
		}
		d.c.off++
		d.depth--
		if err := d.settle(); err != nil {
			return Item{}, err
		}
	}

	level := d.depth
	consumed := uint32(1)
	var label Label
	var labelAlloc bool
	if d.depth > 0 && d.nest[d.depth-1].isMap {
		lab, err := d.decodeOne()
		if err != nil {
			return Item{}, err
		}
		label, labelAlloc, err = d.labelFrom(lab)
		if err != nil {
			return Item{}, err
		}
		consumed = 2
	}

	it, err := d.decodeOne()
	if err != nil {
		return Item{}, err
	}
	it.Level = level
	it.Label = label
	it.LabelAllocated = labelAlloc

	if d.depth > 0 {
		f := &d.nest[d.depth-1]
		if f.definite {
			f.remaining -= consumed
		}
	}

	if it.opensContainer() {
		rem := frameItems(&it)
		if it.Indefinite || rem > 0 || retainEmpty {
			if d.depth == MaxNestingDepth {
				return Item{}, ErrNestingTooDeep
			}
			d.nest[d.depth] = nestFrame{
				isMap:     it.Type == MapType && d.mode != DecodeModeMapAsArray,
				wireMap:   it.Type == MapType || it.Type == ArrayAsMapType,
				definite:  !it.Indefinite,
				total:     rem,
				remaining: rem,
				start:     d.c.tell(),
			}
			d.depth++
			it.NextLevel = d.depth
			return it, nil
		}
	}

	if err := d.settle(); err != nil {
		return Item{}, err
	}
	it.NextLevel = d.depth
	return it, nil
}

// frameItems reports how many traversal-level items a container head
// announces. Normal-mode maps count each entry as two.
func frameItems(it *Item) uint32 {
	if it.Type == MapType {
		return it.Count * 2
	}
	return it.Count
}

// settle pops every unbounded frame that has just been exhausted,
// consuming the break byte closing each indefinite-length container.
func (d *Decoder) settle() error {
	for d.depth > 0 {
		f := &d.nest[d.depth-1]
		if f.bounded {
			return nil
		}
		if f.definite {
			if f.remaining > 0 {
				return nil
			}
			d.depth--
			continue
		}
		b, ok := d.c.peekByte()
		if !ok || b != breakByte {
			return nil
		}
		d.c.off++
		d.depth--
	}
	return nil
}

// labelFrom validates a decoded label item against the map mode and
// the non-integer-labels feature.
func (d *Decoder) labelFrom(lab Item) (Label, bool, error) {
	switch lab.Type {
	case TextStringType:
		if !featureNonIntLabels {
			return Label{}, false, ErrMapLabelType
		}
		return Label{Type: TextStringType, Bytes: lab.Bytes}, lab.ValueAllocated, nil
	case ByteStringType:
		if !featureNonIntLabels || d.mode == DecodeModeMapStringsOnly {
			return Label{}, false, ErrMapLabelType
		}
		return Label{Type: ByteStringType, Bytes: lab.Bytes}, lab.ValueAllocated, nil
	case Int64Type:
		if d.mode == DecodeModeMapStringsOnly {
			return Label{}, false, ErrMapLabelType
		}
		return Label{Type: Int64Type, Int: lab.Int}, false, nil
	case UInt64Type:
		if d.mode == DecodeModeMapStringsOnly {
			return Label{}, false, ErrMapLabelType
		}
		return Label{Type: UInt64Type, Uint: lab.Uint}, false, nil
	default:
		return Label{}, false, ErrMapLabelType
	}
}

// decodeOne decodes one data item at the cursor: any prefix tags plus
// the tag content. It does not touch the nesting stack and restores
// the cursor when tag collection itself fails.
func (d *Decoder) decodeOne() (Item, error) {
	start := d.c.tell()
	var tags [MaxTagsPerItem]uint64
	ntags := 0
	for {
		major, ai, arg, err := d.c.readHead()
		if err != nil {
			return Item{}, err
		}
		if major == majorTypeTag {
			if !featureTags {
				d.c.seek(start)
				return Item{}, ErrTagsDisabled
			}
			if ntags == MaxTagsPerItem {
				d.c.seek(start)
				return Item{}, ErrTooManyTags
			}
			tags[ntags] = arg // outermost first
			ntags++
			continue
		}
		it, err := d.decodePayload(major, ai, arg)
		if err != nil {
			return Item{}, err
		}
		if ntags > 0 {
			return d.processTags(it, tags[:ntags])
		}
		return it, nil
	}
}

// decodePayload turns a non-tag head into an Item. Strings borrow from
// the input when definite and go through the allocator when chunked.
// Array and map heads carry their announced count; contents stay at
// the cursor.
func (d *Decoder) decodePayload(major, ai uint8, arg uint64) (Item, error) {
	switch major {
	case majorTypeUint:
		if arg > math.MaxInt64 {
			return Item{Type: UInt64Type, Uint: arg}, nil
		}
		return Item{Type: Int64Type, Int: int64(arg)}, nil

	case majorTypeNegInt:
		if arg > math.MaxInt64 {
			// More negative than an int64 can hold.
			return Item{}, &OverflowError{Arg: arg}
		}
		return Item{Type: Int64Type, Int: -int64(arg) - 1}, nil

	case majorTypeBytes, majorTypeText:
		t := ByteStringType
		if major == majorTypeText {
			t = TextStringType
		}
		if ai == addInfoIndefinite {
			return d.reassembleString(major, t)
		}
		if arg > math.MaxUint32 {
			return Item{}, ErrStringTooLong
		}
		b, err := d.c.readSlice(arg)
		if err != nil {
			return Item{}, err
		}
		return Item{Type: t, Bytes: b}, nil

	case majorTypeArray, majorTypeMap:
		t := ArrayType
		if major == majorTypeMap {
			t = MapType
			if d.mode == DecodeModeMapAsArray {
				t = ArrayAsMapType
				arg *= 2
			}
		}
		if ai == addInfoIndefinite {
			if !featureIndefArrays {
				return Item{}, ErrIndefLenArraysDisabled
			}
			return Item{Type: t, Indefinite: true}, nil
		}
		if arg > maxContainerCount {
			return Item{}, ErrArrayTooLong
		}
		return Item{Type: t, Count: uint32(arg)}, nil

	case majorTypeSimple:
		return decodeTypeSeven(ai, arg)
	}
	return Item{}, ErrUnsupported
}

// decodeTypeSeven handles major type 7: simple values, floats and the
// break marker, which is never a valid item on its own.
func decodeTypeSeven(ai uint8, arg uint64) (Item, error) {
	switch ai {
	case addInfoIndefinite:
		return Item{}, ErrBadBreak
	case addInfoUint8:
		if arg < 32 {
			// Two-byte encodings of simple values 0-31 are
			// not well-formed.
			return Item{}, ErrBadTypeSeven
		}
		return Item{Type: SimpleType, Simple: uint8(arg)}, nil
	case addInfoUint16:
		if !featureHalfPrec {
			return Item{}, ErrHalfPrecDisabled
		}
		return Item{Type: HalfFloatType, F: halfToDouble(uint16(arg))}, nil
	case addInfoUint32:
		return Item{Type: FloatType, F: float64(math.Float32frombits(uint32(arg)))}, nil
	case addInfoUint64:
		return Item{Type: DoubleType, F: math.Float64frombits(arg)}, nil
	default:
		switch arg {
		case simpleFalse:
			return Item{Type: FalseType}, nil
		case simpleTrue:
			return Item{Type: TrueType}, nil
		case simpleNull:
			return Item{Type: NullType}, nil
		case simpleUndefined:
			return Item{Type: UndefinedType}, nil
		default:
			return Item{Type: SimpleType, Simple: uint8(arg)}, nil
		}
	}
}

// reassembleString concatenates the chunks of an indefinite-length
// string through the allocator. On a chunk of the wrong type the
// cursor is left at the offending chunk's head.
func (d *Decoder) reassembleString(major uint8, t DataType) (Item, error) {
	if !featureIndefStrings {
		return Item{}, ErrIndefLenStringsDisabled
	}
	if d.alloc == nil {
		return Item{}, ErrNoStringAllocator
	}
	var out []byte
	for {
		chunkStart := d.c.tell()
		b, ok := d.c.peekByte()
		if !ok {
			return Item{}, ErrHitEnd
		}
		if b == breakByte {
			d.c.off++
			break
		}
		cm, cai, carg, err := d.c.readHead()
		if err != nil {
			return Item{}, err
		}
		if cm != major || cai == addInfoIndefinite {
			d.c.seek(chunkStart)
			return Item{}, ErrIndefiniteStringChunk
		}
		chunk, err := d.c.readSlice(carg)
		if err != nil {
			return Item{}, err
		}
		if len(chunk) == 0 {
			continue
		}
		n := len(out)
		out, err = d.alloc.Allocate(out, n+len(chunk))
		if err != nil {
			return Item{}, err
		}
		copy(out[n:], chunk)
	}
	if out == nil {
		out = []byte{}
	}
	return Item{Type: t, Bytes: out, ValueAllocated: true}, nil
}

// Finish checks that traversal consumed the whole input: every entered
// or descended container closed and no bytes left over.
func (d *Decoder) Finish() error {
	if d.err != nil {
		return d.err
	}
	if d.depth > 0 {
		d.recordError(ErrUnconsumed)
		return d.err
	}
	if d.c.remaining() > 0 {
		d.recordError(ErrExtraBytes)
		return d.err
	}
	return nil
}
