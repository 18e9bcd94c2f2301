package cbor

// DataType identifies the decoded kind of an Item or of a map label.
type DataType byte

const (
	// None is the error sentinel: an Item of type None carries no value.
	None DataType = iota

	Int64Type      // signed integer, fits int64
	UInt64Type     // unsigned integer above int64 range
	ByteStringType // byte string
	TextStringType // text string (UTF-8 not enforced by the core)
	ArrayType      // array
	MapType        // map
	ArrayAsMapType // map surfaced as alternating label/value items
	TrueType       // simple value 21
	FalseType      // simple value 20
	NullType       // simple value 22
	UndefinedType  // simple value 23
	SimpleType     // unassigned simple value
	HalfFloatType  // IEEE 754 binary16, held as float64
	FloatType      // IEEE 754 binary32, held as float64
	DoubleType     // IEEE 754 binary64

	// Tag-content-decoded kinds.
	DateStringType
	EpochDateType
	DaysStringType
	EpochDaysType
	PosBignumType
	NegBignumType
	URIType
	Base64URLType
	Base64Type
	RegexType
	MIMEType
	UUIDType
	DecimalFractionType
	DecimalFractionPosBignumType
	DecimalFractionNegBignumType
	BigFloatType
	BigFloatPosBignumType
	BigFloatNegBignumType
)

func (t DataType) String() string {
	switch t {
	case None:
		return "none"
	case Int64Type:
		return "int64"
	case UInt64Type:
		return "uint64"
	case ByteStringType:
		return "bytes"
	case TextStringType:
		return "text"
	case ArrayType:
		return "array"
	case MapType:
		return "map"
	case ArrayAsMapType:
		return "map-as-array"
	case TrueType, FalseType:
		return "bool"
	case NullType:
		return "null"
	case UndefinedType:
		return "undefined"
	case SimpleType:
		return "simple"
	case HalfFloatType:
		return "float16"
	case FloatType:
		return "float32"
	case DoubleType:
		return "float64"
	case DateStringType:
		return "date-string"
	case EpochDateType:
		return "epoch-date"
	case DaysStringType:
		return "days-string"
	case EpochDaysType:
		return "epoch-days"
	case PosBignumType:
		return "positive bignum"
	case NegBignumType:
		return "negative bignum"
	case URIType:
		return "uri"
	case Base64URLType:
		return "base64url"
	case Base64Type:
		return "base64"
	case RegexType:
		return "regex"
	case MIMEType:
		return "mime"
	case UUIDType:
		return "uuid"
	case DecimalFractionType, DecimalFractionPosBignumType, DecimalFractionNegBignumType:
		return "decimal fraction"
	case BigFloatType, BigFloatPosBignumType, BigFloatNegBignumType:
		return "bigfloat"
	default:
		return "<invalid>"
	}
}

// isLabelType reports whether t may appear as a map label in normal
// decode mode.
func (t DataType) isLabelType() bool {
	switch t {
	case Int64Type, UInt64Type, TextStringType, ByteStringType:
		return true
	}
	return false
}

// Epoch is the decoded content of tag 1. Fraction is non-zero only when
// the timestamp was a float with a fractional part.
type Epoch struct {
	Seconds  int64
	Fraction float64
}

// ExpMant is the decoded content of tags 4 and 5: value = Mantissa ×
// base^Exponent (base 10 for decimal fractions, base 2 for bigfloats).
// When the mantissa was a bignum, Big holds its magnitude bytes and the
// Item type records the sign.
type ExpMant struct {
	Exponent int64
	Mantissa int64
	Big      []byte
}

// Label is a map label: an integer, text string or byte string keying a
// map entry. Type None means the item carried no label.
type Label struct {
	Type  DataType
	Int   int64
	Uint  uint64
	Bytes []byte
}

// equal compares two labels by numeric value (integer labels match
// regardless of major-type encoding) or byte-exact string comparison.
func (l Label) equal(o Label) bool {
	switch l.Type {
	case Int64Type:
		switch o.Type {
		case Int64Type:
			return l.Int == o.Int
		case UInt64Type:
			return l.Int >= 0 && uint64(l.Int) == o.Uint
		}
	case UInt64Type:
		switch o.Type {
		case Int64Type:
			return o.Int >= 0 && uint64(o.Int) == l.Uint
		case UInt64Type:
			return l.Uint == o.Uint
		}
	case TextStringType, ByteStringType:
		if o.Type != l.Type {
			return false
		}
		return string(l.Bytes) == string(o.Bytes)
	}
	return false
}

// Item is one decoded CBOR data item. Exactly which value fields are
// meaningful is determined by Type; the rest are zero.
//
// String-valued fields (Bytes, Label.Bytes, Exp.Big) are borrowed from the
// decoder's input unless the matching Allocated flag is set, in which case
// they live in the decoder's StringAllocator and share its lifetime.
type Item struct {
	Type DataType

	// Level is the container depth the item lives at; NextLevel is the
	// depth the following item will live at. NextLevel is greater than
	// Level only when this item opens a container, and smaller when it
	// closes one or more.
	Level     int
	NextLevel int

	// Tags holds the tag numbers wrapping this item that were not
	// consumed by tag-content decoding, innermost first.
	Tags     [MaxTagsPerItem]uint64
	TagCount int

	Label Label

	Int    int64   // Int64Type, EpochDaysType
	Uint   uint64  // UInt64Type
	F      float64 // HalfFloatType, FloatType, DoubleType
	Bytes  []byte  // string kinds, bignums, UUID, URI, ...
	Count  uint32  // ArrayType, MapType, ArrayAsMapType
	Simple uint8   // SimpleType
	Epoch  Epoch   // EpochDateType
	Exp    ExpMant // DecimalFraction*, BigFloat*

	// Indefinite marks a container of unknown length; Count is zero.
	Indefinite bool

	// ValueAllocated and LabelAllocated mark which byte fields live in
	// allocator memory rather than the borrowed input.
	ValueAllocated bool
	LabelAllocated bool
}

// Bool returns the boolean value of a TrueType or FalseType item.
func (it Item) Bool() (bool, error) {
	switch it.Type {
	case TrueType:
		return true, nil
	case FalseType:
		return false, nil
	}
	return false, &TypeError{Want: TrueType, Got: it.Type}
}

// Text returns the text-string payload of a text-bearing item.
func (it Item) Text() (string, error) {
	switch it.Type {
	case TextStringType, DateStringType, DaysStringType, URIType,
		Base64URLType, Base64Type, RegexType, MIMEType:
		return string(it.Bytes), nil
	}
	return "", &TypeError{Want: TextStringType, Got: it.Type}
}

// isString reports whether the item's value is a byte or text payload.
func (it Item) isString() bool {
	switch it.Type {
	case ByteStringType, TextStringType, DateStringType, DaysStringType,
		URIType, Base64URLType, Base64Type, RegexType, MIMEType, UUIDType,
		PosBignumType, NegBignumType:
		return true
	}
	return false
}

// opensContainer reports whether the item begins an array or map whose
// contents follow at a deeper nesting level.
func (it Item) opensContainer() bool {
	switch it.Type {
	case ArrayType, MapType, ArrayAsMapType:
		return true
	}
	return false
}
