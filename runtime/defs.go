// Package cbor implements a single-pass streaming codec for the Concise
// Binary Object Representation (RFC 8949).
//
// The decoder pulls typed Items out of a borrowed byte slice while tracking
// container nesting, semantic tags and map labels; the encoder pushes items
// into an output buffer in preferred serialization, with deferred container
// heads and byte-string wrapping. Neither side allocates on the hot path:
// decoded strings are sub-slices of the input, and indefinite-length strings
// are reassembled through an explicit StringAllocator.
//
// The package also carries a well-formedness validator, an RFC 8949
// diagnostic-notation renderer, and the numeric-conversion engine used to
// narrow arbitrary CBOR numbers into Go integer and float types.
package cbor

// CBOR major types (top 3 bits of the initial byte).
const (
	majorTypeUint   = 0 // unsigned integer
	majorTypeNegInt = 1 // negative integer
	majorTypeBytes  = 2 // byte string
	majorTypeText   = 3 // text string (UTF-8)
	majorTypeArray  = 4 // array
	majorTypeMap    = 5 // map
	majorTypeTag    = 6 // semantic tag
	majorTypeSimple = 7 // float, simple values, break
)

// Additional info values (low 5 bits of the initial byte).
const (
	addInfoDirect     = 23 // max literal value
	addInfoUint8      = 24 // 1-byte argument follows
	addInfoUint16     = 25 // 2-byte argument follows
	addInfoUint32     = 26 // 4-byte argument follows
	addInfoUint64     = 27 // 8-byte argument follows
	addInfoIndefinite = 31 // indefinite length / break
)

// Simple values of major type 7.
const (
	simpleFalse     = 20
	simpleTrue      = 21
	simpleNull      = 22
	simpleUndefined = 23
	simpleFloat16   = 25
	simpleFloat32   = 26
	simpleFloat64   = 27
	simpleBreak     = 31
)

// breakByte is the encoded break marker closing indefinite-length items.
const breakByte = 0xff

// Semantic tags the tag processor recognizes.
const (
	tagDateTimeString   = 0     // RFC 3339 date/time string
	tagEpochDateTime    = 1     // epoch timestamp (int or float)
	tagPosBignum        = 2     // positive bignum
	tagNegBignum        = 3     // negative bignum
	tagDecimalFraction  = 4     // [exponent, mantissa], base 10
	tagBigfloat         = 5     // [exponent, mantissa], base 2
	tagBase64URLHint    = 21    // expected base64url conversion
	tagBase64Hint       = 22    // expected base64 conversion
	tagBase16Hint       = 23    // expected base16 conversion
	tagURI              = 32    // URI text string
	tagBase64URL        = 33    // base64url text string
	tagBase64           = 34    // base64 text string
	tagRegexp           = 35    // regular expression
	tagMIME             = 36    // MIME message
	tagUUID             = 37    // RFC 4122 UUID byte string
	tagEpochDays        = 100   // days since the epoch
	tagDaysString       = 1004  // RFC 3339 full-date string
	tagSelfDescribeCBOR = 55799 // self-describe magic (0xd9d9f7)
)

const (
	// MaxNestingDepth is the deepest container nesting the decoder and
	// encoder will track. Opening a container beyond it fails with
	// ErrNestingTooDeep.
	MaxNestingDepth = 16

	// MaxTagsPerItem is how many consecutive tag numbers may wrap a
	// single data item before ErrTooManyTags.
	MaxTagsPerItem = 4

	// maxContainerCount caps definite array and map entry counts. The
	// wire format allows 64-bit counts but nothing that large can name
	// more items than the input could hold.
	maxContainerCount = 65535
)

func makeByte(majorType, addInfo uint8) byte {
	return byte(majorType<<5 | addInfo)
}

func getMajorType(b byte) uint8 { return b >> 5 }

func getAddInfo(b byte) uint8 { return b & 0x1f }

// headSize returns the preferred-serialization head length for argument u.
func headSize(u uint64) int {
	switch {
	case u <= addInfoDirect:
		return 1
	case u <= 0xff:
		return 2
	case u <= 0xffff:
		return 3
	case u <= 0xffff_ffff:
		return 5
	default:
		return 9
	}
}
