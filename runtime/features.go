//go:build !cborkit_reduced

package cbor

// Feature switches for the full build. The cborkit_reduced build tag swaps
// this file for the stripped-down profile used on constrained targets; code
// paths behind a false switch return that feature's *Disabled error instead
// of silently succeeding with different behavior.
const (
	featureTags           = true // semantic tag processing (major type 6)
	featureIndefArrays    = true // indefinite-length arrays and maps
	featureIndefStrings   = true // indefinite-length byte/text strings
	featureNonIntLabels   = true // map labels other than integers
	featureExpMantissa    = true // decimal fraction and bigfloat tags
	featurePreferredFloat = true // shrink floats to shortest exact width
	featureFloatHW        = true // floating-point conversion support
	featureHalfPrec       = true // IEEE 754 binary16 decode/encode
	featureUncommonTags   = true // URI, MIME, regex, UUID, days tags
)
