//go:build cborkit_reduced

package cbor

// Reduced-profile feature switches. Everything optional is compiled out;
// the corresponding decode and encode paths fail with their *Disabled
// errors so callers can detect the missing feature instead of getting a
// wrong answer.
const (
	featureTags           = false
	featureIndefArrays    = false
	featureIndefStrings   = false
	featureNonIntLabels   = false
	featureExpMantissa    = false
	featurePreferredFloat = false
	featureFloatHW        = false
	featureHalfPrec       = false
	featureUncommonTags   = false
)
