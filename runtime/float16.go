package cbor

import (
	"math"

	"github.com/x448/float16"
)

// halfToDouble expands IEEE 754 binary16 bits to float64. The conversion
// is exact for every half value including denormals, infinities and NaN.
func halfToDouble(bits uint16) float64 {
	return float64(float16.Frombits(bits).Float32())
}

// doubleToHalfExact converts f to binary16 bits when the conversion is
// lossless, reporting whether it was.
func doubleToHalfExact(f float64) (uint16, bool) {
	f32 := float32(f)
	if float64(f32) != f && !math.IsNaN(f) {
		return 0, false
	}
	if math.IsNaN(f) {
		// Canonical half NaN, as preferred serialization requires.
		return float16.Fromfloat32(float32(math.NaN())).Bits(), true
	}
	// Round-trip rather than PrecisionFromfloat32: the precision probe
	// reports exact subnormal halves as underflow.
	h := float16.Fromfloat32(f32)
	if float64(h.Float32()) != f {
		return 0, false
	}
	return h.Bits(), true
}

// doubleToSingleExact converts f to binary32 bits when lossless.
func doubleToSingleExact(f float64) (uint32, bool) {
	f32 := float32(f)
	if float64(f32) == f || math.IsNaN(f) {
		return math.Float32bits(f32), true
	}
	return 0, false
}
