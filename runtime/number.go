package cbor

import (
	"math"
)

// Convert is a bit mask of the source types a numeric conversion is
// willing to take. A conversion from a type outside the mask fails
// with ErrUnexpectedType even when the value itself would fit.
type Convert uint32

const (
	// ConvertXInt64 accepts wire integers of either sign.
	ConvertXInt64 Convert = 1 << iota
	// ConvertFloat accepts half, single and double floats.
	ConvertFloat
	// ConvertBignum accepts tag 2 and 3 big numbers.
	ConvertBignum
	// ConvertDecimalFraction accepts tag 4, including bignum mantissas.
	ConvertDecimalFraction
	// ConvertBigFloat accepts tag 5, including bignum mantissas.
	ConvertBigFloat

	// ConvertAll accepts every numeric source type.
	ConvertAll = ConvertXInt64 | ConvertFloat | ConvertBignum |
		ConvertDecimalFraction | ConvertBigFloat
)

// Int64 narrows the item to an int64 under the given conversion mask.
// Values outside the int64 range fail with ErrConversionUnderOverflow;
// non-finite floats fail with ErrFloatException.
func (it *Item) Int64(masks Convert) (int64, error) {
	switch it.Type {
	case Int64Type:
		if masks&ConvertXInt64 == 0 {
			return 0, ErrUnexpectedType
		}
		return it.Int, nil

	case UInt64Type:
		if masks&ConvertXInt64 == 0 {
			return 0, ErrUnexpectedType
		}
		if it.Uint > math.MaxInt64 {
			return 0, ErrConversionUnderOverflow
		}
		return int64(it.Uint), nil

	case HalfFloatType, FloatType, DoubleType:
		if masks&ConvertFloat == 0 {
			return 0, ErrUnexpectedType
		}
		return floatToInt64(it.F)

	case PosBignumType, NegBignumType:
		if masks&ConvertBignum == 0 {
			return 0, ErrUnexpectedType
		}
		n, err := bignumToUint64(it.Bytes)
		if err != nil {
			return 0, err
		}
		if n > math.MaxInt64 {
			return 0, ErrConversionUnderOverflow
		}
		if it.Type == NegBignumType {
			return -1 - int64(n), nil
		}
		return int64(n), nil

	case DecimalFractionType:
		if masks&ConvertDecimalFraction == 0 {
			return 0, ErrUnexpectedType
		}
		return exponentiate(it.Exp.Mantissa, it.Exp.Exponent, 10)

	case BigFloatType:
		if masks&ConvertBigFloat == 0 {
			return 0, ErrUnexpectedType
		}
		return exponentiate(it.Exp.Mantissa, it.Exp.Exponent, 2)

	case DecimalFractionPosBignumType, DecimalFractionNegBignumType:
		if masks&ConvertDecimalFraction == 0 {
			return 0, ErrUnexpectedType
		}
		m, err := bignumMantissa(it)
		if err != nil {
			return 0, err
		}
		return exponentiate(m, it.Exp.Exponent, 10)

	case BigFloatPosBignumType, BigFloatNegBignumType:
		if masks&ConvertBigFloat == 0 {
			return 0, ErrUnexpectedType
		}
		m, err := bignumMantissa(it)
		if err != nil {
			return 0, err
		}
		return exponentiate(m, it.Exp.Exponent, 2)
	}
	return 0, ErrUnexpectedType
}

// Uint64 narrows the item to a uint64. Negative values of any source
// type fail with ErrNumberSignConversion.
func (it *Item) Uint64(masks Convert) (uint64, error) {
	switch it.Type {
	case Int64Type:
		if masks&ConvertXInt64 == 0 {
			return 0, ErrUnexpectedType
		}
		if it.Int < 0 {
			return 0, ErrNumberSignConversion
		}
		return uint64(it.Int), nil

	case UInt64Type:
		if masks&ConvertXInt64 == 0 {
			return 0, ErrUnexpectedType
		}
		return it.Uint, nil

	case HalfFloatType, FloatType, DoubleType:
		if masks&ConvertFloat == 0 {
			return 0, ErrUnexpectedType
		}
		return floatToUint64(it.F)

	case PosBignumType:
		if masks&ConvertBignum == 0 {
			return 0, ErrUnexpectedType
		}
		return bignumToUint64(it.Bytes)

	case NegBignumType:
		if masks&ConvertBignum == 0 {
			return 0, ErrUnexpectedType
		}
		return 0, ErrNumberSignConversion

	case DecimalFractionType, BigFloatType,
		DecimalFractionPosBignumType, DecimalFractionNegBignumType,
		BigFloatPosBignumType, BigFloatNegBignumType:
		n, err := it.Int64(masks)
		if err != nil {
			return 0, err
		}
		if n < 0 {
			return 0, ErrNumberSignConversion
		}
		return uint64(n), nil
	}
	return 0, ErrUnexpectedType
}

// Float64 widens the item to a float64. Precision loss is accepted;
// magnitude overflow from the exponent types saturates to infinity.
func (it *Item) Float64(masks Convert) (float64, error) {
	if !featureFloatHW {
		return 0, ErrFloatDisabled
	}
	switch it.Type {
	case HalfFloatType, FloatType, DoubleType:
		if masks&ConvertFloat == 0 {
			return 0, ErrUnexpectedType
		}
		return it.F, nil

	case Int64Type:
		if masks&ConvertXInt64 == 0 {
			return 0, ErrUnexpectedType
		}
		return float64(it.Int), nil

	case UInt64Type:
		if masks&ConvertXInt64 == 0 {
			return 0, ErrUnexpectedType
		}
		return float64(it.Uint), nil

	case PosBignumType:
		if masks&ConvertBignum == 0 {
			return 0, ErrUnexpectedType
		}
		return bignumToFloat(it.Bytes), nil

	case NegBignumType:
		if masks&ConvertBignum == 0 {
			return 0, ErrUnexpectedType
		}
		return -1 - bignumToFloat(it.Bytes), nil

	case DecimalFractionType:
		if masks&ConvertDecimalFraction == 0 {
			return 0, ErrUnexpectedType
		}
		return float64(it.Exp.Mantissa) * math.Pow(10, float64(it.Exp.Exponent)), nil

	case BigFloatType:
		if masks&ConvertBigFloat == 0 {
			return 0, ErrUnexpectedType
		}
		return ldexp64(float64(it.Exp.Mantissa), it.Exp.Exponent), nil

	case DecimalFractionPosBignumType:
		if masks&ConvertDecimalFraction == 0 {
			return 0, ErrUnexpectedType
		}
		return bignumToFloat(it.Exp.Big) * math.Pow(10, float64(it.Exp.Exponent)), nil

	case DecimalFractionNegBignumType:
		if masks&ConvertDecimalFraction == 0 {
			return 0, ErrUnexpectedType
		}
		return (-1 - bignumToFloat(it.Exp.Big)) * math.Pow(10, float64(it.Exp.Exponent)), nil

	case BigFloatPosBignumType:
		if masks&ConvertBigFloat == 0 {
			return 0, ErrUnexpectedType
		}
		return ldexp64(bignumToFloat(it.Exp.Big), it.Exp.Exponent), nil

	case BigFloatNegBignumType:
		if masks&ConvertBigFloat == 0 {
			return 0, ErrUnexpectedType
		}
		return ldexp64(-1-bignumToFloat(it.Exp.Big), it.Exp.Exponent), nil
	}
	return 0, ErrUnexpectedType
}

// floatToInt64 rejects non-finite and non-integral input and anything
// outside the int64 range.
func floatToInt64(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrFloatException
	}
	if f != math.Trunc(f) {
		return 0, ErrConversionUnderOverflow
	}
	// 2^63 is exactly representable; MaxInt64 is not.
	if f >= float64(math.MaxInt64) || f < float64(math.MinInt64) {
		return 0, ErrConversionUnderOverflow
	}
	return int64(f), nil
}

func floatToUint64(f float64) (uint64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrFloatException
	}
	if f != math.Trunc(f) {
		return 0, ErrConversionUnderOverflow
	}
	if f < 0 {
		return 0, ErrNumberSignConversion
	}
	if f >= float64(math.MaxUint64) {
		return 0, ErrConversionUnderOverflow
	}
	return uint64(f), nil
}

// bignumToUint64 folds big-endian magnitude bytes into a uint64,
// tolerating leading zeros.
func bignumToUint64(b []byte) (uint64, error) {
	var n uint64
	for _, c := range b {
		if n > math.MaxUint64>>8 {
			return 0, ErrConversionUnderOverflow
		}
		n = n<<8 | uint64(c)
	}
	return n, nil
}

func bignumToFloat(b []byte) float64 {
	var f float64
	for _, c := range b {
		f = f*256 + float64(c)
	}
	return f
}

// bignumMantissa folds a bignum mantissa into an int64, applying the
// negative offset for the tag 3 variants.
func bignumMantissa(it *Item) (int64, error) {
	n, err := bignumToUint64(it.Exp.Big)
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt64 {
		return 0, ErrConversionUnderOverflow
	}
	switch it.Type {
	case DecimalFractionNegBignumType, BigFloatNegBignumType:
		return -1 - int64(n), nil
	default:
		return int64(n), nil
	}
}

// exponentiate computes mantissa * base^exponent in integer math.
// Negative exponents name fractions an int64 cannot hold.
func exponentiate(mantissa, exponent int64, base int64) (int64, error) {
	if exponent < 0 {
		return 0, ErrConversionUnderOverflow
	}
	n := mantissa
	for i := int64(0); i < exponent; i++ {
		if n > math.MaxInt64/base || n < math.MinInt64/base {
			return 0, ErrConversionUnderOverflow
		}
		n *= base
	}
	return n, nil
}

// ldexp64 is Ldexp with the exponent clamped into int range.
func ldexp64(f float64, exp int64) float64 {
	switch {
	case exp > 1<<20:
		exp = 1 << 20
	case exp < -(1 << 20):
		exp = -(1 << 20)
	}
	return math.Ldexp(f, int(exp))
}
