package cbor

import (
	"math"
)

// processTags folds recognized tag numbers into the item they wrap,
// innermost first. Unrecognized tags and the base64/base16 conversion
// hints are recorded on the item instead. A recognized tag whose
// content has the wrong shape fails with ErrBadOptTag.
func (d *Decoder) processTags(it Item, tags []uint64) (Item, error) {
	for i := len(tags) - 1; i >= 0; i-- {
		var err error
		switch tags[i] {
		case tagSelfDescribeCBOR:
			// Transparent magic prefix.
			continue
		case tagDateTimeString:
			it, err = retype(it, TextStringType, DateStringType)
		case tagEpochDateTime:
			it, err = epochFrom(it)
		case tagPosBignum:
			it, err = retype(it, ByteStringType, PosBignumType)
		case tagNegBignum:
			it, err = retype(it, ByteStringType, NegBignumType)
		case tagDecimalFraction:
			it, err = d.expMantFrom(it, DecimalFractionType)
		case tagBigfloat:
			it, err = d.expMantFrom(it, BigFloatType)
		case tagEpochDays:
			it, err = epochDaysFrom(it)
		case tagDaysString:
			it, err = retypeUncommon(it, TextStringType, DaysStringType)
		case tagURI:
			it, err = retypeUncommon(it, TextStringType, URIType)
		case tagBase64URL:
			it, err = retypeUncommon(it, TextStringType, Base64URLType)
		case tagBase64:
			it, err = retypeUncommon(it, TextStringType, Base64Type)
		case tagRegexp:
			it, err = retypeUncommon(it, TextStringType, RegexType)
		case tagMIME:
			it, err = retypeUncommon(it, TextStringType, MIMEType)
		case tagUUID:
			it, err = retypeUncommon(it, ByteStringType, UUIDType)
		default:
			if it.TagCount == MaxTagsPerItem {
				return Item{}, ErrTooManyTags
			}
			it.Tags[it.TagCount] = tags[i]
			it.TagCount++
		}
		if err != nil {
			return Item{}, err
		}
	}
	return it, nil
}

func retype(it Item, want, got DataType) (Item, error) {
	if it.Type != want || it.TagCount != 0 {
		return Item{}, ErrBadOptTag
	}
	it.Type = got
	return it, nil
}

func retypeUncommon(it Item, want, got DataType) (Item, error) {
	if !featureUncommonTags {
		return Item{}, ErrUncommonTagsDisabled
	}
	return retype(it, want, got)
}

// epochFrom converts tag 1 content into an epoch timestamp. Integer
// seconds must fit an int64; float seconds keep the integral part in
// Seconds and the remainder in Fraction. Non-finite or out-of-range
// values fail with ErrDateOverflow.
func epochFrom(it Item) (Item, error) {
	if it.TagCount != 0 {
		return Item{}, ErrBadOptTag
	}
	out := Item{Type: EpochDateType}
	switch it.Type {
	case Int64Type:
		out.Epoch = Epoch{Seconds: it.Int}
	case UInt64Type:
		return Item{}, ErrDateOverflow
	case HalfFloatType, FloatType, DoubleType:
		if !featureFloatHW {
			// No float hardware: fractional seconds cannot be honored.
			return Item{}, ErrDateOverflow
		}
		f := it.F
		if math.IsNaN(f) || math.IsInf(f, 0) ||
			f >= float64(math.MaxInt64) || f < float64(math.MinInt64) {
			return Item{}, ErrDateOverflow
		}
		sec := math.Floor(f)
		out.Epoch = Epoch{Seconds: int64(sec), Fraction: f - sec}
	default:
		return Item{}, ErrBadOptTag
	}
	return out, nil
}

// epochDaysFrom converts tag 100 content, which is integer days only.
func epochDaysFrom(it Item) (Item, error) {
	if !featureUncommonTags {
		return Item{}, ErrUncommonTagsDisabled
	}
	if it.TagCount != 0 {
		return Item{}, ErrBadOptTag
	}
	switch it.Type {
	case Int64Type:
		return Item{Type: EpochDaysType, Int: it.Int}, nil
	case UInt64Type:
		return Item{}, ErrDateOverflow
	default:
		return Item{}, ErrBadOptTag
	}
}

// expMantFrom consumes the two-element [exponent, mantissa] array that
// tags 4 and 5 wrap. The array head has already been decoded into it;
// the contents are still at the cursor. The mantissa may itself be a
// bignum, which shifts the result type to the matching variant.
func (d *Decoder) expMantFrom(it Item, base DataType) (Item, error) {
	if !featureExpMantissa {
		return Item{}, ErrExpMantissaDisabled
	}
	if it.TagCount != 0 {
		return Item{}, ErrBadOptTag
	}
	if it.Type != ArrayType && it.Type != ArrayAsMapType {
		return Item{}, ErrBadOptTag
	}
	if it.Indefinite || it.Count != 2 {
		return Item{}, ErrBadExpAndMantissa
	}

	out := Item{Type: base}

	exp, err := d.decodeOne()
	if err != nil {
		return Item{}, err
	}
	if exp.Type != Int64Type || exp.TagCount != 0 {
		// Exponents do not get the bignum treatment.
		return Item{}, ErrBadExpAndMantissa
	}
	out.Exp.Exponent = exp.Int

	mant, err := d.decodeOne()
	if err != nil {
		return Item{}, err
	}
	if mant.TagCount != 0 {
		return Item{}, ErrBadExpAndMantissa
	}
	switch mant.Type {
	case Int64Type:
		out.Exp.Mantissa = mant.Int
	case UInt64Type:
		return Item{}, ErrBadExpAndMantissa
	case PosBignumType:
		out.Exp.Big = mant.Bytes
		out.ValueAllocated = mant.ValueAllocated
		if base == DecimalFractionType {
			out.Type = DecimalFractionPosBignumType
		} else {
			out.Type = BigFloatPosBignumType
		}
	case NegBignumType:
		out.Exp.Big = mant.Bytes
		out.ValueAllocated = mant.ValueAllocated
		if base == DecimalFractionType {
			out.Type = DecimalFractionNegBignumType
		} else {
			out.Type = BigFloatNegBignumType
		}
	default:
		return Item{}, ErrBadExpAndMantissa
	}
	return out, nil
}
