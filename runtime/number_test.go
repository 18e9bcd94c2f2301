package cbor

import (
	"errors"
	"math"
	"testing"
)

func decodeItem(t *testing.T, h string) Item {
	t.Helper()
	d := NewDecoder(mustHex(t, h))
	return nextOrFatal(t, d)
}

func TestConvertInt64(t *testing.T) {
	needTags(t)
	needFloatHW(t)
	needHalfPrec(t)
	cases := []struct {
		hex   string
		masks Convert
		want  int64
	}{
		{"02", ConvertXInt64, 2},      // 2
		{"3863", ConvertXInt64, -100}, // -100
		{"1b7fffffffffffffff", ConvertXInt64, math.MaxInt64},
		{"f94000", ConvertFloat, 2},                           // 2.0
		{"f9c500", ConvertFloat, -5},                          // -5.0
		{"fa47c35000", ConvertFloat, 100000},                  // 100000.0
		{"c243010000", ConvertBignum, 65536},                  // bignum 2^16
		{"c3420f00", ConvertBignum, -3841},                    // -1 - 3840
		{"c48202196ab3", ConvertDecimalFraction, 2731500},     // 27315e2
		{"c5820203", ConvertBigFloat, 12},                     // 3 * 2^2
		{"c48202c243010000", ConvertDecimalFraction, 6553600}, // bignum mantissa
	}
	for _, c := range cases {
		it := decodeItem(t, c.hex)
		got, err := it.Int64(c.masks)
		if err != nil || got != c.want {
			t.Fatalf("%s: got %d, %v; want %d", c.hex, got, err, c.want)
		}
	}
}

func TestConvertInt64Errors(t *testing.T) {
	needTags(t)
	needFloatHW(t)
	needHalfPrec(t)
	cases := []struct {
		hex   string
		masks Convert
		want  error
	}{
		{"02", ConvertFloat, ErrUnexpectedType},              // integer not in mask
		{"f94100", ConvertXInt64, ErrUnexpectedType},         // float not in mask
		{"f94100", ConvertFloat, ErrConversionUnderOverflow}, // 2.5 is not integral
		{"f9c4c0", ConvertFloat, ErrConversionUnderOverflow}, // -4.75 is not integral
		{"6161", ConvertAll, ErrUnexpectedType},              // text string
		{"1bffffffffffffffff", ConvertAll, ErrConversionUnderOverflow},
		{"f97e00", ConvertAll, ErrFloatException},                          // NaN
		{"f97c00", ConvertAll, ErrFloatException},                          // Infinity
		{"fb43f0000000000000", ConvertAll, ErrConversionUnderOverflow},     // 2^64
		{"c249010000000000000000", ConvertAll, ErrConversionUnderOverflow}, // bignum 2^64
		{"c48221196ab3", ConvertAll, ErrConversionUnderOverflow},           // negative exponent
		{"c482181f01", ConvertAll, ErrConversionUnderOverflow},             // 1e31
	}
	for _, c := range cases {
		it := decodeItem(t, c.hex)
		if _, err := it.Int64(c.masks); !errors.Is(err, c.want) {
			t.Fatalf("%s: got %v, want %v", c.hex, err, c.want)
		}
	}
}

func TestConvertUint64(t *testing.T) {
	needTags(t)
	needHalfPrec(t)
	it := decodeItem(t, "1bffffffffffffffff")
	if v, err := it.Uint64(ConvertXInt64); err != nil || v != math.MaxUint64 {
		t.Fatalf("max uint: %d %v", v, err)
	}
	it = decodeItem(t, "c249010000000000000001") // bignum 2^64 + 1
	if _, err := it.Uint64(ConvertBignum); !errors.Is(err, ErrConversionUnderOverflow) {
		t.Fatalf("oversized bignum: %v", err)
	}
	it = decodeItem(t, "c2490000000000000000ff") // leading zeros tolerated
	if v, err := it.Uint64(ConvertBignum); err != nil || v != 255 {
		t.Fatalf("padded bignum: %d %v", v, err)
	}

	for _, h := range []string{"20", "f9c400", "c341ff"} {
		it := decodeItem(t, h)
		if _, err := it.Uint64(ConvertAll); !errors.Is(err, ErrNumberSignConversion) {
			t.Fatalf("%s: got %v, want ErrNumberSignConversion", h, err)
		}
	}
}

func TestConvertFloat64(t *testing.T) {
	needTags(t)
	needFloatHW(t)
	needHalfPrec(t)
	cases := []struct {
		hex   string
		masks Convert
		want  float64
	}{
		{"f93c00", ConvertFloat, 1.0},
		{"fb40091eb851eb851f", ConvertFloat, 3.14},
		{"18ff", ConvertXInt64, 255},
		{"3863", ConvertXInt64, -100},
		{"c243010000", ConvertBignum, 65536},
		{"c5822003", ConvertBigFloat, 1.5}, // 3 * 2^-1
	}
	for _, c := range cases {
		it := decodeItem(t, c.hex)
		got, err := it.Float64(c.masks)
		if err != nil || got != c.want {
			t.Fatalf("%s: got %v, %v; want %v", c.hex, got, err, c.want)
		}
	}

	// 273.15 via decimal fraction carries binary rounding
	it := decodeItem(t, "c48221196ab3")
	got, err := it.Float64(ConvertDecimalFraction)
	if err != nil || math.Abs(got-273.15) > 1e-9 {
		t.Fatalf("decimal fraction: %v %v", got, err)
	}

	it = decodeItem(t, "02")
	if _, err := it.Float64(ConvertFloat); !errors.Is(err, ErrUnexpectedType) {
		t.Fatalf("mask gating: %v", err)
	}
}
