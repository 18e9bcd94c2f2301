package cbor

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
)

func encodeOne(t *testing.T, fill func(e *Encoder)) []byte {
	t.Helper()
	e := NewEncoder()
	fill(e)
	out, err := e.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	return out
}

func checkEncoding(t *testing.T, wantHex string, fill func(e *Encoder)) {
	t.Helper()
	got := encodeOne(t, fill)
	want := mustHex(t, wantHex)
	if !bytes.Equal(got, want) {
		t.Fatalf("encoded %s, want %s", hex.EncodeToString(got), wantHex)
	}
}

func TestEncodeIntegerHeads(t *testing.T) {
	cases := []struct {
		v    int64
		want string
	}{
		{0, "00"},
		{23, "17"},
		{24, "1818"},
		{255, "18ff"},
		{256, "190100"},
		{65535, "19ffff"},
		{65536, "1a00010000"},
		{4294967295, "1affffffff"},
		{4294967296, "1b0000000100000000"},
		{-1, "20"},
		{-24, "37"},
		{-25, "3818"},
		{-256, "38ff"},
		{-257, "390100"},
		{math.MaxInt64, "1b7fffffffffffffff"},
		{math.MinInt64, "3b7fffffffffffffff"},
	}
	for _, c := range cases {
		checkEncoding(t, c.want, func(e *Encoder) { e.AddInt64(c.v) })
	}
	checkEncoding(t, "1bffffffffffffffff", func(e *Encoder) { e.AddUInt64(math.MaxUint64) })
	// -(v+1) with v beyond int64 range
	checkEncoding(t, "3bffffffffffffffff", func(e *Encoder) { e.AddNegUInt64(math.MaxUint64) })
}

func TestEncodeStringsAndSimple(t *testing.T) {
	checkEncoding(t, "40", func(e *Encoder) { e.AddBytes(nil) })
	checkEncoding(t, "4401020304", func(e *Encoder) { e.AddBytes([]byte{1, 2, 3, 4}) })
	checkEncoding(t, "60", func(e *Encoder) { e.AddText("") })
	checkEncoding(t, "6449455446", func(e *Encoder) { e.AddText("IETF") })
	checkEncoding(t, "62c3bc", func(e *Encoder) { e.AddText("ü") })
	checkEncoding(t, "f4", func(e *Encoder) { e.AddBool(false) })
	checkEncoding(t, "f5", func(e *Encoder) { e.AddBool(true) })
	checkEncoding(t, "f6", func(e *Encoder) { e.AddNull() })
	checkEncoding(t, "f7", func(e *Encoder) { e.AddUndefined() })
	checkEncoding(t, "f0", func(e *Encoder) { e.AddSimple(16) })
	checkEncoding(t, "f8ff", func(e *Encoder) { e.AddSimple(255) })
}

func TestEncodePreferredFloats(t *testing.T) {
	needPreferredFloat(t)
	cases := []struct {
		f    float64
		want string
	}{
		{0.0, "f90000"},
		{1.0, "f93c00"},
		{1.5, "f93e00"},
		{-2.0, "f9c000"},
		{65504.0, "f97bff"},              // largest half
		{65536.0, "fa47800000"},          // just past half range
		{100000.0, "fa47c35000"},         // exact single
		{5.960464477539063e-8, "f90001"}, // smallest half subnormal
		{1.1, "fb3ff199999999999a"},      // needs full double
		{1.0e300, "fb7e37e43c8800759c"},
		{math.Inf(1), "f97c00"},
		{math.Inf(-1), "f9fc00"},
		{math.NaN(), "f97e00"},
	}
	for _, c := range cases {
		checkEncoding(t, c.want, func(e *Encoder) { e.AddDouble(c.f) })
	}
	// non-preferred stays at the stated width
	checkEncoding(t, "fb3ff0000000000000", func(e *Encoder) { e.AddDoubleNoPreferred(1.0) })
	checkEncoding(t, "fa3f800000", func(e *Encoder) { e.AddFloat(1.0) })
}

func TestEncodeHalfBits(t *testing.T) {
	cases := []struct {
		bits uint16
		want string
	}{
		{0x0000, "f90000"},
		{0x3c00, "f93c00"},
		{0x0001, "f90001"},
		{0x7c00, "f97c00"},
		{0x7e00, "f97e00"},
	}
	for _, c := range cases {
		checkEncoding(t, c.want, func(e *Encoder) { e.AddHalf(c.bits) })
	}
}

func TestEncodeContainers(t *testing.T) {
	checkEncoding(t, "80", func(e *Encoder) {
		e.OpenArray()
		e.CloseArray()
	})
	checkEncoding(t, "83010203", func(e *Encoder) {
		e.OpenArray()
		e.AddInt64(1)
		e.AddInt64(2)
		e.AddInt64(3)
		e.CloseArray()
	})
	checkEncoding(t, "a201020304", func(e *Encoder) {
		e.OpenMap()
		e.AddInt64ToMapN(1, 2)
		e.AddInt64ToMapN(3, 4)
		e.CloseMap()
	})
	// {"a": 1, "b": [2, 3]}
	checkEncoding(t, "a26161016162820203", func(e *Encoder) {
		e.OpenMap()
		e.AddInt64ToMap("a", 1)
		e.AddText("b")
		e.OpenArray()
		e.AddInt64(2)
		e.AddInt64(3)
		e.CloseArray()
		e.CloseMap()
	})
}

func TestEncodeLongArrayHead(t *testing.T) {
	// 24 elements forces a one-byte argument head that must be
	// inserted in front of the already-written payload
	e := NewEncoder()
	e.OpenArray()
	for i := 0; i < 24; i++ {
		e.AddInt64(0)
	}
	e.CloseArray()
	out, err := e.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	want := append([]byte{0x98, 0x18}, bytes.Repeat([]byte{0}, 24)...)
	if !bytes.Equal(out, want) {
		t.Fatalf("encoded %x, want %x", out, want)
	}
}

func TestEncodeBstrWrap(t *testing.T) {
	// wrapped content becomes a byte string: <<1>> is 41 01
	checkEncoding(t, "4101", func(e *Encoder) {
		e.OpenBstrWrap()
		e.AddInt64(1)
		e.CloseBstrWrap()
	})
	// nested wrap inside a map value
	checkEncoding(t, "a1014402410102", func(e *Encoder) {
		e.OpenMap()
		e.AddInt64(1)
		e.OpenBstrWrap()
		e.AddInt64(2)
		e.OpenBstrWrap()
		e.AddInt64(1)
		e.CloseBstrWrap()
		e.AddInt64(2)
		e.CloseBstrWrap()
		e.CloseMap()
	})
}

func TestEncodeTagsAndDate(t *testing.T) {
	checkEncoding(t, "c11a514b67b0", func(e *Encoder) { e.AddDateEpoch(1363896240) })
	checkEncoding(t, "c074323031332d30332d32315432303a30343a30305a", func(e *Encoder) {
		e.AddDateString("2013-03-21T20:04:00Z")
	})
	checkEncoding(t, "c249010000000000000000", func(e *Encoder) {
		e.AddBignum(false, []byte{1, 0, 0, 0, 0, 0, 0, 0, 0})
	})
	checkEncoding(t, "c3450102030405", func(e *Encoder) {
		e.AddBignum(true, []byte{1, 2, 3, 4, 5})
	})
	// 273.15 as a decimal fraction
	checkEncoding(t, "c48221196ab3", func(e *Encoder) { e.AddDecimalFraction(27315, -2) })
	// 1.5 as a bigfloat
	checkEncoding(t, "c5822003", func(e *Encoder) { e.AddBigFloat(3, -1) })
	checkEncoding(t, "d82076687474703a2f2f7777772e6578616d706c652e636f6d", func(e *Encoder) {
		e.AddURI("http://www.example.com")
	})
	checkEncoding(t, "c100", func(e *Encoder) { e.AddDateEpoch(0) })
	checkEncoding(t, "d86400", func(e *Encoder) { e.AddDaysEpoch(0) })
	checkEncoding(t, "d903ec6a323031332d30332d3231", func(e *Encoder) {
		e.AddDaysString("2013-03-21")
	})
	checkEncoding(t, "d9d9f780", func(e *Encoder) {
		e.AddSelfDescribe()
		e.OpenArray()
		e.CloseArray()
	})
}

func TestEncodeUUID(t *testing.T) {
	id := uuid.MustParse("f81d4fae-7dec-11d0-a765-00a0c91e6bf6")
	checkEncoding(t, "d82550f81d4fae7dec11d0a76500a0c91e6bf6", func(e *Encoder) {
		e.AddUUID(id)
	})
}

func TestEncodeSizeEstimator(t *testing.T) {
	build := func(e *Encoder) {
		e.OpenMap()
		e.AddTextToMap("name", "size probe")
		e.AddInt64ToMap("count", 300)
		e.AddText("nested")
		e.OpenArray()
		for i := 0; i < 30; i++ {
			e.AddDouble(1.1)
		}
		e.CloseArray()
		e.CloseMap()
	}
	est := NewSizeEstimator()
	build(est)
	n, err := est.FinishSize()
	if err != nil {
		t.Fatalf("FinishSize: %v", err)
	}
	out := encodeOne(t, build)
	if n != len(out) {
		t.Fatalf("estimated %d bytes, real encoding is %d", n, len(out))
	}
}

func TestEncodeFixedBufferTooSmall(t *testing.T) {
	buf := make([]byte, 4)
	e := NewEncoderBuffer(buf)
	e.AddText("this will not fit")
	if _, err := e.Finish(); !errors.Is(err, ErrTooSmall) {
		t.Fatalf("expected ErrTooSmall, got %v", err)
	}
}

func TestEncodeFixedBufferExactFit(t *testing.T) {
	buf := make([]byte, 5)
	e := NewEncoderBuffer(buf)
	e.AddBytes([]byte{1, 2, 3, 4})
	out, err := e.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if !bytes.Equal(out, mustHex(t, "4401020304")) {
		t.Fatalf("encoded %x", out)
	}
	if &out[0] != &buf[0] {
		t.Fatal("fixed-buffer encoding must use the caller's buffer")
	}
}

func TestEncodeCloseErrors(t *testing.T) {
	e := NewEncoder()
	e.CloseArray()
	if _, err := e.Finish(); !errors.Is(err, ErrTooManyCloses) {
		t.Fatalf("expected ErrTooManyCloses, got %v", err)
	}

	e = NewEncoder()
	e.OpenArray()
	e.CloseMap()
	if _, err := e.Finish(); !errors.Is(err, ErrCloseMismatch) {
		t.Fatalf("expected ErrCloseMismatch, got %v", err)
	}

	// odd number of items in a map
	e = NewEncoder()
	e.OpenMap()
	e.AddInt64(1)
	e.CloseMap()
	if _, err := e.Finish(); !errors.Is(err, ErrCloseMismatch) {
		t.Fatalf("expected ErrCloseMismatch for odd map, got %v", err)
	}

	e = NewEncoder()
	e.OpenArray()
	if _, err := e.Finish(); !errors.Is(err, ErrStillOpen) {
		t.Fatalf("expected ErrStillOpen, got %v", err)
	}
}

func TestEncodeDecodeRoundtrip(t *testing.T) {
	needTextLabels(t)
	out := encodeOne(t, func(e *Encoder) {
		e.OpenMap()
		e.AddTextToMap("name", "sensor-1")
		e.AddInt64ToMap("reading", -40)
		e.AddDoubleToMap("volts", 3.3)
		e.AddBoolToMap("ok", true)
		e.AddBytesToMap("id", []byte{0xde, 0xad})
		e.CloseMap()
	})
	d := NewDecoder(out)
	if err := d.EnterMap(); err != nil {
		t.Fatalf("EnterMap: %v", err)
	}
	if s, err := d.GetTextInMapSZ("name"); err != nil || s != "sensor-1" {
		t.Fatalf("name: %q %v", s, err)
	}
	if v, err := d.GetInt64InMapSZ("reading"); err != nil || v != -40 {
		t.Fatalf("reading: %d %v", v, err)
	}
	if f, err := d.GetDoubleInMapSZ("volts"); err != nil || f != 3.3 {
		t.Fatalf("volts: %v %v", f, err)
	}
	if b, err := d.GetBoolInMapSZ("ok"); err != nil || !b {
		t.Fatalf("ok: %v %v", b, err)
	}
	if err := d.ExitMap(); err != nil {
		t.Fatalf("ExitMap: %v", err)
	}
	if err := d.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
}

func TestEncodeAddEncoded(t *testing.T) {
	inner := encodeOne(t, func(e *Encoder) {
		e.OpenArray()
		e.AddInt64(1)
		e.AddInt64(2)
		e.CloseArray()
	})
	checkEncoding(t, "a101820102", func(e *Encoder) {
		e.OpenMap()
		e.AddEncodedToMapN(1, inner)
		e.CloseMap()
	})
}

func TestEncodeErrSticky(t *testing.T) {
	buf := make([]byte, 2)
	e := NewEncoderBuffer(buf)
	e.AddText("far too long for the buffer")
	e.AddInt64(1)
	if e.Err() == nil {
		t.Fatal("error should stick across later calls")
	}
}
