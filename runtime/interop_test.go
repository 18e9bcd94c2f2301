package cbor

import (
	"bytes"
	"math"
	"reflect"
	"testing"

	refcbor "github.com/fxamacker/cbor/v2"
)

// The reference codec cross-checks our wire output: everything this
// encoder produces must decode to the same values elsewhere.

func TestInteropEncodeAgainstReference(t *testing.T) {
	out := encodeOne(t, func(e *Encoder) {
		e.OpenMap()
		e.AddTextToMap("i", "interop")
		e.AddInt64ToMap("n", -1234567)
		e.AddDoubleToMap("f", 2.5)
		e.AddBoolToMap("b", true)
		e.CloseMap()
	})
	var got map[string]any
	if err := refcbor.Unmarshal(out, &got); err != nil {
		t.Fatalf("reference decode: %v", err)
	}
	want := map[string]any{
		"i": "interop",
		"n": int64(-1234567),
		"f": 2.5,
		"b": true,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestInteropPreferredIntegersMatchReference(t *testing.T) {
	for _, v := range []int64{0, 23, 24, 255, 256, 65535, 65536, -1, -24, -25,
		math.MaxInt64, math.MinInt64} {
		ours := encodeOne(t, func(e *Encoder) { e.AddInt64(v) })
		ref, err := refcbor.Marshal(v)
		if err != nil {
			t.Fatalf("reference encode %d: %v", v, err)
		}
		if !bytes.Equal(ours, ref) {
			t.Fatalf("%d: ours %x, reference %x", v, ours, ref)
		}
	}
}

func TestInteropDecodeReferenceOutput(t *testing.T) {
	ref, err := refcbor.Marshal(map[int64]any{
		1: []any{int64(1), int64(2), int64(3)},
		2: "text",
		3: []byte{9, 8},
	})
	if err != nil {
		t.Fatalf("reference encode: %v", err)
	}
	d := NewDecoder(ref)
	if err := d.EnterMap(); err != nil {
		t.Fatalf("EnterMap: %v", err)
	}
	if s, err := d.GetTextInMapN(2); err != nil || s != "text" {
		t.Fatalf("label 2: %q %v", s, err)
	}
	if b, err := d.GetBytesInMapN(3); err != nil || !bytes.Equal(b, []byte{9, 8}) {
		t.Fatalf("label 3: %x %v", b, err)
	}
	if err := d.EnterArrayFromMapN(1); err != nil {
		t.Fatalf("EnterArrayFromMapN: %v", err)
	}
	sum := int64(0)
	for !d.EndCheck() {
		it := nextOrFatal(t, d)
		sum += it.Int
	}
	if sum != 6 {
		t.Fatalf("sum %d", sum)
	}
	if err := d.ExitArray(); err != nil {
		t.Fatalf("ExitArray: %v", err)
	}
	if err := d.ExitMap(); err != nil {
		t.Fatalf("ExitMap: %v", err)
	}
	if err := d.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
}

func TestInteropFloatWidths(t *testing.T) {
	needPreferredFloat(t)
	// the reference's shortest-float mode and ours agree
	em, err := refcbor.EncOptions{ShortestFloat: refcbor.ShortestFloat16}.EncMode()
	if err != nil {
		t.Fatalf("EncMode: %v", err)
	}
	for _, f := range []float64{0, 1, 1.5, -2, 65504, 65536, 100000, 1.1, 3.14159e40} {
		ours := encodeOne(t, func(e *Encoder) { e.AddDouble(f) })
		ref, err := em.Marshal(f)
		if err != nil {
			t.Fatalf("reference encode %v: %v", f, err)
		}
		if !bytes.Equal(ours, ref) {
			t.Fatalf("%v: ours %x, reference %x", f, ours, ref)
		}
	}
}
