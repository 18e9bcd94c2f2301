package cbor

import (
	"encoding/hex"
	"testing"

	refcbor "github.com/fxamacker/cbor/v2"
)

func fuzzSeeds(f *testing.F) {
	seeds := []string{
		"00", "17", "1818", "1903e8", "3bffffffffffffffff",
		"4401020304", "6449455446", "5f42010243030405ff",
		"83010203", "a26161016162820203", "9f018202039f0405ffff",
		"bf61610161629f0203ffff", "c11a514b67b0", "c249010000000000000000",
		"c48221196ab3", "d9d9f780", "f97e00", "fb3ff199999999999a",
		"80", "a0", "f6", "ff", "81", "5fff", "d903e8d907d001",
	}
	for _, s := range seeds {
		b, err := hex.DecodeString(s)
		if err != nil {
			f.Fatal(err)
		}
		f.Add(b)
	}
}

// FuzzValidate cross-checks the well-formedness verdict against the
// reference codec, one-directionally: anything this validator accepts
// must also be well-formed there. The reverse does not hold, since
// nesting depth and container counts are capped here.
func FuzzValidate(f *testing.F) {
	fuzzSeeds(f)
	f.Fuzz(func(t *testing.T, in []byte) {
		if err := Validate(in); err != nil {
			return
		}
		if err := refcbor.Wellformed(in); err != nil {
			t.Fatalf("accepted input the reference rejects: %x: %v", in, err)
		}
	})
}

// FuzzDecode drives the full traversal over arbitrary input. It must
// never panic, and its verdict must agree with Validate's, modulo the
// feature-disabled errors a reduced profile adds on top of
// well-formedness.
func FuzzDecode(f *testing.F) {
	fuzzSeeds(f)
	f.Fuzz(func(t *testing.T, in []byte) {
		valid := Validate(in) == nil

		d := NewDecoder(in)
		d.SetStringAllocator(HeapAllocator())
		for {
			it, err := d.GetNext()
			if err != nil {
				break
			}
			_, _ = it.Int64(ConvertAll)
			_, _ = it.Uint64(ConvertAll)
			_, _ = it.Float64(ConvertAll)
		}
		err := d.Err()
		if err == nil {
			err = d.Finish()
		}
		if valid && err != nil && !Recoverable(err) && !featureDisabled(err) {
			t.Fatalf("valid input hit %v: %x", err, in)
		}
	})
}
