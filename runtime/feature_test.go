package cbor

import (
	"errors"
	"testing"
)

// Skip helpers for tests exercising features the reduced profile
// compiles out.

func needTags(t *testing.T) {
	t.Helper()
	if !featureTags {
		t.Skip("tag processing disabled in this build")
	}
}

func needIndefContainers(t *testing.T) {
	t.Helper()
	if !featureIndefArrays {
		t.Skip("indefinite-length containers disabled in this build")
	}
}

func needIndefStrings(t *testing.T) {
	t.Helper()
	if !featureIndefStrings {
		t.Skip("indefinite-length strings disabled in this build")
	}
}

func needFloatHW(t *testing.T) {
	t.Helper()
	if !featureFloatHW {
		t.Skip("floating point disabled in this build")
	}
}

func needHalfPrec(t *testing.T) {
	t.Helper()
	if !featureHalfPrec {
		t.Skip("half-precision disabled in this build")
	}
}

func needPreferredFloat(t *testing.T) {
	t.Helper()
	if !featurePreferredFloat || !featureHalfPrec {
		t.Skip("preferred-float shrinking disabled in this build")
	}
}

func needTextLabels(t *testing.T) {
	t.Helper()
	if !featureNonIntLabels {
		t.Skip("non-integer map labels disabled in this build")
	}
}

// featureDisabled reports whether err is one of the permanent
// feature-disabled errors of this build profile.
func featureDisabled(err error) bool {
	for _, fe := range []error{
		ErrTagsDisabled, ErrIndefLenArraysDisabled, ErrIndefLenStringsDisabled,
		ErrHalfPrecDisabled, ErrFloatDisabled, ErrExpMantissaDisabled,
		ErrUncommonTagsDisabled,
	} {
		if errors.Is(err, fe) {
			return true
		}
	}
	return false
}
