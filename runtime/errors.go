package cbor

import "strconv"

// Error is the interface satisfied by all errors originating from this
// package.
type Error interface {
	error

	// Recoverable reports whether decoding may continue past the item
	// that produced the error. Well-formedness errors are not
	// recoverable: once the byte stream itself is malformed there is no
	// trustworthy position to resume from.
	Recoverable() bool
}

// Recoverable reports whether e allows decoding to continue. Errors from
// outside this package default to non-recoverable.
func Recoverable(e error) bool {
	if ce, ok := e.(Error); ok {
		return ce.Recoverable()
	}
	return false
}

type codecErr struct {
	msg         string
	recoverable bool
}

func (e *codecErr) Error() string     { return e.msg }
func (e *codecErr) Recoverable() bool { return e.recoverable }

// Well-formedness errors. These poison the decoder: every later call
// returns the same error and a None item.
var (
	// ErrHitEnd is returned when the input ends inside an item.
	ErrHitEnd Error = &codecErr{msg: "cbor: unexpected end of input"}

	// ErrUnsupported is returned for reserved additional-info values
	// (28, 29, 30) and other encodings RFC 8949 leaves undefined.
	ErrUnsupported Error = &codecErr{msg: "cbor: unsupported encoding"}

	// ErrBadBreak is returned for a break byte outside an
	// indefinite-length container.
	ErrBadBreak Error = &codecErr{msg: "cbor: break outside indefinite-length container"}

	// ErrBadTypeSeven is returned for malformed major type 7 encodings,
	// such as a two-byte simple value below 32.
	ErrBadTypeSeven Error = &codecErr{msg: "cbor: malformed simple value"}

	// ErrIndefiniteStringChunk is returned when a chunk inside an
	// indefinite-length string is not a definite-length string of the
	// same major type.
	ErrIndefiniteStringChunk Error = &codecErr{msg: "cbor: bad indefinite-length string chunk"}

	// ErrBadInt is returned for integer encodings that cannot be
	// represented, such as a 65-bit negative value.
	ErrBadInt Error = &codecErr{msg: "cbor: integer not representable"}

	// ErrArrayTooLong is returned when a definite container claims more
	// entries than the decoder supports.
	ErrArrayTooLong Error = &codecErr{msg: "cbor: container count too large"}

	// ErrNestingTooDeep is returned when opening a container would
	// exceed MaxNestingDepth.
	ErrNestingTooDeep Error = &codecErr{msg: "cbor: container nesting too deep"}

	// ErrStringTooLong is returned when a string length exceeds what the
	// decoder can address.
	ErrStringTooLong Error = &codecErr{msg: "cbor: string too long"}

	// ErrNoStringAllocator is returned when an indefinite-length string
	// is encountered and no allocator is configured.
	ErrNoStringAllocator Error = &codecErr{msg: "cbor: no string allocator configured"}

	// ErrStringAllocate is returned when the string allocator fails.
	ErrStringAllocate Error = &codecErr{msg: "cbor: string allocation failed"}
)

// Semantic errors. Decoding may continue after GetAndResetError.
var (
	ErrUnexpectedType          Error = &codecErr{msg: "cbor: unexpected item type", recoverable: true}
	ErrIntOverflow             Error = &codecErr{msg: "cbor: integer overflows int64", recoverable: true}
	ErrDateOverflow            Error = &codecErr{msg: "cbor: date out of range", recoverable: true}
	ErrConversionUnderOverflow Error = &codecErr{msg: "cbor: conversion under/overflow", recoverable: true}
	ErrNumberSignConversion    Error = &codecErr{msg: "cbor: negative value converted to unsigned", recoverable: true}
	ErrFloatException          Error = &codecErr{msg: "cbor: NaN or infinity in conversion", recoverable: true}
	ErrBadOptTag               Error = &codecErr{msg: "cbor: tag content has wrong shape", recoverable: true}
	ErrBadExpAndMantissa       Error = &codecErr{msg: "cbor: malformed exponent and mantissa", recoverable: true}
	ErrDuplicateLabel          Error = &codecErr{msg: "cbor: duplicate label in map", recoverable: true}
	ErrLabelNotFound           Error = &codecErr{msg: "cbor: label not found in map", recoverable: true}
	ErrTooManyTags             Error = &codecErr{msg: "cbor: too many tags on one item", recoverable: true}
	ErrMapLabelType            Error = &codecErr{msg: "cbor: map label has disallowed type", recoverable: true}
	ErrMapNotEntered           Error = &codecErr{msg: "cbor: map not entered", recoverable: true}
	ErrUnconsumed              Error = &codecErr{msg: "cbor: array or map not entered or not consumed", recoverable: true}
	ErrStillOpen               Error = &codecErr{msg: "cbor: array or map still open", recoverable: true}
	ErrTooManyCloses           Error = &codecErr{msg: "cbor: close without matching open", recoverable: true}
	ErrCloseMismatch           Error = &codecErr{msg: "cbor: close does not match open container", recoverable: true}
	ErrNoMoreItems             Error = &codecErr{msg: "cbor: no more items in container", recoverable: true}
	ErrExtraBytes              Error = &codecErr{msg: "cbor: extra bytes after decoded item", recoverable: true}
	ErrUnrecoverableTagContent Error = &codecErr{msg: "cbor: tag content could not be decoded", recoverable: true}
	ErrCallbackFailed          Error = &codecErr{msg: "cbor: item callback failed", recoverable: true}
	ErrTooSmall                Error = &codecErr{msg: "cbor: buffer too small", recoverable: true}
	ErrInvalidArgument         Error = &codecErr{msg: "cbor: invalid argument", recoverable: true}
)

// Feature-disabled errors. Permanent for the build; retrying cannot help.
var (
	ErrTagsDisabled            Error = &codecErr{msg: "cbor: tag processing disabled in this build"}
	ErrIndefLenArraysDisabled  Error = &codecErr{msg: "cbor: indefinite-length arrays disabled in this build"}
	ErrIndefLenStringsDisabled Error = &codecErr{msg: "cbor: indefinite-length strings disabled in this build"}
	ErrHalfPrecDisabled        Error = &codecErr{msg: "cbor: half-precision disabled in this build"}
	ErrFloatDisabled           Error = &codecErr{msg: "cbor: floating point disabled in this build"}
	ErrExpMantissaDisabled     Error = &codecErr{msg: "cbor: exponent-and-mantissa tags disabled in this build"}
	ErrUncommonTagsDisabled    Error = &codecErr{msg: "cbor: uncommon tags disabled in this build"}
)

// TypeError is returned when an item's data type does not match what a
// typed accessor or map lookup expected.
type TypeError struct {
	Want DataType
	Got  DataType
}

func (t *TypeError) Error() string {
	return "cbor: expected " + t.Want.String() + " but decoded " + t.Got.String()
}

func (t *TypeError) Recoverable() bool { return true }

// Unwrap lets errors.Is match a TypeError against ErrUnexpectedType.
func (t *TypeError) Unwrap() error { return ErrUnexpectedType }

// OverflowError carries the out-of-range argument of an integer that does
// not fit the requested representation.
type OverflowError struct {
	Arg uint64
}

func (o *OverflowError) Error() string {
	return "cbor: argument " + strconv.FormatUint(o.Arg, 10) + " overflows int64"
}

func (o *OverflowError) Recoverable() bool { return true }

func (o *OverflowError) Unwrap() error { return ErrIntOverflow }
