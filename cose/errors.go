package cose

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedAlg is returned for an algorithm the capability
	// does not implement or the registry does not know.
	ErrUnsupportedAlg = errors.New("cose: unsupported algorithm")

	// ErrEmptyKey is returned when a zero key handle reaches an
	// operation that needs key material.
	ErrEmptyKey = errors.New("cose: empty key handle")

	// ErrWrongKeyType is returned when the key behind a handle does
	// not fit the algorithm, a wrong-size AES key wrap KEK included.
	ErrWrongKeyType = errors.New("cose: wrong type of key for algorithm")

	// ErrSigVerifyFailed is returned when a signature does not verify.
	ErrSigVerifyFailed = errors.New("cose: signature verification failed")

	// ErrMACVerifyFailed is returned when an authentication tag does
	// not match.
	ErrMACVerifyFailed = errors.New("cose: MAC verification failed")

	// ErrDecryptFailed is returned when AEAD authentication fails.
	ErrDecryptFailed = errors.New("cose: decryption failed")

	// ErrMessageFormat is returned when a message is not laid out the
	// way its COSE type requires. Decoding errors from the cbor layer
	// are wrapped under it.
	ErrMessageFormat = errors.New("cose: malformed message")

	// ErrTooSmall is returned when a caller-supplied output buffer
	// cannot hold the result.
	ErrTooSmall = errors.New("cose: buffer too small")

	// ErrSignInProgress is returned by restartable signing while more
	// Step calls are needed.
	ErrSignInProgress = errors.New("cose: signing still in progress")

	// ErrKeyGenerationFailed is returned when the capability cannot
	// produce a fresh key pair.
	ErrKeyGenerationFailed = errors.New("cose: key generation failed")

	// ErrKeyImportFailed is returned when key material does not form a
	// valid key, an EC2 point off its curve included.
	ErrKeyImportFailed = errors.New("cose: key import failed")
)

// formatErr ties a cbor decoding failure to ErrMessageFormat so callers
// can match the class without knowing the layer that produced it.
func formatErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrMessageFormat, err)
}
