package cose

// KeyHandle is an opaque reference to key material held by a
// Capability. The zero handle never names a key.
type KeyHandle uint64

// Hasher accumulates data for a hash computation.
type Hasher interface {
	Update(p []byte)
	// Finish returns the digest. The hasher is spent afterwards.
	Finish() []byte
}

// SignOperation is an in-flight restartable signature. Step returns
// done=false while the capability wants to be called again, which lets
// long-running signing hardware yield between slices of work.
type SignOperation interface {
	Step() (done bool, err error)
	// Signature is valid once Step reported done.
	Signature() ([]byte, error)
}

// Capability is the cryptographic backend the envelope layer calls
// into. Implementations translate their own failures into the error
// set of this package: an unknown algorithm is ErrUnsupportedAlg, a
// key that does not fit the algorithm is ErrWrongKeyType, a zero
// handle is ErrEmptyKey.
type Capability interface {
	// AlgorithmSupported reports whether alg can be executed.
	AlgorithmSupported(alg AlgorithmID) bool

	// HashStart begins a hash computation with the given function.
	HashStart(hash HashAlg) (Hasher, error)

	// HMACStart begins a keyed MAC computation.
	HMACStart(alg AlgorithmID, key KeyHandle) (Hasher, error)

	// SignHash signs an already-computed digest.
	SignHash(alg AlgorithmID, key KeyHandle, digest []byte) ([]byte, error)

	// SignHashStart begins a restartable signature over a digest.
	SignHashStart(alg AlgorithmID, key KeyHandle, digest []byte) (SignOperation, error)

	// VerifyHash checks sig over an already-computed digest,
	// returning ErrSigVerifyFailed on mismatch.
	VerifyHash(alg AlgorithmID, key KeyHandle, digest, sig []byte) error

	// SigSize reports the size of a signature this key produces.
	SigSize(alg AlgorithmID, key KeyHandle) (int, error)

	// AEADEncrypt seals plaintext, returning nonce-less ciphertext
	// with the tag appended.
	AEADEncrypt(alg AlgorithmID, key KeyHandle, nonce, aad, plaintext []byte) ([]byte, error)

	// AEADDecrypt opens ciphertext, returning ErrDecryptFailed when
	// authentication fails.
	AEADDecrypt(alg AlgorithmID, key KeyHandle, nonce, aad, ciphertext []byte) ([]byte, error)

	// KeyWrap wraps key material under a key-encryption key.
	KeyWrap(alg AlgorithmID, kek KeyHandle, key []byte) ([]byte, error)

	// KeyUnwrap reverses KeyWrap, failing with ErrDecryptFailed on an
	// integrity mismatch.
	KeyUnwrap(alg AlgorithmID, kek KeyHandle, wrapped []byte) ([]byte, error)

	// ImportSymmetricKey registers raw key bytes for alg and returns
	// a handle to them.
	ImportSymmetricKey(alg AlgorithmID, raw []byte) (KeyHandle, error)

	// ExportSymmetricKey copies the key material into buf and returns
	// the filled prefix, or ErrTooSmall when buf cannot hold it.
	ExportSymmetricKey(key KeyHandle, buf []byte) ([]byte, error)

	// GenerateECKey makes a fresh key pair on the curve and returns
	// the private handle.
	GenerateECKey(curve CurveID) (KeyHandle, error)

	// ImportEC2PublicKey registers a public point from its affine
	// coordinates. A nil y decompresses the point from x and the sign
	// bit, ySign true meaning odd y.
	ImportEC2PublicKey(curve CurveID, x, y []byte, ySign bool) (KeyHandle, error)

	// ExportEC2Key copies the public point's coordinates into x and y
	// and returns the curve plus the filled prefixes, or ErrTooSmall
	// when a buffer cannot hold its coordinate.
	ExportEC2Key(key KeyHandle, x, y []byte) (CurveID, []byte, []byte, error)

	// ECDH derives the shared secret between a private key handle and
	// a peer public key handle.
	ECDH(alg AlgorithmID, private, public KeyHandle) ([]byte, error)

	// HKDF expands a shared secret into okm's length of key material.
	HKDF(hash HashAlg, secret, salt, info, okm []byte) error

	// Random fills p with cryptographically secure random bytes.
	Random(p []byte) error

	// FreeKey discards the key behind a handle. Freeing the zero
	// handle is a no-op.
	FreeKey(key KeyHandle)
}
