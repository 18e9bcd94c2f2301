// Package cose implements the signing, MACing and encryption envelopes
// of RFC 9052 (COSE_Sign1, COSE_Mac0, COSE_Encrypt0) on top of the cbor
// runtime package. All cryptography is delegated to a Capability
// implementation; the package itself only does envelope plumbing.
package cose

// AlgorithmID is a COSE algorithm identifier from the IANA registry.
// Negative values are asymmetric or key-management algorithms.
type AlgorithmID int64

const (
	// ECDSA with the matching SHA-2 hash over P-256/384/521.
	AlgES256 AlgorithmID = -7
	AlgES384 AlgorithmID = -35
	AlgES512 AlgorithmID = -36

	// RSASSA-PSS with the matching SHA-2 hash.
	AlgPS256 AlgorithmID = -37
	AlgPS384 AlgorithmID = -38
	AlgPS512 AlgorithmID = -39

	// EdDSA (Ed25519).
	AlgEdDSA AlgorithmID = -8

	// HMAC with SHA-2, full-length tags.
	AlgHMAC256 AlgorithmID = 5
	AlgHMAC384 AlgorithmID = 6
	AlgHMAC512 AlgorithmID = 7

	// AES-GCM with a 128-bit tag.
	AlgA128GCM AlgorithmID = 1
	AlgA192GCM AlgorithmID = 2
	AlgA256GCM AlgorithmID = 3

	// AES Key Wrap (RFC 3394).
	AlgA128KW AlgorithmID = -3
	AlgA192KW AlgorithmID = -4
	AlgA256KW AlgorithmID = -5

	// ECDH-ES with HKDF-SHA256.
	AlgECDHESHKDF256 AlgorithmID = -25

	// AlgNone marks an absent algorithm header.
	AlgNone AlgorithmID = 0
)

// CurveID is a COSE elliptic curve identifier from the IANA registry.
type CurveID int64

const (
	CurveP256 CurveID = 1
	CurveP384 CurveID = 2
	CurveP521 CurveID = 3
)

// HashAlg identifies a hash function, using the COSE registry values.
type HashAlg int64

const (
	HashSHA256 HashAlg = -16
	HashSHA384 HashAlg = -43
	HashSHA512 HashAlg = -44
)

// CBOR tag numbers for the COSE message types.
const (
	TagSign     = 98
	TagSign1    = 18
	TagMac      = 97
	TagMac0     = 17
	TagEncrypt  = 96
	TagEncrypt0 = 16
)

// Header parameter labels from RFC 9052 section 3.1.
const (
	labelAlg         = 1
	labelCrit        = 2
	labelContentType = 3
	labelKID         = 4
	labelIV          = 5
)

// Scheme groups algorithms by the capability operation that runs them.
type Scheme int

const (
	SchemeECDSA Scheme = iota
	SchemeRSAPSS
	SchemeEdDSA
	SchemeHMAC
	SchemeAESGCM
	SchemeAESKW
	SchemeECDH
)

// AlgInfo describes the fixed parameters of an algorithm.
type AlgInfo struct {
	Scheme    Scheme
	Hash      HashAlg // zero when the scheme does not hash
	KeyBits   int     // symmetric key size, 0 for asymmetric
	NonceSize int     // AEAD nonce bytes
	TagSize   int     // MAC or AEAD tag bytes
}

var algTable = map[AlgorithmID]AlgInfo{
	AlgES256: {Scheme: SchemeECDSA, Hash: HashSHA256},
	AlgES384: {Scheme: SchemeECDSA, Hash: HashSHA384},
	AlgES512: {Scheme: SchemeECDSA, Hash: HashSHA512},

	AlgPS256: {Scheme: SchemeRSAPSS, Hash: HashSHA256},
	AlgPS384: {Scheme: SchemeRSAPSS, Hash: HashSHA384},
	AlgPS512: {Scheme: SchemeRSAPSS, Hash: HashSHA512},

	AlgEdDSA: {Scheme: SchemeEdDSA},

	AlgHMAC256: {Scheme: SchemeHMAC, Hash: HashSHA256, KeyBits: 256, TagSize: 32},
	AlgHMAC384: {Scheme: SchemeHMAC, Hash: HashSHA384, KeyBits: 384, TagSize: 48},
	AlgHMAC512: {Scheme: SchemeHMAC, Hash: HashSHA512, KeyBits: 512, TagSize: 64},

	AlgA128GCM: {Scheme: SchemeAESGCM, KeyBits: 128, NonceSize: 12, TagSize: 16},
	AlgA192GCM: {Scheme: SchemeAESGCM, KeyBits: 192, NonceSize: 12, TagSize: 16},
	AlgA256GCM: {Scheme: SchemeAESGCM, KeyBits: 256, NonceSize: 12, TagSize: 16},

	AlgA128KW: {Scheme: SchemeAESKW, KeyBits: 128},
	AlgA192KW: {Scheme: SchemeAESKW, KeyBits: 192},
	AlgA256KW: {Scheme: SchemeAESKW, KeyBits: 256},

	AlgECDHESHKDF256: {Scheme: SchemeECDH, Hash: HashSHA256},
}

// Info returns the fixed parameters of alg.
func Info(alg AlgorithmID) (AlgInfo, error) {
	info, ok := algTable[alg]
	if !ok {
		return AlgInfo{}, ErrUnsupportedAlg
	}
	return info, nil
}
