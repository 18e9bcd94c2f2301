package cose

import (
	"github.com/cborkit/cborkit/runtime"
)

// Encryptor produces and opens COSE_Encrypt0 messages with one AEAD
// key held directly by the two parties.
type Encryptor struct {
	cap Capability
	alg AlgorithmID
	key KeyHandle
	kid []byte
}

// NewEncryptor checks that alg is an AEAD the capability can run.
func NewEncryptor(c Capability, alg AlgorithmID, key KeyHandle) (*Encryptor, error) {
	info, err := Info(alg)
	if err != nil {
		return nil, err
	}
	if info.Scheme != SchemeAESGCM || !c.AlgorithmSupported(alg) {
		return nil, ErrUnsupportedAlg
	}
	if key == 0 {
		return nil, ErrEmptyKey
	}
	return &Encryptor{cap: c, alg: alg, key: key}, nil
}

// SetKID attaches a key identifier to produced messages.
func (e *Encryptor) SetKID(kid []byte) {
	e.kid = kid
}

// Encrypt0 seals plaintext under a fresh random nonce and returns the
// tagged COSE_Encrypt0 message. The nonce travels in the unprotected
// headers; externalAAD is authenticated without being carried.
func (e *Encryptor) Encrypt0(plaintext, externalAAD []byte) ([]byte, error) {
	info, err := Info(e.alg)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, info.NonceSize)
	if err := e.cap.Random(nonce); err != nil {
		return nil, err
	}
	return e.encrypt0(plaintext, externalAAD, nonce)
}

// Encrypt0WithNonce is Encrypt0 with a caller-chosen nonce, for
// deterministic tests and protocols that derive nonces. Reusing a
// nonce under one key destroys the AEAD's guarantees.
func (e *Encryptor) Encrypt0WithNonce(plaintext, externalAAD, nonce []byte) ([]byte, error) {
	info, err := Info(e.alg)
	if err != nil {
		return nil, err
	}
	if len(nonce) != info.NonceSize {
		return nil, ErrWrongKeyType
	}
	return e.encrypt0(plaintext, externalAAD, nonce)
}

func (e *Encryptor) encrypt0(plaintext, externalAAD, nonce []byte) ([]byte, error) {
	protected, err := encodeProtected(e.alg)
	if err != nil {
		return nil, err
	}
	aad, err := encStructure(protected, externalAAD)
	if err != nil {
		return nil, err
	}
	ct, err := e.cap.AEADEncrypt(e.alg, e.key, nonce, aad, plaintext)
	if err != nil {
		return nil, err
	}
	enc := cbor.NewEncoder()
	enc.AddTag(TagEncrypt0)
	enc.OpenArray()
	enc.AddBytes(protected)
	enc.OpenMap()
	enc.AddBytesToMapN(labelIV, nonce)
	if len(e.kid) > 0 {
		enc.AddBytesToMapN(labelKID, e.kid)
	}
	enc.CloseMap()
	enc.AddBytes(ct)
	enc.CloseArray()
	return enc.Finish()
}

// Decrypt0 opens a COSE_Encrypt0 message and returns the plaintext.
func (e *Encryptor) Decrypt0(message, externalAAD []byte) ([]byte, error) {
	parts, err := splitMessage(message, TagEncrypt0, 3)
	if err != nil {
		return nil, err
	}
	var h Headers
	if err := decodeProtected(parts[0], &h); err != nil {
		return nil, err
	}
	if h.Alg != e.alg {
		return nil, ErrUnsupportedAlg
	}
	var uh Headers
	if err := decodeUnprotected(parts[1], &uh); err != nil {
		return nil, err
	}
	info, err := Info(e.alg)
	if err != nil {
		return nil, err
	}
	if len(uh.IV) != info.NonceSize {
		return nil, formatErr(ErrMessageFormat)
	}
	aad, err := encStructure(parts[0], externalAAD)
	if err != nil {
		return nil, err
	}
	return e.cap.AEADDecrypt(e.alg, e.key, uh.IV, aad, parts[2])
}

// encStructure serializes the Enc_structure the AEAD authenticates.
func encStructure(protected, externalAAD []byte) ([]byte, error) {
	e := cbor.NewEncoder()
	e.OpenArray()
	e.AddText("Encrypt0")
	e.AddBytes(protected)
	e.AddBytes(externalAAD)
	e.CloseArray()
	return e.Finish()
}
