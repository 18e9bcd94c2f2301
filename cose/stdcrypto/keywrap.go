package stdcrypto

import (
	"crypto/aes"
	"crypto/subtle"
	"encoding/binary"

	"github.com/cborkit/cborkit/cose"
)

// RFC 3394 AES key wrap with the default initial value. The standard
// library has no implementation, so the two six-round loops live here.

var kwIV = [8]byte{0xa6, 0xa6, 0xa6, 0xa6, 0xa6, 0xa6, 0xa6, 0xa6}

// keyWrap wraps key under kek. key must be a multiple of 8 bytes and
// at least 16.
func keyWrap(kek, key []byte) ([]byte, error) {
	if len(key) < 16 || len(key)%8 != 0 {
		return nil, cose.ErrWrongKeyType
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, cose.ErrWrongKeyType
	}

	n := len(key) / 8
	out := make([]byte, 8*(n+1))
	copy(out[:8], kwIV[:])
	copy(out[8:], key)

	var b [16]byte
	for j := 0; j < 6; j++ {
		for i := 1; i <= n; i++ {
			copy(b[:8], out[:8])
			copy(b[8:], out[8*i:8*i+8])
			block.Encrypt(b[:], b[:])
			t := uint64(n*j + i)
			binary.BigEndian.PutUint64(out[:8], binary.BigEndian.Uint64(b[:8])^t)
			copy(out[8*i:8*i+8], b[8:])
		}
	}
	return out, nil
}

// keyUnwrap reverses keyWrap, checking the integrity value in constant
// time.
func keyUnwrap(kek, wrapped []byte) ([]byte, error) {
	if len(wrapped) < 24 || len(wrapped)%8 != 0 {
		return nil, cose.ErrDecryptFailed
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, cose.ErrWrongKeyType
	}

	n := len(wrapped)/8 - 1
	a := make([]byte, 8)
	out := make([]byte, 8*n)
	copy(a, wrapped[:8])
	copy(out, wrapped[8:])

	var b [16]byte
	for j := 5; j >= 0; j-- {
		for i := n; i >= 1; i-- {
			t := uint64(n*j + i)
			binary.BigEndian.PutUint64(b[:8], binary.BigEndian.Uint64(a)^t)
			copy(b[8:], out[8*(i-1):8*i])
			block.Decrypt(b[:], b[:])
			copy(a, b[:8])
			copy(out[8*(i-1):8*i], b[8:])
		}
	}
	if subtle.ConstantTimeCompare(a, kwIV[:]) != 1 {
		return nil, cose.ErrDecryptFailed
	}
	return out, nil
}
