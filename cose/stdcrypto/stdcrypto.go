// Package stdcrypto is the standard-library implementation of
// cose.Capability: SHA-2, HMAC, ECDSA, RSA-PSS, Ed25519, AES-GCM, AES
// key wrap, ECDH and HKDF, with key material held in an in-memory
// handle table.
package stdcrypto

import (
	"crypto"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"io"
	"math/big"
	"sync"

	"golang.org/x/crypto/hkdf"

	"github.com/cborkit/cborkit/cose"
)

// symKey is symmetric key material bound to the algorithm it was
// imported for.
type symKey struct {
	alg cose.AlgorithmID
	raw []byte
}

// Capability implements cose.Capability on the Go standard library.
// It is safe for concurrent use.
type Capability struct {
	mu   sync.Mutex
	next cose.KeyHandle
	keys map[cose.KeyHandle]any
}

var _ cose.Capability = (*Capability)(nil)

// New returns an empty capability.
func New() *Capability {
	return &Capability{keys: make(map[cose.KeyHandle]any)}
}

func (c *Capability) store(k any) cose.KeyHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	c.keys[c.next] = k
	return c.next
}

func (c *Capability) lookup(h cose.KeyHandle) (any, error) {
	if h == 0 {
		return nil, cose.ErrEmptyKey
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	k, ok := c.keys[h]
	if !ok {
		return nil, cose.ErrEmptyKey
	}
	return k, nil
}

// FreeKey discards the key behind h.
func (c *Capability) FreeKey(h cose.KeyHandle) {
	if h == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.keys, h)
}

// AlgorithmSupported reports whether alg is in the registry; every
// registered algorithm is implemented here.
func (c *Capability) AlgorithmSupported(alg cose.AlgorithmID) bool {
	_, err := cose.Info(alg)
	return err == nil
}

func hashNew(h cose.HashAlg) (func() hash.Hash, crypto.Hash, error) {
	switch h {
	case cose.HashSHA256:
		return sha256.New, crypto.SHA256, nil
	case cose.HashSHA384:
		return sha512.New384, crypto.SHA384, nil
	case cose.HashSHA512:
		return sha512.New, crypto.SHA512, nil
	}
	return nil, 0, cose.ErrUnsupportedAlg
}

type hasher struct {
	h hash.Hash
}

func (h *hasher) Update(p []byte) { h.h.Write(p) }
func (h *hasher) Finish() []byte  { return h.h.Sum(nil) }

// HashStart begins a SHA-2 computation.
func (c *Capability) HashStart(alg cose.HashAlg) (cose.Hasher, error) {
	fn, _, err := hashNew(alg)
	if err != nil {
		return nil, err
	}
	return &hasher{h: fn()}, nil
}

// HMACStart begins an HMAC keyed with a previously imported key. The
// key must have been imported for the same algorithm.
func (c *Capability) HMACStart(alg cose.AlgorithmID, key cose.KeyHandle) (cose.Hasher, error) {
	info, err := cose.Info(alg)
	if err != nil {
		return nil, err
	}
	if info.Scheme != cose.SchemeHMAC {
		return nil, cose.ErrUnsupportedAlg
	}
	k, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	sk, ok := k.(symKey)
	if !ok || sk.alg != alg {
		return nil, cose.ErrWrongKeyType
	}
	fn, _, err := hashNew(info.Hash)
	if err != nil {
		return nil, err
	}
	return &hasher{h: hmac.New(fn, sk.raw)}, nil
}

// ImportSymmetricKey registers raw bytes for a symmetric algorithm,
// checking the length the algorithm dictates.
func (c *Capability) ImportSymmetricKey(alg cose.AlgorithmID, raw []byte) (cose.KeyHandle, error) {
	info, err := cose.Info(alg)
	if err != nil {
		return 0, err
	}
	if info.KeyBits == 0 || len(raw)*8 != info.KeyBits {
		return 0, cose.ErrWrongKeyType
	}
	cp := make([]byte, len(raw))
	copy(cp, raw)
	return c.store(symKey{alg: alg, raw: cp}), nil
}

// ExportSymmetricKey copies key material into buf.
func (c *Capability) ExportSymmetricKey(key cose.KeyHandle, buf []byte) ([]byte, error) {
	k, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	sk, ok := k.(symKey)
	if !ok {
		return nil, cose.ErrWrongKeyType
	}
	if len(buf) < len(sk.raw) {
		return nil, cose.ErrTooSmall
	}
	return buf[:copy(buf, sk.raw)], nil
}

// ImportECDSAPrivate registers an ECDSA private key.
func (c *Capability) ImportECDSAPrivate(k *ecdsa.PrivateKey) cose.KeyHandle {
	return c.store(k)
}

// ImportECDSAPublic registers an ECDSA public key.
func (c *Capability) ImportECDSAPublic(k *ecdsa.PublicKey) cose.KeyHandle {
	return c.store(k)
}

// ImportEd25519Private registers an Ed25519 private key.
func (c *Capability) ImportEd25519Private(k ed25519.PrivateKey) cose.KeyHandle {
	return c.store(k)
}

// ImportEd25519Public registers an Ed25519 public key.
func (c *Capability) ImportEd25519Public(k ed25519.PublicKey) cose.KeyHandle {
	return c.store(k)
}

// ImportRSAPrivate registers an RSA private key.
func (c *Capability) ImportRSAPrivate(k *rsa.PrivateKey) cose.KeyHandle {
	return c.store(k)
}

// ImportRSAPublic registers an RSA public key.
func (c *Capability) ImportRSAPublic(k *rsa.PublicKey) cose.KeyHandle {
	return c.store(k)
}

// ImportECDHPrivate registers an ECDH private key.
func (c *Capability) ImportECDHPrivate(k *ecdh.PrivateKey) cose.KeyHandle {
	return c.store(k)
}

// ImportECDHPublic registers an ECDH public key.
func (c *Capability) ImportECDHPublic(k *ecdh.PublicKey) cose.KeyHandle {
	return c.store(k)
}

// GenerateECKey makes a fresh key pair on a NIST curve and returns the
// private handle, usable for ECDH.
func (c *Capability) GenerateECKey(curve cose.CurveID) (cose.KeyHandle, error) {
	cv := ecdhCurveFor(curve)
	if cv == nil {
		return 0, cose.ErrUnsupportedAlg
	}
	k, err := cv.GenerateKey(rand.Reader)
	if err != nil {
		return 0, cose.ErrKeyGenerationFailed
	}
	return c.store(k), nil
}

// ImportEC2PublicKey registers a public point given by its affine
// coordinates. With a nil y the point is decompressed from x and the
// sign bit, ySign true selecting the odd root.
func (c *Capability) ImportEC2PublicKey(curve cose.CurveID, x, y []byte, ySign bool) (cose.KeyHandle, error) {
	cv := nistCurveFor(curve)
	if cv == nil {
		return 0, cose.ErrUnsupportedAlg
	}
	n := (cv.Params().BitSize + 7) / 8
	if len(x) == 0 || len(x) > n || len(y) > n {
		return 0, cose.ErrKeyImportFailed
	}
	xi := new(big.Int).SetBytes(x)
	var yi *big.Int
	if y != nil {
		yi = new(big.Int).SetBytes(y)
	} else {
		yi = decompressY(cv, xi, ySign)
		if yi == nil {
			return 0, cose.ErrKeyImportFailed
		}
	}
	if !cv.IsOnCurve(xi, yi) {
		return 0, cose.ErrKeyImportFailed
	}
	return c.store(&ecdsa.PublicKey{Curve: cv, X: xi, Y: yi}), nil
}

// ExportEC2Key copies the public point behind key into x and y.
func (c *Capability) ExportEC2Key(key cose.KeyHandle, x, y []byte) (cose.CurveID, []byte, []byte, error) {
	k, err := c.lookup(key)
	if err != nil {
		return 0, nil, nil, err
	}
	pub := ec2Public(k)
	if pub == nil {
		return 0, nil, nil, cose.ErrWrongKeyType
	}
	id := curveIDOf(pub.Curve)
	if id == 0 {
		return 0, nil, nil, cose.ErrUnsupportedAlg
	}
	n := (pub.Curve.Params().BitSize + 7) / 8
	if len(x) < n || len(y) < n {
		return 0, nil, nil, cose.ErrTooSmall
	}
	pub.X.FillBytes(x[:n])
	pub.Y.FillBytes(y[:n])
	return id, x[:n], y[:n], nil
}

func nistCurveFor(c cose.CurveID) elliptic.Curve {
	switch c {
	case cose.CurveP256:
		return elliptic.P256()
	case cose.CurveP384:
		return elliptic.P384()
	case cose.CurveP521:
		return elliptic.P521()
	}
	return nil
}

func ecdhCurveFor(c cose.CurveID) ecdh.Curve {
	switch c {
	case cose.CurveP256:
		return ecdh.P256()
	case cose.CurveP384:
		return ecdh.P384()
	case cose.CurveP521:
		return ecdh.P521()
	}
	return nil
}

func curveIDOf(cv elliptic.Curve) cose.CurveID {
	switch cv {
	case elliptic.P256():
		return cose.CurveP256
	case elliptic.P384():
		return cose.CurveP384
	case elliptic.P521():
		return cose.CurveP521
	}
	return 0
}

// decompressY solves y^2 = x^3 - 3x + b for the root with the requested
// parity, nil when x is not on the curve.
func decompressY(cv elliptic.Curve, x *big.Int, odd bool) *big.Int {
	p := cv.Params().P
	y2 := new(big.Int).Mul(x, x)
	y2.Mul(y2, x)
	ax := new(big.Int).Lsh(x, 1)
	ax.Add(ax, x)
	y2.Sub(y2, ax)
	y2.Add(y2, cv.Params().B)
	y2.Mod(y2, p)
	y := new(big.Int).ModSqrt(y2, p)
	if y == nil {
		return nil
	}
	if (y.Bit(0) == 1) != odd {
		y.Sub(p, y)
	}
	return y
}

// ec2Public views any stored EC key as an ECDSA public key.
func ec2Public(k any) *ecdsa.PublicKey {
	switch v := k.(type) {
	case *ecdsa.PublicKey:
		return v
	case *ecdsa.PrivateKey:
		return &v.PublicKey
	case *ecdh.PrivateKey:
		return ecdhToECDSA(v.PublicKey())
	case *ecdh.PublicKey:
		return ecdhToECDSA(v)
	}
	return nil
}

// ecdhToECDSA splits an uncompressed NIST point into coordinates.
func ecdhToECDSA(p *ecdh.PublicKey) *ecdsa.PublicKey {
	var cv elliptic.Curve
	switch p.Curve() {
	case ecdh.P256():
		cv = elliptic.P256()
	case ecdh.P384():
		cv = elliptic.P384()
	case ecdh.P521():
		cv = elliptic.P521()
	default:
		return nil
	}
	b := p.Bytes()
	n := (cv.Params().BitSize + 7) / 8
	if len(b) != 1+2*n || b[0] != 4 {
		return nil
	}
	return &ecdsa.PublicKey{
		Curve: cv,
		X:     new(big.Int).SetBytes(b[1 : 1+n]),
		Y:     new(big.Int).SetBytes(b[1+n:]),
	}
}

func curveFor(alg cose.AlgorithmID) elliptic.Curve {
	switch alg {
	case cose.AlgES256:
		return elliptic.P256()
	case cose.AlgES384:
		return elliptic.P384()
	case cose.AlgES512:
		return elliptic.P521()
	}
	return nil
}

// SignHash signs digest. For EdDSA, digest is the full message to be
// signed, since Ed25519 hashes internally.
func (c *Capability) SignHash(alg cose.AlgorithmID, key cose.KeyHandle, digest []byte) ([]byte, error) {
	info, err := cose.Info(alg)
	if err != nil {
		return nil, err
	}
	k, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	switch info.Scheme {
	case cose.SchemeECDSA:
		priv, ok := k.(*ecdsa.PrivateKey)
		if !ok || priv.Curve != curveFor(alg) {
			return nil, cose.ErrWrongKeyType
		}
		r, s, err := ecdsa.Sign(rand.Reader, priv, digest)
		if err != nil {
			return nil, err
		}
		n := (priv.Curve.Params().BitSize + 7) / 8
		sig := make([]byte, 2*n)
		r.FillBytes(sig[:n])
		s.FillBytes(sig[n:])
		return sig, nil

	case cose.SchemeRSAPSS:
		priv, ok := k.(*rsa.PrivateKey)
		if !ok {
			return nil, cose.ErrWrongKeyType
		}
		_, ch, err := hashNew(info.Hash)
		if err != nil {
			return nil, err
		}
		return rsa.SignPSS(rand.Reader, priv, ch, digest, &rsa.PSSOptions{
			SaltLength: rsa.PSSSaltLengthEqualsHash,
		})

	case cose.SchemeEdDSA:
		priv, ok := k.(ed25519.PrivateKey)
		if !ok {
			return nil, cose.ErrWrongKeyType
		}
		return ed25519.Sign(priv, digest), nil
	}
	return nil, cose.ErrUnsupportedAlg
}

// signOp completes in a single Step; the standard library has no
// incremental signing to suspend.
type signOp struct {
	c      *Capability
	alg    cose.AlgorithmID
	key    cose.KeyHandle
	digest []byte
	sig    []byte
	done   bool
}

func (o *signOp) Step() (bool, error) {
	if o.done {
		return true, nil
	}
	sig, err := o.c.SignHash(o.alg, o.key, o.digest)
	if err != nil {
		return false, err
	}
	o.sig = sig
	o.done = true
	return true, nil
}

func (o *signOp) Signature() ([]byte, error) {
	if !o.done {
		return nil, cose.ErrSignInProgress
	}
	return o.sig, nil
}

// SignHashStart begins a restartable signature.
func (c *Capability) SignHashStart(alg cose.AlgorithmID, key cose.KeyHandle, digest []byte) (cose.SignOperation, error) {
	// Validate eagerly so Step cannot fail on a bad handle later.
	if _, err := c.lookup(key); err != nil {
		return nil, err
	}
	if _, err := cose.Info(alg); err != nil {
		return nil, err
	}
	d := make([]byte, len(digest))
	copy(d, digest)
	return &signOp{c: c, alg: alg, key: key, digest: d}, nil
}

// VerifyHash checks sig over digest.
func (c *Capability) VerifyHash(alg cose.AlgorithmID, key cose.KeyHandle, digest, sig []byte) error {
	info, err := cose.Info(alg)
	if err != nil {
		return err
	}
	k, err := c.lookup(key)
	if err != nil {
		return err
	}
	switch info.Scheme {
	case cose.SchemeECDSA:
		pub := ecdsaPublic(k)
		if pub == nil || pub.Curve != curveFor(alg) {
			return cose.ErrWrongKeyType
		}
		n := (pub.Curve.Params().BitSize + 7) / 8
		if len(sig) != 2*n {
			return cose.ErrSigVerifyFailed
		}
		r := newInt(sig[:n])
		s := newInt(sig[n:])
		if !ecdsa.Verify(pub, digest, r, s) {
			return cose.ErrSigVerifyFailed
		}
		return nil

	case cose.SchemeRSAPSS:
		pub := rsaPublic(k)
		if pub == nil {
			return cose.ErrWrongKeyType
		}
		_, ch, err := hashNew(info.Hash)
		if err != nil {
			return err
		}
		err = rsa.VerifyPSS(pub, ch, digest, sig, &rsa.PSSOptions{
			SaltLength: rsa.PSSSaltLengthEqualsHash,
		})
		if err != nil {
			return cose.ErrSigVerifyFailed
		}
		return nil

	case cose.SchemeEdDSA:
		pub := ed25519Public(k)
		if pub == nil {
			return cose.ErrWrongKeyType
		}
		if !ed25519.Verify(pub, digest, sig) {
			return cose.ErrSigVerifyFailed
		}
		return nil
	}
	return cose.ErrUnsupportedAlg
}

func newInt(b []byte) *big.Int { return new(big.Int).SetBytes(b) }

func ecdsaPublic(k any) *ecdsa.PublicKey {
	switch v := k.(type) {
	case *ecdsa.PublicKey:
		return v
	case *ecdsa.PrivateKey:
		return &v.PublicKey
	}
	return nil
}

func rsaPublic(k any) *rsa.PublicKey {
	switch v := k.(type) {
	case *rsa.PublicKey:
		return v
	case *rsa.PrivateKey:
		return &v.PublicKey
	}
	return nil
}

func ed25519Public(k any) ed25519.PublicKey {
	switch v := k.(type) {
	case ed25519.PublicKey:
		return v
	case ed25519.PrivateKey:
		return v.Public().(ed25519.PublicKey)
	}
	return nil
}

// SigSize reports the signature size the key produces.
func (c *Capability) SigSize(alg cose.AlgorithmID, key cose.KeyHandle) (int, error) {
	info, err := cose.Info(alg)
	if err != nil {
		return 0, err
	}
	k, err := c.lookup(key)
	if err != nil {
		return 0, err
	}
	switch info.Scheme {
	case cose.SchemeECDSA:
		pub := ecdsaPublic(k)
		if pub == nil {
			return 0, cose.ErrWrongKeyType
		}
		return 2 * ((pub.Curve.Params().BitSize + 7) / 8), nil
	case cose.SchemeRSAPSS:
		priv, ok := k.(*rsa.PrivateKey)
		if ok {
			return priv.Size(), nil
		}
		pub := rsaPublic(k)
		if pub == nil {
			return 0, cose.ErrWrongKeyType
		}
		return pub.Size(), nil
	case cose.SchemeEdDSA:
		return ed25519.SignatureSize, nil
	}
	return 0, cose.ErrUnsupportedAlg
}

func (c *Capability) gcm(alg cose.AlgorithmID, key cose.KeyHandle) (cipher.AEAD, error) {
	info, err := cose.Info(alg)
	if err != nil {
		return nil, err
	}
	if info.Scheme != cose.SchemeAESGCM {
		return nil, cose.ErrUnsupportedAlg
	}
	k, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	sk, ok := k.(symKey)
	if !ok || sk.alg != alg {
		return nil, cose.ErrWrongKeyType
	}
	block, err := aes.NewCipher(sk.raw)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// AEADEncrypt seals plaintext with AES-GCM.
func (c *Capability) AEADEncrypt(alg cose.AlgorithmID, key cose.KeyHandle, nonce, aad, plaintext []byte) ([]byte, error) {
	g, err := c.gcm(alg, key)
	if err != nil {
		return nil, err
	}
	return g.Seal(nil, nonce, plaintext, aad), nil
}

// AEADDecrypt opens AES-GCM ciphertext.
func (c *Capability) AEADDecrypt(alg cose.AlgorithmID, key cose.KeyHandle, nonce, aad, ciphertext []byte) ([]byte, error) {
	g, err := c.gcm(alg, key)
	if err != nil {
		return nil, err
	}
	pt, err := g.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, cose.ErrDecryptFailed
	}
	return pt, nil
}

func (c *Capability) kek(alg cose.AlgorithmID, key cose.KeyHandle) ([]byte, error) {
	info, err := cose.Info(alg)
	if err != nil {
		return nil, err
	}
	if info.Scheme != cose.SchemeAESKW {
		return nil, cose.ErrUnsupportedAlg
	}
	k, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	sk, ok := k.(symKey)
	if !ok || sk.alg != alg || len(sk.raw)*8 != info.KeyBits {
		return nil, cose.ErrWrongKeyType
	}
	return sk.raw, nil
}

// KeyWrap wraps key material per RFC 3394.
func (c *Capability) KeyWrap(alg cose.AlgorithmID, kek cose.KeyHandle, key []byte) ([]byte, error) {
	raw, err := c.kek(alg, kek)
	if err != nil {
		return nil, err
	}
	return keyWrap(raw, key)
}

// KeyUnwrap reverses KeyWrap.
func (c *Capability) KeyUnwrap(alg cose.AlgorithmID, kek cose.KeyHandle, wrapped []byte) ([]byte, error) {
	raw, err := c.kek(alg, kek)
	if err != nil {
		return nil, err
	}
	return keyUnwrap(raw, wrapped)
}

// ECDH derives the shared secret of a private and a peer public key.
func (c *Capability) ECDH(alg cose.AlgorithmID, private, public cose.KeyHandle) ([]byte, error) {
	info, err := cose.Info(alg)
	if err != nil {
		return nil, err
	}
	if info.Scheme != cose.SchemeECDH {
		return nil, cose.ErrUnsupportedAlg
	}
	pk, err := c.lookup(private)
	if err != nil {
		return nil, err
	}
	priv := ecdhPrivate(pk)
	if priv == nil {
		return nil, cose.ErrWrongKeyType
	}
	pubk, err := c.lookup(public)
	if err != nil {
		return nil, err
	}
	pub := ecdhPublic(pubk)
	if pub == nil {
		return nil, cose.ErrWrongKeyType
	}
	return priv.ECDH(pub)
}

// ecdhPrivate views a stored private key as an ECDH key, converting
// an ECDSA key on the same curves.
func ecdhPrivate(k any) *ecdh.PrivateKey {
	switch v := k.(type) {
	case *ecdh.PrivateKey:
		return v
	case *ecdsa.PrivateKey:
		p, err := v.ECDH()
		if err != nil {
			return nil
		}
		return p
	}
	return nil
}

func ecdhPublic(k any) *ecdh.PublicKey {
	switch v := k.(type) {
	case *ecdh.PublicKey:
		return v
	case *ecdsa.PublicKey:
		p, err := v.ECDH()
		if err != nil {
			return nil
		}
		return p
	}
	return nil
}

// HKDF fills okm with key material expanded from secret.
func (c *Capability) HKDF(alg cose.HashAlg, secret, salt, info, okm []byte) error {
	fn, _, err := hashNew(alg)
	if err != nil {
		return err
	}
	r := hkdf.New(fn, secret, salt, info)
	_, err = io.ReadFull(r, okm)
	return err
}

// Random fills p from the system CSPRNG.
func (c *Capability) Random(p []byte) error {
	_, err := rand.Read(p)
	return err
}
