package cose

import (
	"github.com/cborkit/cborkit/runtime"
)

// Signer produces COSE_Sign1 messages with one algorithm and key.
type Signer struct {
	cap Capability
	alg AlgorithmID
	key KeyHandle
	kid []byte
}

// NewSigner checks that alg is a signing algorithm the capability can
// run and that key names key material.
func NewSigner(c Capability, alg AlgorithmID, key KeyHandle) (*Signer, error) {
	if err := checkSignAlg(c, alg); err != nil {
		return nil, err
	}
	if key == 0 {
		return nil, ErrEmptyKey
	}
	return &Signer{cap: c, alg: alg, key: key}, nil
}

func checkSignAlg(c Capability, alg AlgorithmID) error {
	info, err := Info(alg)
	if err != nil {
		return err
	}
	switch info.Scheme {
	case SchemeECDSA, SchemeRSAPSS, SchemeEdDSA:
	default:
		return ErrUnsupportedAlg
	}
	if !c.AlgorithmSupported(alg) {
		return ErrUnsupportedAlg
	}
	return nil
}

// SetKID attaches a key identifier to the unprotected headers of the
// messages this signer produces.
func (s *Signer) SetKID(kid []byte) {
	s.kid = kid
}

// Sign1 signs payload and returns the tagged COSE_Sign1 message.
// externalAAD is covered by the signature without appearing in the
// message; pass nil when not using it.
func (s *Signer) Sign1(payload, externalAAD []byte) ([]byte, error) {
	protected, err := encodeProtected(s.alg)
	if err != nil {
		return nil, err
	}
	digest, err := s.toBeSigned(protected, externalAAD, payload)
	if err != nil {
		return nil, err
	}
	sig, err := s.cap.SignHash(s.alg, s.key, digest)
	if err != nil {
		return nil, err
	}
	return assembleSign1(protected, s.kid, payload, sig)
}

// Sign1Start begins a restartable signing operation. Call Step on the
// returned operation until it reports done, then Message.
func (s *Signer) Sign1Start(payload, externalAAD []byte) (*Sign1Op, error) {
	protected, err := encodeProtected(s.alg)
	if err != nil {
		return nil, err
	}
	digest, err := s.toBeSigned(protected, externalAAD, payload)
	if err != nil {
		return nil, err
	}
	op, err := s.cap.SignHashStart(s.alg, s.key, digest)
	if err != nil {
		return nil, err
	}
	return &Sign1Op{s: s, op: op, protected: protected, payload: payload}, nil
}

// Sign1Size reports an upper bound for the message Sign1 will produce
// for a payload of the given length, using the encoder's size-only
// mode. Useful to size a caller-owned buffer.
func (s *Signer) Sign1Size(payloadLen int) (int, error) {
	sigSize, err := s.cap.SigSize(s.alg, s.key)
	if err != nil {
		return 0, err
	}
	protected, err := encodeProtected(s.alg)
	if err != nil {
		return 0, err
	}
	e := cbor.NewSizeEstimator()
	e.AddTag(TagSign1)
	e.OpenArray()
	e.AddBytes(protected)
	addUnprotected(e, s.kid, nil)
	e.AddBytesLenOnly(payloadLen)
	e.AddBytesLenOnly(sigSize)
	e.CloseArray()
	return e.FinishSize()
}

// toBeSigned serializes the Sig_structure and reduces it for the
// signature primitive: a hash digest for the hashing schemes, the
// structure itself for EdDSA.
func (s *Signer) toBeSigned(protected, externalAAD, payload []byte) ([]byte, error) {
	e := cbor.NewEncoder()
	e.OpenArray()
	e.AddText("Signature1")
	e.AddBytes(protected)
	e.AddBytes(externalAAD)
	e.AddBytes(payload)
	e.CloseArray()
	structure, err := e.Finish()
	if err != nil {
		return nil, err
	}
	return digestFor(s.cap, s.alg, structure)
}

func digestFor(c Capability, alg AlgorithmID, structure []byte) ([]byte, error) {
	info, err := Info(alg)
	if err != nil {
		return nil, err
	}
	if info.Scheme == SchemeEdDSA {
		return structure, nil
	}
	h, err := c.HashStart(info.Hash)
	if err != nil {
		return nil, err
	}
	h.Update(structure)
	return h.Finish(), nil
}

func assembleSign1(protected, kid, payload, sig []byte) ([]byte, error) {
	e := cbor.NewEncoder()
	e.AddTag(TagSign1)
	e.OpenArray()
	e.AddBytes(protected)
	addUnprotected(e, kid, nil)
	e.AddBytes(payload)
	e.AddBytes(sig)
	e.CloseArray()
	return e.Finish()
}

// Sign1Op is an in-flight restartable COSE_Sign1 signing.
type Sign1Op struct {
	s         *Signer
	op        SignOperation
	protected []byte
	payload   []byte
	msg       []byte
	done      bool
}

// Step advances the underlying signature. It reports true once the
// message is complete.
func (o *Sign1Op) Step() (bool, error) {
	if o.done {
		return true, nil
	}
	done, err := o.op.Step()
	if err != nil || !done {
		return false, err
	}
	sig, err := o.op.Signature()
	if err != nil {
		return false, err
	}
	o.msg, err = assembleSign1(o.protected, o.s.kid, o.payload, sig)
	if err != nil {
		return false, err
	}
	o.done = true
	return true, nil
}

// Message returns the finished COSE_Sign1 message, or
// ErrSignInProgress while Step has not completed.
func (o *Sign1Op) Message() ([]byte, error) {
	if !o.done {
		return nil, ErrSignInProgress
	}
	return o.msg, nil
}

// Verifier checks COSE_Sign1 messages with one algorithm and key.
type Verifier struct {
	cap Capability
	alg AlgorithmID
	key KeyHandle
}

// NewVerifier mirrors NewSigner for the verification side.
func NewVerifier(c Capability, alg AlgorithmID, key KeyHandle) (*Verifier, error) {
	if err := checkSignAlg(c, alg); err != nil {
		return nil, err
	}
	if key == 0 {
		return nil, ErrEmptyKey
	}
	return &Verifier{cap: c, alg: alg, key: key}, nil
}

// Verify1 checks a COSE_Sign1 message and returns its payload. The
// algorithm in the message's protected headers must match the
// verifier's. externalAAD must repeat what the signer supplied.
func (v *Verifier) Verify1(message, externalAAD []byte) ([]byte, error) {
	parts, err := splitMessage(message, TagSign1, 4)
	if err != nil {
		return nil, err
	}
	var h Headers
	if err := decodeProtected(parts[0], &h); err != nil {
		return nil, err
	}
	if h.Alg != v.alg {
		return nil, ErrUnsupportedAlg
	}
	digest, err := (&Signer{cap: v.cap, alg: v.alg}).toBeSigned(parts[0], externalAAD, parts[2])
	if err != nil {
		return nil, err
	}
	if err := v.cap.VerifyHash(v.alg, v.key, digest, parts[3]); err != nil {
		return nil, err
	}
	return parts[2], nil
}

// splitMessage pulls apart the flat byte-string fields of a COSE
// message array: [protected, unprotected, content, (tag-or-sig)].
// The unprotected map is returned re-encoded no further; callers that
// need it parse parts[1] with decodeUnprotected.
func splitMessage(message []byte, tag uint64, count uint32) ([][]byte, error) {
	d := cbor.NewDecoder(message)
	d.SetStringAllocator(cbor.HeapAllocator())

	it, err := d.Peek()
	if err != nil {
		return nil, formatErr(err)
	}
	if it.TagCount > 0 && it.Tags[0] != tag {
		return nil, formatErr(ErrMessageFormat)
	}
	if it.Type != cbor.ArrayType || it.Indefinite || it.Count != count {
		return nil, formatErr(ErrMessageFormat)
	}
	if err := d.EnterArray(); err != nil {
		return nil, formatErr(err)
	}

	parts := make([][]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		if i == 1 {
			// The unprotected header map is kept as its raw span.
			start, end, err := d.NextItemSpan()
			if err != nil {
				return nil, formatErr(err)
			}
			raw := message[start:end]
			hdr, err := d.GetNext()
			if err != nil {
				return nil, formatErr(err)
			}
			if hdr.Type != cbor.MapType {
				return nil, formatErr(ErrMessageFormat)
			}
			if err := skipNested(d, hdr); err != nil {
				return nil, formatErr(err)
			}
			parts = append(parts, raw)
			continue
		}
		f, err := d.GetNext()
		if err != nil {
			return nil, formatErr(err)
		}
		if f.Type != cbor.ByteStringType {
			return nil, formatErr(ErrMessageFormat)
		}
		parts = append(parts, f.Bytes)
	}
	if err := d.ExitArray(); err != nil {
		return nil, formatErr(err)
	}
	return parts, formatErr(d.Finish())
}

// decodeUnprotected parses a raw unprotected header map span.
func decodeUnprotected(raw []byte, h *Headers) error {
	d := cbor.NewDecoder(raw)
	d.SetStringAllocator(cbor.HeapAllocator())
	if err := decodeHeaderMap(d, h, false); err != nil {
		return err
	}
	return formatErr(d.Finish())
}
