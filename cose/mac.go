package cose

import (
	"crypto/subtle"

	"github.com/cborkit/cborkit/runtime"
)

// MACer produces and checks COSE_Mac0 messages with one HMAC key.
type MACer struct {
	cap Capability
	alg AlgorithmID
	key KeyHandle
	kid []byte
}

// NewMACer checks that alg is a MAC algorithm the capability can run.
func NewMACer(c Capability, alg AlgorithmID, key KeyHandle) (*MACer, error) {
	info, err := Info(alg)
	if err != nil {
		return nil, err
	}
	if info.Scheme != SchemeHMAC || !c.AlgorithmSupported(alg) {
		return nil, ErrUnsupportedAlg
	}
	if key == 0 {
		return nil, ErrEmptyKey
	}
	return &MACer{cap: c, alg: alg, key: key}, nil
}

// SetKID attaches a key identifier to produced messages.
func (m *MACer) SetKID(kid []byte) {
	m.kid = kid
}

// ComputeMac0 authenticates payload and returns the tagged COSE_Mac0
// message.
func (m *MACer) ComputeMac0(payload, externalAAD []byte) ([]byte, error) {
	protected, err := encodeProtected(m.alg)
	if err != nil {
		return nil, err
	}
	tag, err := m.computeTag(protected, externalAAD, payload)
	if err != nil {
		return nil, err
	}
	e := cbor.NewEncoder()
	e.AddTag(TagMac0)
	e.OpenArray()
	e.AddBytes(protected)
	addUnprotected(e, m.kid, nil)
	e.AddBytes(payload)
	e.AddBytes(tag)
	e.CloseArray()
	return e.Finish()
}

// VerifyMac0 checks a COSE_Mac0 message and returns its payload.
func (m *MACer) VerifyMac0(message, externalAAD []byte) ([]byte, error) {
	parts, err := splitMessage(message, TagMac0, 4)
	if err != nil {
		return nil, err
	}
	var h Headers
	if err := decodeProtected(parts[0], &h); err != nil {
		return nil, err
	}
	if h.Alg != m.alg {
		return nil, ErrUnsupportedAlg
	}
	want, err := m.computeTag(parts[0], externalAAD, parts[2])
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(want, parts[3]) != 1 {
		return nil, ErrMACVerifyFailed
	}
	return parts[2], nil
}

// computeTag runs the HMAC over the serialized MAC_structure.
func (m *MACer) computeTag(protected, externalAAD, payload []byte) ([]byte, error) {
	e := cbor.NewEncoder()
	e.OpenArray()
	e.AddText("MAC0")
	e.AddBytes(protected)
	e.AddBytes(externalAAD)
	e.AddBytes(payload)
	e.CloseArray()
	structure, err := e.Finish()
	if err != nil {
		return nil, err
	}
	hm, err := m.cap.HMACStart(m.alg, m.key)
	if err != nil {
		return nil, err
	}
	hm.Update(structure)
	return hm.Finish(), nil
}
