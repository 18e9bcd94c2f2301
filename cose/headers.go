package cose

import (
	"github.com/cborkit/cborkit/runtime"
)

// Headers carries the header parameters this package reads and writes.
// Unknown non-critical parameters are skipped on decode.
type Headers struct {
	Alg AlgorithmID
	KID []byte
	IV  []byte

	// ContentType holds a tstr content type; ContentFormat a CoAP
	// numeric one. HasContentFormat distinguishes format 0 from
	// absence.
	ContentType      string
	ContentFormat    int64
	HasContentFormat bool
}

// encodeProtected serializes the protected header map to the byte
// string the envelope embeds. The same bytes feed the Sig_structure,
// MAC_structure and Enc_structure, so they are built once.
func encodeProtected(alg AlgorithmID) ([]byte, error) {
	e := cbor.NewEncoder()
	e.OpenMap()
	e.AddInt64ToMapN(labelAlg, int64(alg))
	e.CloseMap()
	return e.Finish()
}

// addUnprotected emits the unprotected header map of a message.
func addUnprotected(e *cbor.Encoder, kid, iv []byte) {
	e.OpenMap()
	if len(kid) > 0 {
		e.AddBytesToMapN(labelKID, kid)
	}
	if len(iv) > 0 {
		e.AddBytesToMapN(labelIV, iv)
	}
	e.CloseMap()
}

// decodeProtected parses a protected-header byte string. An empty
// byte string is an empty header set.
func decodeProtected(raw []byte, h *Headers) error {
	if len(raw) == 0 {
		return nil
	}
	d := cbor.NewDecoder(raw)
	d.SetStringAllocator(cbor.HeapAllocator())
	if err := decodeHeaderMap(d, h, true); err != nil {
		return err
	}
	return formatErr(d.Finish())
}

// decodeHeaderMap consumes one header map from d. crit is only
// honored in the protected bucket; a critical parameter this package
// does not understand fails the message.
func decodeHeaderMap(d *cbor.Decoder, h *Headers, protected bool) error {
	if err := d.EnterMap(); err != nil {
		return formatErr(err)
	}
	for !d.EndCheck() {
		it, err := d.GetNext()
		if err != nil {
			return formatErr(err)
		}
		if it.Label.Type != cbor.Int64Type {
			// Text-labeled parameters are application-defined;
			// skip them.
			if err := skipNested(d, it); err != nil {
				return formatErr(err)
			}
			continue
		}
		switch it.Label.Int {
		case labelAlg:
			if it.Type != cbor.Int64Type {
				return formatErr(ErrMessageFormat)
			}
			h.Alg = AlgorithmID(it.Int)
		case labelKID:
			if it.Type != cbor.ByteStringType {
				return formatErr(ErrMessageFormat)
			}
			h.KID = it.Bytes
		case labelIV:
			if it.Type != cbor.ByteStringType {
				return formatErr(ErrMessageFormat)
			}
			h.IV = it.Bytes
		case labelContentType:
			switch it.Type {
			case cbor.TextStringType:
				h.ContentType = string(it.Bytes)
			case cbor.Int64Type:
				h.ContentFormat = it.Int
				h.HasContentFormat = true
			default:
				return formatErr(ErrMessageFormat)
			}
		case labelCrit:
			if !protected {
				return formatErr(ErrMessageFormat)
			}
			if err := checkCrit(d, it); err != nil {
				return err
			}
		default:
			if err := skipNested(d, it); err != nil {
				return formatErr(err)
			}
		}
	}
	return formatErr(d.ExitMap())
}

// checkCrit walks the crit array. Every listed label must be one this
// package understands, since criticality means "reject if unknown".
func checkCrit(d *cbor.Decoder, it cbor.Item) error {
	if it.Type != cbor.ArrayType || it.Count == 0 {
		return formatErr(ErrMessageFormat)
	}
	for i := uint32(0); i < it.Count; i++ {
		lab, err := d.GetNext()
		if err != nil {
			return formatErr(err)
		}
		if lab.Type != cbor.Int64Type {
			return formatErr(ErrMessageFormat)
		}
		switch lab.Int {
		case labelAlg, labelContentType, labelKID, labelIV:
		default:
			return formatErr(ErrMessageFormat)
		}
	}
	return nil
}

// skipNested consumes the contents of an item that opened one or more
// containers, leaving traversal where it was before the item.
func skipNested(d *cbor.Decoder, it cbor.Item) error {
	for lvl := it.NextLevel; lvl > it.Level; {
		sub, err := d.GetNext()
		if err != nil {
			return err
		}
		lvl = sub.NextLevel
	}
	return nil
}
