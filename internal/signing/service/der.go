package service

import (
	"encoding/asn1"
	"errors"
	"math/big"
)

const (
	// p256ScalarSize is the width of r and s in an IEEE-P1363 P-256 signature.
	p256ScalarSize = 32
	// P1363SignatureSize is the exact size of a P-256 signature in IEEE-P1363 form.
	P1363SignatureSize = 2 * p256ScalarSize

	asn1TagInteger  = 0x02
	asn1TagSequence = 0x30
)

var (
	// ErrInvalidSignatureLength is returned when a P1363 signature is not exactly 64 bytes.
	ErrInvalidSignatureLength = errors.New("signature must be exactly 64 bytes")
	// ErrInvalidDERSignature is returned when a DER signature cannot be decoded into (r, s).
	ErrInvalidDERSignature = errors.New("invalid DER signature")
)

// P1363ToDER converts a fixed-width r || s signature into DER SEQUENCE(INTEGER r, INTEGER s).
func P1363ToDER(sig []byte) ([]byte, error) {
	if len(sig) != P1363SignatureSize {
		return nil, ErrInvalidSignatureLength
	}

	r := derInteger(sig[:p256ScalarSize])
	s := derInteger(sig[p256ScalarSize:])

	// at most 2 * (2 + 33) = 70 bytes of content, so short-form lengths always suffice
	content := make([]byte, 0, len(r)+len(s))
	content = append(content, r...)
	content = append(content, s...)

	out := make([]byte, 0, 2+len(content))
	out = append(out, asn1TagSequence, byte(len(content)))
	out = append(out, content...)
	return out, nil
}

// derInteger encodes an unsigned big-endian integer as a DER INTEGER TLV.
// Leading zero bytes are stripped and a single zero is re-prepended when the
// high bit is set so the value stays non-negative under two's complement.
func derInteger(b []byte) []byte {
	i := 0
	for i < len(b) && b[i] == 0 {
		i++
	}
	v := b[i:]

	if len(v) == 0 {
		v = []byte{0x00}
	} else if v[0]&0x80 != 0 {
		v = append([]byte{0x00}, v...)
	}

	tlv := make([]byte, 0, 2+len(v))
	tlv = append(tlv, asn1TagInteger, byte(len(v)))
	return append(tlv, v...)
}

type ecdsaSignature struct {
	R *big.Int
	S *big.Int
}

// DERToP1363 converts a DER SEQUENCE(INTEGER r, INTEGER s) into fixed-width r || s.
func DERToP1363(der []byte) ([]byte, error) {
	var sig ecdsaSignature
	rest, err := asn1.Unmarshal(der, &sig)
	if err != nil || len(rest) != 0 {
		return nil, ErrInvalidDERSignature
	}
	if sig.R == nil || sig.S == nil || sig.R.Sign() < 0 || sig.S.Sign() < 0 {
		return nil, ErrInvalidDERSignature
	}
	if sig.R.BitLen() > p256ScalarSize*8 || sig.S.BitLen() > p256ScalarSize*8 {
		return nil, ErrInvalidDERSignature
	}

	out := make([]byte, P1363SignatureSize)
	sig.R.FillBytes(out[:p256ScalarSize])
	sig.S.FillBytes(out[p256ScalarSize:])
	return out, nil
}
