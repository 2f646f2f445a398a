// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

// Package tsa implements an RFC 3161 Time-Stamp Protocol client: building
// and parsing TimeStampReq/TimeStampResp messages, and driving an HTTP
// round trip (with endpoint rotation on a retryable failure) against a
// timestamp authority to produce a token for a JAR signature.
//
// The wire messages are built on this module's own asn1 package, the same
// byte-based convention cms uses for CMS types, rather than encoding/asn1:
// a TSA response embeds a TimeStampToken that is itself a CMS ContentInfo,
// so staying on one ASN.1 stack for both layers avoids a second decoder.
package tsa

import (
	"fmt"
	"math/big"

	"github.com/jarsign/jarsign/asn1"
	"github.com/jarsign/jarsign/cms"
	"github.com/jarsign/jarsign/jarsignerr"
)

// MessageImprint is RFC 3161's MessageImprint: SEQUENCE { hashAlgorithm
// AlgorithmIdentifier, hashedMessage OCTET STRING }.
type MessageImprint struct {
	HashAlgorithm cms.DigestAlgorithm
	HashedMessage []byte
}

func (mi MessageImprint) marshalValue() *asn1.Value {
	digest, _ := asn1.NewOctetString(mi.HashedMessage)
	return asn1.NewSequence(
		asn1.NewSequence(asn1.MustOid(mi.HashAlgorithm.Oid...), asn1.NewNull()),
		digest,
	)
}

func parseMessageImprint(raw []byte) (MessageImprint, error) {
	_, constructed, tag, content, _, err := asn1.ReadTLV(raw, true)
	if err != nil {
		return MessageImprint{}, jarsignerr.New(jarsignerr.InvalidEncoding, err)
	}
	if tag != asn1.TagSequence || !constructed {
		return MessageImprint{}, jarsignerr.New(jarsignerr.InvalidEncoding, fmt.Errorf("MessageImprint is not a SEQUENCE"))
	}
	algRaw, rest, err := asn1.ReadOneTLV(content, true)
	if err != nil {
		return MessageImprint{}, jarsignerr.New(jarsignerr.InvalidEncoding, err)
	}
	algVal, _, err := asn1.DecodeBER(algRaw)
	if err != nil {
		return MessageImprint{}, jarsignerr.New(jarsignerr.InvalidEncoding, err)
	}
	algOid := algVal.Members()[0].Oid()
	digestAlg, err := cms.DigestByOid(algOid)
	if err != nil {
		return MessageImprint{}, err
	}
	digestVal, _, err := asn1.DecodeBER(rest)
	if err != nil {
		return MessageImprint{}, jarsignerr.New(jarsignerr.InvalidEncoding, err)
	}
	return MessageImprint{HashAlgorithm: digestAlg, HashedMessage: digestVal.OctetString()}, nil
}

// Request is RFC 3161's TimeStampReq.
type Request struct {
	MessageImprint MessageImprint
	ReqPolicy      asn1.Oid // nil if the TSA's default policy is acceptable
	Nonce          *big.Int // nil disables the nonce
	CertReq        bool     // ask the TSA to include its signing certificate
}

// RequestOption configures a Request built by NewRequest.
type RequestOption func(*Request)

// WithPolicy requests a specific TSA policy OID.
func WithPolicy(o asn1.Oid) RequestOption {
	return func(r *Request) { r.ReqPolicy = o }
}

// WithNonce attaches a nonce the response must echo back, letting the
// caller verify the response is fresh rather than replayed.
func WithNonce(n *big.Int) RequestOption {
	return func(r *Request) { r.Nonce = n }
}

// WithCertificate asks the TSA to embed its signing certificate (and
// chain) in the response token.
func WithCertificate() RequestOption {
	return func(r *Request) { r.CertReq = true }
}

// NewRequest builds a Request over an already-computed digest.
func NewRequest(digestAlg cms.DigestAlgorithm, hashed []byte, opts ...RequestOption) *Request {
	r := &Request{MessageImprint: MessageImprint{HashAlgorithm: digestAlg, HashedMessage: hashed}}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Marshal renders req as a DER TimeStampReq.
func (req *Request) Marshal() ([]byte, error) {
	members := []*asn1.Value{asn1.NewIntegerInt64(1), req.MessageImprint.marshalValue()}
	if req.ReqPolicy != nil {
		members = append(members, asn1.MustOid(req.ReqPolicy...))
	}
	if req.Nonce != nil {
		members = append(members, asn1.NewInteger(req.Nonce))
	}
	if req.CertReq {
		members = append(members, asn1.NewBoolean(true))
	}
	return asn1.Encode(asn1.NewSequence(members...))
}

// ParseRequest decodes a DER or BER TimeStampReq.
func ParseRequest(data []byte) (*Request, error) {
	_, constructed, tag, content, n, err := asn1.ReadTLV(data, true)
	if err != nil {
		return nil, jarsignerr.New(jarsignerr.InvalidEncoding, err)
	}
	if tag != asn1.TagSequence || !constructed {
		return nil, jarsignerr.New(jarsignerr.InvalidEncoding, fmt.Errorf("TimeStampReq is not a SEQUENCE"))
	}
	if n != len(data) {
		return nil, jarsignerr.New(jarsignerr.InvalidEncoding, fmt.Errorf("trailing data after TimeStampReq"))
	}

	members, err := asn1.SplitTLVs(content, true)
	if err != nil {
		return nil, jarsignerr.New(jarsignerr.InvalidEncoding, err)
	}
	if len(members) < 2 {
		return nil, jarsignerr.New(jarsignerr.InvalidEncoding, fmt.Errorf("TimeStampReq needs at least version and messageImprint"))
	}

	mi, err := parseMessageImprint(members[1])
	if err != nil {
		return nil, err
	}
	req := &Request{MessageImprint: mi}

	for _, raw := range members[2:] {
		class, _, tag, fieldContent, _, err := asn1.ReadTLV(raw, true)
		if err != nil {
			return nil, jarsignerr.New(jarsignerr.InvalidEncoding, err)
		}
		switch {
		case class == asn1.ClassUniversal && tag == asn1.TagOid:
			val, _, err := asn1.DecodeBER(raw)
			if err != nil {
				return nil, jarsignerr.New(jarsignerr.InvalidEncoding, err)
			}
			req.ReqPolicy = val.Oid()
		case class == asn1.ClassUniversal && tag == asn1.TagInteger:
			req.Nonce = new(big.Int).SetBytes(fieldContent)
			if len(fieldContent) > 0 && fieldContent[0]&0x80 != 0 {
				// two's-complement negative nonce: callers always supply
				// non-negative nonces, so this is left unhandled rather
				// than silently producing the wrong magnitude.
				return nil, jarsignerr.New(jarsignerr.InvalidEncoding, fmt.Errorf("negative nonce not supported"))
			}
		case class == asn1.ClassUniversal && tag == asn1.TagBoolean:
			req.CertReq = len(fieldContent) > 0 && fieldContent[0] != 0
		}
	}
	return req, nil
}
