// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package cms

import (
	"crypto"
	"crypto/rand"
	"crypto/x509"
	"fmt"
	"hash"
	"io"

	"github.com/jarsign/jarsign/asn1"
	"github.com/jarsign/jarsign/asn1/oid"
	"github.com/jarsign/jarsign/jarsignerr"
)

// SignerState is a Signer's position in the Fresh → Updating → Finalized
// state machine.
type SignerState int

const (
	SignerFresh SignerState = iota
	SignerUpdating
	SignerFinalized
)

// Signer builds one SignerInfo over a content stream. Fed via repeated
// Update calls and finalized once with Finish, mirroring how a Java
// Signature engine is driven. Signing is one-step iff the caller supplied
// no authenticated attributes and the target content type is PKCS#7 Data:
// in that case the signature covers the content digest directly. Every
// other case is two-step: the content digest becomes the messageDigest
// authenticated attribute, and the signature covers the DER re-encoding of
// the authenticated attributes instead.
type Signer struct {
	provider    Provider
	digestAlg   DigestAlgorithm
	sigAlg      SignatureAlgorithm
	cert        *x509.Certificate
	key         crypto.PrivateKey
	contentType asn1.Oid
	oneStep     bool
	authAttrs   *Attributes
	rnd         io.Reader

	state  SignerState
	hasher hash.Hash
}

// NewSigner prepares a Signer. authAttrs may be nil; if non-nil and
// non-empty (or contentType isn't Data), two-step signing applies: a
// contentType attribute is added if absent (and must match contentType if
// already present), and a messageDigest attribute must not already be
// present — Finish fills it in.
func NewSigner(cert *x509.Certificate, key crypto.PrivateKey, digestAlg DigestAlgorithm, sigAlg SignatureAlgorithm, contentType asn1.Oid, authAttrs *Attributes, rnd io.Reader) (*Signer, error) {
	if rnd == nil {
		rnd = rand.Reader
	}
	provider := ProviderFor(sigAlg)
	hasher, err := provider.NewHash(digestAlg)
	if err != nil {
		return nil, err
	}

	oneStep := (authAttrs == nil || authAttrs.Len() == 0) && contentType.Equal(oid.Data)

	s := &Signer{
		provider:    provider,
		digestAlg:   digestAlg,
		sigAlg:      sigAlg,
		cert:        cert,
		key:         key,
		contentType: contentType,
		oneStep:     oneStep,
		rnd:         rnd,
		hasher:      hasher,
	}
	if oneStep {
		return s, nil
	}

	attrs := authAttrs
	if attrs == nil {
		attrs = &Attributes{}
	}
	if existing, ok := attrs.Get(oid.ContentType); ok {
		got := existing.Values[0].Oid()
		if !got.Equal(contentType) {
			return nil, jarsignerr.New(jarsignerr.AttributeInvalid, fmt.Errorf("contentType attribute %s does not match target content type %s", got, contentType))
		}
	} else {
		attrs.Add(ContentTypeAttribute(contentType))
	}
	if _, ok := attrs.Get(oid.MessageDigest); ok {
		return nil, jarsignerr.New(jarsignerr.AttributeInvalid, fmt.Errorf("messageDigest attribute must be absent before signing"))
	}
	s.authAttrs = attrs
	return s, nil
}

// Update feeds content octets into the digest (two-step) or signature
// (one-step) engine. Illegal after Finish.
func (s *Signer) Update(p []byte) error {
	if s.state == SignerFinalized {
		return jarsignerr.New(jarsignerr.InvariantViolated, fmt.Errorf("Signer: Update called after Finish"))
	}
	s.state = SignerUpdating
	s.hasher.Write(p)
	return nil
}

// Finish finalizes the digest (and, in two-step mode, the authenticated
// attributes), produces the signature, and returns the completed
// SignerInfo. Illegal before at least one Update.
func (s *Signer) Finish() (SignerInfo, error) {
	if s.state == SignerFresh {
		return SignerInfo{}, jarsignerr.New(jarsignerr.InvariantViolated, fmt.Errorf("Signer: Finish called before any Update"))
	}
	if s.state == SignerFinalized {
		return SignerInfo{}, jarsignerr.New(jarsignerr.InvariantViolated, fmt.Errorf("Signer: Finish called twice"))
	}
	contentDigest := s.hasher.Sum(nil)

	info := SignerInfo{
		Version:            1,
		Sid:                IssuerAndSerialNumber{IssuerRaw: s.cert.RawIssuer, SerialNumber: s.cert.SerialNumber},
		DigestAlgorithm:    s.digestAlg,
		SignatureAlgorithm: s.sigAlg,
	}

	toSign := contentDigest
	if !s.oneStep {
		s.authAttrs.Add(MessageDigestAttribute(contentDigest))
		forSigning, _, err := s.authAttrs.MarshalSignedAttributes()
		if err != nil {
			return SignerInfo{}, err
		}
		digestOfAttrs, err := s.provider.Digest(s.digestAlg, forSigning)
		if err != nil {
			return SignerInfo{}, err
		}
		toSign = digestOfAttrs
		info.SignedAttrs = s.authAttrs
	}

	sig, err := s.provider.Sign(s.sigAlg, s.key, toSign, s.rnd)
	if err != nil {
		return SignerInfo{}, err
	}
	info.Signature = sig
	s.state = SignerFinalized
	return info, nil
}
