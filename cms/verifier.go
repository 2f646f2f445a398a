// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package cms

import (
	"bytes"
	"crypto/x509"
	"errors"
	"fmt"
	"hash"

	"github.com/jarsign/jarsign/asn1"
	"github.com/jarsign/jarsign/asn1/oid"
	"github.com/jarsign/jarsign/jarsignerr"
)

// VerifierState is a Verifier's position in the Fresh → Updating →
// Finalized state machine.
type VerifierState int

const (
	VerifierFresh VerifierState = iota
	VerifierUpdating
	VerifierFinalized
)

// Verifier mirrors Signer: fed content via Update, finalized with Verify.
// A digest or signature mismatch is not a Go error — Verify returns (nil,
// nil) for "Invalid", per the verifier protocol. A non-nil error means the
// verification could not be attempted at all (missing certificate,
// unparseable attributes, unknown algorithm).
type Verifier struct {
	provider    Provider
	info        SignerInfo
	cert        *x509.Certificate
	oneStep     bool
	contentType asn1.Oid // zero value (nil) means "don't cross-check"

	state  VerifierState
	hasher hash.Hash
}

// NewVerifier prepares a Verifier for the given SignerInfo. cert may be nil
// if the caller hasn't resolved a certificate yet, but Verify then fails
// with NoMatchingCertificate rather than returning Invalid — a missing
// certificate is a setup error, not a signature mismatch. If cert is
// supplied it must match info's issuer+serial. contentType, if non-nil, is
// the EncapsulatedContentInfo's eContentType; in two-step mode the signed
// contentType attribute must equal it.
func NewVerifier(info SignerInfo, cert *x509.Certificate, contentType asn1.Oid) (*Verifier, error) {
	if cert != nil {
		if !bytes.Equal(cert.RawIssuer, info.Sid.IssuerRaw) || cert.SerialNumber.Cmp(info.Sid.SerialNumber) != 0 {
			return nil, jarsignerr.New(jarsignerr.NoMatchingCertificate, fmt.Errorf("certificate does not match SignerInfo issuer+serial"))
		}
	}
	provider := ProviderFor(info.SignatureAlgorithm)
	hasher, err := provider.NewHash(info.DigestAlgorithm)
	if err != nil {
		return nil, err
	}
	return &Verifier{
		provider:    provider,
		info:        info,
		cert:        cert,
		contentType: contentType,
		oneStep:     info.SignedAttrs == nil || info.SignedAttrs.Len() == 0,
		hasher:      hasher,
	}, nil
}

// Update feeds content octets into the digest engine. Illegal after Verify.
func (v *Verifier) Update(p []byte) error {
	if v.state == VerifierFinalized {
		return jarsignerr.New(jarsignerr.InvariantViolated, fmt.Errorf("Verifier: Update called after Verify"))
	}
	v.state = VerifierUpdating
	v.hasher.Write(p)
	return nil
}

// Verify finalizes the digest, resolves the two-step/one-step comparison,
// and checks the signature. Returns the verifying certificate on success,
// or (nil, nil) if the digest or signature does not match. Illegal before
// at least one Update.
func (v *Verifier) Verify() (*x509.Certificate, error) {
	if v.state == VerifierFresh {
		return nil, jarsignerr.New(jarsignerr.InvariantViolated, fmt.Errorf("Verifier: Verify called before any Update"))
	}
	if v.state == VerifierFinalized {
		return nil, jarsignerr.New(jarsignerr.InvariantViolated, fmt.Errorf("Verifier: Verify called twice"))
	}
	v.state = VerifierFinalized

	if v.cert == nil {
		return nil, jarsignerr.New(jarsignerr.NoMatchingCertificate, fmt.Errorf("no certificate to verify against"))
	}

	contentDigest := v.hasher.Sum(nil)

	toVerify := contentDigest
	if !v.oneStep {
		if v.contentType != nil {
			ctAttr, ok := v.info.SignedAttrs.Get(oid.ContentType)
			if !ok || len(ctAttr.Values) == 0 {
				return nil, nil
			}
			if !ctAttr.Values[0].Oid().Equal(v.contentType) {
				return nil, nil
			}
		}

		mdAttr, ok := v.info.SignedAttrs.Get(oid.MessageDigest)
		if !ok {
			return nil, nil
		}
		if len(mdAttr.Values) == 0 {
			return nil, nil
		}
		gotDigest := mdAttr.Values[0].OctetString()
		if !bytes.Equal(gotDigest, contentDigest) {
			return nil, nil
		}

		forSigning, _, err := v.info.SignedAttrs.MarshalSignedAttributes()
		if err != nil {
			return nil, err
		}
		digestOfAttrs, err := v.provider.Digest(v.info.DigestAlgorithm, forSigning)
		if err != nil {
			return nil, err
		}
		toVerify = digestOfAttrs
	}

	err := v.provider.Verify(v.info.SignatureAlgorithm, v.cert.PublicKey, toVerify, v.info.Signature)
	if err != nil {
		if errors.Is(err, ErrSignatureInvalid) {
			return nil, nil
		}
		return nil, err
	}
	return v.cert, nil
}
