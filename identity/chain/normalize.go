// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

// Package chain normalizes a certificate chain to forward order: leaf
// first, each subsequent certificate the issuer of the one before it.
package chain

import (
	"bytes"
	"crypto/x509"
	"fmt"

	"github.com/jarsign/jarsign/jarsignerr"
)

// issues reports whether issuer's subject matches subject's issuer DN,
// compared by raw DER bytes rather than parsed pkix.Name equality.
func issues(issuer, subject *x509.Certificate) bool {
	return bytes.Equal(issuer.RawSubject, subject.RawIssuer)
}

// isSelfSigned reports whether cert's issuer and subject DN match — the
// acceptance test for a trust anchor at the end of a chain.
func isSelfSigned(cert *x509.Certificate) bool {
	return bytes.Equal(cert.RawSubject, cert.RawIssuer)
}

// formsChain reports whether certs, taken in order, is already a valid
// leaf-first issuance chain: each certs[i+1] issues certs[i].
func formsChain(certs []*x509.Certificate) bool {
	for i := 0; i+1 < len(certs); i++ {
		if !issues(certs[i+1], certs[i]) {
			return false
		}
	}
	return true
}

// Normalize accepts a certificate chain in either leaf-first or root-first
// order and returns it leaf-first: certs[0] the end-entity certificate,
// each certs[i+1] the issuer of certs[i]. A trailing self-signed
// certificate (by issuer/subject DN equality) is accepted as the anchor in
// either direction. Returns CertPathInvalid if neither order forms a valid
// issuance chain.
func Normalize(certs []*x509.Certificate) ([]*x509.Certificate, error) {
	switch len(certs) {
	case 0:
		return nil, jarsignerr.New(jarsignerr.CertPathInvalid, fmt.Errorf("empty certificate chain"))
	case 1:
		return certs, nil
	}

	if formsChain(certs) {
		return certs, nil
	}

	reversed := make([]*x509.Certificate, len(certs))
	for i, c := range certs {
		reversed[len(certs)-1-i] = c
	}
	if formsChain(reversed) {
		return reversed, nil
	}

	return nil, jarsignerr.New(jarsignerr.CertPathInvalid, fmt.Errorf("certificates do not form an issuance chain in either order"))
}

// IsAnchor reports whether cert is a valid terminal anchor for a
// normalized chain: self-signed by DN equality.
func IsAnchor(cert *x509.Certificate) bool {
	return isSelfSigned(cert)
}
