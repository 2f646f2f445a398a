// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package identity

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"github.com/jarsign/jarsign/jarsignerr"
)

// TrustStore holds the anchors a verified signature's certificate path
// must chain to. Built from the platform trust store, a PEM bundle, or
// both.
type TrustStore struct {
	pool *x509.CertPool
}

// NewTrustStore returns an empty TrustStore; callers add anchors with
// AddCertificate/AddPEMFile before using it to Validate.
func NewTrustStore() *TrustStore {
	return &TrustStore{pool: x509.NewCertPool()}
}

// SystemTrustStore seeds a TrustStore from the platform's trust anchors.
func SystemTrustStore() (*TrustStore, error) {
	pool, err := x509.SystemCertPool()
	if err != nil {
		return nil, jarsignerr.New(jarsignerr.Io, fmt.Errorf("load system trust store: %w", err))
	}
	if pool == nil {
		pool = x509.NewCertPool()
	}
	return &TrustStore{pool: pool}, nil
}

// AddCertificate adds one anchor.
func (t *TrustStore) AddCertificate(cert *x509.Certificate) {
	t.pool.AddCert(cert)
}

// AddPEMFile loads a PEM bundle of anchors (Supplemented Feature: a trust
// store need not come from the platform — a flat PEM bundle of root
// certificates is also accepted).
func (t *TrustStore) AddPEMFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return jarsignerr.New(jarsignerr.Io, err)
	}
	return t.AddPEM(data)
}

// AddPEM adds every CERTIFICATE block in data as an anchor.
func (t *TrustStore) AddPEM(data []byte) error {
	count := 0
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return jarsignerr.New(jarsignerr.InvalidEncoding, fmt.Errorf("parse PEM trust anchor: %w", err))
		}
		t.pool.AddCert(cert)
		count++
	}
	if count == 0 {
		return jarsignerr.New(jarsignerr.InvalidEncoding, fmt.Errorf("PEM bundle contains no CERTIFICATE blocks"))
	}
	return nil
}

// Validate builds and checks a path from leaf through intermediates to one
// of t's anchors, accepting code-signing or unrestricted-use end-entity
// certificates. Returns the validated chain (leaf first, anchor last) on
// success, or CertPathInvalid.
func (t *TrustStore) Validate(leaf *x509.Certificate, intermediates []*x509.Certificate) ([]*x509.Certificate, error) {
	pool := x509.NewCertPool()
	for _, c := range intermediates {
		pool.AddCert(c)
	}
	chains, err := leaf.Verify(x509.VerifyOptions{
		Roots:         t.pool,
		Intermediates: pool,
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageCodeSigning},
	})
	if err != nil {
		return nil, jarsignerr.New(jarsignerr.CertPathInvalid, err)
	}
	if len(chains) == 0 {
		return nil, jarsignerr.New(jarsignerr.CertPathInvalid, fmt.Errorf("no certificate path to a trust anchor"))
	}
	return chains[0], nil
}
