// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package chain

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"
)

func selfSignedRoot(t *testing.T, cn string) *x509.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate root key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:                pkix.Name{CommonName: cn},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().AddDate(10, 0, 0),
		IsCA:                  true,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, key.Public(), key)
	if err != nil {
		t.Fatalf("create root cert: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse root cert: %v", err)
	}
	return cert
}

func issuedBy(t *testing.T, cn string, issuer *x509.Certificate, issuerKey *ecdsa.PrivateKey) (*x509.Certificate, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now(),
		NotAfter:     time.Now().AddDate(5, 0, 0),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, issuer, key.Public(), issuerKey)
	if err != nil {
		t.Fatalf("create cert: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse cert: %v", err)
	}
	return cert, key
}

func buildChain(t *testing.T) (leaf, root *x509.Certificate) {
	t.Helper()
	rootKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate root key: %v", err)
	}
	rootTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:                pkix.Name{CommonName: "root"},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().AddDate(10, 0, 0),
		IsCA:                  true,
		BasicConstraintsValid: true,
	}
	rootDER, err := x509.CreateCertificate(rand.Reader, rootTmpl, rootTmpl, rootKey.Public(), rootKey)
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	root, err = x509.ParseCertificate(rootDER)
	if err != nil {
		t.Fatalf("parse root: %v", err)
	}
	leaf, _ = issuedBy(t, "leaf", root, rootKey)
	return leaf, root
}

func TestNormalizeAlreadyLeafFirst(t *testing.T) {
	leaf, root := buildChain(t)
	got, err := Normalize([]*x509.Certificate{leaf, root})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got[0] != leaf || got[1] != root {
		t.Fatalf("order changed unexpectedly")
	}
}

func TestNormalizeRootFirst(t *testing.T) {
	leaf, root := buildChain(t)
	got, err := Normalize([]*x509.Certificate{root, leaf})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got[0] != leaf || got[1] != root {
		t.Fatalf("Normalize did not reverse root-first input: got %v, %v", got[0].Subject, got[1].Subject)
	}
}

func TestNormalizeRejectsUnrelatedCertificates(t *testing.T) {
	a := selfSignedRoot(t, "a")
	b := selfSignedRoot(t, "b")
	if _, err := Normalize([]*x509.Certificate{a, b}); err == nil {
		t.Fatalf("expected an error for unrelated certificates")
	}
}

func TestIsAnchor(t *testing.T) {
	leaf, root := buildChain(t)
	if !IsAnchor(root) {
		t.Fatalf("root should be recognized as a self-signed anchor")
	}
	if IsAnchor(leaf) {
		t.Fatalf("leaf should not be recognized as an anchor")
	}
}
