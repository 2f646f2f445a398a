// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package cms

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/jarsign/jarsign/asn1/oid"
)

type certKeyPair struct {
	Certificate *x509.Certificate
	PrivateKey  crypto.PrivateKey
}

func createTestCertificate(t *testing.T) *certKeyPair {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	serialLimit := new(big.Int).Lsh(big.NewInt(1), 32)
	serial, err := rand.Int(rand.Reader, serialLimit)
	if err != nil {
		t.Fatalf("generate serial: %v", err)
	}
	template := x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: "Jon Snow", Organization: []string{"Acme Co"}},
		NotBefore:    time.Now(),
		NotAfter:     time.Now().AddDate(1, 0, 0),
		IsCA:         true,
		KeyUsage:     x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, priv.Public(), priv)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}
	return &certKeyPair{Certificate: leaf, PrivateKey: priv}
}

func signAndVerify(t *testing.T, pair *certKeyPair, content []byte, detached bool) (*SignedData, *x509.Certificate) {
	t.Helper()

	attrs := &Attributes{}
	attrs.Add(SigningTimeAttribute(time.Now().UTC()))
	signer, err := NewSigner(pair.Certificate, pair.PrivateKey, DigestSHA256, SigSHA256WithRSA, oid.Data, attrs, nil)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	if err := signer.Update(content); err != nil {
		t.Fatalf("Update: %v", err)
	}
	info, err := signer.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	sd := &SignedData{
		Version:          1,
		DigestAlgorithms: []DigestAlgorithm{DigestSHA256},
		ContentType:      oid.Data,
		Certificates:     []*x509.Certificate{pair.Certificate},
		SignerInfos:      []SignerInfo{info},
	}
	if !detached {
		sd.EContent = content
	}

	encoded, err := sd.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	decoded, err := ParseSignedData(encoded)
	if err != nil {
		t.Fatalf("ParseSignedData: %v", err)
	}
	if len(decoded.SignerInfos) != 1 {
		t.Fatalf("got %d SignerInfos, want 1", len(decoded.SignerInfos))
	}

	verifier, err := NewVerifier(decoded.SignerInfos[0], decoded.Certificates[0], oid.Data)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	if err := verifier.Update(content); err != nil {
		t.Fatalf("Update: %v", err)
	}
	cert, err := verifier.Verify()
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	return decoded, cert
}

func TestSignVerifyRoundTrip(t *testing.T) {
	pair := createTestCertificate(t)
	content := []byte("a.class digest me")
	for _, detached := range []bool{true, false} {
		_, cert := signAndVerify(t, pair, content, detached)
		if cert == nil {
			t.Fatalf("detached=%v: Verify returned Invalid, want success", detached)
		}
		if !cert.Equal(pair.Certificate) {
			t.Fatalf("detached=%v: Verify returned wrong certificate", detached)
		}
	}
}

func TestVerifyRejectsTamperedContent(t *testing.T) {
	pair := createTestCertificate(t)
	sd, _ := signAndVerify(t, pair, []byte("original content"), true)

	verifier, err := NewVerifier(sd.SignerInfos[0], sd.Certificates[0], oid.Data)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	if err := verifier.Update([]byte("tampered content")); err != nil {
		t.Fatalf("Update: %v", err)
	}
	cert, err := verifier.Verify()
	if err != nil {
		t.Fatalf("Verify returned an error, want Invalid: %v", err)
	}
	if cert != nil {
		t.Fatalf("Verify accepted tampered content")
	}
}

func TestContentInfoRoundTrip(t *testing.T) {
	pair := createTestCertificate(t)
	sd, _ := signAndVerify(t, pair, []byte("hello"), true)

	ci, err := SignedDataContentInfo(sd)
	if err != nil {
		t.Fatalf("SignedDataContentInfo: %v", err)
	}
	encoded, err := ci.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	decoded, rest, err := ParseContentInfo(encoded)
	if err != nil {
		t.Fatalf("ParseContentInfo: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("got %d trailing bytes, want 0", len(rest))
	}
	if !decoded.ContentType.Equal(oid.SignedData) {
		t.Fatalf("got contentType %s, want signedData", decoded.ContentType)
	}
	again, err := decoded.SignedData()
	if err != nil {
		t.Fatalf("SignedData: %v", err)
	}
	if len(again.SignerInfos) != 1 {
		t.Fatalf("got %d SignerInfos after round trip, want 1", len(again.SignerInfos))
	}
}

func TestOneStepSign(t *testing.T) {
	pair := createTestCertificate(t)
	content := []byte("one-step content")

	signer, err := NewSigner(pair.Certificate, pair.PrivateKey, DigestSHA256, SigSHA256WithRSA, oid.Data, nil, nil)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	if err := signer.Update(content); err != nil {
		t.Fatalf("Update: %v", err)
	}
	info, err := signer.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if info.SignedAttrs != nil {
		t.Fatalf("one-step SignerInfo carries signedAttrs, want none")
	}

	verifier, err := NewVerifier(info, pair.Certificate, oid.Data)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	if err := verifier.Update(content); err != nil {
		t.Fatalf("Update: %v", err)
	}
	cert, err := verifier.Verify()
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if cert == nil {
		t.Fatalf("one-step Verify returned Invalid, want success")
	}
}

func TestSignerRejectsPreexistingMessageDigest(t *testing.T) {
	pair := createTestCertificate(t)
	attrs := &Attributes{}
	attrs.Add(MessageDigestAttribute([]byte("bogus")))
	if _, err := NewSigner(pair.Certificate, pair.PrivateKey, DigestSHA256, SigSHA256WithRSA, oid.Data, attrs, nil); err == nil {
		t.Fatalf("NewSigner accepted a pre-existing messageDigest attribute")
	}
}
