// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package jar

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/jarsign/jarsign/cms"
	"github.com/jarsign/jarsign/identity"
)

func buildTestIdentity(t *testing.T) *identity.Identity {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "TESTSIGNER"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().AddDate(1, 0, 0),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, key.Public(), key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}
	return &identity.Identity{Alias: "testsigner", PrivateKey: key, Chain: []*x509.Certificate{cert}}
}

func buildTestArchive(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, data := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("create entry %s: %v", name, err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatalf("write entry %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return buf.Bytes()
}

func readEntry(t *testing.T, archive []byte, name string) []byte {
	t.Helper()
	r, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	for _, f := range r.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				t.Fatalf("open entry %s: %v", name, err)
			}
			defer rc.Close()
			var out bytes.Buffer
			if _, err := out.ReadFrom(rc); err != nil {
				t.Fatalf("read entry %s: %v", name, err)
			}
			return out.Bytes()
		}
	}
	t.Fatalf("archive has no entry %s", name)
	return nil
}

func hasEntry(archive []byte, name string) bool {
	r, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return false
	}
	for _, f := range r.File {
		if f.Name == name {
			return true
		}
	}
	return false
}

func TestSignVerifyUnsignRoundTrip(t *testing.T) {
	id := buildTestIdentity(t)
	original := buildTestArchive(t, map[string][]byte{
		"a.class": {0x00, 0x01, 0x02, 0x03},
	})

	engine := &Engine{
		DigestAlg:    cms.DigestSHA256,
		SignatureAlg: cms.SigSHA256WithRSA,
		Identity:     id,
	}

	signed, err := engine.Sign(context.Background(), original)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if !hasEntry(signed, "META-INF/MANIFEST.MF") {
		t.Fatalf("signed archive missing MANIFEST.MF")
	}
	if !hasEntry(signed, "META-INF/TESTSIGN.SF") {
		t.Fatalf("signed archive missing signature file, want signer name truncated to 8 chars")
	}
	if !hasEntry(signed, "META-INF/TESTSIGN.RSA") {
		t.Fatalf("signed archive missing RSA signature block")
	}

	signers, err := engine.IsSigned(signed)
	if err != nil {
		t.Fatalf("IsSigned: %v", err)
	}
	if len(signers) != 1 || signers[0] != "TESTSIGN" {
		t.Fatalf("IsSigned = %v, want [TESTSIGN]", signers)
	}

	result, err := engine.Verify(signed)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(result.Signers) != 1 {
		t.Fatalf("Verify found %d signers, want 1", len(result.Signers))
	}
	if result.Signers[0].Certificate.Subject.CommonName != "TESTSIGNER" {
		t.Fatalf("Verify returned unexpected certificate: %v", result.Signers[0].Certificate.Subject)
	}

	unsigned, err := engine.Unsign(signed)
	if err != nil {
		t.Fatalf("Unsign: %v", err)
	}
	if hasEntry(unsigned, "META-INF/TESTSIGN.SF") || hasEntry(unsigned, "META-INF/TESTSIGN.RSA") {
		t.Fatalf("Unsign left signature entries behind")
	}
	if got := readEntry(t, unsigned, "a.class"); !bytes.Equal(got, []byte{0x00, 0x01, 0x02, 0x03}) {
		t.Fatalf("Unsign altered original entry bytes: %v", got)
	}

	signersAfter, err := engine.IsSigned(unsigned)
	if err != nil {
		t.Fatalf("IsSigned after unsign: %v", err)
	}
	if len(signersAfter) != 0 {
		t.Fatalf("IsSigned after unsign = %v, want none", signersAfter)
	}
}

func TestVerifyRejectsTamperedManifest(t *testing.T) {
	id := buildTestIdentity(t)
	original := buildTestArchive(t, map[string][]byte{"a.class": {1, 2, 3}})
	engine := &Engine{DigestAlg: cms.DigestSHA256, SignatureAlg: cms.SigSHA256WithRSA, Identity: id}

	signed, err := engine.Sign(context.Background(), original)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	entries, err := readZip(signed)
	if err != nil {
		t.Fatalf("readZip: %v", err)
	}
	for _, e := range entries {
		if e.name == manifestName {
			e.data = append(e.data, []byte("Extra-Attribute: tampered\r\n")...)
		}
	}
	tampered, err := writeZip(entries)
	if err != nil {
		t.Fatalf("writeZip: %v", err)
	}

	if _, err := engine.Verify(tampered); err == nil {
		t.Fatalf("expected Verify to reject a tampered manifest")
	}
}

func TestSanitizeSignerNameTruncatesAndUppercases(t *testing.T) {
	if got := sanitizeSignerName("my.very.long alias!!"); got != "MYVERYLO" {
		t.Fatalf("sanitizeSignerName = %q, want MYVERYLO", got)
	}
	if got := sanitizeSignerName(""); got != "SIGNER" {
		t.Fatalf("sanitizeSignerName(\"\") = %q, want fallback SIGNER", got)
	}
}
