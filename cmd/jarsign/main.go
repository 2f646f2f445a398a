// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

// Command jarsign is a smoke-test harness over the public API: it signs a
// throwaway in-memory archive with a throwaway self-signed identity, verifies
// the result, and unsigns it again. It is not the build-tool plugin surface;
// that stays out of this module's scope.
package main

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/jarsign/jarsign/cms"
	"github.com/jarsign/jarsign/identity"
	"github.com/jarsign/jarsign/jar"
)

func main() {
	id, err := throwawayIdentity()
	if err != nil {
		fmt.Printf("failed to build throwaway identity: %s\n", err)
		os.Exit(1)
	}

	archive, err := throwawayArchive()
	if err != nil {
		fmt.Printf("failed to build throwaway archive: %s\n", err)
		os.Exit(1)
	}

	engine := &jar.Engine{
		DigestAlg:    cms.DigestSHA256,
		SignatureAlg: cms.SigSHA256WithRSA,
		Identity:     id,
	}

	signed, err := engine.Sign(context.Background(), archive)
	if err != nil {
		fmt.Printf("sign failed: %s\n", err)
		os.Exit(1)
	}
	signers, err := engine.IsSigned(signed)
	if err != nil {
		fmt.Printf("IsSigned failed: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf("signed: %v\n", signers)

	result, err := engine.Verify(signed)
	if err != nil {
		fmt.Printf("verify failed: %s\n", err)
		os.Exit(1)
	}
	for _, s := range result.Signers {
		fmt.Printf("verified: %s (%s)\n", s.Name, s.Certificate.Subject)
	}

	if _, err := engine.Unsign(signed); err != nil {
		fmt.Printf("unsign failed: %s\n", err)
		os.Exit(1)
	}
	fmt.Println("unsign ok")
}

// throwawayIdentity generates an RSA self-signed code-signing identity that
// exists only for the lifetime of this process.
func throwawayIdentity() (*identity.Identity, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "JARSIGN-SMOKE-TEST"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().AddDate(1, 0, 0),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, key.Public(), key)
	if err != nil {
		return nil, err
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, err
	}
	return &identity.Identity{Alias: "smoketest", PrivateKey: key, Chain: []*x509.Certificate{cert}}, nil
}

// throwawayArchive builds a one-entry ZIP to stand in for a JAR.
func throwawayArchive() ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("hello.class")
	if err != nil {
		return nil, err
	}
	if _, err := f.Write([]byte{0xCA, 0xFE, 0xBA, 0xBE}); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
