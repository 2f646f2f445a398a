// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package cms

import (
	"crypto"
	"fmt"
	"hash"
	"io"

	"github.com/ddulesov/gogost/gost3410"
	"github.com/ddulesov/gogost/gost34112012256"
	"github.com/ddulesov/gogost/gost34112012512"

	"github.com/jarsign/jarsign/jarsignerr"
)

// GOSTProvider implements Provider for GOST R 34.10-2012 signatures
// (*gost3410.PrivateKey / *gost3410.PublicKey) over GOST R 34.11-2012
// digests.
//
// gogost's SignDigest/VerifyDigest consume the digest in the byte order the
// GOST signature primitive itself uses internally, which is the reverse of
// the byte order gost34112012256/512.Sum produces. Every other
// DigestAlgorithm/SignatureAlgorithm pair in this package signs the digest
// bytes exactly as produced; GOST alone needs this reversal, so it lives
// here rather than in the shared SignerInfo construction path.
type GOSTProvider struct{}

func (GOSTProvider) NewHash(alg DigestAlgorithm) (hash.Hash, error) {
	switch alg.Oid.String() {
	case DigestGost256.Oid.String():
		return gost34112012256.New(), nil
	case DigestGost512.Oid.String():
		return gost34112012512.New(), nil
	default:
		return nil, jarsignerr.New(jarsignerr.AlgorithmUnavailable, fmt.Errorf("GOSTProvider cannot compute digest %s", alg.Name))
	}
}

func (GOSTProvider) Digest(alg DigestAlgorithm, data []byte) ([]byte, error) {
	h, err := (GOSTProvider{}).NewHash(alg)
	if err != nil {
		return nil, err
	}
	h.Write(data)
	return h.Sum(nil), nil
}

func (GOSTProvider) Sign(alg SignatureAlgorithm, key crypto.PrivateKey, digest []byte, rand io.Reader) ([]byte, error) {
	priv, ok := key.(*gost3410.PrivateKey)
	if !ok {
		return nil, jarsignerr.New(jarsignerr.KeyMaterialUnavailable, fmt.Errorf("GOSTProvider requires a *gost3410.PrivateKey, got %T", key))
	}
	sig, err := priv.SignDigest(reverseBytes(digest), rand)
	if err != nil {
		return nil, jarsignerr.New(jarsignerr.KeyMaterialUnavailable, err)
	}
	return sig, nil
}

func (GOSTProvider) Verify(alg SignatureAlgorithm, pub crypto.PublicKey, digest, sig []byte) error {
	p, ok := pub.(*gost3410.PublicKey)
	if !ok {
		return jarsignerr.New(jarsignerr.AlgorithmUnavailable, fmt.Errorf("GOSTProvider requires a *gost3410.PublicKey, got %T", pub))
	}
	valid, err := p.VerifyDigest(reverseBytes(digest), sig)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	if !valid {
		return fmt.Errorf("%w: GOST3410", ErrSignatureInvalid)
	}
	return nil
}

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}
