// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package cms

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"
	"fmt"
	"hash"
	"io"

	"github.com/jarsign/jarsign/jarsignerr"
)

// ErrSignatureInvalid is returned by Provider.Verify when a signature was
// well-formed but does not verify against the given digest and key. Callers
// (cms.Verifier) treat this as a verification-Invalid result, not a Go error
// to propagate — per the verifier protocol, a digest or signature mismatch
// returns "no certificate", never an error.
var ErrSignatureInvalid = errors.New("cms: signature does not verify")

// Provider performs the cryptographic operations SignerInfo construction and
// verification need: hashing, signing a digest, and verifying a signature
// against a digest. Two implementations exist because GOST keys need their
// digest byte-reversed before signing and verifying (see provider_gost.go),
// a quirk the stdlib's crypto.Signer/crypto.PublicKey machinery knows
// nothing about.
type Provider interface {
	// NewHash returns a streaming hash.Hash for alg, so Signer.Update/
	// Verifier.Update can feed content incrementally instead of buffering
	// it whole.
	NewHash(alg DigestAlgorithm) (hash.Hash, error)
	// Digest hashes data under alg in one call.
	Digest(alg DigestAlgorithm, data []byte) ([]byte, error)
	// Sign produces a raw signature over digest using key. key is typed as
	// crypto.PrivateKey (an alias for any), not crypto.Signer, because
	// GOSTProvider's key type (*gost3410.PrivateKey) does not implement
	// crypto.Signer — gogost exposes SignDigest directly instead.
	Sign(alg SignatureAlgorithm, key crypto.PrivateKey, digest []byte, rand io.Reader) ([]byte, error)
	// Verify checks sig against digest under pub. Returns ErrSignatureInvalid
	// (wrapped) if the signature is well-formed but does not verify; any
	// other error indicates a malformed key or signature this Provider
	// cannot interpret at all.
	Verify(alg SignatureAlgorithm, pub crypto.PublicKey, digest, sig []byte) error
}

// StdProvider implements Provider for every key type the standard library's
// crypto.Signer interface covers: RSA, ECDSA, and Ed25519.
type StdProvider struct{}

func (StdProvider) NewHash(alg DigestAlgorithm) (hash.Hash, error) {
	if alg.Hash == 0 || !alg.Hash.Available() {
		return nil, jarsignerr.New(jarsignerr.AlgorithmUnavailable, fmt.Errorf("digest algorithm %s unavailable", alg.Name))
	}
	return alg.Hash.New(), nil
}

func (StdProvider) Digest(alg DigestAlgorithm, data []byte) ([]byte, error) {
	h, err := (StdProvider{}).NewHash(alg)
	if err != nil {
		return nil, err
	}
	h.Write(data)
	return h.Sum(nil), nil
}

func (StdProvider) Sign(alg SignatureAlgorithm, key crypto.PrivateKey, digest []byte, rand io.Reader) ([]byte, error) {
	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, jarsignerr.New(jarsignerr.KeyMaterialUnavailable, fmt.Errorf("StdProvider requires a crypto.Signer, got %T", key))
	}
	var opts crypto.SignerOpts = alg.Digest.Hash
	if _, ok := signer.Public().(ed25519.PublicKey); ok {
		opts = crypto.Hash(0)
	}
	sig, err := signer.Sign(rand, digest, opts)
	if err != nil {
		return nil, jarsignerr.New(jarsignerr.KeyMaterialUnavailable, err)
	}
	return sig, nil
}

func (StdProvider) Verify(alg SignatureAlgorithm, pub crypto.PublicKey, digest, sig []byte) error {
	switch p := pub.(type) {
	case *rsa.PublicKey:
		if err := rsa.VerifyPKCS1v15(p, alg.Digest.Hash, digest, sig); err != nil {
			return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
		}
		return nil
	case *ecdsa.PublicKey:
		if !ecdsa.VerifyASN1(p, digest, sig) {
			return fmt.Errorf("%w: ECDSA", ErrSignatureInvalid)
		}
		return nil
	case ed25519.PublicKey:
		if !ed25519.Verify(p, digest, sig) {
			return fmt.Errorf("%w: Ed25519", ErrSignatureInvalid)
		}
		return nil
	default:
		return jarsignerr.New(jarsignerr.AlgorithmUnavailable, fmt.Errorf("unsupported public key type %T", pub))
	}
}

// ProviderFor returns the Provider that can handle alg, dispatching on
// whether alg is one of the GOST signature algorithms registered in
// algorithms.go.
func ProviderFor(alg SignatureAlgorithm) Provider {
	switch alg.Oid.String() {
	case SigGost256.Oid.String(), SigGost512.Oid.String():
		return GOSTProvider{}
	default:
		return StdProvider{}
	}
}
