// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

// Package identity resolves a signing identity (private key, certificate,
// certificate chain) from a key store, and builds a trust store used to
// validate a signature's certificate path. Mirrors the load/resolve split
// of a Java KeyStore: Load opens the store and authenticates to it, Resolve
// picks one alias's key material out of it.
package identity

import (
	"crypto"
	"crypto/x509"
	"fmt"

	"github.com/jarsign/jarsign/identity/chain"
	"github.com/jarsign/jarsign/jarsignerr"
)

// Identity is a resolved signing identity: a private key, its certificate,
// and the full certificate chain in forward (leaf-first) order, ready to
// be handed to cms.NewSigner and embedded in a SignedData's certificates.
type Identity struct {
	Alias      string
	PrivateKey crypto.PrivateKey
	Chain      []*x509.Certificate // Chain[0] is the leaf (== Certificate())
}

// Certificate returns the identity's end-entity certificate.
func (id *Identity) Certificate() *x509.Certificate {
	if len(id.Chain) == 0 {
		return nil
	}
	return id.Chain[0]
}

// Intermediates returns the identity's chain excluding the leaf — the
// certificates a verifier needs beyond the leaf to build a path to a
// trust anchor.
func (id *Identity) Intermediates() []*x509.Certificate {
	if len(id.Chain) <= 1 {
		return nil
	}
	return id.Chain[1:]
}

// Store resolves aliases within one opened key store to Identity values.
type Store interface {
	// Resolve returns the Identity for alias, authenticating to the key
	// itself with keyPassword. keyPassword may be nil for a key store
	// convention where the store password also guards every key (PKCS#12's
	// usual case).
	Resolve(alias string, keyPassword []byte) (*Identity, error)

	// Aliases lists every signing-capable alias the store holds.
	Aliases() []string
}

// KeyStoreLoader opens a key store file and authenticates to it with a
// store-wide password, returning a Store ready for Resolve calls.
type KeyStoreLoader interface {
	// Load opens path. storeType and provider are advisory (e.g. "PKCS12",
	// a specific JCE-style provider name) — an implementation that only
	// understands one store format ignores them or rejects a mismatch.
	Load(path, storeType, provider string, storePassword []byte) (Store, error)
}

// normalizeChain runs chain.Normalize and surfaces its error as-is; kept as
// a named function; PKCS12Loader.Load calls it.
func normalizeChain(certs []*x509.Certificate) ([]*x509.Certificate, error) {
	normalized, err := chain.Normalize(certs)
	if err != nil {
		return nil, err
	}
	return normalized, nil
}

// errNoSuchAlias builds the NoMatchingSigner error Resolve returns for an
// alias the store does not hold.
func errNoSuchAlias(alias string) error {
	return jarsignerr.New(jarsignerr.NoMatchingSigner, fmt.Errorf("key store holds no alias %q", alias))
}
