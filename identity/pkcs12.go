// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package identity

import (
	"crypto"
	"crypto/x509"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/pkcs12"

	"github.com/jarsign/jarsign/jarsignerr"
)

// PKCS12Loader opens PKCS#12 (.p12/.pfx) key stores via
// golang.org/x/crypto/pkcs12. A PKCS#12 file holds exactly one key/cert
// pair plus its issuer chain, not multiple independently-keyed aliases, so
// the single resolved Identity is exposed under an alias derived from the
// leaf certificate's subject common name (or "pkcs12" if it has none) —
// Resolve accepts that alias, an empty alias, or any case-insensitive match.
type PKCS12Loader struct{}

type pkcs12Store struct {
	alias string
	key   crypto.PrivateKey
	chain []*x509.Certificate
}

// Load reads path as a PKCS#12 store. storeType and provider are accepted
// for KeyStoreLoader conformance but ignored: PKCS#12 is the only format
// this loader understands.
func (PKCS12Loader) Load(path, storeType, provider string, storePassword []byte) (Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, jarsignerr.New(jarsignerr.Io, err)
	}

	key, leaf, caCerts, err := pkcs12.DecodeChain(data, string(storePassword))
	if err != nil {
		return nil, jarsignerr.New(jarsignerr.KeyMaterialUnavailable, fmt.Errorf("decode PKCS#12 store: %w", err))
	}

	ordered, err := normalizeChain(append([]*x509.Certificate{leaf}, caCerts...))
	if err != nil {
		return nil, err
	}

	alias := strings.TrimSpace(leaf.Subject.CommonName)
	if alias == "" {
		alias = "pkcs12"
	}

	return &pkcs12Store{alias: alias, key: key, chain: ordered}, nil
}

func (s *pkcs12Store) Aliases() []string { return []string{s.alias} }

func (s *pkcs12Store) Resolve(alias string, _ []byte) (*Identity, error) {
	if alias != "" && !strings.EqualFold(alias, s.alias) {
		return nil, errNoSuchAlias(alias)
	}
	return &Identity{Alias: s.alias, PrivateKey: s.key, Chain: s.chain}, nil
}
