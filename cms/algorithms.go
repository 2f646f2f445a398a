// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

// Package cms implements the PKCS#7/CMS SignedData layer (RFC 2315,
// RFC 5652) this module needs to produce and verify JAR signature blocks
// and RFC 3161 timestamp tokens: ContentInfo, SignedData,
// EncapsulatedContentInfo, SignerInfo, and signed/unsigned attributes.
// EnvelopedData and EncryptedContentInfo are not implemented.
//
// It is built on this module's own asn1 package rather than encoding/asn1
// so that BER input (indefinite length, constructed OCTET STRING) from a
// third-party signer or TSA can be parsed, not just DER this module itself
// produces.
package cms

import (
	"crypto"
	"fmt"

	"github.com/jarsign/jarsign/asn1"
	"github.com/jarsign/jarsign/asn1/oid"
	"github.com/jarsign/jarsign/jarsignerr"
)

// DigestAlgorithm names a hash algorithm this layer can use, independent of
// whether the hash itself is computed by crypto.Hash or a Provider's own
// digest implementation (e.g. GOST).
type DigestAlgorithm struct {
	Name string
	Oid  asn1.Oid
	Hash crypto.Hash // zero for algorithms crypto.Hash does not know, e.g. GOST
}

// SignatureAlgorithm names a signature algorithm: the combination of a key
// type and a digest, as CMS's signatureAlgorithm AlgorithmIdentifier
// expects.
type SignatureAlgorithm struct {
	Name   string
	Oid    asn1.Oid
	Digest DigestAlgorithm
}

var digestsByOid = map[string]DigestAlgorithm{}
var digestsByName = map[string]DigestAlgorithm{}
var sigsByOid = map[string]SignatureAlgorithm{}
var sigsByName = map[string]SignatureAlgorithm{}

func registerDigest(d DigestAlgorithm) DigestAlgorithm {
	digestsByOid[d.Oid.String()] = d
	digestsByName[d.Name] = d
	return d
}

func registerSig(s SignatureAlgorithm) SignatureAlgorithm {
	sigsByOid[s.Oid.String()] = s
	sigsByName[s.Name] = s
	return s
}

var (
	DigestSHA1   = registerDigest(DigestAlgorithm{Name: "SHA1", Oid: oid.SHA1, Hash: crypto.SHA1})
	DigestSHA256 = registerDigest(DigestAlgorithm{Name: "SHA256", Oid: oid.SHA256, Hash: crypto.SHA256})
	DigestSHA384 = registerDigest(DigestAlgorithm{Name: "SHA384", Oid: oid.SHA384, Hash: crypto.SHA384})
	DigestSHA512 = registerDigest(DigestAlgorithm{Name: "SHA512", Oid: oid.SHA512, Hash: crypto.SHA512})

	DigestGost256 = registerDigest(DigestAlgorithm{Name: "GOST R 34.11-2012-256", Oid: oid.GostR34112012256})
	DigestGost512 = registerDigest(DigestAlgorithm{Name: "GOST R 34.11-2012-512", Oid: oid.GostR34112012512})
)

var (
	SigSHA256WithRSA   = registerSig(SignatureAlgorithm{Name: "SHA256-RSA", Oid: oid.SHA256WithRSAEnc, Digest: DigestSHA256})
	SigSHA384WithRSA   = registerSig(SignatureAlgorithm{Name: "SHA384-RSA", Oid: oid.SHA384WithRSAEnc, Digest: DigestSHA384})
	SigSHA512WithRSA   = registerSig(SignatureAlgorithm{Name: "SHA512-RSA", Oid: oid.SHA512WithRSAEnc, Digest: DigestSHA512})
	SigSHA256WithECDSA = registerSig(SignatureAlgorithm{Name: "SHA256-ECDSA", Oid: oid.ECDSAWithSHA256, Digest: DigestSHA256})
	SigSHA384WithECDSA = registerSig(SignatureAlgorithm{Name: "SHA384-ECDSA", Oid: oid.ECDSAWithSHA384, Digest: DigestSHA384})
	SigSHA512WithECDSA = registerSig(SignatureAlgorithm{Name: "SHA512-ECDSA", Oid: oid.ECDSAWithSHA512, Digest: DigestSHA512})

	SigGost256 = registerSig(SignatureAlgorithm{Name: "GOST3410-2012-256", Oid: oid.GostSignWithDigest256, Digest: DigestGost256})
	SigGost512 = registerSig(SignatureAlgorithm{Name: "GOST3410-2012-512", Oid: oid.GostSignWithDigest512, Digest: DigestGost512})
)

// DigestByOid resolves a digestAlgorithm AlgorithmIdentifier's OID to a
// DigestAlgorithm.
func DigestByOid(o asn1.Oid) (DigestAlgorithm, error) {
	d, ok := digestsByOid[o.String()]
	if !ok {
		return DigestAlgorithm{}, jarsignerr.New(jarsignerr.AlgorithmUnavailable, fmt.Errorf("unknown digest algorithm OID %s", o))
	}
	return d, nil
}

// SignatureByOid resolves a signatureAlgorithm AlgorithmIdentifier's OID to
// a SignatureAlgorithm.
func SignatureByOid(o asn1.Oid) (SignatureAlgorithm, error) {
	s, ok := sigsByOid[o.String()]
	if !ok {
		return SignatureAlgorithm{}, jarsignerr.New(jarsignerr.AlgorithmUnavailable, fmt.Errorf("unknown signature algorithm OID %s", o))
	}
	return s, nil
}

// algorithmIdentifier builds the AlgorithmIdentifier SEQUENCE { algorithm
// OBJECT IDENTIFIER, parameters ANY DEFINED BY algorithm OPTIONAL }. When
// withNullParams is set it carries a NULL parameters field, the common
// convention for RSA/hash AlgorithmIdentifiers; otherwise parameters is
// omitted.
func algorithmIdentifier(o asn1.Oid, withNullParams bool) *asn1.Value {
	members := []*asn1.Value{asn1.MustOid(o...)}
	if withNullParams {
		members = append(members, asn1.NewNull())
	}
	return asn1.NewSequence(members...)
}
