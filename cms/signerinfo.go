// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package cms

import (
	"fmt"
	"math/big"

	"github.com/jarsign/jarsign/asn1"
	"github.com/jarsign/jarsign/asn1/oid"
	"github.com/jarsign/jarsign/jarsignerr"
)

// IssuerAndSerialNumber identifies a signer's certificate by its issuer DN
// (carried as the certificate's raw DER Name, compared byte for byte) and
// serial number, the SignerIdentifier form this module always produces and
// the only one it parses — CMS's subjectKeyIdentifier alternative is not
// used by jarsigner-equivalent tooling.
type IssuerAndSerialNumber struct {
	IssuerRaw    []byte // raw DER encoding of the issuer Name
	SerialNumber *big.Int
}

// SignerInfo is RFC 5652 §5.3's SignerInfo.
type SignerInfo struct {
	Version            int
	Sid                IssuerAndSerialNumber
	DigestAlgorithm    DigestAlgorithm
	SignedAttrs        *Attributes
	SignatureAlgorithm SignatureAlgorithm
	Signature          []byte
	UnsignedAttrs      *Attributes
}

func (si SignerInfo) marshalValue() (*asn1.Value, error) {
	members := []*asn1.Value{
		asn1.NewIntegerInt64(int64(si.Version)),
		asn1.NewSequence(asn1.NewVerbatimTLV(si.Sid.IssuerRaw), asn1.NewInteger(si.Sid.SerialNumber)),
		algorithmIdentifier(si.DigestAlgorithm.Oid, true),
	}
	if si.SignedAttrs != nil && si.SignedAttrs.Len() > 0 {
		_, forWire, err := si.SignedAttrs.MarshalSignedAttributes()
		if err != nil {
			return nil, err
		}
		members = append(members, asn1.NewVerbatimTLV(forWire))
	}
	members = append(members, algorithmIdentifier(si.SignatureAlgorithm.Oid, signatureAlgNeedsNullParams(si.SignatureAlgorithm)))
	sigOctets, _ := asn1.NewOctetString(si.Signature)
	members = append(members, sigOctets)
	if si.UnsignedAttrs != nil && si.UnsignedAttrs.Len() > 0 {
		_, forWire, err := si.UnsignedAttrs.MarshalSignedAttributes()
		if err != nil {
			return nil, err
		}
		// unsignedAttrs uses [1] IMPLICIT, not [0]; MarshalSignedAttributes
		// always tags [0], so flip the single identifier octet's tag number.
		forWire = append([]byte(nil), forWire...)
		forWire[0] = (forWire[0] &^ 0x1f) | 0x01
		members = append(members, asn1.NewVerbatimTLV(forWire))
	}
	return asn1.NewSequence(members...), nil
}

// signatureAlgNeedsNullParams reports whether to attach a NULL parameters
// field to the signatureAlgorithm identifier. RSA-family signatures do by
// convention; ECDSA and GOST signatures omit parameters entirely.
func signatureAlgNeedsNullParams(alg SignatureAlgorithm) bool {
	switch alg.Oid.String() {
	case oid.SHA256WithRSAEnc.String(), oid.SHA384WithRSAEnc.String(), oid.SHA512WithRSAEnc.String():
		return true
	}
	return false
}

func parseSignerInfo(raw []byte) (SignerInfo, error) {
	members, err := splitUnwrapped(raw, asn1.ClassUniversal, asn1.TagSequence)
	if err != nil {
		return SignerInfo{}, err
	}
	if len(members) < 5 {
		return SignerInfo{}, jarsignerr.New(jarsignerr.InvalidEncoding, fmt.Errorf("SignerInfo has %d members, want at least 5", len(members)))
	}

	versionVal, _, err := asn1.DecodeBER(members[0])
	if err != nil {
		return SignerInfo{}, jarsignerr.New(jarsignerr.InvalidEncoding, err)
	}
	si := SignerInfo{Version: int(versionVal.Int().Int64())}

	sidMembers, err := splitUnwrapped(members[1], asn1.ClassUniversal, asn1.TagSequence)
	if err != nil {
		return SignerInfo{}, err
	}
	if len(sidMembers) != 2 {
		return SignerInfo{}, jarsignerr.New(jarsignerr.InvalidEncoding, fmt.Errorf("IssuerAndSerialNumber has %d members, want 2", len(sidMembers)))
	}
	serialVal, _, err := asn1.DecodeBER(sidMembers[1])
	if err != nil {
		return SignerInfo{}, jarsignerr.New(jarsignerr.InvalidEncoding, err)
	}
	si.Sid = IssuerAndSerialNumber{IssuerRaw: sidMembers[0], SerialNumber: serialVal.Int()}

	digAlgMembers, err := splitUnwrapped(members[2], asn1.ClassUniversal, asn1.TagSequence)
	if err != nil {
		return SignerInfo{}, err
	}
	digOidVal, _, err := asn1.DecodeBER(digAlgMembers[0])
	if err != nil {
		return SignerInfo{}, jarsignerr.New(jarsignerr.InvalidEncoding, err)
	}
	si.DigestAlgorithm, err = DigestByOid(digOidVal.Oid())
	if err != nil {
		return SignerInfo{}, err
	}

	idx := 3
	if idx < len(members) && hasClassTag(members[idx], asn1.ClassContext, 0) {
		attrRaws, err := splitUnwrapped(members[idx], asn1.ClassContext, 0)
		if err != nil {
			return SignerInfo{}, err
		}
		si.SignedAttrs, err = parseAttributeList(attrRaws)
		if err != nil {
			return SignerInfo{}, err
		}
		idx++
	}

	sigAlgMembers, err := splitUnwrapped(members[idx], asn1.ClassUniversal, asn1.TagSequence)
	if err != nil {
		return SignerInfo{}, err
	}
	sigOidVal, _, err := asn1.DecodeBER(sigAlgMembers[0])
	if err != nil {
		return SignerInfo{}, jarsignerr.New(jarsignerr.InvalidEncoding, err)
	}
	si.SignatureAlgorithm, err = SignatureByOid(sigOidVal.Oid())
	if err != nil {
		return SignerInfo{}, err
	}
	idx++

	if idx >= len(members) {
		return SignerInfo{}, jarsignerr.New(jarsignerr.InvalidEncoding, fmt.Errorf("SignerInfo missing signature"))
	}
	sigVal, _, err := asn1.DecodeBER(members[idx])
	if err != nil {
		return SignerInfo{}, jarsignerr.New(jarsignerr.InvalidEncoding, err)
	}
	si.Signature = sigVal.OctetString()
	idx++

	if idx < len(members) && hasClassTag(members[idx], asn1.ClassContext, 1) {
		attrRaws, err := splitUnwrapped(members[idx], asn1.ClassContext, 1)
		if err != nil {
			return SignerInfo{}, err
		}
		si.UnsignedAttrs, err = parseAttributeList(attrRaws)
		if err != nil {
			return SignerInfo{}, err
		}
	}

	return si, nil
}

func parseAttributeList(attrRaws [][]byte) (*Attributes, error) {
	a := &Attributes{}
	for _, raw := range attrRaws {
		members, err := splitUnwrapped(raw, asn1.ClassUniversal, asn1.TagSequence)
		if err != nil {
			return nil, err
		}
		if len(members) != 2 {
			return nil, jarsignerr.New(jarsignerr.AttributeInvalid, fmt.Errorf("Attribute has %d members, want 2", len(members)))
		}
		typeVal, _, err := asn1.DecodeBER(members[0])
		if err != nil {
			return nil, jarsignerr.New(jarsignerr.InvalidEncoding, err)
		}
		valueRaws, err := splitUnwrapped(members[1], asn1.ClassUniversal, asn1.TagSet)
		if err != nil {
			return nil, err
		}
		values := make([]*asn1.Value, len(valueRaws))
		for i, vr := range valueRaws {
			v, _, err := asn1.DecodeBER(vr)
			if err != nil {
				return nil, jarsignerr.New(jarsignerr.InvalidEncoding, err)
			}
			values[i] = v
		}
		a.Add(Attribute{Type: typeVal.Oid(), Values: values})
	}
	return a, nil
}
