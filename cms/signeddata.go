// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package cms

import (
	"crypto/x509"
	"fmt"

	"github.com/jarsign/jarsign/asn1"
	"github.com/jarsign/jarsign/jarsignerr"
)

// SignedData is RFC 5652 §5.1's SignedData: SEQUENCE { version,
// digestAlgorithms SET OF DigestAlgorithmIdentifier, encapContentInfo
// EncapsulatedContentInfo, certificates [0] IMPLICIT CertificateSet
// OPTIONAL, crls [1] IMPLICIT CertificateRevocationLists OPTIONAL,
// signerInfos SET OF SignerInfo }.
type SignedData struct {
	Version          int
	DigestAlgorithms []DigestAlgorithm
	ContentType      asn1.Oid
	// EContent is the encapsulated content octets. Nil for the "detached
	// signature" case JAR signing always uses: the manifest digest is
	// covered by the signed attributes, not by re-embedding the whole
	// manifest in the signature block.
	EContent     []byte
	Certificates []*x509.Certificate
	SignerInfos  []SignerInfo
}

func (sd *SignedData) marshalValue() (*asn1.Value, error) {
	digAlgs := make([]*asn1.Value, len(sd.DigestAlgorithms))
	for i, d := range sd.DigestAlgorithms {
		digAlgs[i] = algorithmIdentifier(d.Oid, true)
	}

	eci := []*asn1.Value{asn1.MustOid(sd.ContentType...)}
	if sd.EContent != nil {
		octets, _ := asn1.NewOctetString(sd.EContent)
		eci = append(eci, asn1.NewTagged(asn1.ClassContext, 0, true, octets))
	}

	members := []*asn1.Value{
		asn1.NewIntegerInt64(int64(sd.Version)),
		asn1.NewSetOf(func() *asn1.Value { return nil }, digAlgs...),
		asn1.NewSequence(eci...),
	}

	if len(sd.Certificates) > 0 {
		certs := make([]*asn1.Value, len(sd.Certificates))
		for i, c := range sd.Certificates {
			certs[i] = asn1.NewVerbatimTLV(c.Raw)
		}
		members = append(members, asn1.NewTagged(asn1.ClassContext, 0, false, asn1.NewSetOf(func() *asn1.Value { return nil }, certs...)))
	}

	sis := make([]*asn1.Value, len(sd.SignerInfos))
	for i, si := range sd.SignerInfos {
		v, err := si.marshalValue()
		if err != nil {
			return nil, err
		}
		sis[i] = v
	}
	members = append(members, asn1.NewSetOf(func() *asn1.Value { return nil }, sis...))

	return asn1.NewSequence(members...), nil
}

// Marshal renders sd as the inner SignedData SEQUENCE (not wrapped in a
// ContentInfo); use SignedDataContentInfo to get the full wire form.
func (sd *SignedData) Marshal() ([]byte, error) {
	v, err := sd.marshalValue()
	if err != nil {
		return nil, err
	}
	return asn1.Encode(v)
}

// ParseSignedData decodes a SignedData SEQUENCE's raw encoding, typically
// obtained from a ContentInfo's Content field.
func ParseSignedData(data []byte) (*SignedData, error) {
	class, constructed, tag, content, _, err := asn1.ReadTLV(data, true)
	if err != nil {
		return nil, jarsignerr.New(jarsignerr.InvalidEncoding, err)
	}
	if class != asn1.ClassUniversal || tag != asn1.TagSequence || !constructed {
		return nil, jarsignerr.New(jarsignerr.InvalidEncoding, fmt.Errorf("SignedData is not a SEQUENCE"))
	}

	raws, err := asn1.SplitTLVs(content, true)
	if err != nil {
		return nil, jarsignerr.New(jarsignerr.InvalidEncoding, err)
	}
	if len(raws) < 4 {
		return nil, jarsignerr.New(jarsignerr.InvalidEncoding, fmt.Errorf("SignedData has %d members, want at least 4", len(raws)))
	}

	versionVal, _, err := asn1.DecodeBER(raws[0])
	if err != nil {
		return nil, jarsignerr.New(jarsignerr.InvalidEncoding, err)
	}
	sd := &SignedData{Version: int(versionVal.Int().Int64())}

	digAlgRaws, err := splitUnwrapped(raws[1], asn1.ClassUniversal, asn1.TagSet)
	if err != nil {
		return nil, err
	}
	for _, algRaw := range digAlgRaws {
		algSeq, err := splitUnwrapped(algRaw, asn1.ClassUniversal, asn1.TagSequence)
		if err != nil {
			return nil, err
		}
		if len(algSeq) == 0 {
			return nil, jarsignerr.New(jarsignerr.InvalidEncoding, fmt.Errorf("empty DigestAlgorithmIdentifier"))
		}
		oidVal, _, err := asn1.DecodeBER(algSeq[0])
		if err != nil {
			return nil, jarsignerr.New(jarsignerr.InvalidEncoding, err)
		}
		d, err := DigestByOid(oidVal.Oid())
		if err != nil {
			return nil, err
		}
		sd.DigestAlgorithms = append(sd.DigestAlgorithms, d)
	}

	eciMembers, err := splitUnwrapped(raws[2], asn1.ClassUniversal, asn1.TagSequence)
	if err != nil {
		return nil, err
	}
	if len(eciMembers) == 0 {
		return nil, jarsignerr.New(jarsignerr.InvalidEncoding, fmt.Errorf("empty EncapsulatedContentInfo"))
	}
	ctVal, _, err := asn1.DecodeBER(eciMembers[0])
	if err != nil {
		return nil, jarsignerr.New(jarsignerr.InvalidEncoding, err)
	}
	sd.ContentType = ctVal.Oid()
	if len(eciMembers) > 1 {
		_, _, _, octetContent, _, err := asn1.ReadTLV(eciMembers[1], true)
		if err != nil {
			return nil, jarsignerr.New(jarsignerr.InvalidEncoding, err)
		}
		octetVal, _, err := asn1.DecodeBER(octetContent)
		if err != nil {
			return nil, jarsignerr.New(jarsignerr.InvalidEncoding, err)
		}
		sd.EContent = octetVal.OctetString()
	}

	idx := 3
	if idx < len(raws) && hasClassTag(raws[idx], asn1.ClassContext, 0) {
		certRaws, err := splitUnwrapped(raws[idx], asn1.ClassContext, 0)
		if err != nil {
			return nil, err
		}
		for _, cr := range certRaws {
			cert, err := x509.ParseCertificate(cr)
			if err != nil {
				return nil, jarsignerr.New(jarsignerr.CertPathInvalid, err)
			}
			sd.Certificates = append(sd.Certificates, cert)
		}
		idx++
	}
	if idx < len(raws) && hasClassTag(raws[idx], asn1.ClassContext, 1) {
		idx++ // CRLs: recognized but not modeled, per the data model's scope
	}
	if idx >= len(raws) {
		return nil, jarsignerr.New(jarsignerr.InvalidEncoding, fmt.Errorf("SignedData missing signerInfos"))
	}
	siRaws, err := splitUnwrapped(raws[idx], asn1.ClassUniversal, asn1.TagSet)
	if err != nil {
		return nil, err
	}
	for _, siRaw := range siRaws {
		si, err := parseSignerInfo(siRaw)
		if err != nil {
			return nil, err
		}
		sd.SignerInfos = append(sd.SignerInfos, si)
	}
	return sd, nil
}

// hasClassTag reports whether raw's identifier octet carries the given
// class and tag number, without fully decoding it.
func hasClassTag(raw []byte, class asn1.Class, tag int) bool {
	c, _, t, _, _, err := asn1.ReadTLV(raw, true)
	return err == nil && c == class && t == tag
}

// splitUnwrapped reads one TLV expected to carry the given class/tag and
// splits its content into the raw encodings of its members.
func splitUnwrapped(raw []byte, wantClass asn1.Class, wantTag int) ([][]byte, error) {
	class, _, tag, content, _, err := asn1.ReadTLV(raw, true)
	if err != nil {
		return nil, jarsignerr.New(jarsignerr.InvalidEncoding, err)
	}
	if class != wantClass || tag != wantTag {
		return nil, jarsignerr.New(jarsignerr.InvalidEncoding, fmt.Errorf("expected class=%d tag=%d, got class=%d tag=%d", wantClass, wantTag, class, tag))
	}
	return asn1.SplitTLVs(content, true)
}
