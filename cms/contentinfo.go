// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package cms

import (
	"fmt"

	"github.com/jarsign/jarsign/asn1"
	"github.com/jarsign/jarsign/asn1/oid"
	"github.com/jarsign/jarsign/jarsignerr"
)

// ContentInfo is PKCS#7/CMS's outermost envelope: SEQUENCE { contentType
// OBJECT IDENTIFIER, content [0] EXPLICIT ANY DEFINED BY contentType
// OPTIONAL }.
type ContentInfo struct {
	ContentType asn1.Oid
	// Content holds the raw encoding of the inner value (a SignedData
	// SEQUENCE, …), already unwrapped from its [0] EXPLICIT tag.
	Content []byte
}

// Marshal renders ci as a DER ContentInfo.
func (ci ContentInfo) Marshal() ([]byte, error) {
	members := []*asn1.Value{asn1.MustOid(ci.ContentType...)}
	if ci.Content != nil {
		members = append(members, asn1.NewTagged(asn1.ClassContext, 0, true, asn1.NewVerbatimTLV(ci.Content)))
	}
	return asn1.Encode(asn1.NewSequence(members...))
}

// ParseContentInfo decodes a BER or DER ContentInfo. BER is accepted since
// third-party signers and TSAs are not guaranteed to emit DER.
func ParseContentInfo(data []byte) (ContentInfo, []byte, error) {
	class, constructed, tag, seqContent, n, err := asn1.ReadTLV(data, true)
	if err != nil {
		return ContentInfo{}, nil, jarsignerr.New(jarsignerr.InvalidEncoding, err)
	}
	if class != asn1.ClassUniversal || tag != asn1.TagSequence || !constructed {
		return ContentInfo{}, nil, jarsignerr.New(jarsignerr.InvalidEncoding, fmt.Errorf("ContentInfo is not a SEQUENCE"))
	}
	rest := data[n:]

	typeVal, after, err := asn1.DecodeBER(seqContent)
	if err != nil {
		return ContentInfo{}, nil, jarsignerr.New(jarsignerr.InvalidEncoding, err)
	}
	ci := ContentInfo{ContentType: typeVal.Oid()}
	if len(after) > 0 {
		_, _, _, wrapped, _, err := asn1.ReadTLV(after, true)
		if err != nil {
			return ContentInfo{}, nil, jarsignerr.New(jarsignerr.InvalidEncoding, err)
		}
		ci.Content = wrapped
	}
	return ci, rest, nil
}

// SignedDataContentInfo wraps a SignedData in a ContentInfo with
// contentType signedData, the shape a .DSA/.RSA JAR signature block and an
// RFC 3161 timestamp token both use.
func SignedDataContentInfo(sd *SignedData) (ContentInfo, error) {
	content, err := sd.Marshal()
	if err != nil {
		return ContentInfo{}, err
	}
	return ContentInfo{ContentType: oid.SignedData, Content: content}, nil
}

// SignedData decodes ci.Content as a SignedData, failing if ContentType
// isn't signedData.
func (ci ContentInfo) SignedData() (*SignedData, error) {
	if !ci.ContentType.Equal(oid.SignedData) {
		return nil, jarsignerr.New(jarsignerr.InvalidEncoding, fmt.Errorf("ContentInfo contentType is %s, not signedData", ci.ContentType))
	}
	return ParseSignedData(ci.Content)
}
