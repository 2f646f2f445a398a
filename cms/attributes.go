// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package cms

import (
	"bytes"
	"sort"
	"time"

	"github.com/jarsign/jarsign/asn1"
	"github.com/jarsign/jarsign/asn1/oid"
)

// Attribute is a PKCS#9 Attribute: SEQUENCE { type OBJECT IDENTIFIER,
// values SET OF ANY }. CMS only ever uses a single value per attribute in
// practice, but the wire format always carries a SET.
type Attribute struct {
	Type   asn1.Oid
	Values []*asn1.Value
}

// NewAttribute constructs a single-valued attribute, the only shape this
// module ever produces.
func NewAttribute(t asn1.Oid, value *asn1.Value) Attribute {
	return Attribute{Type: t, Values: []*asn1.Value{value}}
}

func (a Attribute) asn1Value() *asn1.Value {
	return asn1.NewSequence(asn1.MustOid(a.Type...), asn1.NewSetOf(func() *asn1.Value { return nil }, a.Values...))
}

// Attributes is an ordered set of Attributes, keyed by OID. Lookups by OID
// are case of the common "does this attribute exist" / "get its single
// value" query; the signed/unsigned attribute SET itself preserves
// insertion order until DER-encoded, at which point Marshal sorts it.
type Attributes struct {
	list []Attribute
}

// Add appends an attribute. Per RFC 5652 §5.3, each attribute type must
// appear at most once in a signed-attributes SET; callers are responsible
// for not adding the same type twice.
func (a *Attributes) Add(attr Attribute) { a.list = append(a.list, attr) }

// Get returns the first attribute with the given type, if present.
func (a *Attributes) Get(t asn1.Oid) (Attribute, bool) {
	for _, attr := range a.list {
		if attr.Type.Equal(t) {
			return attr, true
		}
	}
	return Attribute{}, false
}

// List returns the attributes in insertion order.
func (a *Attributes) List() []Attribute { return a.list }

// Len reports the number of attributes.
func (a *Attributes) Len() int { return len(a.list) }

// ContentTypeAttribute/MessageDigestAttribute/SigningTimeAttribute build
// the three PKCS#9 attributes a JAR/TSA signature carries.

func ContentTypeAttribute(contentType asn1.Oid) Attribute {
	return NewAttribute(oid.ContentType, asn1.MustOid(contentType...))
}

func MessageDigestAttribute(digest []byte) Attribute {
	v, _ := asn1.NewOctetString(digest)
	return NewAttribute(oid.MessageDigest, v)
}

func SigningTimeAttribute(t time.Time) Attribute {
	return NewAttribute(oid.SigningTime, asn1.NewTime(asn1.TimeUTC, t))
}

// MarshalSignedAttributes renders the SET OF Attribute in DER-SET order:
// each attribute encoded independently, then the encodings sorted
// ascending by their full TLV octets, per X.690 §11.6 and RFC 5652 §5.4's
// requirement that the signature cover the DER re-encoding, not whatever
// order the attributes happened to arrive on the wire in.
//
// forWire carries the [0] IMPLICIT tag signedAttrs uses in a SignerInfo (a
// caller encoding unsignedAttrs retags it to [1]), but the bytes actually
// hashed for the signature use the UNTAGGED SET tag (0x31), per RFC 5652
// §5.4 — so this returns both forms.
func (a *Attributes) MarshalSignedAttributes() (forSigning []byte, forWire []byte, err error) {
	encoded := make([][]byte, len(a.list))
	for i, attr := range a.list {
		b, err := asn1.Encode(attr.asn1Value())
		if err != nil {
			return nil, nil, err
		}
		encoded[i] = b
	}
	sort.Slice(encoded, func(i, j int) bool { return bytes.Compare(encoded[i], encoded[j]) < 0 })

	var content []byte
	for _, b := range encoded {
		content = append(content, b...)
	}

	forSigning = tlv(0x31, content) // UNIVERSAL SET, constructed
	forWire = tlv(0xa0, content)    // [0] IMPLICIT, constructed
	return forSigning, forWire, nil
}

// tlv builds one TLV with a raw single-byte identifier octet (this module
// never needs a high-tag-number identifier here) and DER length.
func tlv(identifier byte, content []byte) []byte {
	out := []byte{identifier}
	out = appendDERLength(out, len(content))
	return append(out, content...)
}

func appendDERLength(dst []byte, n int) []byte {
	if n < 0x80 {
		return append(dst, byte(n))
	}
	var enc []byte
	for v := n; v > 0; v >>= 8 {
		enc = append([]byte{byte(v)}, enc...)
	}
	return append(append(dst, 0x80|byte(len(enc))), enc...)
}
