// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package asn1

// Opaque is the payload of a KindOpaque Value: a fully-formed TLV whose
// content octets are carried verbatim without being parsed into a typed
// payload. Used for fields this module re-transmits without understanding
// (an unrecognized attribute value, an extension it doesn't model) and for
// the EncapsulatedContentInfo eContent, which must round-trip byte for
// byte even though its content type is not statically known.
type Opaque struct {
	Tag   int
	Class Class
	// Constructed records whether the original encoding used the
	// constructed bit; BER allows primitive-looking types to be re-encoded
	// as constructed (OCTET STRING reassembly) and this module must
	// preserve that when re-emitting unchanged input.
	Constructed bool
	// FullTLV, when true, means Raw already holds a complete identifier +
	// length + content encoding (e.g. an X.509 certificate's raw DER) to be
	// re-emitted byte for byte; Tag/Class/Constructed are then unused.
	FullTLV bool
	Raw     []byte // content octets only, unless FullTLV
}

// NewOpaque constructs an opaque value carrying raw content octets under
// the given tag and class.
func NewOpaque(class Class, tag int, raw []byte) *Value {
	b := append([]byte(nil), raw...)
	return &Value{kind: KindOpaque, explicit: true, opaque: &Opaque{Tag: tag, Class: class, Raw: b}}
}

// NewVerbatimTLV wraps an already fully-encoded TLV (identifier, length and
// content octets) so it can be embedded as a SEQUENCE/SET member and
// re-emitted unchanged — used for certificates, which this module carries
// as opaque DER blobs rather than re-encoding through crypto/x509.
func NewVerbatimTLV(raw []byte) *Value {
	b := append([]byte(nil), raw...)
	return &Value{kind: KindOpaque, explicit: true, opaque: &Opaque{FullTLV: true, Raw: b}}
}

// Opaque returns the Opaque payload. Panics if Kind() != KindOpaque.
func (v *Value) Opaque() *Opaque {
	v.mustBe(KindOpaque)
	return v.opaque
}
