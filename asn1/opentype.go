// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package asn1

// Resolver picks the template to decode an open type's content with, given
// the governing field's value (e.g. a PKCS#9 attribute's type OID, or a
// SignerInfo's digestAlgorithm OID). This is how ANY DEFINED BY constructs
// such as a CMS Attribute's AttributeValue are decoded without a closed
// Go type switch baked into the codec itself.
type Resolver interface {
	Resolve(governingValue *Value) (*Value, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(governingValue *Value) (*Value, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(governingValue *Value) (*Value, error) { return f(governingValue) }

// OpenType is the payload of a KindOpenType Value.
type OpenType struct {
	Governing *Value
	Resolver  Resolver
	// Inner holds the resolved value once decoding has picked a template,
	// or the value to encode when building one programmatically. Raw holds
	// the content octets when no Resolver could be applied (e.g. during a
	// first decode pass before the governing value is known).
	Inner *Value
	Raw   []byte
}

// NewOpenType constructs an open-type value wrapping an already-resolved
// inner value, for encoding.
func NewOpenType(inner *Value) *Value {
	return &Value{kind: KindOpenType, explicit: true, openType: &OpenType{Inner: inner}}
}

// OpenType returns the OpenType payload. Panics if Kind() != KindOpenType.
func (v *Value) OpenType() *OpenType {
	v.mustBe(KindOpenType)
	return v.openType
}
