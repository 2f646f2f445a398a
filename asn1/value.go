// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

// Package asn1 implements an ASN.1 value model and a DER/BER codec.
//
// Unlike encoding/asn1, this package models every supported type as an
// explicit Value (a tagged sum over BOOLEAN, INTEGER, BITSTRING,
// OCTETSTRING, NULL, OID, REAL, ENUMERATED, the string types, UTCTime,
// GeneralizedTime, SEQUENCE/SET and their OF variants, tagged types, opaque
// types, open types and CHOICE) rather than reflecting over Go struct tags.
// That buys three things a struct-tag codec can't give a code-signing
// engine: a BER decoder that tolerates indefinite length and constructed
// string reassembly, a template-driven decode mode for CHOICE and OPTIONAL
// that doesn't rely on exceptions for control flow, and an input-byte
// budget enforced before any allocation.
package asn1

import "math/big"

// Class is the tag-class field of an identifier octet.
type Class uint8

const (
	ClassUniversal Class = iota
	ClassApplication
	ClassContext
	ClassPrivate
)

// Value is a single ASN.1 value: a tagged sum over every supported type,
// plus the tagging metadata (class, EXPLICIT/IMPLICIT, OPTIONAL) and
// constraint chain every value carries per the data model.
type Value struct {
	kind     Kind
	class    Class
	tag      int // not read by Tag(): a Tagged value's tag lives in its Tagged payload; universal kinds derive their tag from kind
	explicit bool
	optional bool
	cons     *constraintChain

	boolean    bool
	integer    *big.Int
	bitString  BitString
	octetStr   []byte
	oid        Oid
	real       Real
	enumerated Enumerated
	str        Str
	time       Time
	seq        []*Value
	set        []*Value
	collOf     *CollectionOf
	tagged     *Tagged
	opaque     *Opaque
	openType   *OpenType
	choice     *Choice

	lenValid bool
	lenCache int
}

// Kind returns the variant this Value holds.
func (v *Value) Kind() Kind { return v.kind }

// Class returns the tag class.
func (v *Value) Class() Class { return v.class }

// Explicit reports whether this value's tagging mode is EXPLICIT. Defaults
// to true, per the data model.
func (v *Value) Explicit() bool { return v.explicit }

// Optional reports whether this value may be absent from its enclosing
// SEQUENCE/SET.
func (v *Value) Optional() bool { return v.optional }

// SetClass sets the tag class and invalidates any cached length.
func (v *Value) SetClass(c Class) *Value {
	v.class = c
	v.invalidate()
	return v
}

// SetExplicit sets the EXPLICIT/IMPLICIT tagging mode and invalidates any
// cached length.
func (v *Value) SetExplicit(explicit bool) *Value {
	v.explicit = explicit
	v.invalidate()
	return v
}

// SetOptional marks this value as OPTIONAL within its enclosing collection.
func (v *Value) SetOptional(optional bool) *Value {
	v.optional = optional
	return v
}

// Constrain attaches a constraint to this value's constraint chain. Chains
// are shared by reference across Clone, per the data model's lifecycle
// note.
func (v *Value) Constrain(c Constraint) *Value {
	v.cons = v.cons.append(c)
	return v
}

// CheckConstraints runs every attached constraint against this value.
func (v *Value) CheckConstraints() error {
	return v.cons.check(v)
}

// Tag returns the effective tag number used on the wire: the universal tag
// for kinds that have one, the configured sub-tag for String/Time values,
// or the outer tag for a Tagged value.
func (v *Value) Tag() int {
	switch v.kind {
	case KindString:
		return v.str.Kind.tag()
	case KindTime:
		return v.time.Kind.tag()
	case KindTagged:
		return v.tagged.Tag
	case KindOpaque:
		return v.opaque.Tag
	case KindChoice:
		if alt := v.choice.selectedValue(); alt != nil {
			return alt.Tag()
		}
		return 0
	case KindOpenType:
		if v.openType.Inner != nil {
			return v.openType.Inner.Tag()
		}
		return 0
	}
	t, _ := universalTag(v.kind, 0)
	return t
}

// EffectiveClass returns the wire class, accounting for Tagged/Opaque
// overriding the class and Choice/OpenType delegating to their inner value.
func (v *Value) EffectiveClass() Class {
	switch v.kind {
	case KindTagged:
		return v.tagged.Class
	case KindOpaque:
		return v.opaque.Class
	case KindChoice:
		if alt := v.choice.selectedValue(); alt != nil {
			return alt.EffectiveClass()
		}
		return ClassUniversal
	case KindOpenType:
		if v.openType.Inner != nil {
			return v.openType.Inner.EffectiveClass()
		}
		return ClassUniversal
	}
	return v.class
}

func (v *Value) invalidate() {
	v.lenValid = false
}

// --- scalar constructors ---

// NewBoolean constructs a BOOLEAN value.
func NewBoolean(b bool) *Value {
	return &Value{kind: KindBoolean, explicit: true, boolean: b}
}

// Bool returns the BOOLEAN value. Panics if Kind() != KindBoolean.
func (v *Value) Bool() bool {
	v.mustBe(KindBoolean)
	return v.boolean
}

// NewInteger constructs an INTEGER value from a big.Int. The big.Int is not
// retained; callers may reuse it.
func NewInteger(i *big.Int) *Value {
	return &Value{kind: KindInteger, explicit: true, integer: new(big.Int).Set(i)}
}

// NewIntegerInt64 constructs an INTEGER value from an int64.
func NewIntegerInt64(i int64) *Value {
	return &Value{kind: KindInteger, explicit: true, integer: big.NewInt(i)}
}

// Int returns the INTEGER value. Panics if Kind() != KindInteger.
func (v *Value) Int() *big.Int {
	v.mustBe(KindInteger)
	return new(big.Int).Set(v.integer)
}

// NewNull constructs a NULL value.
func NewNull() *Value {
	return &Value{kind: KindNull, explicit: true}
}

// NewOctetString constructs an OCTET STRING value. b is copied; callers may
// reuse it.
func NewOctetString(b []byte) (*Value, error) {
	return &Value{kind: KindOctetString, explicit: true, octetStr: append([]byte(nil), b...)}, nil
}

// OctetString returns the OCTET STRING payload. Panics if Kind() != KindOctetString.
func (v *Value) OctetString() []byte {
	v.mustBe(KindOctetString)
	return append([]byte(nil), v.octetStr...)
}

// mustBe panics with a description naming the expected and actual Kind; this
// mirrors Go's own panic-on-wrong-type-assertion behavior and is only ever
// tripped by a caller bug, not by untrusted input.
func (v *Value) mustBe(want Kind) {
	if v.kind != want {
		panic("asn1: wrong Kind accessed")
	}
}
