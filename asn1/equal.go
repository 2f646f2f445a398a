// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package asn1

// Equal reports structural equality: same Kind, same tagging, same
// payload. SEQUENCE/SET members and SEQUENCE OF/SET OF elements are
// compared pointwise in their stored order — a SET's members are never
// re-sorted for comparison, so two SETs that are DER-equivalent but were
// built or decoded in different member order compare unequal. Constraint
// chains are not part of the comparison.
func (v *Value) Equal(other *Value) bool {
	if v == nil || other == nil {
		return v == other
	}
	if v.kind != other.kind || v.class != other.class || v.explicit != other.explicit {
		return false
	}
	switch v.kind {
	case KindBoolean:
		return v.boolean == other.boolean
	case KindInteger:
		return v.integer.Cmp(other.integer) == 0
	case KindBitString:
		return v.bitString.Unused == other.bitString.Unused && bytesEqual(v.bitString.Bytes, other.bitString.Bytes)
	case KindOctetString:
		return bytesEqual(v.octetStr, other.octetStr)
	case KindNull:
		return true
	case KindOid:
		return v.oid.Equal(other.oid)
	case KindReal:
		return v.real.SpecialKind == other.real.SpecialKind && v.real.Value == other.real.Value
	case KindEnumerated:
		return v.enumerated.Value.Cmp(other.enumerated.Value) == 0
	case KindString:
		return v.str.Kind == other.str.Kind && v.str.Text == other.str.Text
	case KindTime:
		return v.time.Kind == other.time.Kind && v.time.Instant.Equal(other.time.Instant)
	case KindSequence:
		return equalMembers(v.seq, other.seq)
	case KindSet:
		return equalMembers(v.set, other.set)
	case KindSequenceOf, KindSetOf:
		return equalMembers(v.collOf.Elements, other.collOf.Elements)
	case KindTagged:
		return v.tagged.Tag == other.tagged.Tag && v.tagged.Class == other.tagged.Class &&
			v.tagged.Explicit == other.tagged.Explicit && v.tagged.Inner.Equal(other.tagged.Inner)
	case KindOpaque:
		return v.opaque.Tag == other.opaque.Tag && v.opaque.Class == other.opaque.Class && bytesEqual(v.opaque.Raw, other.opaque.Raw)
	case KindOpenType:
		if v.openType.Inner != nil || other.openType.Inner != nil {
			return v.openType.Inner.Equal(other.openType.Inner)
		}
		return bytesEqual(v.openType.Raw, other.openType.Raw)
	case KindChoice:
		return v.choice.Selected == other.choice.Selected && v.choice.selectedValue().Equal(other.choice.selectedValue())
	}
	return false
}

func equalMembers(a, b []*Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
