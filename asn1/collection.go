// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package asn1

import "sort"

// CollectionOf is the payload of a SequenceOf/SetOf Value: a template
// element (used only to describe the member type for decoding) plus the
// decoded or appended members in insertion order.
//
// The data model's REDESIGN FLAGS note on SEQUENCE OF/SET OF forming a
// cyclic graph with their element template (the template's "create one more
// element" operation referring back to the collection that owns it) is
// resolved here without an arena-of-values-by-index: Go's garbage collector
// already handles the cycle between a CollectionOf and the *Value elements
// it owns, so ElementFactory — a plain closure invoked by the decoder to
// produce a fresh element template for each member — is enough to avoid the
// reflective instantiation the flag actually objects to.
type CollectionOf struct {
	ElementFactory func() *Value
	Elements       []*Value
}

// NewSequence constructs a SEQUENCE from its ordered members.
func NewSequence(members ...*Value) *Value {
	return &Value{kind: KindSequence, explicit: true, seq: append([]*Value(nil), members...)}
}

// NewSet constructs a SET from its members. DER requires SET members to be
// sorted by encoded tag for encoding purposes, but the Value itself
// preserves insertion/decoded order; the encoder does the sorting.
func NewSet(members ...*Value) *Value {
	return &Value{kind: KindSet, explicit: true, set: append([]*Value(nil), members...)}
}

// NewSequenceOf constructs a SEQUENCE OF with the given elements and a
// factory used by the decoder to manufacture further elements of the same
// shape.
func NewSequenceOf(factory func() *Value, elements ...*Value) *Value {
	return &Value{kind: KindSequenceOf, explicit: true, collOf: &CollectionOf{ElementFactory: factory, Elements: append([]*Value(nil), elements...)}}
}

// NewSetOf constructs a SET OF. Per the data model, a SET OF's members are
// reordered into the decoded wire order and never re-sorted by Equal.
func NewSetOf(factory func() *Value, elements ...*Value) *Value {
	return &Value{kind: KindSetOf, explicit: true, collOf: &CollectionOf{ElementFactory: factory, Elements: append([]*Value(nil), elements...)}}
}

// Members returns the ordered members of a SEQUENCE or SET. Panics for any
// other Kind.
func (v *Value) Members() []*Value {
	switch v.kind {
	case KindSequence:
		return v.seq
	case KindSet:
		return v.set
	}
	panic("asn1: Members called on a non-collection Value")
}

// Append adds a member to a SEQUENCE or SET and invalidates any cached
// length.
func (v *Value) Append(member *Value) *Value {
	switch v.kind {
	case KindSequence:
		v.seq = append(v.seq, member)
	case KindSet:
		v.set = append(v.set, member)
	default:
		panic("asn1: Append called on a non-collection Value")
	}
	v.invalidate()
	return v
}

// CollectionOf returns the SEQUENCE OF/SET OF payload. Panics for any other
// Kind.
func (v *Value) CollectionOf() *CollectionOf {
	if v.kind != KindSequenceOf && v.kind != KindSetOf {
		panic("asn1: CollectionOf called on a non-*-OF Value")
	}
	return v.collOf
}

// AppendElement adds an element to a SEQUENCE OF/SET OF.
func (v *Value) AppendElement(el *Value) *Value {
	v.CollectionOf().Elements = append(v.collOf.Elements, el)
	v.invalidate()
	return v
}

// derSortSetMembers sorts a SET's members (or a SET OF's elements) into DER
// canonical order: ascending by their fully-encoded TLV octets.
func derSortSetMembers(encoded [][]byte) []int {
	idx := make([]int, len(encoded))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return lessBytes(encoded[idx[i]], encoded[idx[j]])
	})
	return idx
}

func lessBytes(a, b []byte) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
