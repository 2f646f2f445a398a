// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package asn1

import "math/big"

// Clone returns a deep copy of v: mutating the clone never affects v. The
// one exception is the constraint chain, which is shared by reference
// between v and its clone, since constraints are immutable once attached.
func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	c := &Value{
		kind:     v.kind,
		class:    v.class,
		tag:      v.tag,
		explicit: v.explicit,
		optional: v.optional,
		cons:     v.cons,
		boolean:  v.boolean,
	}
	if v.integer != nil {
		c.integer = new(big.Int).Set(v.integer)
	}
	c.bitString = BitString{Bytes: append([]byte(nil), v.bitString.Bytes...), Unused: v.bitString.Unused}
	c.octetStr = append([]byte(nil), v.octetStr...)
	c.oid = append(Oid(nil), v.oid...)
	c.real = v.real
	c.enumerated = cloneEnumerated(v.enumerated)
	c.str = v.str
	c.time = v.time

	if v.seq != nil {
		c.seq = make([]*Value, len(v.seq))
		for i, m := range v.seq {
			c.seq[i] = m.Clone()
		}
	}
	if v.set != nil {
		c.set = make([]*Value, len(v.set))
		for i, m := range v.set {
			c.set[i] = m.Clone()
		}
	}
	if v.collOf != nil {
		elements := make([]*Value, len(v.collOf.Elements))
		for i, e := range v.collOf.Elements {
			elements[i] = e.Clone()
		}
		c.collOf = &CollectionOf{ElementFactory: v.collOf.ElementFactory, Elements: elements}
	}
	if v.tagged != nil {
		c.tagged = &Tagged{Tag: v.tagged.Tag, Class: v.tagged.Class, Explicit: v.tagged.Explicit, Inner: v.tagged.Inner.Clone()}
	}
	if v.opaque != nil {
		c.opaque = &Opaque{Tag: v.opaque.Tag, Class: v.opaque.Class, Constructed: v.opaque.Constructed, Raw: append([]byte(nil), v.opaque.Raw...)}
	}
	if v.openType != nil {
		c.openType = &OpenType{Governing: v.openType.Governing, Resolver: v.openType.Resolver, Inner: v.openType.Inner.Clone(), Raw: append([]byte(nil), v.openType.Raw...)}
	}
	if v.choice != nil {
		alts := make([]*Value, len(v.choice.Alternatives))
		for i, a := range v.choice.Alternatives {
			alts[i] = a.Clone()
		}
		c.choice = &Choice{Alternatives: alts, Selected: v.choice.Selected}
	}
	return c
}

func cloneEnumerated(e Enumerated) Enumerated {
	out := Enumerated{}
	if e.Value != nil {
		out.Value = new(big.Int).Set(e.Value)
	}
	for _, a := range e.Allowed {
		out.Allowed = append(out.Allowed, new(big.Int).Set(a))
	}
	return out
}
