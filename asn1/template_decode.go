// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package asn1

import "fmt"

// Decode parses data against template: a Value tree whose shape (Kind,
// Class, Tag, Explicit, Optional, and, for SEQUENCE/SET, the ordered list
// of expected members) describes what the decoder should expect, the way a
// encoding/asn1 struct-with-tags does for that package. template itself is
// read only; Decode returns a freshly built Value tree and whatever of data
// followed the decoded element.
//
// This is the mode CHOICE, OPTIONAL and SEQUENCE OF/SET OF element
// resolution rely on: a free decode (DecodeDER/DecodeBER) has no schema to
// consult and so can only return opaque content for anything outside a
// context-free universal tag.
func Decode(template *Value, data []byte) (*Value, []byte, error) {
	bud := newBudget(DefaultBudget)
	v, n, err := decodeTemplate(template, data, bud, false)
	if err != nil {
		return nil, nil, err
	}
	if err := v.CheckConstraints(); err != nil {
		return nil, nil, err
	}
	return v, data[n:], nil
}

// DecodeBERTemplate is Decode's BER-permissive counterpart.
func DecodeBERTemplate(template *Value, data []byte) (*Value, []byte, error) {
	bud := newBudget(DefaultBudget)
	v, n, err := decodeTemplate(template, data, bud, true)
	if err != nil {
		return nil, nil, err
	}
	return v, data[n:], nil
}

func decodeTemplate(t *Value, b []byte, bud *budget, ber bool) (*Value, int, error) {
	switch t.kind {
	case KindChoice:
		return decodeChoiceTemplate(t, b, bud, ber)
	case KindTagged:
		return decodeTaggedTemplate(t, b, bud, ber)
	case KindOpenType:
		return decodeOpenTypeTemplate(t, b, bud, ber)
	}

	h, content, n, err := readTLV(b, bud, ber)
	if err != nil {
		return nil, 0, err
	}
	if h.class != t.EffectiveClass() || h.tag != t.Tag() {
		return nil, 0, fmt.Errorf("%w: expected class=%d tag=%d, got class=%d tag=%d", ErrInvalidEncoding, t.EffectiveClass(), t.Tag(), h.class, h.tag)
	}

	switch t.kind {
	case KindSequence:
		members, err := decodeSequenceMembers(t.seq, content, bud, ber)
		if err != nil {
			return nil, 0, err
		}
		return &Value{kind: KindSequence, explicit: true, cons: t.cons, seq: members}, n, nil
	case KindSet:
		members, err := decodeSequenceMembers(t.set, content, bud, ber)
		if err != nil {
			return nil, 0, err
		}
		return &Value{kind: KindSet, explicit: true, cons: t.cons, set: members}, n, nil
	case KindSequenceOf, KindSetOf:
		elements, err := decodeCollectionOfElements(t.collOf, content, bud, ber)
		if err != nil {
			return nil, 0, err
		}
		return &Value{kind: t.kind, explicit: true, cons: t.cons, collOf: &CollectionOf{ElementFactory: t.collOf.ElementFactory, Elements: elements}}, n, nil
	default:
		v, err := decodeUniversal(h, content, bud, ber)
		if err != nil {
			return nil, 0, err
		}
		v.cons = t.cons
		return v, n, nil
	}
}

// decodeSequenceMembers walks the template's ordered members against the
// content's sub-TLVs, skipping any OPTIONAL member whose expected tag
// doesn't match what comes next.
func decodeSequenceMembers(templateMembers []*Value, content []byte, bud *budget, ber bool) ([]*Value, error) {
	var out []*Value
	off := 0
	for _, tm := range templateMembers {
		if off >= len(content) {
			if tm.Optional() {
				continue
			}
			return nil, fmt.Errorf("%w: missing required member", ErrInvalidInput)
		}
		if tm.Optional() && !nextMatches(tm, content[off:], ber) {
			continue
		}
		v, n, err := decodeTemplate(tm, content[off:], bud, ber)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		off += n
	}
	if off != len(content) {
		return nil, fmt.Errorf("%w: %d trailing bytes in SEQUENCE/SET", ErrInvalidEncoding, len(content)-off)
	}
	return out, nil
}

func nextMatches(tm *Value, b []byte, ber bool) bool {
	h, err := readHeader(b, ber)
	if err != nil {
		return false
	}
	if tm.kind == KindChoice {
		_, err := tm.choice.resolveByTag(h.class, h.tag)
		return err == nil
	}
	return h.class == tm.EffectiveClass() && h.tag == tm.Tag()
}

func decodeCollectionOfElements(c *CollectionOf, content []byte, bud *budget, ber bool) ([]*Value, error) {
	var out []*Value
	off := 0
	for off < len(content) {
		elTemplate := c.ElementFactory()
		v, n, err := decodeTemplate(elTemplate, content[off:], bud, ber)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		off += n
	}
	return out, nil
}

func decodeChoiceTemplate(t *Value, b []byte, bud *budget, ber bool) (*Value, int, error) {
	h, err := readHeader(b, ber)
	if err != nil {
		return nil, 0, err
	}
	idx, err := t.choice.resolveByTag(h.class, h.tag)
	if err != nil {
		return nil, 0, err
	}
	inner, n, err := decodeTemplate(t.choice.Alternatives[idx], b, bud, ber)
	if err != nil {
		return nil, 0, err
	}
	alts := append([]*Value(nil), t.choice.Alternatives...)
	alts[idx] = inner
	return &Value{kind: KindChoice, explicit: true, choice: &Choice{Alternatives: alts, Selected: idx}}, n, nil
}

func decodeTaggedTemplate(t *Value, b []byte, bud *budget, ber bool) (*Value, int, error) {
	tg := t.tagged
	h, content, n, err := readTLV(b, bud, ber)
	if err != nil {
		return nil, 0, err
	}
	if h.class != tg.Class || h.tag != tg.Tag {
		return nil, 0, fmt.Errorf("%w: expected [%d] class=%d, got tag=%d class=%d", ErrInvalidEncoding, tg.Tag, tg.Class, h.tag, h.class)
	}
	var inner *Value
	if tg.Explicit {
		inner, _, err = decodeTemplate(tg.Inner, content, bud, ber)
		if err != nil {
			return nil, 0, err
		}
	} else {
		inner, err = decodeImplicitContent(tg.Inner, h, content, bud, ber)
		if err != nil {
			return nil, 0, err
		}
	}
	return &Value{kind: KindTagged, explicit: tg.Explicit, tagged: &Tagged{Tag: tg.Tag, Class: tg.Class, Explicit: tg.Explicit, Inner: inner}}, n, nil
}

// decodeImplicitContent decodes content as if it carried innerTemplate's own
// universal tag, since an IMPLICIT tag replaces rather than wraps it.
func decodeImplicitContent(innerTemplate *Value, h header, content []byte, bud *budget, ber bool) (*Value, error) {
	switch innerTemplate.kind {
	case KindSequence:
		members, err := decodeSequenceMembers(innerTemplate.seq, content, bud, ber)
		if err != nil {
			return nil, err
		}
		return &Value{kind: KindSequence, explicit: true, seq: members}, nil
	case KindSet:
		members, err := decodeSequenceMembers(innerTemplate.set, content, bud, ber)
		if err != nil {
			return nil, err
		}
		return &Value{kind: KindSet, explicit: true, set: members}, nil
	case KindSequenceOf, KindSetOf:
		elements, err := decodeCollectionOfElements(innerTemplate.collOf, content, bud, ber)
		if err != nil {
			return nil, err
		}
		return &Value{kind: innerTemplate.kind, explicit: true, collOf: &CollectionOf{ElementFactory: innerTemplate.collOf.ElementFactory, Elements: elements}}, nil
	default:
		fakeHeader := h
		fakeHeader.tag, _ = universalTag(innerTemplate.kind, uint8(innerTemplate.Tag()))
		return decodeUniversal(fakeHeader, content, bud, ber)
	}
}

func decodeOpenTypeTemplate(t *Value, b []byte, bud *budget, ber bool) (*Value, int, error) {
	ot := t.openType
	if ot.Resolver == nil {
		_, n, err := decodeFree(b, bud, ber)
		if err != nil {
			return nil, 0, err
		}
		return &Value{kind: KindOpenType, explicit: true, openType: &OpenType{Governing: ot.Governing, Raw: b[:n]}}, n, nil
	}
	resolved, err := ot.Resolver.Resolve(ot.Governing)
	if err != nil {
		return nil, 0, err
	}
	inner, n, err := decodeTemplate(resolved, b, bud, ber)
	if err != nil {
		return nil, 0, err
	}
	return &Value{kind: KindOpenType, explicit: true, openType: &OpenType{Governing: ot.Governing, Resolver: ot.Resolver, Inner: inner}}, n, nil
}
