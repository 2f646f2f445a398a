// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package asn1

import "fmt"

// Encode renders v as DER: canonical, definite-length, minimal-length
// encoding with SET members sorted by encoded octets.
//
// Encoding is two pass. The first pass (contentLength) walks the tree once,
// computing and memoizing each node's content-octet length bottom-up; the
// second pass (appendValue) walks it again, this time able to emit each
// node's length octets without re-deriving them, since every length is
// already cached. A node's cache is invalidated by any mutating method
// (SetClass, SetExplicit, Append, AppendElement, SetSelected, …), so
// repeated Encode calls on an unchanged tree do the length walk only once.
func Encode(v *Value) ([]byte, error) {
	if _, err := contentLength(v); err != nil {
		return nil, err
	}
	return appendValue(nil, v)
}

// contentLength returns v's content-octet length (excluding its own
// identifier/length header), computing and caching it if necessary.
func contentLength(v *Value) (int, error) {
	if v.lenValid {
		return v.lenCache, nil
	}
	n, err := computeContentLength(v)
	if err != nil {
		return 0, err
	}
	v.lenCache = n
	v.lenValid = true
	return n, nil
}

func computeContentLength(v *Value) (int, error) {
	switch v.kind {
	case KindBoolean:
		return 1, nil
	case KindInteger:
		return len(encodeBigIntContent(v.integer)), nil
	case KindBitString:
		return 1 + len(v.bitString.Bytes), nil
	case KindOctetString:
		return len(v.octetStr), nil
	case KindNull:
		return 0, nil
	case KindOid:
		return len(encodeOidContent(v.oid)), nil
	case KindReal:
		return len(encodeRealContent(v.real)), nil
	case KindEnumerated:
		return len(encodeBigIntContent(v.enumerated.Value)), nil
	case KindString:
		return stringContentLength(v.str)
	case KindTime:
		return len(encodeTimeContent(v.time)), nil
	case KindSequence:
		return memberSetLength(v.seq)
	case KindSet:
		return memberSetLength(v.set)
	case KindSequenceOf:
		return memberSetLength(v.collOf.Elements)
	case KindSetOf:
		return memberSetLength(v.collOf.Elements)
	case KindTagged:
		return taggedContentLength(v.tagged)
	case KindOpaque:
		return len(v.opaque.Raw), nil
	case KindOpenType:
		if v.openType.Inner == nil {
			return len(v.openType.Raw), nil
		}
		return contentLength(v.openType.Inner)
	case KindChoice:
		alt := v.choice.selectedValue()
		if alt == nil {
			return 0, fmt.Errorf("%w: CHOICE has no selected alternative", ErrInvariantViolated)
		}
		return contentLength(alt)
	}
	return 0, fmt.Errorf("%w: unknown Kind %d", ErrInvariantViolated, v.kind)
}

func stringContentLength(s Str) (int, error) {
	switch s.Kind {
	case StringBMP:
		b, err := encodeBMPString(s.Text)
		if err != nil {
			return 0, err
		}
		return len(b), nil
	case StringUniversal:
		return len(encodeUniversalString(s.Text)), nil
	default:
		return len(s.Text), nil
	}
}

func memberSetLength(members []*Value) (int, error) {
	total := 0
	for _, m := range members {
		if m.kind == KindOpaque && m.opaque.FullTLV {
			total += len(m.opaque.Raw)
			continue
		}
		l, err := contentLength(m)
		if err != nil {
			return 0, err
		}
		total += headerLength(m, l) + l
	}
	return total, nil
}

func taggedContentLength(t *Tagged) (int, error) {
	innerLen, err := contentLength(t.Inner)
	if err != nil {
		return 0, err
	}
	if !t.Explicit {
		return innerLen, nil
	}
	return headerLength(t.Inner, innerLen) + innerLen, nil
}

// headerLength returns the number of identifier+length octets v's header
// will occupy, given its already-computed content length n.
func headerLength(v *Value, n int) int {
	tag := v.Tag()
	idLen := 1
	if tag >= 31 {
		idLen = 1 + len(appendBase128(nil, uint64(tag)))
	}
	lenLen := 1
	if n >= 0x80 {
		lenLen = 1
		for x := n; x > 0; x >>= 8 {
			lenLen++
		}
	}
	return idLen + lenLen
}

func appendValue(dst []byte, v *Value) ([]byte, error) {
	if v.kind == KindOpaque && v.opaque.FullTLV {
		return append(dst, v.opaque.Raw...), nil
	}
	if v.kind == KindChoice {
		alt := v.choice.selectedValue()
		if alt == nil {
			return nil, fmt.Errorf("%w: CHOICE has no selected alternative", ErrInvariantViolated)
		}
		return appendValue(dst, alt)
	}
	if v.kind == KindOpenType && v.openType.Inner != nil {
		return appendValue(dst, v.openType.Inner)
	}

	n, err := contentLength(v)
	if err != nil {
		return nil, err
	}

	if v.kind == KindTagged && !v.tagged.Explicit {
		dst = appendIdentifier(dst, v.tagged.Class, isConstructed(v.tagged.Inner), v.tagged.Tag)
		dst = appendLength(dst, n)
		return appendContent(dst, v.tagged.Inner)
	}

	dst = appendIdentifier(dst, v.EffectiveClass(), isConstructed(v), v.Tag())
	dst = appendLength(dst, n)
	return appendContent(dst, v)
}

func appendContent(dst []byte, v *Value) ([]byte, error) {
	switch v.kind {
	case KindBoolean:
		if v.boolean {
			return append(dst, 0xff), nil
		}
		return append(dst, 0x00), nil
	case KindInteger:
		return append(dst, encodeBigIntContent(v.integer)...), nil
	case KindBitString:
		return append(append(dst, byte(v.bitString.Unused)), v.bitString.Bytes...), nil
	case KindOctetString:
		return append(dst, v.octetStr...), nil
	case KindNull:
		return dst, nil
	case KindOid:
		return append(dst, encodeOidContent(v.oid)...), nil
	case KindReal:
		return append(dst, encodeRealContent(v.real)...), nil
	case KindEnumerated:
		return append(dst, encodeBigIntContent(v.enumerated.Value)...), nil
	case KindString:
		return appendStringContent(dst, v.str)
	case KindTime:
		return append(dst, encodeTimeContent(v.time)...), nil
	case KindSequence:
		return appendMembers(dst, v.seq, false)
	case KindSet:
		return appendMembers(dst, v.set, true)
	case KindSequenceOf:
		return appendMembers(dst, v.collOf.Elements, false)
	case KindSetOf:
		return appendMembers(dst, v.collOf.Elements, true)
	case KindTagged:
		return appendValue(dst, v.tagged.Inner)
	case KindOpaque:
		return append(dst, v.opaque.Raw...), nil
	}
	return nil, fmt.Errorf("%w: unknown Kind %d in appendContent", ErrInvariantViolated, v.kind)
}

func appendStringContent(dst []byte, s Str) ([]byte, error) {
	switch s.Kind {
	case StringBMP:
		b, err := encodeBMPString(s.Text)
		if err != nil {
			return nil, err
		}
		return append(dst, b...), nil
	case StringUniversal:
		return append(dst, encodeUniversalString(s.Text)...), nil
	default:
		return append(dst, s.Text...), nil
	}
}

func appendMembers(dst []byte, members []*Value, sortAsSet bool) ([]byte, error) {
	encoded := make([][]byte, len(members))
	for i, m := range members {
		b, err := appendValue(nil, m)
		if err != nil {
			return nil, err
		}
		encoded[i] = b
	}
	order := make([]int, len(members))
	for i := range order {
		order[i] = i
	}
	if sortAsSet {
		order = derSortSetMembers(encoded)
	}
	for _, i := range order {
		dst = append(dst, encoded[i]...)
	}
	return dst, nil
}

// isConstructed reports the constructed bit a Value's header should carry
// under DER, where strings and BIT/OCTET STRING are always encoded
// primitively (no BER fragmentation) and only collections, Tagged-explicit
// wrappers, and an implicitly-tagged constructed inner are constructed.
func isConstructed(v *Value) bool {
	switch v.kind {
	case KindSequence, KindSet, KindSequenceOf, KindSetOf:
		return true
	case KindTagged:
		if v.tagged.Explicit {
			return true
		}
		return isConstructed(v.tagged.Inner)
	case KindChoice:
		if alt := v.choice.selectedValue(); alt != nil {
			return isConstructed(alt)
		}
		return false
	case KindOpenType:
		if v.openType.Inner != nil {
			return isConstructed(v.openType.Inner)
		}
		return false
	case KindOpaque:
		return v.opaque.Constructed
	}
	return false
}
