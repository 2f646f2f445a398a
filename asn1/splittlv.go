// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package asn1

// ReadOneTLV returns the complete encoding (identifier + length + content
// octets) of the single value starting at data[0], and whatever followed
// it. Useful for callers, such as an X.509 certificate store, that want to
// hand the raw bytes of one element to another decoder (crypto/x509)
// rather than this package's own Value tree.
func ReadOneTLV(data []byte, ber bool) (raw []byte, rest []byte, err error) {
	bud := newBudget(DefaultBudget)
	h, _, n, err := readTLV(data, bud, ber)
	if err != nil {
		return nil, nil, err
	}
	_ = h
	return append([]byte(nil), data[:n]...), data[n:], nil
}

// ReadTLV decodes the identifier and length octets at data[0] and returns
// the value's class, constructed bit, tag number, and content octets
// (for indefinite-length BER, the nested TLVs before the end-of-contents
// marker, copied into one contiguous slice), plus the total bytes of data
// consumed.
//
// This is the primitive callers needing precise control over CMS's mix of
// EXPLICIT and IMPLICIT context tags build on: a generic free decode
// (DecodeDER/DecodeBER) cannot tell those apart without a template, but a
// caller that already knows which convention a given field uses (as cms
// does, from RFC 5652) can peel one header at a time and interpret the
// content itself exactly as that field's ASN.1 module says to.
func ReadTLV(data []byte, ber bool) (class Class, constructed bool, tag int, content []byte, consumed int, err error) {
	bud := newBudget(DefaultBudget)
	h, c, n, err := readTLV(data, bud, ber)
	if err != nil {
		return 0, false, 0, nil, 0, err
	}
	return h.class, h.constructed, h.tag, c, n, nil
}

// SplitTLVs repeatedly applies ReadOneTLV until data is exhausted,
// returning each element's complete raw encoding in order.
func SplitTLVs(data []byte, ber bool) ([][]byte, error) {
	var out [][]byte
	for len(data) > 0 {
		raw, rest, err := ReadOneTLV(data, ber)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
		data = rest
	}
	return out, nil
}
