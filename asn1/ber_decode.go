// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package asn1

import "fmt"

// readTLV reads one TLV starting at b[0], returning its header, its content
// octets, and the number of bytes of b consumed overall. For a BER
// indefinite length the content octets are the nested TLVs up to (not
// including) the end-of-contents marker, copied into one slice; constructed
// strings are reassembled by the caller (reassembleConstructedOctets).
// allowIndefinite gates BER's indefinite length; strict DER decoding passes
// false.
func readTLV(b []byte, bud *budget, allowIndefinite bool) (header, []byte, int, error) {
	h, err := readHeader(b, allowIndefinite)
	if err != nil {
		return header{}, nil, 0, err
	}
	if err := bud.consume(h.headerLen); err != nil {
		return header{}, nil, 0, err
	}
	if h.contentLen != indefiniteLength {
		end := h.headerLen + h.contentLen
		if end < h.headerLen || end > len(b) {
			return header{}, nil, 0, fmt.Errorf("%w: length %d exceeds remaining input", ErrInvalidInput, h.contentLen)
		}
		if err := bud.consume(h.contentLen); err != nil {
			return header{}, nil, 0, err
		}
		return h, b[h.headerLen:end], end, nil
	}

	// Indefinite length: read nested TLVs until the EOC marker (00 00).
	off := h.headerLen
	var content []byte
	for {
		if off+2 > len(b) {
			return header{}, nil, 0, fmt.Errorf("%w: missing end-of-contents marker", ErrInvalidInput)
		}
		if b[off] == 0x00 && b[off+1] == 0x00 {
			if err := bud.consume(2); err != nil {
				return header{}, nil, 0, err
			}
			off += 2
			break
		}
		_, _, n, err := readTLV(b[off:], bud, allowIndefinite)
		if err != nil {
			return header{}, nil, 0, err
		}
		content = append(content, b[off:off+n]...)
		off += n
	}
	h.contentLen = len(content)
	return h, content, off, nil
}

// reassembleConstructedOctets reassembles a BER constructed OCTET STRING
// (or BIT STRING, with the leading unused-bit octet stripped from every
// segment and the last segment's count returned) from its nested primitive
// segments.
func reassembleConstructedOctets(content []byte, bud *budget, isBitString bool) ([]byte, int, error) {
	var out []byte
	var lastUnused int
	off := 0
	nSegs := 0
	for off < len(content) {
		h, seg, n, err := readTLV(content[off:], bud, true)
		if err != nil {
			return nil, 0, err
		}
		if isBitString {
			if len(seg) == 0 {
				return nil, 0, fmt.Errorf("%w: empty BIT STRING segment", ErrInvalidInput)
			}
			lastUnused = int(seg[0])
			out = append(out, seg[1:]...)
		} else {
			out = append(out, seg...)
		}
		_ = h
		off += n
		nSegs++
	}
	return out, lastUnused, nil
}
