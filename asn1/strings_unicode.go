// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package asn1

import (
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

var bmpCodec = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// encodeBMPString encodes text as UTF-16BE content octets, the BMPString
// wire representation (X.680 §37.2). Delegated to golang.org/x/text rather
// than a hand-rolled big-endian loop.
func encodeBMPString(text string) ([]byte, error) {
	enc := bmpCodec.NewEncoder()
	b, err := enc.Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: BMPString encode: %v", ErrInvalidInput, err)
	}
	return b, nil
}

// decodeBMPString decodes UTF-16BE content octets into a Go string.
func decodeBMPString(content []byte) (string, error) {
	if len(content)%2 != 0 {
		return "", fmt.Errorf("%w: BMPString content length must be even", ErrInvalidEncoding)
	}
	dec := bmpCodec.NewDecoder()
	b, err := dec.Bytes(content)
	if err != nil {
		return "", fmt.Errorf("%w: BMPString decode: %v", ErrInvalidEncoding, err)
	}
	return string(b), nil
}

// encodeUniversalString encodes text as UCS-4BE content octets. x/text has
// no UCS-4 codec, so this packs each rune into 4 big-endian bytes directly;
// UniversalString is rare enough in practice (no PKCS#7/JAR field uses it)
// that a dedicated library dependency isn't warranted for it alone.
func encodeUniversalString(text string) []byte {
	runes := []rune(text)
	out := make([]byte, 4*len(runes))
	for i, r := range runes {
		out[4*i] = byte(r >> 24)
		out[4*i+1] = byte(r >> 16)
		out[4*i+2] = byte(r >> 8)
		out[4*i+3] = byte(r)
	}
	return out
}

func decodeUniversalString(content []byte) (string, error) {
	if len(content)%4 != 0 {
		return "", fmt.Errorf("%w: UniversalString content length must be a multiple of 4", ErrInvalidEncoding)
	}
	runes := make([]rune, len(content)/4)
	for i := range runes {
		o := 4 * i
		runes[i] = rune(uint32(content[o])<<24 | uint32(content[o+1])<<16 | uint32(content[o+2])<<8 | uint32(content[o+3]))
	}
	return string(runes), nil
}
