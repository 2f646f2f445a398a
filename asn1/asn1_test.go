// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package asn1

import (
	"bytes"
	"errors"
	"math/big"
	"testing"
	"time"
)

func roundTrip(t *testing.T, v *Value) *Value {
	t.Helper()
	der, err := Encode(v)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, rest, err := DecodeDER(der)
	if err != nil {
		t.Fatalf("DecodeDER: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("DecodeDER left %d trailing bytes", len(rest))
	}
	return got
}

func TestBooleanRoundTrip(t *testing.T) {
	for _, b := range []bool{true, false} {
		got := roundTrip(t, NewBoolean(b))
		if got.Kind() != KindBoolean || got.Bool() != b {
			t.Fatalf("roundtrip BOOLEAN(%v) = %v", b, got.Bool())
		}
	}
}

func TestIntegerRoundTrip(t *testing.T) {
	cases := []int64{0, 1, -1, 127, 128, -128, -129, 1 << 40, -(1 << 40)}
	for _, n := range cases {
		got := roundTrip(t, NewIntegerInt64(n))
		if got.Kind() != KindInteger || got.Int().Int64() != n {
			t.Fatalf("roundtrip INTEGER(%d) = %v", n, got.Int())
		}
	}
}

func TestIntegerBigRoundTrip(t *testing.T) {
	n := new(big.Int).Lsh(big.NewInt(1), 256)
	got := roundTrip(t, NewInteger(n))
	if got.Int().Cmp(n) != 0 {
		t.Fatalf("roundtrip big INTEGER = %v, want %v", got.Int(), n)
	}
}

func TestOctetStringRoundTrip(t *testing.T) {
	v, err := NewOctetString([]byte("hello jarsign"))
	if err != nil {
		t.Fatalf("NewOctetString: %v", err)
	}
	got := roundTrip(t, v)
	if !bytes.Equal(got.OctetString(), []byte("hello jarsign")) {
		t.Fatalf("roundtrip OCTET STRING = %q", got.OctetString())
	}
}

func TestNullRoundTrip(t *testing.T) {
	got := roundTrip(t, NewNull())
	if got.Kind() != KindNull {
		t.Fatalf("roundtrip NULL kind = %v", got.Kind())
	}
}

func TestOidRoundTrip(t *testing.T) {
	v, err := NewOid(1, 2, 840, 113549, 1, 7, 2)
	if err != nil {
		t.Fatalf("NewOid: %v", err)
	}
	got := roundTrip(t, v)
	if got.Oid().String() != "1.2.840.113549.1.7.2" {
		t.Fatalf("roundtrip OID = %s", got.Oid().String())
	}
}

func TestOidRejectsInvalidFirstArc(t *testing.T) {
	if _, err := NewOid(3, 1); !errors.Is(err, ErrInvalidOid) {
		t.Fatalf("NewOid(3, 1) error = %v, want ErrInvalidOid", err)
	}
}

func TestParseOid(t *testing.T) {
	o, err := ParseOid("1.2.840.113549.1.7.2")
	if err != nil {
		t.Fatalf("ParseOid: %v", err)
	}
	want, _ := NewOid(1, 2, 840, 113549, 1, 7, 2)
	if !o.Equal(want.Oid()) {
		t.Fatalf("ParseOid result = %v, want %v", o, want.Oid())
	}
}

func TestStringRoundTrip(t *testing.T) {
	v, err := NewString(StringUTF8, "hello, jarsign")
	if err != nil {
		t.Fatalf("NewString: %v", err)
	}
	got := roundTrip(t, v)
	if got.Str().Text != "hello, jarsign" {
		t.Fatalf("roundtrip UTF8String = %q", got.Str().Text)
	}
}

func TestPrintableStringRejectsDisallowedCharacters(t *testing.T) {
	if _, err := NewString(StringPrintable, "has_underscore"); err == nil {
		t.Fatalf("NewString(StringPrintable) with '_' should fail charset check")
	}
}

func TestBitStringRoundTrip(t *testing.T) {
	v, err := NewBitString([]byte{0xA0}, 4)
	if err != nil {
		t.Fatalf("NewBitString: %v", err)
	}
	got := roundTrip(t, v)
	bs := got.BitString()
	if bs.BitLen() != 4 {
		t.Fatalf("BitLen = %d, want 4", bs.BitLen())
	}
	if !bs.Bit(0) || bs.Bit(1) {
		t.Fatalf("bit pattern mismatch after roundtrip: %+v", bs)
	}
}

func TestSequenceRoundTrip(t *testing.T) {
	seq := NewSequence(NewIntegerInt64(1), NewBoolean(true))
	got := roundTrip(t, seq)
	if got.Kind() != KindSequence || len(got.Members()) != 2 {
		t.Fatalf("roundtrip SEQUENCE = %+v", got)
	}
	if got.Members()[0].Int().Int64() != 1 || !got.Members()[1].Bool() {
		t.Fatalf("roundtrip SEQUENCE members mismatch: %+v", got.Members())
	}
}

func TestSetOfSortsMembersOnEncode(t *testing.T) {
	a, _ := NewOctetString([]byte{0x03})
	b, _ := NewOctetString([]byte{0x01})
	c, _ := NewOctetString([]byte{0x02})
	set := NewSetOf(func() *Value { return nil }, a, b, c)

	der, err := Encode(set)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, _, err := DecodeDER(der)
	if err != nil {
		t.Fatalf("DecodeDER: %v", err)
	}
	members := got.Members()
	if len(members) != 3 {
		t.Fatalf("got %d members, want 3", len(members))
	}
	for i, want := range [][]byte{{0x01}, {0x02}, {0x03}} {
		if !bytes.Equal(members[i].OctetString(), want) {
			t.Fatalf("member %d = %x, want %x (DER SET OF must sort by encoding)", i, members[i].OctetString(), want)
		}
	}
}

func TestTimeRoundTrip(t *testing.T) {
	instant := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	got := roundTrip(t, NewTime(TimeGeneralized, instant))
	if !got.Time().Instant.Equal(instant) {
		t.Fatalf("roundtrip Time = %v, want %v", got.Time().Instant, instant)
	}
}

func TestEnumeratedRoundTrip(t *testing.T) {
	v, err := NewEnumerated(2, 0, 1, 2)
	if err != nil {
		t.Fatalf("NewEnumerated: %v", err)
	}
	got := roundTrip(t, v)
	if got.Enumerated().Value.Int64() != 2 {
		t.Fatalf("roundtrip ENUMERATED = %v", got.Enumerated().Value)
	}
}

func TestEnumeratedRejectsDisallowedValue(t *testing.T) {
	if _, err := NewEnumerated(5, 0, 1, 2); err == nil {
		t.Fatalf("NewEnumerated(5, allowed 0..2) should fail")
	}
}

func TestTaggedImplicitRoundTrip(t *testing.T) {
	tagged := NewTagged(ClassContext, 0, false, NewIntegerInt64(7))
	der, err := Encode(tagged)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	template := NewTagged(ClassContext, 0, false, NewIntegerInt64(0))
	got, _, err := Decode(template, der)
	if err != nil {
		t.Fatalf("Decode against template: %v", err)
	}
	if got.Tagged().Inner.Int().Int64() != 7 {
		t.Fatalf("decoded IMPLICIT tagged inner = %v, want 7", got.Tagged().Inner.Int())
	}
}

func TestOpaqueFullTLVEmbedsVerbatimEncoding(t *testing.T) {
	inner, err := Encode(NewIntegerInt64(42))
	if err != nil {
		t.Fatalf("Encode inner: %v", err)
	}
	opaque := NewVerbatimTLV(inner)
	outer := NewSequence(opaque)
	der, err := Encode(outer)
	if err != nil {
		t.Fatalf("Encode outer: %v", err)
	}
	if !bytes.Contains(der, inner) {
		t.Fatalf("encoded SEQUENCE does not contain the verbatim inner TLV")
	}
}

func TestSizeRangeConstraintRejectsOutOfBoundsOctetString(t *testing.T) {
	v, err := NewOctetString([]byte{1, 2, 3})
	if err != nil {
		t.Fatalf("NewOctetString: %v", err)
	}
	v.Constrain(SizeRange(4, 8))
	if err := v.CheckConstraints(); !errors.Is(err, ErrConstraintViolated) {
		t.Fatalf("CheckConstraints error = %v, want ErrConstraintViolated", err)
	}
}

func TestValueRangeConstraintAcceptsInBoundsInteger(t *testing.T) {
	v := NewIntegerInt64(5)
	v.Constrain(ValueRange(0, 10))
	if err := v.CheckConstraints(); err != nil {
		t.Fatalf("CheckConstraints: %v", err)
	}
}

func TestDecodeBERToleratesIndefiniteLength(t *testing.T) {
	// A constructed OCTET STRING with indefinite length (0x80), carrying one
	// definite-length primitive OCTET STRING chunk, terminated by the 00 00
	// end-of-contents marker. BER allows this; DER forbids it.
	ber := []byte{
		0x24, 0x80, // [UNIVERSAL 4, constructed], indefinite length
		0x04, 0x03, 'a', 'b', 'c', // primitive OCTET STRING chunk
		0x00, 0x00, // end-of-contents
	}
	v, rest, err := DecodeBER(ber)
	if err != nil {
		t.Fatalf("DecodeBER: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("DecodeBER left %d trailing bytes", len(rest))
	}
	if !bytes.Equal(v.OctetString(), []byte("abc")) {
		t.Fatalf("reassembled OCTET STRING = %q, want %q", v.OctetString(), "abc")
	}
}

func TestDecodeDERRejectsIndefiniteLength(t *testing.T) {
	ber := []byte{0x24, 0x80, 0x04, 0x01, 'a', 0x00, 0x00}
	if _, _, err := DecodeDER(ber); err == nil {
		t.Fatalf("DecodeDER accepted an indefinite-length encoding, want rejection")
	}
}

func TestDecodeFreeBudgetedRejectsOversizedClaimedLength(t *testing.T) {
	// A length octet claiming far more content than is actually present.
	truncated := []byte{0x04, 0x84, 0x7f, 0xff, 0xff, 0xff}
	_, _, err := decodeFreeBudgeted(truncated, 1024, false)
	if err == nil {
		t.Fatalf("decodeFreeBudgeted accepted a length claim exceeding both the budget and the input, want error")
	}
}

func TestReadOneTLVSplitsOneElementFromTrailingBytes(t *testing.T) {
	one, _ := Encode(NewIntegerInt64(1))
	two, _ := Encode(NewIntegerInt64(2))
	concatenated := append(append([]byte{}, one...), two...)

	raw, rest, err := ReadOneTLV(concatenated, false)
	if err != nil {
		t.Fatalf("ReadOneTLV: %v", err)
	}
	if !bytes.Equal(raw, one) {
		t.Fatalf("ReadOneTLV raw = %x, want %x", raw, one)
	}
	if !bytes.Equal(rest, two) {
		t.Fatalf("ReadOneTLV rest = %x, want %x", rest, two)
	}
}

func TestSplitTLVsSplitsConcatenatedElements(t *testing.T) {
	one, _ := Encode(NewIntegerInt64(1))
	two, _ := Encode(NewBoolean(true))
	three, _ := Encode(NewNull())
	concatenated := append(append(append([]byte{}, one...), two...), three...)

	parts, err := SplitTLVs(concatenated, false)
	if err != nil {
		t.Fatalf("SplitTLVs: %v", err)
	}
	if len(parts) != 3 {
		t.Fatalf("SplitTLVs returned %d parts, want 3", len(parts))
	}
	for i, want := range [][]byte{one, two, three} {
		if !bytes.Equal(parts[i], want) {
			t.Fatalf("part %d = %x, want %x", i, parts[i], want)
		}
	}
}

func TestEqualComparesByValueNotByPointer(t *testing.T) {
	a := NewSequence(NewIntegerInt64(1), NewBoolean(false))
	b := NewSequence(NewIntegerInt64(1), NewBoolean(false))
	if !a.Equal(b) {
		t.Fatalf("two structurally identical SEQUENCEs compared unequal")
	}
	c := NewSequence(NewIntegerInt64(2), NewBoolean(false))
	if a.Equal(c) {
		t.Fatalf("SEQUENCEs with different members compared equal")
	}
}

func TestCloneIsIndependentOfOriginal(t *testing.T) {
	orig := NewSequence(NewIntegerInt64(1))
	clone := orig.Clone()
	clone.Members()[0].SetClass(ClassContext)
	if orig.Members()[0].Class() == ClassContext {
		t.Fatalf("mutating a clone's member affected the original")
	}
}

func TestChoiceResolvesSelectedAlternative(t *testing.T) {
	choice := NewChoice(NewIntegerInt64(1), NewBoolean(true))
	choice.SetSelected(1)
	der, err := Encode(choice)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, _, err := DecodeDER(der)
	if err != nil {
		t.Fatalf("DecodeDER: %v", err)
	}
	if got.Kind() != KindBoolean || !got.Bool() {
		t.Fatalf("decoded CHOICE selection = %+v, want BOOLEAN(true)", got)
	}
}
