// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package asn1

import "errors"

// Sentinel errors returned by this package. Higher-level packages (cms, jar)
// translate these into jarsignerr.Error with an appropriate Kind at their
// boundary; this package does not import jarsignerr itself, since it sits
// below every other package in this module and must stay free of cycles.
var (
	// ErrInvalidOid is returned when an OID fails the first/second
	// subidentifier range check.
	ErrInvalidOid = errors.New("asn1: invalid object identifier")

	// ErrNotAsn1Element names a byte stream that does not begin with a
	// well-formed identifier octet sequence. No function in this package
	// returns it; malformed identifier or length octets are reported as
	// ErrInvalidInput.
	ErrNotAsn1Element = errors.New("asn1: input is not a well-formed ASN.1 element")

	// ErrInvalidInput is returned for structurally malformed input: a
	// truncated length, a length that claims more content than remains, an
	// indefinite length in a context that forbids it, and similar.
	ErrInvalidInput = errors.New("asn1: invalid or truncated input")

	// ErrInputBudgetExceeded is returned when decoding would need to read
	// past the configured input-byte budget.
	ErrInputBudgetExceeded = errors.New("asn1: input exceeds decode budget")

	// ErrInvalidEncoding is returned when input is well-formed BER but
	// violates a DER canonicalization rule (non-minimal length,
	// non-canonical BOOLEAN octet, and similar) while decoding in strict
	// mode. The order of SET OF members is not checked.
	ErrInvalidEncoding = errors.New("asn1: not valid DER encoding")

	// ErrConstraintViolated is returned by CheckConstraints and by the
	// decoder when a decoded value fails an attached constraint.
	ErrConstraintViolated = errors.New("asn1: value violates constraint")

	// ErrAmbiguousType names a CHOICE or open type that cannot be resolved
	// to exactly one alternative from the tag alone. No function in this
	// package returns it: CHOICE decoding takes the first alternative whose
	// tag and class match and reports ErrNoMatchingAlternative otherwise.
	ErrAmbiguousType = errors.New("asn1: ambiguous type, cannot resolve alternative")

	// ErrNoMatchingAlternative is returned when a CHOICE's tag matches none
	// of its declared alternatives.
	ErrNoMatchingAlternative = errors.New("asn1: no matching CHOICE alternative")

	// ErrInvariantViolated is returned when the encoder or decoder
	// encounters a Value tree that violates an invariant the type system
	// can't enforce by construction (an unselected CHOICE, an unknown Kind).
	ErrInvariantViolated = errors.New("asn1: value tree violates an invariant")
)
