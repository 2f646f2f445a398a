// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package asn1

import "fmt"

// Constraint validates a Value after it has been decoded or before it is
// encoded. Constraints are attached to a Value via Constrain and run by
// CheckConstraints; the decoder runs them automatically in strict mode.
type Constraint interface {
	Check(v *Value) error
}

// ConstraintFunc adapts a function to the Constraint interface.
type ConstraintFunc func(v *Value) error

// Check implements Constraint.
func (f ConstraintFunc) Check(v *Value) error { return f(v) }

// constraintChain is a singly-linked list of constraints. It is shared by
// reference across Clone: cloning a Value does not copy its constraints,
// matching the data model's lifecycle note that mutation of a clone must
// not affect the original's value but the constraint chain itself is
// immutable and may be shared.
type constraintChain struct {
	c    Constraint
	next *constraintChain
}

func (cc *constraintChain) append(c Constraint) *constraintChain {
	head := &constraintChain{c: c}
	tail := head
	for cur := cc; cur != nil; cur = cur.next {
		tail.next = &constraintChain{c: cur.c}
		tail = tail.next
	}
	return head
}

func (cc *constraintChain) check(v *Value) error {
	for cur := cc; cur != nil; cur = cur.next {
		if err := cur.c.Check(v); err != nil {
			return fmt.Errorf("%w: %v", ErrConstraintViolated, err)
		}
	}
	return nil
}

// SizeRange constrains the length of an OCTET STRING, BIT STRING (in bits),
// or a collection's element count to [min, max]. max < 0 means unbounded.
func SizeRange(min, max int) Constraint {
	return ConstraintFunc(func(v *Value) error {
		n, ok := sizeOf(v)
		if !ok {
			return nil
		}
		if n < min || (max >= 0 && n > max) {
			return fmt.Errorf("size %d outside [%d, %d]", n, min, max)
		}
		return nil
	})
}

func sizeOf(v *Value) (int, bool) {
	switch v.kind {
	case KindOctetString:
		return len(v.octetStr), true
	case KindBitString:
		return v.bitString.BitLen(), true
	case KindSequenceOf, KindSetOf:
		return len(v.collOf.Elements), true
	case KindString:
		return len([]rune(v.str.Text)), true
	}
	return 0, false
}

// ValueRange constrains an INTEGER or ENUMERATED value to [min, max].
func ValueRange(min, max int64) Constraint {
	return ConstraintFunc(func(v *Value) error {
		var i int64
		switch v.kind {
		case KindInteger:
			if !v.integer.IsInt64() {
				return fmt.Errorf("value out of int64 range")
			}
			i = v.integer.Int64()
		case KindEnumerated:
			if !v.enumerated.Value.IsInt64() {
				return fmt.Errorf("value out of int64 range")
			}
			i = v.enumerated.Value.Int64()
		default:
			return nil
		}
		if i < min || i > max {
			return fmt.Errorf("value %d outside [%d, %d]", i, min, max)
		}
		return nil
	})
}
