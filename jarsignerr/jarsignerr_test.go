// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package jarsignerr

import (
	"errors"
	"testing"
)

func TestErrorIs(t *testing.T) {
	e1 := New(TsaTransport, errors.New("dial tcp: timeout"))
	e2 := New(TsaTransport, errors.New("different cause"))
	e3 := New(Timeout, nil)

	if !errors.Is(e1, e2) {
		t.Errorf("errors of the same Kind should be Is-equal")
	}
	if errors.Is(e1, e3) {
		t.Errorf("errors of different Kind should not be Is-equal")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	e := New(Io, cause)
	if !errors.Is(e, cause) {
		t.Errorf("Unwrap should expose the wrapped cause to errors.Is")
	}
}

func TestErrorWithContext(t *testing.T) {
	e := New(InvalidEncoding, errors.New("bad length")).WithContext("app.jar", "digest")
	want := "app.jar: invalid DER/BER encoding (stage: digest): bad length"
	if e.Error() != want {
		t.Errorf("Error() = %q, want %q", e.Error(), want)
	}
}

func TestKindRetryable(t *testing.T) {
	cases := map[Kind]bool{
		TsaRejected:           true,
		TsaTransport:          true,
		Timeout:               true,
		InvalidEncoding:       false,
		AlgorithmUnavailable:  false,
		ConstraintViolated:    false,
	}
	for kind, want := range cases {
		if got := kind.Retryable(); got != want {
			t.Errorf("Kind(%v).Retryable() = %v, want %v", kind, got, want)
		}
	}
}
