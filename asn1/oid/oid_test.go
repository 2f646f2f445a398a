// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package oid

import (
	"testing"

	"github.com/jarsign/jarsign/asn1"
)

func TestWellKnownLookupResolvesRegisteredOid(t *testing.T) {
	e, ok := WellKnown.Lookup(SHA256)
	if !ok {
		t.Fatalf("Lookup(SHA256) not found in WellKnown")
	}
	if e.Name != "id-sha256" {
		t.Fatalf("Lookup(SHA256).Name = %q, want %q", e.Name, "id-sha256")
	}
}

func TestWellKnownNameFallsBackToDottedForm(t *testing.T) {
	unregistered, err := asn1.ParseOid("1.2.3.4.5.6.7.8.9")
	if err != nil {
		t.Fatalf("ParseOid: %v", err)
	}
	if got := WellKnown.Name(unregistered); got != "1.2.3.4.5.6.7.8.9" {
		t.Fatalf("Name(unregistered) = %q, want dotted form", got)
	}
}

func TestChildRegistryLayersOverParentWithoutMutatingIt(t *testing.T) {
	child := NewRegistry(WellKnown)
	cap := NewCapability()

	custom, err := asn1.ParseOid("1.2.3.4.5")
	if err != nil {
		t.Fatalf("ParseOid: %v", err)
	}
	child.Register(cap, Entry{Name: "my-custom-oid", Oid: custom})

	if got := child.Name(custom); got != "my-custom-oid" {
		t.Fatalf("child.Name(custom) = %q, want %q", got, "my-custom-oid")
	}
	if _, ok := WellKnown.Lookup(custom); ok {
		t.Fatalf("registering into child leaked the entry into WellKnown")
	}

	// The child still resolves entries it doesn't have directly, by
	// delegating to its parent.
	if got := child.Name(SHA256); got != "id-sha256" {
		t.Fatalf("child.Name(SHA256) = %q, want delegation to parent's %q", got, "id-sha256")
	}
}

func TestRegisterWithZeroCapabilityPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("Register with a zero Capability should panic")
		}
	}()
	r := NewRegistry(nil)
	r.Register(Capability{}, Entry{Name: "x"})
}

func TestKnownContentTypeOidsAreDistinct(t *testing.T) {
	seen := map[string]string{}
	for name, o := range map[string]asn1.Oid{
		"Data":                   Data,
		"SignedData":             SignedData,
		"EnvelopedData":          EnvelopedData,
		"SignedAndEnvelopedData": SignedAndEnvelopedData,
		"DigestedData":           DigestedData,
		"EncryptedData":          EncryptedData,
	} {
		s := o.String()
		if other, ok := seen[s]; ok {
			t.Fatalf("%s and %s both encode to OID %s", name, other, s)
		}
		seen[s] = name
	}
}
