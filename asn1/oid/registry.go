// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

// Package oid is a hierarchical registry of named OBJECT IDENTIFIERs and
// the decode templates associated with them, used to resolve CMS open
// types (an Attribute's AttributeValue, a SignerInfo's digest algorithm
// parameters) from the governing OID alone.
package oid

import (
	"sync"

	"github.com/jarsign/jarsign/asn1"
)

// Entry describes one registered OID: its canonical name and, if it has
// one, the template used to decode a value governed by this OID.
type Entry struct {
	Name     string
	Oid      asn1.Oid
	Template func() *asn1.Value
}

// Registry is a lookup table from OID to Entry that delegates to a parent
// registry on miss, so a caller can layer a small set of locally-relevant
// OIDs (a signer's own algorithm preferences) over the process-wide well
// known set without mutating it.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	parent  *Registry
}

// Capability gates Registry.Register: it can only be constructed by
// NewCapability, so registration is confined to code that was explicitly
// handed one, the way Value's unexported fields are confined to
// constructor functions within this module.
type Capability struct{ issued bool }

// NewCapability issues a new registration capability.
func NewCapability() Capability { return Capability{issued: true} }

// NewRegistry constructs a registry. A nil parent means lookups miss
// straight through to the caller.
func NewRegistry(parent *Registry) *Registry {
	return &Registry{entries: make(map[string]Entry), parent: parent}
}

// Register adds e to the registry. cap must have been issued by
// NewCapability; this is not a security boundary (any caller can call
// NewCapability), just a seam that makes "who is allowed to mutate the
// global table" explicit and greppable at call sites.
func (r *Registry) Register(cap Capability, e Entry) {
	if !cap.issued {
		panic("oid: Register called with a zero Capability")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.Oid.String()] = e
}

// Lookup finds the Entry for o, checking this registry first and falling
// back to the parent chain.
func (r *Registry) Lookup(o asn1.Oid) (Entry, bool) {
	r.mu.RLock()
	e, ok := r.entries[o.String()]
	r.mu.RUnlock()
	if ok {
		return e, true
	}
	if r.parent != nil {
		return r.parent.Lookup(o)
	}
	return Entry{}, false
}

// Name returns the registered name for o, or its dotted form if unknown.
func (r *Registry) Name(o asn1.Oid) string {
	if e, ok := r.Lookup(o); ok {
		return e.Name
	}
	return o.String()
}

// WellKnown is the process-wide registry of OIDs this module needs to
// recognize on its own (PKCS#7/CMS, PKCS#9 attributes, RFC 3161). Callers
// needing additional OIDs should layer a child registry over it with
// NewRegistry(oid.WellKnown) rather than registering into it directly.
var WellKnown = NewRegistry(nil)

var wellKnownCapability = NewCapability()

func register(name string, arcs ...uint64) asn1.Oid {
	o := asn1.Oid(arcs)
	WellKnown.Register(wellKnownCapability, Entry{Name: name, Oid: o})
	return o
}
