// SPDX-FileCopyrightText: 2022-2023 The go-mail Authors
// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

// Package jarsign signs and verifies JAR/ZIP archives with code-signing
// identities backed by a key store, optionally embedding an RFC 3161
// timestamp countersignature.
//
// The package ties together several lower-level packages that can also be
// used on their own: asn1 (a DER/BER codec with a template-driven decoder),
// cms (a PKCS#7/CMS SignedData layer built on asn1), tsa (an RFC 3161
// timestamp client), identity (key store loading, chain normalization, and
// trust anchor validation), and jar (the manifest/signature-file/archive
// engine). driver signs many archives concurrently with bounded parallelism
// and per-TSA retry/backoff, optionally instrumented by metrics.
package jarsign

// Version is the release version of this module. The jar engine's default
// "Created-By" value is "jarsign" and does not include it.
const Version = "1.0.0"
