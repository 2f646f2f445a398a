// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package jar

import (
	"encoding/base64"
	"strings"

	"github.com/jarsign/jarsign/cms"
)

// manifestDigestNames maps a cms.DigestAlgorithm.Name to the attribute-name
// prefix the manifest/signature-file grammar uses ("SHA-256", not "SHA256").
var manifestDigestNames = map[string]string{
	"SHA1":                  "SHA-1",
	"SHA256":                "SHA-256",
	"SHA384":                "SHA-384",
	"SHA512":                "SHA-512",
	"GOST R 34.11-2012-256": "GOST3411-2012-256",
	"GOST R 34.11-2012-512": "GOST3411-2012-512",
}

func digestAttrPrefix(alg cms.DigestAlgorithm) string {
	if name, ok := manifestDigestNames[alg.Name]; ok {
		return name
	}
	return alg.Name
}

func digestAttrName(alg cms.DigestAlgorithm) string {
	return digestAttrPrefix(alg) + "-Digest"
}

// BuildSignatureFile composes the META-INF/<signerName>.SF manifest
// described in the JAR signing engine's Sign operation: main attributes
// "Signature-Version", "Created-By", "<Alg>-Digest-Manifest" (the digest of
// manifest's whole encoding) and "<Alg>-Digest-Manifest-Main-Attributes"
// (the digest of manifest's main section alone); one per-entry section per
// manifest entry, each holding the digest of that entry's corresponding
// manifest section, bytes-exact.
func BuildSignatureFile(manifest *Manifest, alg cms.DigestAlgorithm, createdBy string, digest func([]byte) ([]byte, error)) (*Manifest, error) {
	prefix := digestAttrPrefix(alg)

	wholeDigest, err := digest(manifest.Marshal())
	if err != nil {
		return nil, err
	}
	mainOnly := &Manifest{Main: manifest.Main, index: map[string]int{}}
	mainDigest, err := digest(mainOnly.Marshal())
	if err != nil {
		return nil, err
	}

	sf := NewManifest()
	sf.Main.Set("Signature-Version", "1.0")
	sf.Main.Set(prefix+"-Digest-Manifest", encodeDigest(wholeDigest))
	sf.Main.Set(prefix+"-Digest-Manifest-Main-Attributes", encodeDigest(mainDigest))
	sf.Main.Set("Created-By", createdBy)

	for _, e := range manifest.Entries {
		section := sectionBytes(e)
		entryDigest, err := digest(section)
		if err != nil {
			return nil, err
		}
		sfEntry := sf.Entry(e.Name)
		sfEntry.Set(digestAttrName(alg), encodeDigest(entryDigest))
	}
	return sf, nil
}

// sectionBytes renders one entry Section exactly as it appears within a
// full manifest encoding (the "Name:" line plus its attributes, CRLF
// terminated, no leading blank-line separator) — the bytes BuildSignatureFile
// must digest to reproduce jarsigner's per-entry .SF digests.
func sectionBytes(e *Section) []byte {
	m := &Manifest{Main: &Section{}, Entries: []*Section{e}, index: map[string]int{e.Name: 0}}
	full := m.Marshal()
	// Marshal's main section is empty, contributing nothing but the
	// separating blank line before the entry; strip it back off.
	return []byte(strings.TrimPrefix(string(full), "\r\n"))
}

// encodeDigest base64-encodes a raw digest for a manifest/.SF attribute
// value, the wire representation spec.md §6 specifies for *-Digest values.
func encodeDigest(d []byte) string {
	return base64.StdEncoding.EncodeToString(d)
}
