// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

// Package jar implements the JAR/ZIP signing engine: manifest and signature
// file composition, per-entry digesting, signature block writing, unsign,
// and the temp-file-then-rename archive rewrite.
package jar

import (
	"bufio"
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/jarsign/jarsign/jarsignerr"
)

const (
	manifestName = "META-INF/MANIFEST.MF"
	lineWrapAt   = 70
)

// attr is one "Name: Value" pair, order-preserving within its Section.
type attr struct {
	key   string
	value string
}

// Section is one block of a manifest or signature file: the unnamed main
// attributes section, or a per-entry section keyed by its "Name:" attribute.
// Attribute order is preserved exactly as encountered (or inserted), per
// spec: unsign "preserv[es] other attributes and insertion order".
type Section struct {
	Name  string // "" for the main section
	attrs []attr
}

// Get returns an attribute's value and whether it is present.
func (s *Section) Get(key string) (string, bool) {
	for _, a := range s.attrs {
		if strings.EqualFold(a.key, key) {
			return a.value, true
		}
	}
	return "", false
}

// Set adds or overwrites an attribute, preserving its original position if
// already present, appending at the end otherwise.
func (s *Section) Set(key, value string) {
	for i, a := range s.attrs {
		if strings.EqualFold(a.key, key) {
			s.attrs[i].value = value
			return
		}
	}
	s.attrs = append(s.attrs, attr{key: key, value: value})
}

// Delete removes an attribute if present.
func (s *Section) Delete(key string) {
	for i, a := range s.attrs {
		if strings.EqualFold(a.key, key) {
			s.attrs = append(s.attrs[:i], s.attrs[i+1:]...)
			return
		}
	}
}

// Keys returns the attribute keys in insertion order.
func (s *Section) Keys() []string {
	keys := make([]string, len(s.attrs))
	for i, a := range s.attrs {
		keys[i] = a.key
	}
	return keys
}

// Len reports the number of attributes in the section.
func (s *Section) Len() int { return len(s.attrs) }

// Manifest is a parsed META-INF/MANIFEST.MF (or, by the same grammar, a
// META-INF/<signer>.SF signature file): one main Section plus zero or more
// per-entry Sections in file order.
type Manifest struct {
	Main    *Section
	Entries []*Section

	index map[string]int // entry name -> index into Entries, lowercased
}

// NewManifest returns an empty Manifest with a bare main section.
func NewManifest() *Manifest {
	return &Manifest{Main: &Section{}, index: map[string]int{}}
}

// Entry returns the named entry's Section, creating it (in append position)
// if absent.
func (m *Manifest) Entry(name string) *Section {
	if m.index == nil {
		m.index = map[string]int{}
	}
	if i, ok := m.index[strings.ToLower(name)]; ok {
		return m.Entries[i]
	}
	s := &Section{Name: name}
	m.index[strings.ToLower(name)] = len(m.Entries)
	m.Entries = append(m.Entries, s)
	return s
}

// EntryExists reports whether name already has a Section, without creating one.
func (m *Manifest) EntryExists(name string) bool {
	if m.index == nil {
		return false
	}
	_, ok := m.index[strings.ToLower(name)]
	return ok
}

// DeleteEntry removes an entry's Section entirely.
func (m *Manifest) DeleteEntry(name string) {
	if m.index == nil {
		return
	}
	i, ok := m.index[strings.ToLower(name)]
	if !ok {
		return
	}
	m.Entries = append(m.Entries[:i], m.Entries[i+1:]...)
	delete(m.index, strings.ToLower(name))
	for k, v := range m.index {
		if v > i {
			m.index[k] = v - 1
		}
	}
}

// Marshal renders m using the PKCS-style "Name: Value" attribute grammar:
// CRLF line endings, 70-byte line wrapping with a single leading space on
// continuation lines, main section first, then each entry section preceded
// by a blank line and led by its own "Name:" attribute.
func (m *Manifest) Marshal() []byte {
	var buf bytes.Buffer
	writeSection(&buf, m.Main.attrs)
	for _, e := range m.Entries {
		buf.WriteString("\r\n")
		attrs := append([]attr{{key: "Name", value: e.Name}}, e.attrs...)
		writeSection(&buf, attrs)
	}
	return buf.Bytes()
}

func writeSection(buf *bytes.Buffer, attrs []attr) {
	for _, a := range attrs {
		writeWrapped(buf, a.key+": "+a.value)
	}
}

// writeWrapped emits line, CRLF-terminated, wrapped to lineWrapAt UTF-8
// bytes per physical line (first line full width, continuations prefixed
// by one space and therefore lineWrapAt-1 bytes of payload).
func writeWrapped(buf *bytes.Buffer, line string) {
	b := []byte(line)
	first := true
	for len(b) > 0 {
		width := lineWrapAt
		if !first {
			width = lineWrapAt - 1
		}
		if len(b) <= width {
			if !first {
				buf.WriteByte(' ')
			}
			buf.Write(b)
			buf.WriteString("\r\n")
			return
		}
		if !first {
			buf.WriteByte(' ')
		}
		buf.Write(b[:width])
		buf.WriteString("\r\n")
		b = b[width:]
		first = false
	}
}

// ParseManifest decodes a manifest or signature file in the "Name: Value"
// grammar, continuation lines beginning with a single space. Section breaks
// are blank lines; the first section is the main section, each subsequent
// section must lead with a "Name:" attribute.
func ParseManifest(data []byte) (*Manifest, error) {
	lines, err := unwrapLines(data)
	if err != nil {
		return nil, err
	}

	m := NewManifest()
	var cur []attr
	sectionIdx := 0
	flush := func() error {
		if sectionIdx == 0 {
			m.Main.attrs = cur
		} else if len(cur) > 0 {
			name := ""
			rest := cur
			if strings.EqualFold(cur[0].key, "Name") {
				name = cur[0].value
				rest = cur[1:]
			} else {
				return jarsignerr.New(jarsignerr.InvalidEncoding, fmt.Errorf("entry section %d has no leading Name: attribute", sectionIdx))
			}
			e := m.Entry(name)
			e.attrs = rest
		}
		cur = nil
		sectionIdx++
		return nil
	}

	for _, line := range lines {
		if line == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		idx := strings.Index(line, ": ")
		if idx < 0 {
			return nil, jarsignerr.New(jarsignerr.InvalidEncoding, fmt.Errorf("malformed attribute line %q", line))
		}
		cur = append(cur, attr{key: line[:idx], value: line[idx+2:]})
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return m, nil
}

// unwrapLines splits CRLF (or bare LF, tolerated on read) lines and rejoins
// continuation lines (a single leading space) onto their logical line.
func unwrapLines(data []byte) ([]string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var physical []string
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		physical = append(physical, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, jarsignerr.New(jarsignerr.Io, err)
	}

	var logical []string
	for _, line := range physical {
		if strings.HasPrefix(line, " ") && len(logical) > 0 {
			logical[len(logical)-1] += line[1:]
			continue
		}
		logical = append(logical, line)
	}
	return logical, nil
}

// SortedEntryNames returns the manifest's entry names in ascending order,
// independent of file insertion order; used when a caller wants a
// deterministic traversal rather than archive order.
func (m *Manifest) SortedEntryNames() []string {
	names := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		names[i] = e.Name
	}
	sort.Strings(names)
	return names
}
