// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package jar

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/jarsign/jarsign/jarsignerr"
)

// zipEntry is one archive member read fully into memory: Sign/Unsign both
// need every entry's bytes available for digesting, and JARs signed by
// this engine are expected to be modest manifest-and-classes archives, not
// multi-gigabyte media bundles.
type zipEntry struct {
	name     string
	method   uint16
	modified bool // not set by readZip or newZipEntry; writeZip reuses header as-is either way
	header   zip.FileHeader
	data     []byte
}

// readZip loads every entry of a ZIP/JAR archive into memory, in archive
// order.
func readZip(data []byte) ([]*zipEntry, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, jarsignerr.New(jarsignerr.InvalidEncoding, err)
	}
	entries := make([]*zipEntry, 0, len(r.File))
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			return nil, jarsignerr.New(jarsignerr.Io, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, jarsignerr.New(jarsignerr.Io, err)
		}
		entries = append(entries, &zipEntry{
			name:   normalizeEntryName(f.Name),
			method: f.Method,
			header: f.FileHeader,
			data:   content,
		})
	}
	return entries, nil
}

// writeZip renders entries back to a ZIP/JAR archive, ZIP64 extensions
// applied automatically by archive/zip whenever an entry or the archive
// as a whole crosses the 32-bit size/offset limit.
func writeZip(entries []*zipEntry) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		hdr := e.header
		hdr.Name = e.name
		hdr.Method = e.method
		fw, err := w.CreateHeader(&hdr)
		if err != nil {
			return nil, jarsignerr.New(jarsignerr.Io, err)
		}
		if _, err := fw.Write(e.data); err != nil {
			return nil, jarsignerr.New(jarsignerr.Io, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, jarsignerr.New(jarsignerr.Io, err)
	}
	return buf.Bytes(), nil
}

// newZipEntry builds a freshly-authored archive member (a manifest,
// signature file, or signature block Sign/Unsign emits), stamped with the
// current time since it has no original archive header to inherit from.
func newZipEntry(name string, data []byte) *zipEntry {
	return &zipEntry{
		name:   name,
		method: zip.Deflate,
		header: zip.FileHeader{Modified: time.Now()},
		data:   data,
	}
}

// normalizeEntryName converts an archive member name to the forward-slash
// form the manifest's "Name:" attribute and META-INF matching both expect.
func normalizeEntryName(name string) string {
	return strings.ReplaceAll(name, `\`, "/")
}

// isMetaInfSignatureFile reports whether name is one of the block/.SF
// files Unsign must remove: META-INF/*.SF, *.DSA, *.RSA, *.EC, or SIG-*.
func isMetaInfSignatureFile(name string) bool {
	dir, base := path.Split(name)
	if !strings.EqualFold(strings.TrimSuffix(dir, "/"), "META-INF") {
		return false
	}
	switch strings.ToUpper(path.Ext(base)) {
	case ".SF", ".DSA", ".RSA", ".EC":
		return true
	}
	return strings.HasPrefix(strings.ToUpper(base), "SIG-")
}

func isManifest(name string) bool {
	return strings.EqualFold(name, manifestName)
}

// findEntry returns the index of the named entry, or -1.
func findEntry(entries []*zipEntry, name string) int {
	for i, e := range entries {
		if strings.EqualFold(e.name, name) {
			return i
		}
	}
	return -1
}

// writeFileAtomic writes data to a sibling temporary file and renames it
// over path, so a failure mid-write never corrupts the original archive —
// the Atomicity guarantee the JAR signing engine's Sign/Unsign promise. A
// non-empty runTag (an Engine.RunTag) is folded into the temp name so
// concurrent driver runs' temp files are easy to tell apart on disk.
func writeFileAtomic(targetPath string, data []byte, runTag string) error {
	dir := path.Dir(targetPath)
	pattern := ".jarsign-*.tmp"
	if runTag != "" {
		pattern = ".jarsign-" + runTag + "-*.tmp"
	}
	tmp, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return jarsignerr.New(jarsignerr.Io, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return jarsignerr.New(jarsignerr.Io, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return jarsignerr.New(jarsignerr.Io, err)
	}
	if err := tmp.Close(); err != nil {
		return jarsignerr.New(jarsignerr.Io, err)
	}
	if err := os.Rename(tmpName, targetPath); err != nil {
		return jarsignerr.New(jarsignerr.Io, fmt.Errorf("rename temp file into place: %w", err))
	}
	return nil
}
