// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestZerologLevelGating(t *testing.T) {
	var b bytes.Buffer
	zl := zerolog.New(&b)
	l := NewZerolog(zl, LevelWarn)

	l.Debugf("should not appear")
	l.Warnf("should appear %s", "once")

	out := b.String()
	if strings.Contains(out, "should not appear") {
		t.Error("Debugf logged below the configured level")
	}
	if !strings.Contains(out, "should appear once") {
		t.Error("Warnf did not log at the configured level")
	}
}
