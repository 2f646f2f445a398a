// SPDX-FileCopyrightText: Copyright (c) 2023 The go-mail Authors
// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package log

import "github.com/rs/zerolog"

// Zerolog is a structured-JSON Logger backed by zerolog.Logger. It satisfies
// the same level-gated Logger interface as Stdlog, so call sites never know
// which implementation they were handed.
type Zerolog struct {
	l   Level
	log zerolog.Logger
}

// NewZerolog returns a new Zerolog that satisfies the Logger interface,
// wrapping the given zerolog.Logger.
func NewZerolog(zl zerolog.Logger, l Level) *Zerolog {
	return &Zerolog{l: l, log: zl}
}

// Debugf performs a Printf()-style log at debug level.
func (z *Zerolog) Debugf(f string, v ...interface{}) {
	if z.l >= LevelDebug {
		z.log.Debug().Msgf(f, v...)
	}
}

// Infof performs a Printf()-style log at info level.
func (z *Zerolog) Infof(f string, v ...interface{}) {
	if z.l >= LevelInfo {
		z.log.Info().Msgf(f, v...)
	}
}

// Warnf performs a Printf()-style log at warn level.
func (z *Zerolog) Warnf(f string, v ...interface{}) {
	if z.l >= LevelWarn {
		z.log.Warn().Msgf(f, v...)
	}
}

// Errorf performs a Printf()-style log at error level.
func (z *Zerolog) Errorf(f string, v ...interface{}) {
	if z.l >= LevelError {
		z.log.Error().Msgf(f, v...)
	}
}
