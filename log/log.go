// SPDX-FileCopyrightText: Copyright (c) 2022-2023 The go-mail Authors
//
// SPDX-License-Identifier: MIT

// Package log implements a logger interface that can be used within the jarsign module
package log

// Logger is the log interface used by jarsign's driver and JAR engine
type Logger interface {
	Errorf(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Debugf(format string, v ...interface{})
}

// Discard is a Logger that drops every message, the default for callers
// that don't configure one explicitly.
type Discard struct{}

func (Discard) Errorf(string, ...interface{}) {}
func (Discard) Warnf(string, ...interface{})  {}
func (Discard) Infof(string, ...interface{})  {}
func (Discard) Debugf(string, ...interface{}) {}
