// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package identity

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/jarsign/jarsign/jarsignerr"
)

// PromptFunc reads a secret from the operator, echo disabled, returning it
// without a trailing newline. Swappable in tests so they never block on a
// real terminal.
type PromptFunc func(label string) ([]byte, error)

// TerminalPromptLoader wraps another KeyStoreLoader, prompting at the
// controlling terminal for whichever of the store password and key
// password the caller didn't supply programmatically, the way a `jarsigner`
// invocation without -storepass/-keypass falls back to an interactive
// prompt.
type TerminalPromptLoader struct {
	Inner  KeyStoreLoader
	Prompt PromptFunc
}

// NewTerminalPromptLoader wraps inner with the default terminal prompt.
func NewTerminalPromptLoader(inner KeyStoreLoader) *TerminalPromptLoader {
	return &TerminalPromptLoader{Inner: inner, Prompt: defaultPrompt}
}

func defaultPrompt(label string) ([]byte, error) {
	fmt.Fprint(os.Stderr, label)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, jarsignerr.New(jarsignerr.Io, fmt.Errorf("read password from terminal: %w", err))
	}
	return pw, nil
}

func (t *TerminalPromptLoader) prompt() PromptFunc {
	if t.Prompt != nil {
		return t.Prompt
	}
	return defaultPrompt
}

// Load prompts for the store password if storePassword is empty, then
// delegates to Inner.
func (t *TerminalPromptLoader) Load(path, storeType, provider string, storePassword []byte) (Store, error) {
	if len(storePassword) == 0 {
		pw, err := t.prompt()(fmt.Sprintf("key store password for %s: ", path))
		if err != nil {
			return nil, err
		}
		storePassword = pw
	}
	inner, err := t.Inner.Load(path, storeType, provider, storePassword)
	if err != nil {
		return nil, err
	}
	return &promptingStore{inner: inner, prompt: t.prompt()}, nil
}

type promptingStore struct {
	inner  Store
	prompt PromptFunc
}

func (s *promptingStore) Aliases() []string { return s.inner.Aliases() }

// Resolve prompts for the key password if keyPassword is empty, then
// delegates to the wrapped Store.
func (s *promptingStore) Resolve(alias string, keyPassword []byte) (*Identity, error) {
	if len(keyPassword) == 0 {
		pw, err := s.prompt(fmt.Sprintf("key password for alias %s: ", alias))
		if err != nil {
			return nil, err
		}
		keyPassword = pw
	}
	return s.inner.Resolve(alias, keyPassword)
}
