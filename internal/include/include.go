// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package include expands @include(name) directives in SQL text with the
// content of named fragments.
package include

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/canonical/sqlcmd/sqlerr"
)

const directive = "include"

// FragmentLookup resolves fragment names to SQL text.
type FragmentLookup interface {
	Fragment(name string) (string, bool)
}

// LookupFunc adapts a function to a FragmentLookup.
type LookupFunc func(name string) (string, bool)

func (f LookupFunc) Fragment(name string) (string, bool) {
	return f(name)
}

// Contains reports whether content has anything that looks like an include
// directive. It is used to skip processing of plain SQL.
func Contains(content string) bool {
	return strings.Contains(strings.ToLower(content), "@"+directive)
}

// Process replaces every @include(name) directive in content with the
// fragment registered under name, recursively. Any other @word is left
// untouched.
//
// A reference of the form @include(name;required=false) expands to nothing
// when the fragment does not exist.
func Process(content string, lookup FragmentLookup) (string, error) {
	p := &processor{lookup: lookup, visiting: map[string]bool{}}
	return p.process(content)
}

// processor holds the state of a single Process call. visiting contains the
// fragments on the current inclusion chain.
type processor struct {
	lookup   FragmentLookup
	visiting map[string]bool
	chain    []string
}

func (p *processor) process(content string) (string, error) {
	if !Contains(content) {
		return content, nil
	}

	var sb strings.Builder
	sb.Grow(len(content))
	for pos := 0; pos < len(content); {
		if content[pos] != '@' {
			sb.WriteByte(content[pos])
			pos++
			continue
		}
		ref, end, ok := scanDirective(content, pos)
		if !ok {
			sb.WriteByte('@')
			pos++
			continue
		}
		expanded, err := p.expand(ref)
		if err != nil {
			return "", err
		}
		sb.WriteString(expanded)
		pos = end
	}
	return sb.String(), nil
}

// expand resolves a single reference and processes the fragment content.
func (p *processor) expand(ref reference) (string, error) {
	if p.visiting[ref.name] {
		chain := append(append([]string(nil), p.chain...), ref.name)
		return "", fmt.Errorf("%w: %s", sqlerr.ErrCyclicFragment, strings.Join(chain, " -> "))
	}
	content, ok := p.lookup.Fragment(ref.name)
	if !ok {
		if !ref.required {
			return "", nil
		}
		return "", fmt.Errorf("%w: %q", sqlerr.ErrMissingFragment, ref.name)
	}

	p.visiting[ref.name] = true
	p.chain = append(p.chain, ref.name)
	defer func() {
		delete(p.visiting, ref.name)
		p.chain = p.chain[:len(p.chain)-1]
	}()

	expanded, err := p.process(content)
	if err != nil {
		return "", fmt.Errorf("in fragment %q: %w", ref.name, err)
	}
	return expanded, nil
}

// reference is a parsed include directive.
type reference struct {
	name     string
	required bool
}

// scanDirective checks for an include directive starting at the '@' at pos.
// It returns the reference and the position just after the closing
// parenthesis.
func scanDirective(content string, pos int) (reference, int, bool) {
	i := pos + 1
	start := i
	for i < len(content) {
		r, size := utf8.DecodeRuneInString(content[i:])
		if !unicode.IsLetter(r) {
			break
		}
		i += size
	}
	if !strings.EqualFold(content[start:i], directive) {
		return reference{}, 0, false
	}

	for i < len(content) && isBlank(content[i]) {
		i++
	}
	if i == len(content) || content[i] != '(' {
		return reference{}, 0, false
	}
	closing := strings.IndexByte(content[i:], ')')
	if closing < 0 {
		return reference{}, 0, false
	}
	ref, ok := parseReference(content[i+1 : i+closing])
	if !ok {
		return reference{}, 0, false
	}
	return ref, i + closing + 1, true
}

// parseReference parses "name" or "name;required=true|false".
func parseReference(s string) (reference, bool) {
	parts := strings.Split(s, ";")
	ref := reference{name: strings.TrimSpace(parts[0]), required: true}
	if ref.name == "" {
		return reference{}, false
	}
	for _, opt := range parts[1:] {
		k, v, _ := strings.Cut(opt, "=")
		if strings.EqualFold(strings.TrimSpace(k), "required") {
			ref.required = !strings.EqualFold(strings.TrimSpace(v), "false")
		}
	}
	return ref, true
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
