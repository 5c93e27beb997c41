// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package sqlerr holds the errors returned by the command engine. Callers
// should test for them with errors.Is, the engine always wraps them with the
// source of the offending SQL.
package sqlerr

import (
	"errors"
	"fmt"
)

var (
	// ErrParse is returned for malformed parameter or directive syntax.
	ErrParse = errors.New("cannot parse sql")

	// ErrMissingFragment is returned when an @include names a fragment that
	// is not registered.
	ErrMissingFragment = errors.New("sql fragment not found")

	// ErrCyclicFragment is returned when a fragment includes itself, directly
	// or through other fragments.
	ErrCyclicFragment = errors.New("cyclic sql fragment inclusion")

	// ErrMultiStatement is returned when a command contains more than one
	// statement.
	ErrMultiStatement = errors.New("two or more sql statements in a command not supported")

	// ErrNotAQuery is returned when a query is run on an update command.
	ErrNotAQuery = errors.New("command is not a query")

	// ErrIsAQuery is returned when an update is run on a query command.
	ErrIsAQuery = errors.New("command is a query")

	// ErrReplacementInBatch is returned when a batch statement contains a
	// replacement parameter.
	ErrReplacementInBatch = errors.New("batch statements cannot use replacement parameters")

	// ErrUnsupportedIDStrategy is returned when no id generation strategy
	// fits a field and the dialect.
	ErrUnsupportedIDStrategy = errors.New("unsupported id generation strategy")

	// ErrDuplicateConfig is returned when a fragment, command or entity is
	// registered twice under the same name.
	ErrDuplicateConfig = errors.New("duplicate configuration")

	// ErrMissingParameter is returned when a replacement parameter has no
	// value.
	ErrMissingParameter = errors.New("missing parameter value")
)

// ConfigError is a non retryable error found while preparing a command. It
// names the source of the command.
type ConfigError struct {
	Source string
	Err    error
}

// NewConfigError returns a ConfigError for the given source.
func NewConfigError(source string, err error) *ConfigError {
	return &ConfigError{Source: source, Err: err}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid sql command %s: %s", e.Source, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err was produced while preparing a command.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
