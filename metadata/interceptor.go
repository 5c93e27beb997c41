// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package metadata

import (
	"github.com/canonical/sqlcmd/dialect"
)

// ExecutionContext is the state of one insert as seen by an interceptor.
type ExecutionContext interface {
	// ReturnGeneratedID reports whether the caller wants the generated key.
	ReturnGeneratedID() bool

	// SetGeneratedID records the key generated by the database.
	SetGeneratedID(id any)
}

// ExecutionInterceptor attaches behaviour to the execution of an entity
// statement.
type ExecutionInterceptor interface {
	// Hook returns the hook to run with the statement, or nil.
	Hook(ec ExecutionContext) dialect.Hook
}

// InterceptorFunc is an ExecutionInterceptor backed by a function.
type InterceptorFunc func(ec ExecutionContext) dialect.Hook

func (f InterceptorFunc) Hook(ec ExecutionContext) dialect.Hook {
	return f(ec)
}
