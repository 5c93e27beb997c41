// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package metadata

import (
	"github.com/canonical/sqlcmd/params"
)

// Expression computes a field value when an entity is inserted.
type Expression interface {
	Value(field *FieldMapping, entity *params.Entity) (any, error)
}

// ExpressionFunc is an Expression backed by a function.
type ExpressionFunc func(field *FieldMapping, entity *params.Entity) (any, error)

func (f ExpressionFunc) Value(field *FieldMapping, entity *params.Entity) (any, error) {
	return f(field, entity)
}

// Constant returns an Expression that always evaluates to v.
func Constant(v any) Expression {
	return ExpressionFunc(func(*FieldMapping, *params.Entity) (any, error) {
		return v, nil
	})
}
