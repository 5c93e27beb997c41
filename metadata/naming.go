// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package metadata

import (
	"github.com/iancoleman/strcase"
)

// NamingStrategy derives database names from entity names.
type NamingStrategy interface {
	// ColumnName returns the column name of a field.
	ColumnName(field string) string

	// SequenceName returns the name of the sequence generating the values of
	// a column.
	SequenceName(table string, column string) string
}

// SnakeCaseNaming names columns and sequences in snake case, e.g. the field
// "FirstName" is stored in "first_name" and the key of table "Person" is
// generated by "seq_person_id".
type SnakeCaseNaming struct{}

var _ NamingStrategy = SnakeCaseNaming{}

func (SnakeCaseNaming) ColumnName(field string) string {
	return strcase.ToSnake(field)
}

func (SnakeCaseNaming) SequenceName(table string, column string) string {
	return "seq_" + strcase.ToSnake(table) + "_" + strcase.ToSnake(column)
}
