// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package metadata

import (
	"fmt"
	"strings"

	"github.com/canonical/sqlcmd/internal/clause"
	"github.com/canonical/sqlcmd/sqlerr"
)

// GeneratorKind is the way the value of a key field is produced.
type GeneratorKind int

const (
	NoGenerator GeneratorKind = iota
	AutoIncrementGenerator
	SequenceGenerator
	UUIDGenerator
)

func (k GeneratorKind) String() string {
	switch k {
	case AutoIncrementGenerator:
		return "auto-increment"
	case SequenceGenerator:
		return "sequence"
	case UUIDGenerator:
		return "uuid"
	}
	return "none"
}

// SequenceAnnotation holds the sequence settings declared on a field. Zero
// values are unset.
type SequenceAnnotation struct {
	Name      string
	Value     string
	Start     int64
	Increment int
	Cache     int
}

// FieldMapping maps an entity field to a column.
type FieldMapping struct {
	Name       string
	Column     Column
	PrimaryKey bool
	// Insert is false when the column is left out of insert statements.
	Insert bool
	// AutoID asks for the key to be generated.
	AutoID bool

	Sequence     *SequenceAnnotation
	SequenceName string

	// InsertValue computes the value of the field when none is given.
	InsertValue Expression
	// DefaultValue is used when the field has no value and no InsertValue.
	DefaultValue Expression

	Generator GeneratorKind
}

// NewField returns a field included in inserts whose column is named after
// the field.
func NewField(name string, t ColumnType) *FieldMapping {
	return &FieldMapping{
		Name:   name,
		Column: Column{Name: name, Type: t, Nullable: true},
		Insert: true,
	}
}

// ColumnName returns the name of the column of the field.
func (f *FieldMapping) ColumnName() string {
	if f.Column.Name != "" {
		return f.Column.Name
	}
	return f.Name
}

// EntityMapping maps an entity to a table.
type EntityMapping struct {
	Name   string
	Table  string
	Schema string
	// Fields are kept in declaration order.
	Fields []*FieldMapping

	InsertInterceptor ExecutionInterceptor
}

// Field returns the field with the given name, ignoring case.
func (em *EntityMapping) Field(name string) (*FieldMapping, bool) {
	for _, f := range em.Fields {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return nil, false
}

// PrimaryKey returns the primary key fields in declaration order.
func (em *EntityMapping) PrimaryKey() []*FieldMapping {
	var pk []*FieldMapping
	for _, f := range em.Fields {
		if f.PrimaryKey {
			pk = append(pk, f)
		}
	}
	return pk
}

// QualifiedTable returns the table name prefixed with its schema, if any.
// Both names are passed through quote.
func (em *EntityMapping) QualifiedTable(quote func(string) string) string {
	if em.Schema == "" {
		return quote(em.Table)
	}
	return quote(em.Schema) + "." + quote(em.Table)
}

// Validate checks that the mapping names an entity and a table and that the
// fields have distinct names usable as command parameters.
func (em *EntityMapping) Validate() error {
	if em.Name == "" {
		return fmt.Errorf("entity mapping has no name")
	}
	if em.Table == "" {
		return fmt.Errorf("entity %q has no table", em.Name)
	}
	if len(em.Fields) == 0 {
		return fmt.Errorf("entity %q has no fields", em.Name)
	}
	seen := make(map[string]bool, len(em.Fields))
	for _, f := range em.Fields {
		if f.Name == "" {
			return fmt.Errorf("entity %q has a field with no name", em.Name)
		}
		if !clause.IsParameterName(f.Name) {
			return fmt.Errorf("field %q of entity %q is not a valid parameter name", f.Name, em.Name)
		}
		key := strings.ToLower(f.Name)
		if seen[key] {
			return fmt.Errorf("%w: field %q in entity %q", sqlerr.ErrDuplicateConfig, f.Name, em.Name)
		}
		seen[key] = true
	}
	return nil
}
