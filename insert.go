// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlcmd

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/canonical/sqlcmd/dialect"
	"github.com/canonical/sqlcmd/metadata"
	"github.com/canonical/sqlcmd/params"
)

// PreCreator is implemented by values that need to run code before they are
// inserted.
type PreCreator interface {
	PreCreate() error
}

// InsertCommand inserts one entity. Generated keys and values are written
// back into the entity and into the value passed to SetAll.
type InsertCommand struct {
	engine *Engine
	em     *metadata.EntityMapping
	entity *params.Entity
	// caller holds the values given to SetAll.
	caller params.Mutable
	// fromStruct is true when caller is a struct, whose unset fields hold
	// zero values rather than nil.
	fromStruct  bool
	generatedID any
	skipID      bool
}

var _ metadata.ExecutionContext = (*InsertCommand)(nil)

func newInsertCommand(e *Engine, em *metadata.EntityMapping) *InsertCommand {
	return &InsertCommand{
		engine: e,
		em:     em,
		entity: params.NewEntity(em.Name),
	}
}

// SetAll sets the fields of the entity from v, which is a map or a pointer to
// a struct. If v is a PreCreator its PreCreate method runs first.
func (ic *InsertCommand) SetAll(v any) error {
	if v == nil {
		return fmt.Errorf("cannot insert %s: nil value", ic.em.Name)
	}
	if pc, ok := v.(PreCreator); ok {
		if err := pc.PreCreate(); err != nil {
			return err
		}
	}

	switch v := v.(type) {
	case map[string]any:
		ic.setMap(params.Map(v))
	case params.Map:
		ic.setMap(v)
	default:
		s, err := params.NewStruct(v)
		if err != nil {
			return fmt.Errorf("cannot insert %s: %w", ic.em.Name, err)
		}
		ic.caller = s
		ic.fromStruct = true
		for _, name := range s.Names() {
			if value, ok := s.Get(name); ok {
				ic.entity.Set(name, value)
			}
		}
	}
	return nil
}

func (ic *InsertCommand) setMap(m params.Map) {
	ic.caller = m
	ic.fromStruct = false
	for name, value := range m {
		ic.entity.Set(name, value)
	}
}

// Set sets a single field of the entity.
func (ic *InsertCommand) Set(name string, value any) *InsertCommand {
	ic.entity.Set(name, value)
	return ic
}

// SkipGeneratedID stops the insert from reading back the key generated by the
// database.
func (ic *InsertCommand) SkipGeneratedID() *InsertCommand {
	ic.skipID = true
	return ic
}

// Entity returns the values that are inserted.
func (ic *InsertCommand) Entity() *params.Entity {
	return ic.entity
}

// GeneratedID returns the generated key of the entity, or nil.
func (ic *InsertCommand) GeneratedID() any {
	return ic.generatedID
}

// ReturnGeneratedID reports whether the key generated by the database is read
// back after the insert.
func (ic *InsertCommand) ReturnGeneratedID() bool {
	return !ic.skipID
}

// SetGeneratedID records the generated key and writes it into the key field
// of the entity and of the value given to SetAll.
func (ic *InsertCommand) SetGeneratedID(id any) {
	ic.generatedID = id
	if pk := ic.em.PrimaryKey(); len(pk) > 0 {
		ic.setGenerated(pk[0], id)
	}
}

func (ic *InsertCommand) setGenerated(f *metadata.FieldMapping, value any) {
	ic.entity.Set(f.Name, value)
	if ic.caller != nil {
		ic.caller.Set(f.Name, value)
	}
}

// Execute inserts the entity and returns the number of affected rows.
func (ic *InsertCommand) Execute(ctx context.Context, ex Executor) (int64, error) {
	if err := ic.prepare(); err != nil {
		return 0, err
	}

	var fields []*metadata.FieldMapping
	for _, f := range ic.em.Fields {
		if f.Insert && ic.entity.Has(f.Name) {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		return 0, fmt.Errorf("cannot insert %s: no field values", ic.em.Name)
	}
	cmd, err := ic.engine.inserts.command(ic.engine, ic.em, fields)
	if err != nil {
		return 0, err
	}

	var hooks []dialect.Hook
	if ic.em.InsertInterceptor != nil {
		hooks = append(hooks, ic.em.InsertInterceptor.Hook(ic))
	}
	return cmd.ExecuteUpdate(ctx, ex, ic.entity, hooks...)
}

// prepare fills in the values the database does not generate, in field
// declaration order.
func (ic *InsertCommand) prepare() error {
	for _, f := range ic.em.Fields {
		if f.SequenceName != "" {
			seq, ok := ic.engine.dialect.(dialect.Sequencer)
			if !ok {
				return fmt.Errorf("cannot insert %s: dialect %s has no sequences", ic.em.Name, ic.engine.dialect.Name())
			}
			// The insert statement splices the value of sequence fields as
			// SQL text.
			ic.entity.Set(f.Name, seq.NextSequenceValue(f.SequenceName))
			continue
		}
		if !ic.missing(f) {
			continue
		}
		switch {
		case f.InsertValue != nil:
			v, err := f.InsertValue.Value(f, ic.entity)
			if err != nil {
				return fmt.Errorf("cannot generate %s.%s: %w", ic.em.Name, f.Name, err)
			}
			if f.PrimaryKey {
				ic.generatedID = v
			}
			ic.setGenerated(f, v)
		case f.DefaultValue != nil:
			v, err := f.DefaultValue.Value(f, ic.entity)
			if err != nil {
				return fmt.Errorf("cannot evaluate default of %s.%s: %w", ic.em.Name, f.Name, err)
			}
			ic.setGenerated(f, v)
		}
	}
	return nil
}

// missing reports whether the field has no value. Struct fields that hold the
// zero value of their type are missing.
func (ic *InsertCommand) missing(f *metadata.FieldMapping) bool {
	v, ok := ic.entity.Get(f.Name)
	if !ok || v == nil {
		return true
	}
	return ic.fromStruct && reflect.ValueOf(v).IsZero()
}

// insertSQL returns the insert statement of the given fields. Sequence fields
// are replacement parameters, the others are bound.
func insertSQL(d dialect.Dialect, em *metadata.EntityMapping, fields []*metadata.FieldMapping) string {
	var cols, values []string
	for _, f := range fields {
		cols = append(cols, d.QuoteIdentifier(f.ColumnName()))
		if f.SequenceName != "" {
			values = append(values, "$"+f.Name+"$")
		} else {
			values = append(values, ":"+f.Name)
		}
	}
	return "INSERT INTO " + em.QualifiedTable(d.QuoteIdentifier) + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(values, ", ") + ")"
}
