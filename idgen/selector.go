// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package idgen

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/canonical/sqlcmd/dialect"
	"github.com/canonical/sqlcmd/metadata"
	"github.com/canonical/sqlcmd/sqlerr"
)

// Selector chooses how the keys of an entity are generated. Integer keys use
// an auto-increment column when the dialect has them and a sequence
// otherwise. Character keys get a client side UUID.
type Selector struct {
	Dialect   dialect.Dialect
	Naming    metadata.NamingStrategy
	Sequences *metadata.SequenceRegistry
	UUID      *UUIDGenerator
	Logger    zerolog.Logger
}

// NewSelector returns a Selector with snake case naming, a new sequence
// registry, braced UUIDs and no logging.
func NewSelector(d dialect.Dialect) *Selector {
	g, _ := NewUUIDGenerator(DefaultUUIDLength)
	return &Selector{
		Dialect:   d,
		Naming:    metadata.SnakeCaseNaming{},
		Sequences: metadata.NewSequenceRegistry(),
		UUID:      g,
		Logger:    zerolog.Nop(),
	}
}

// Apply sets up key generation for every field of em marked AutoID, in
// declaration order.
func (s *Selector) Apply(em *metadata.EntityMapping) error {
	for _, f := range em.Fields {
		if !f.AutoID {
			continue
		}
		switch {
		case f.Column.Type.IsInteger():
			if err := s.applyInteger(em, f); err != nil {
				return err
			}
		case f.Column.Type.IsString():
			s.mapUUID(em, f)
		default:
			s.Logger.Debug().
				Str("entity", em.Name).
				Str("field", f.Name).
				Stringer("type", f.Column.Type).
				Msg("no id generator for column type")
		}
	}
	return nil
}

func (s *Selector) applyInteger(em *metadata.EntityMapping, f *metadata.FieldMapping) error {
	if ai, ok := s.Dialect.(dialect.AutoIncrementer); ok {
		s.mapAutoIncrement(em, f, ai)
		return nil
	}
	if seq, ok := s.Dialect.(dialect.Sequencer); ok {
		s.mapSequence(em, f, seq)
		return nil
	}
	return fmt.Errorf("%w: field %q of entity %q, dialect %q supports neither auto-increment columns nor sequences",
		sqlerr.ErrUnsupportedIDStrategy, f.Name, em.Name, s.Dialect.Name())
}

func (s *Selector) mapAutoIncrement(em *metadata.EntityMapping, f *metadata.FieldMapping, ai dialect.AutoIncrementer) {
	f.Column.AutoIncrement = true
	f.Insert = false
	f.Generator = metadata.AutoIncrementGenerator

	em.InsertInterceptor = metadata.InterceptorFunc(func(ec metadata.ExecutionContext) dialect.Hook {
		if !ec.ReturnGeneratedID() {
			return nil
		}
		return ai.AutoIncrementIDHook(ec.SetGeneratedID)
	})
}

func (s *Selector) mapSequence(em *metadata.EntityMapping, f *metadata.FieldMapping, sq dialect.Sequencer) {
	seq := &metadata.Sequence{Schema: em.Schema}
	if a := f.Sequence; a != nil {
		seq.Name = a.Name
		if seq.Name == "" {
			seq.Name = a.Value
		}
		seq.Start = a.Start
		seq.Increment = a.Increment
		seq.Cache = a.Cache
	}
	if seq.Name == "" {
		seq.Name = s.Naming.SequenceName(em.Table, f.ColumnName())
	}

	f.SequenceName = seq.Name
	f.Generator = metadata.SequenceGenerator

	if !s.Sequences.Register(seq) {
		s.Logger.Info().Str("sequence", seq.Name).Msg("sequence already registered, skipping")
	}

	name := seq.Name
	em.InsertInterceptor = metadata.InterceptorFunc(func(ec metadata.ExecutionContext) dialect.Hook {
		if !ec.ReturnGeneratedID() {
			return nil
		}
		return sq.InsertedSequenceValueHook(name, ec.SetGeneratedID)
	})
}

func (s *Selector) mapUUID(em *metadata.EntityMapping, f *metadata.FieldMapping) {
	f.InsertValue = s.UUID
	f.Generator = metadata.UUIDGenerator

	length := f.Column.Length
	if length == 0 {
		length = s.UUID.Length()
	}
	if length < s.UUID.Length() {
		s.Logger.Warn().
			Str("entity", em.Name).
			Str("field", f.Name).
			Int("length", length).
			Int("uuidLength", s.UUID.Length()).
			Msg("uuid key column is shorter than the generated values")
	}
	f.Column.Length = length
}
