// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package params provides the parameter sources that SQL commands read their
// named values from.
package params

import (
	"fmt"
	"reflect"
	"strings"

	dbreflect "github.com/canonical/sqlcmd/internal/reflect"
)

// Params is a source of named parameter values.
type Params interface {
	// Get returns the value of the named parameter and whether it exists.
	Get(name string) (any, bool)
}

// Mutable is a parameter source that can also be written to.
type Mutable interface {
	Params
	Set(name string, value any)
}

// Map is a parameter source backed by a plain map. Writes go to the map, so
// the caller sees them.
type Map map[string]any

func (m Map) Get(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

func (m Map) Set(name string, value any) {
	m[name] = value
}

// Empty is a parameter source with no values.
var Empty Params = Map(nil)

// Struct is a parameter source over the fields of a struct. Fields are named
// by their `db` tag, or by the lower case field name if there is no tag. A
// field tagged omitempty is absent while it holds its zero value.
type Struct struct {
	v    reflect.Value
	info *dbreflect.Struct
}

// NewStruct returns a parameter source over the struct pointed to by ptr. A
// pointer is required so that Set can write generated values back.
func NewStruct(ptr any) (*Struct, error) {
	v := reflect.ValueOf(ptr)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return nil, fmt.Errorf("need pointer to struct, got %T", ptr)
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("need pointer to struct, got pointer to %s", v.Kind())
	}
	info, err := dbreflect.Cache().Reflect(v.Type())
	if err != nil {
		return nil, err
	}
	return &Struct{v: v, info: info}, nil
}

// lookup returns the named field. An exact match is preferred, otherwise
// names are compared ignoring case.
func (s *Struct) lookup(name string) (dbreflect.Field, bool) {
	if f, ok := s.info.Fields[name]; ok {
		return f, true
	}
	for _, n := range s.info.Names {
		if strings.EqualFold(n, name) {
			return s.info.Fields[n], true
		}
	}
	return dbreflect.Field{}, false
}

func (s *Struct) Get(name string) (any, bool) {
	f, ok := s.lookup(name)
	if !ok {
		return nil, false
	}
	value := s.v.FieldByIndex(f.Index)
	if f.OmitEmpty && value.IsZero() {
		return nil, false
	}
	return value.Interface(), true
}

// Set writes value into the named field, converting it to the field type
// when possible. Unknown names and inconvertible values are ignored.
func (s *Struct) Set(name string, value any) {
	sf, ok := s.lookup(name)
	if !ok || value == nil {
		return
	}
	f := s.v.FieldByIndex(sf.Index)
	if !f.CanSet() {
		return
	}
	rv := reflect.ValueOf(value)
	switch {
	case rv.Type().AssignableTo(f.Type()):
		f.Set(rv)
	case rv.Type().ConvertibleTo(f.Type()) && convertible(rv.Kind(), f.Kind()):
		f.Set(rv.Convert(f.Type()))
	}
}

// convertible reports whether a value of kind from may be converted to kind
// to without changing its meaning, e.g. int64 ids into int fields but not
// ints into strings.
func convertible(from, to reflect.Kind) bool {
	isNumber := func(k reflect.Kind) bool {
		return (k >= reflect.Int && k <= reflect.Uint64) || k == reflect.Float32 || k == reflect.Float64
	}
	if isNumber(from) {
		return isNumber(to)
	}
	return from == to
}

// Names returns the parameter names of the struct in field order.
func (s *Struct) Names() []string {
	return append([]string(nil), s.info.Names...)
}
