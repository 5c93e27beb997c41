// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package params

import "strings"

// Entity is an ordered field map holding one row to be written. Field names
// are compared case insensitively, the name used on first write is kept.
type Entity struct {
	name   string
	keys   []string
	values map[string]any
}

// NewEntity returns an empty entity.
func NewEntity(name string) *Entity {
	return &Entity{name: name, values: map[string]any{}}
}

// Name returns the entity name.
func (e *Entity) Name() string {
	return e.name
}

func (e *Entity) Get(name string) (any, bool) {
	v, ok := e.values[strings.ToLower(name)]
	return v, ok
}

// Value returns the named value or nil.
func (e *Entity) Value(name string) any {
	return e.values[strings.ToLower(name)]
}

func (e *Entity) Set(name string, value any) {
	key := strings.ToLower(name)
	if _, ok := e.values[key]; !ok {
		e.keys = append(e.keys, name)
	}
	e.values[key] = value
}

// Has reports whether the field has been set, even to nil.
func (e *Entity) Has(name string) bool {
	_, ok := e.values[strings.ToLower(name)]
	return ok
}

// Fields returns the field names in the order they were first set.
func (e *Entity) Fields() []string {
	return append([]string(nil), e.keys...)
}

// Len returns the number of fields.
func (e *Entity) Len() int {
	return len(e.keys)
}
