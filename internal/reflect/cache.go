// Package reflect caches the parameter names of struct types.
package reflect

import (
	"reflect"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Field is a struct field reachable by a parameter name.
type Field struct {
	// Name is the name of the struct field.
	Name string

	// Index is the index sequence of the field for FieldByIndex.
	Index []int

	// OmitEmpty is true when "omitempty" is a property of the field's "db"
	// tag.
	OmitEmpty bool
}

// Struct holds the parameter names of a struct type.
type Struct struct {
	Type reflect.Type

	// Names are the parameter names in field order.
	Names []string

	// Fields maps parameter names to struct fields.
	Fields map[string]Field
}

// cache is responsible for generating, caching and retrieving the Struct of
// each type.
type cache struct {
	mutex sync.RWMutex
	cache map[reflect.Type]*Struct
}

// Reflect returns the Struct of t, generating and caching it as required.
// Pointer types are dereferenced.
func (r *cache) Reflect(t reflect.Type) (*Struct, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, errors.Errorf("need struct type, got %s", t.Kind())
	}

	r.mutex.RLock()
	info, ok := r.cache[t]
	r.mutex.RUnlock()
	if ok {
		return info, nil
	}

	info, err := generate(t)
	if err != nil {
		return nil, err
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if alt, ok := r.cache[t]; ok {
		return alt, nil
	}
	r.cache[t] = info
	return info, nil
}

// generate produces the Struct of a struct type. Fields are named by their
// "db" tag, or by their lower case name if there is no tag. Unexported,
// embedded and "-" tagged fields are skipped. The first field to claim a
// name wins.
func generate(t reflect.Type) (*Struct, error) {
	info := &Struct{
		Type:   t,
		Fields: make(map[string]Field),
	}
	for _, field := range reflect.VisibleFields(t) {
		if !field.IsExported() || field.Anonymous {
			continue
		}
		tag := field.Tag.Get("db")
		if tag == "-" {
			continue
		}
		name, omitEmpty, err := parseTag(tag)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s of %s", field.Name, t.Name())
		}
		if name == "" {
			name = strings.ToLower(field.Name)
		}
		if _, ok := info.Fields[name]; ok {
			continue
		}
		info.Names = append(info.Names, name)
		info.Fields[name] = Field{
			Name:      field.Name,
			Index:     field.Index,
			OmitEmpty: omitEmpty,
		}
	}
	return info, nil
}

// parseTag parses the input tag string and returns its name and whether it
// contains the "omitempty" option.
func parseTag(tag string) (string, bool, error) {
	options := strings.Split(tag, ",")

	var omitEmpty bool
	for _, opt := range options[1:] {
		if strings.ToLower(strings.TrimSpace(opt)) != "omitempty" {
			return "", false, errors.Errorf("unexpected tag value %q", opt)
		}
		omitEmpty = true
	}

	return strings.TrimSpace(options[0]), omitEmpty, nil
}
