// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package sqlfile loads SQL fragments and named commands from YAML files
// into an engine. A file looks like:
//
//	fragments:
//	  person.columns: id, name, address_id
//	commands:
//	  - key: person.byID
//	    desc: Find a person by id
//	    sql: SELECT @include(person.columns) FROM person WHERE id = :id
package sqlfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/canonical/sqlcmd"
)

// File is the content of a SQL file.
type File struct {
	Fragments map[string]string `yaml:"fragments,omitempty"`
	Commands  []CommandDef      `yaml:"commands,omitempty"`
}

// CommandDef declares a named command.
type CommandDef struct {
	Key  string `yaml:"key"`
	Desc string `yaml:"desc,omitempty"`
	SQL  string `yaml:"sql"`
}

// Parse decodes a SQL file. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	for i, c := range f.Commands {
		if c.Key == "" {
			return nil, fmt.Errorf("command %d has no key", i)
		}
		if c.SQL == "" {
			return nil, fmt.Errorf("command %q has no sql", c.Key)
		}
	}
	return &f, nil
}

// Load adds the fragments and commands of f to the engine. Fragments are
// added first so that commands can include fragments of the same file.
func Load(e *sqlcmd.Engine, f *File) error {
	names := make([]string, 0, len(f.Fragments))
	for name := range f.Fragments {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := e.AddFragment(name, f.Fragments[name]); err != nil {
			return err
		}
	}
	for _, c := range f.Commands {
		if _, err := e.AddCommand(c.Key, c.Desc, c.SQL); err != nil {
			return err
		}
	}
	logger := e.Logger()
	logger.Debug().Int("fragments", len(names)).Int("commands", len(f.Commands)).Msg("loaded sql file")
	return nil
}

// LoadFile reads, parses and loads the SQL file at path.
func LoadFile(e *sqlcmd.Engine, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	f, err := Parse(data)
	if err != nil {
		return fmt.Errorf("cannot parse sql file %s: %w", path, err)
	}
	if err := Load(e, f); err != nil {
		return fmt.Errorf("cannot load sql file %s: %w", path, err)
	}
	return nil
}
