// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlcmd

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/canonical/sqlcmd/dialect"
	"github.com/canonical/sqlcmd/idgen"
	"github.com/canonical/sqlcmd/metadata"
	"github.com/canonical/sqlcmd/sqlerr"
)

// Engine compiles SQL commands for one dialect. It holds the SQL fragments
// commands can include, the named commands, and the entity mappings used to
// build inserts. An Engine is safe for concurrent use.
type Engine struct {
	dialect   dialect.Dialect
	fragments *metadata.FragmentRegistry
	selector  *idgen.Selector
	logger    zerolog.Logger

	mutex    sync.RWMutex
	commands map[string]*Command
	entities map[string]*metadata.EntityMapping

	inserts *insertCache
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger of the engine. The default logger discards
// everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.selector.Logger = logger
	}
}

// WithNamingStrategy sets how sequence names are derived. The default is
// metadata.SnakeCaseNaming.
func WithNamingStrategy(naming metadata.NamingStrategy) Option {
	return func(e *Engine) {
		e.selector.Naming = naming
	}
}

// WithUUIDGenerator sets the generator of character keys.
func WithUUIDGenerator(g *idgen.UUIDGenerator) Option {
	return func(e *Engine) {
		e.selector.UUID = g
	}
}

// WithSequences shares a sequence registry between engines.
func WithSequences(r *metadata.SequenceRegistry) Option {
	return func(e *Engine) {
		e.selector.Sequences = r
	}
}

// NewEngine returns an engine for the given dialect.
func NewEngine(d dialect.Dialect, opts ...Option) *Engine {
	e := &Engine{
		dialect:   d,
		fragments: metadata.NewFragmentRegistry(),
		selector:  idgen.NewSelector(d),
		logger:    zerolog.Nop(),
		commands:  map[string]*Command{},
		entities:  map[string]*metadata.EntityMapping{},
		inserts:   newInsertCache(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dialect returns the dialect of the engine.
func (e *Engine) Dialect() dialect.Dialect {
	return e.dialect
}

// Fragments returns the fragment registry of the engine.
func (e *Engine) Fragments() *metadata.FragmentRegistry {
	return e.fragments
}

// Sequences returns the sequences registered for entity keys.
func (e *Engine) Sequences() *metadata.SequenceRegistry {
	return e.selector.Sequences
}

// Logger returns the logger of the engine.
func (e *Engine) Logger() zerolog.Logger {
	return e.logger
}

// AddFragment registers a SQL fragment that commands can @include.
func (e *Engine) AddFragment(name string, content string) error {
	return e.fragments.Add(name, content)
}

// NewCommand returns a command for content. source identifies the command in
// errors and logs, e.g. the file and key it was loaded from. The command is
// prepared on first use.
func (e *Engine) NewCommand(source string, desc string, content string) *Command {
	return &Command{
		engine:  e,
		source:  source,
		desc:    desc,
		content: content,
	}
}

// AddCommand creates a command and registers it under key.
func (e *Engine) AddCommand(key string, desc string, content string) (*Command, error) {
	if key == "" {
		return nil, fmt.Errorf("sql command has no key")
	}
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if _, ok := e.commands[key]; ok {
		return nil, fmt.Errorf("%w: sql command %q", sqlerr.ErrDuplicateConfig, key)
	}
	cmd := e.NewCommand(key, desc, content)
	e.commands[key] = cmd
	return cmd, nil
}

// Command returns the command registered under key.
func (e *Engine) Command(key string) (*Command, bool) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	cmd, ok := e.commands[key]
	return cmd, ok
}

// CommandKeys returns the keys of all registered commands, sorted.
func (e *Engine) CommandKeys() []string {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	keys := make([]string, 0, len(e.commands))
	for k := range e.commands {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RegisterEntity validates em, chooses how its keys are generated and makes
// it available to Insert. The mapping is modified in place.
func (e *Engine) RegisterEntity(em *metadata.EntityMapping) error {
	if err := em.Validate(); err != nil {
		return err
	}
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if _, ok := e.entities[em.Name]; ok {
		return fmt.Errorf("%w: entity %q", sqlerr.ErrDuplicateConfig, em.Name)
	}
	if err := e.selector.Apply(em); err != nil {
		return err
	}
	e.entities[em.Name] = em
	e.logger.Debug().Str("entity", em.Name).Str("table", em.Table).Msg("registered entity")
	return nil
}

// Entity returns the mapping of the named entity.
func (e *Engine) Entity(name string) (*metadata.EntityMapping, bool) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	em, ok := e.entities[name]
	return em, ok
}

// Insert returns a new insert of the named entity.
func (e *Engine) Insert(entityName string) (*InsertCommand, error) {
	em, ok := e.Entity(entityName)
	if !ok {
		return nil, fmt.Errorf("unknown entity %q", entityName)
	}
	return newInsertCommand(e, em), nil
}
