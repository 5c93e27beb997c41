// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package dialect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Names of the supported dialects. They match the database/sql driver names.
const (
	SQLite   = "sqlite3"
	MySQL    = "mysql"
	Postgres = "postgres"
)

// Dialect is implemented by every database.
type Dialect interface {
	// Name returns the name of the dialect.
	Name() string

	// Placeholder returns the bind variable of the argument at index n,
	// counting from zero.
	Placeholder(n int) string

	// QuoteIdentifier quotes a table or column name.
	QuoteIdentifier(name string) string
}

// AutoIncrementer is implemented by dialects that generate keys with
// auto-increment columns.
type AutoIncrementer interface {
	Dialect

	// AutoIncrementIDHook returns a hook that passes the key generated by the
	// insert to set.
	AutoIncrementIDHook(set func(id any)) Hook
}

// Sequencer is implemented by dialects that generate keys with sequences.
type Sequencer interface {
	Dialect

	// NextSequenceValue returns the SQL expression that takes the next value
	// of the named sequence.
	NextSequenceValue(name string) string

	// InsertedSequenceValueHook returns a hook that passes the value taken
	// from the named sequence by the insert to set.
	InsertedSequenceValueHook(name string, set func(id any)) Hook
}

// New returns the dialect for a database/sql driver name. The bind variable
// style follows the driver, so "pgx" gets numbered placeholders.
func New(driverName string) (Dialect, error) {
	b := binder{bindType: sqlx.BindType(driverName)}
	switch strings.ToLower(driverName) {
	case "sqlite3", "sqlite":
		return &sqliteDialect{binder: b}, nil
	case "mysql":
		return &mysqlDialect{binder: b}, nil
	case "postgres", "postgresql", "pgx", "pq":
		if b.bindType == sqlx.UNKNOWN {
			b.bindType = sqlx.DOLLAR
		}
		return &postgresDialect{binder: b}, nil
	}
	return nil, fmt.Errorf("unknown sql dialect %q", driverName)
}

// binder writes the bind variables of a sqlx bind type.
type binder struct {
	bindType int
}

func (b binder) Placeholder(n int) string {
	if b.bindType == sqlx.DOLLAR {
		return "$" + strconv.Itoa(n+1)
	}
	return "?"
}

// quote wraps name in q, doubling any q inside it.
func quote(name string, q string) string {
	return q + strings.ReplaceAll(name, q, q+q) + q
}
