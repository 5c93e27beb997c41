// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package dialect describes what a database can do for the command engine:
// its bind variable style, identifier quoting and the ways it can generate
// primary keys.
//
// Three dialects are provided:
//
//	dialect.SQLite   = "sqlite3"
//	dialect.MySQL    = "mysql"
//	dialect.Postgres = "postgres"
//
// SQLite and MySQL generate keys with auto-increment columns, the key is read
// back from the sql.Result of the insert. PostgreSQL generates keys from
// sequences, the key is read back with currval on the same connection.
//
// Capabilities are discovered with type assertions:
//
//	if ai, ok := d.(dialect.AutoIncrementer); ok {
//		hook := ai.AutoIncrementIDHook(func(id any) { ... })
//	}
package dialect
