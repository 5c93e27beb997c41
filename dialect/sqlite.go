// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package dialect

type sqliteDialect struct {
	binder
}

var _ AutoIncrementer = (*sqliteDialect)(nil)

func (d *sqliteDialect) Name() string {
	return SQLite
}

func (d *sqliteDialect) QuoteIdentifier(name string) string {
	return quote(name, `"`)
}

func (d *sqliteDialect) AutoIncrementIDHook(set func(id any)) Hook {
	return &lastInsertIDHook{set: set}
}
