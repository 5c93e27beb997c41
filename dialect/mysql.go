// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package dialect

type mysqlDialect struct {
	binder
}

var _ AutoIncrementer = (*mysqlDialect)(nil)

func (d *mysqlDialect) Name() string {
	return MySQL
}

func (d *mysqlDialect) QuoteIdentifier(name string) string {
	return quote(name, "`")
}

func (d *mysqlDialect) AutoIncrementIDHook(set func(id any)) Hook {
	return &lastInsertIDHook{set: set}
}
