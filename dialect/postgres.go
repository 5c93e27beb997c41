// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package dialect

import (
	"github.com/lib/pq"
)

// postgresDialect generates keys from sequences only. The lib/pq driver does
// not implement LastInsertId.
type postgresDialect struct {
	binder
}

var _ Sequencer = (*postgresDialect)(nil)

func (d *postgresDialect) Name() string {
	return Postgres
}

func (d *postgresDialect) QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}

func (d *postgresDialect) NextSequenceValue(name string) string {
	return "nextval(" + pq.QuoteLiteral(name) + ")"
}

func (d *postgresDialect) InsertedSequenceValueHook(name string, set func(id any)) Hook {
	return &queryIDHook{
		query: "SELECT currval(" + pq.QuoteLiteral(name) + ")",
		set:   set,
	}
}
