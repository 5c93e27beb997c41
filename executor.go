// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlcmd

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/canonical/sqlcmd/dialect"
	"github.com/canonical/sqlcmd/internal/clause"
)

// Executor runs statements. It is implemented by *sql.DB, *sql.Tx and
// *sql.Conn, as well as their sqlx counterparts.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// connector is an Executor backed by a connection pool. Statements with hooks
// are run on a single connection taken from the pool so that follow-up
// queries see the session of the statement.
type connector interface {
	Conn(ctx context.Context) (*sql.Conn, error)
}

func query(ctx context.Context, ex Executor, stmt *clause.Statement, reader RowReader) (err error) {
	rows, err := ex.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rows.Close(); err == nil {
			err = cerr
		}
	}()
	if err := reader.ReadRows(rows); err != nil {
		return err
	}
	return rows.Err()
}

func exec(ctx context.Context, ex Executor, stmt *clause.Statement, hooks []dialect.Hook) (sql.Result, error) {
	hooks = activeHooks(hooks)
	if len(hooks) == 0 {
		return ex.ExecContext(ctx, stmt.SQL, stmt.Args...)
	}

	if pool, ok := ex.(connector); ok {
		conn, err := pool.Conn(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "cannot get connection")
		}
		defer conn.Close()
		ex = conn
	}

	for _, h := range hooks {
		if err := h.PreExecute(ctx, stmt.SQL, stmt.Args); err != nil {
			return nil, err
		}
	}
	res, err := ex.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, err
	}
	for _, h := range hooks {
		if err := h.PostExecute(ctx, ex, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func activeHooks(hooks []dialect.Hook) []dialect.Hook {
	var active []dialect.Hook
	for _, h := range hooks {
		if h != nil {
			active = append(active, h)
		}
	}
	return active
}

func execBatch(ctx context.Context, ex Executor, bs *clause.BatchStatement, hook dialect.BatchHook) (affected []int64, err error) {
	if hook != nil {
		if err := hook.PreExecuteBatch(ctx, bs.SQL, bs.Args); err != nil {
			return nil, err
		}
	}

	affected = make([]int64, 0, len(bs.Args))
	if len(bs.Args) > 0 {
		sqlstmt, err := ex.PrepareContext(ctx, bs.SQL)
		if err != nil {
			return nil, err
		}
		defer func() {
			if cerr := sqlstmt.Close(); err == nil {
				err = cerr
			}
		}()
		for i, args := range bs.Args {
			res, err := sqlstmt.ExecContext(ctx, args...)
			if err != nil {
				return nil, errors.Wrapf(err, "batch item %d", i)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return nil, err
			}
			affected = append(affected, n)
		}
	}

	if hook != nil {
		if err := hook.PostExecuteBatch(ctx, affected); err != nil {
			return nil, err
		}
	}
	return affected, nil
}
