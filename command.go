// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlcmd

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/canonical/sqlcmd/dialect"
	"github.com/canonical/sqlcmd/internal/clause"
	"github.com/canonical/sqlcmd/internal/include"
	"github.com/canonical/sqlcmd/params"
	"github.com/canonical/sqlcmd/sqlerr"
)

// Command is a SQL command compiled for an engine. The SQL is expanded and
// parsed once, on the first call that needs it. A command that fails to
// prepare keeps failing with the same error.
type Command struct {
	engine  *Engine
	source  string
	desc    string
	content string

	once    sync.Once
	err     error
	clauses []*clause.Clause
	// query is the clause of the command if it is a query.
	query *clause.Clause
	// count is the count form of query.
	count    *clause.Clause
	countErr error
}

// Source returns the identity of the command.
func (c *Command) Source() string {
	return c.source
}

// Description returns the description the command was created with.
func (c *Command) Description() string {
	return c.desc
}

// SQL returns the text of the command as written.
func (c *Command) SQL() string {
	return c.content
}

func (c *Command) String() string {
	if c.desc == "" {
		return "Command[" + c.source + "]"
	}
	return "Command[" + c.source + ": " + c.desc + "]"
}

// Prepare expands the @include directives of the command and parses it.
// Only the first call does any work, later calls return the same error.
func (c *Command) Prepare() error {
	c.once.Do(func() {
		if err := c.prepare(); err != nil {
			c.err = sqlerr.NewConfigError(c.source, err)
		}
	})
	return c.err
}

func (c *Command) prepare() error {
	content := c.content
	if include.Contains(content) {
		var err error
		content, err = include.Process(content, c.engine.fragments)
		if err != nil {
			return err
		}
	}

	clauses, err := clause.Parse(content)
	if err != nil {
		return err
	}
	switch {
	case len(clauses) == 0:
		return errors.New("no sql statement")
	case len(clauses) > 1:
		return fmt.Errorf("%w: found %d", sqlerr.ErrMultiStatement, len(clauses))
	}

	c.clauses = clauses
	if cl := clauses[0]; cl.IsQuery() {
		c.query = cl
		c.count, c.countErr = cl.CountClause()
	}
	c.engine.logger.Debug().Str("command", c.source).Stringer("clause", clauses[0]).Msg("prepared sql command")
	return nil
}

// IsQuery reports whether the command returns rows.
func (c *Command) IsQuery() (bool, error) {
	if err := c.Prepare(); err != nil {
		return false, err
	}
	return c.query != nil, nil
}

// QueryClause returns the clause of a query command.
func (c *Command) QueryClause() (*clause.Clause, error) {
	if err := c.Prepare(); err != nil {
		return nil, err
	}
	if c.query == nil {
		return nil, c.errorf(sqlerr.ErrNotAQuery)
	}
	return c.query, nil
}

// single returns the clause of a prepared command, checking that it is a
// query or an update as asked.
func (c *Command) single(query bool) (*clause.Clause, error) {
	if err := c.Prepare(); err != nil {
		return nil, err
	}
	cl := c.clauses[0]
	switch {
	case query && !cl.IsQuery():
		return nil, c.errorf(sqlerr.ErrNotAQuery)
	case !query && cl.IsQuery():
		return nil, c.errorf(sqlerr.ErrIsAQuery)
	}
	return cl, nil
}

// errorf wraps err with the identity of the command.
func (c *Command) errorf(err error) error {
	return fmt.Errorf("sql command %s: %w", c.source, err)
}

func (c *Command) logExecute(op string) {
	c.engine.logger.Debug().Str("command", c.source).Str("op", op).Msg("executing sql command")
}

// ExecuteQuery runs a query command and passes the rows to reader.
func (c *Command) ExecuteQuery(ctx context.Context, ex Executor, ps params.Params, reader RowReader) error {
	cl, err := c.single(true)
	if err != nil {
		return err
	}
	stmt, err := cl.Build(ps, c.engine.dialect.Placeholder)
	if err != nil {
		return c.errorf(err)
	}
	c.logExecute("query")
	if err := query(ctx, ex, stmt, reader); err != nil {
		return errors.Wrapf(err, "sql command %s", c.source)
	}
	return nil
}

// ExecuteCount runs the count form of a query command and returns the number
// of rows the query would return.
func (c *Command) ExecuteCount(ctx context.Context, ex Executor, ps params.Params) (int64, error) {
	if _, err := c.single(true); err != nil {
		return 0, err
	}
	if c.countErr != nil {
		return 0, c.errorf(c.countErr)
	}
	stmt, err := c.count.Build(ps, c.engine.dialect.Placeholder)
	if err != nil {
		return 0, c.errorf(err)
	}
	c.logExecute("count")
	var n int64
	if err := ex.QueryRowContext(ctx, stmt.SQL, stmt.Args...).Scan(&n); err != nil {
		return 0, errors.Wrapf(err, "sql command %s", c.source)
	}
	return n, nil
}

// ExecuteUpdate runs an update command and returns the number of affected
// rows. The hooks run around the statement on the same connection.
func (c *Command) ExecuteUpdate(ctx context.Context, ex Executor, ps params.Params, hooks ...dialect.Hook) (int64, error) {
	cl, err := c.single(false)
	if err != nil {
		return 0, err
	}
	stmt, err := cl.Build(ps, c.engine.dialect.Placeholder)
	if err != nil {
		return 0, c.errorf(err)
	}
	c.logExecute("update")
	res, err := exec(ctx, ex, stmt, hooks)
	if err != nil {
		return 0, errors.Wrapf(err, "sql command %s", c.source)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrapf(err, "sql command %s", c.source)
	}
	return n, nil
}

// ExecuteBatchUpdate runs an update command once for each item of batch on a
// single prepared statement and returns the rows affected by each. Commands
// with replacement parameters cannot be batched.
func (c *Command) ExecuteBatchUpdate(ctx context.Context, ex Executor, batch []params.Params, hook dialect.BatchHook) ([]int64, error) {
	cl, err := c.single(false)
	if err != nil {
		return nil, err
	}
	bs, err := cl.BuildBatch(batch, c.engine.dialect.Placeholder)
	if err != nil {
		return nil, c.errorf(err)
	}
	c.logExecute("batch")
	affected, err := execBatch(ctx, ex, bs, hook)
	if err != nil {
		return nil, errors.Wrapf(err, "sql command %s", c.source)
	}
	return affected, nil
}
