// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package dialect

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// Querier runs follow-up queries on the connection that ran a statement.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Hook is run around the execution of a single statement.
type Hook interface {
	// PreExecute is called with the final SQL and arguments before the
	// statement runs. An error stops the execution.
	PreExecute(ctx context.Context, query string, args []any) error

	// PostExecute is called after the statement ran. q runs on the same
	// connection as the statement.
	PostExecute(ctx context.Context, q Querier, res sql.Result) error
}

// BatchHook is run around the execution of a batch statement.
type BatchHook interface {
	// PreExecuteBatch is called before the first item of the batch runs.
	PreExecuteBatch(ctx context.Context, query string, args [][]any) error

	// PostExecuteBatch is called with the rows affected by each item.
	PostExecuteBatch(ctx context.Context, affected []int64) error
}

// HookFuncs is a Hook built from functions. Nil functions are skipped.
type HookFuncs struct {
	Pre  func(ctx context.Context, query string, args []any) error
	Post func(ctx context.Context, q Querier, res sql.Result) error
}

var _ Hook = HookFuncs{}

func (h HookFuncs) PreExecute(ctx context.Context, query string, args []any) error {
	if h.Pre == nil {
		return nil
	}
	return h.Pre(ctx, query, args)
}

func (h HookFuncs) PostExecute(ctx context.Context, q Querier, res sql.Result) error {
	if h.Post == nil {
		return nil
	}
	return h.Post(ctx, q, res)
}

// lastInsertIDHook reads the key generated by an auto-increment column from
// the result of the insert.
type lastInsertIDHook struct {
	set func(id any)
}

func (h *lastInsertIDHook) PreExecute(context.Context, string, []any) error {
	return nil
}

func (h *lastInsertIDHook) PostExecute(_ context.Context, _ Querier, res sql.Result) error {
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "cannot read auto-increment id")
	}
	h.set(id)
	return nil
}

// queryIDHook reads a generated key with a query run on the connection of the
// insert.
type queryIDHook struct {
	query string
	set   func(id any)
}

func (h *queryIDHook) PreExecute(context.Context, string, []any) error {
	return nil
}

func (h *queryIDHook) PostExecute(ctx context.Context, q Querier, _ sql.Result) error {
	var id int64
	if err := q.QueryRowContext(ctx, h.query).Scan(&id); err != nil {
		return errors.Wrapf(err, "cannot read generated id with %q", h.query)
	}
	h.set(id)
	return nil
}
