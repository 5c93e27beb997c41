// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package clause

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/canonical/sqlcmd/params"
	"github.com/canonical/sqlcmd/sqlerr"
)

// Clause is a single parsed SQL statement.
type Clause struct {
	parts []part
	// raw is the statement text as written.
	raw   string
	scope Scope
	// orderBy is the offset in raw of the top level ORDER BY, or -1.
	orderBy int
	// orderByEnd is the offset in raw of the row limiting clause following
	// the ORDER BY list, or -1 when the list runs to the end.
	orderByEnd int
}

// Parse is a convenience wrapper around Parser.Parse.
func Parse(input string) ([]*Clause, error) {
	return NewParser().Parse(input)
}

// IsQuery reports whether the clause returns rows.
func (c *Clause) IsQuery() bool {
	return c.scope == QueryScope
}

// Scope returns the scope of the parameters of the clause.
func (c *Clause) Scope() Scope {
	return c.scope
}

// SQL returns the statement text as written.
func (c *Clause) SQL() string {
	return c.raw
}

// HasReplacements reports whether the clause contains replacement
// parameters.
func (c *Clause) HasReplacements() bool {
	for _, pt := range c.parts {
		if _, ok := pt.(*replacementPart); ok {
			return true
		}
	}
	return false
}

// Parameters returns the parameters of the clause in the order they appear.
func (c *Clause) Parameters() []Parameter {
	var ps []Parameter
	for _, pt := range c.parts {
		switch pt := pt.(type) {
		case *paramPart:
			ps = append(ps, Parameter{Name: pt.name, Scope: pt.scope})
		case *replacementPart:
			ps = append(ps, Parameter{Name: pt.name, Scope: pt.scope, Replacement: true})
		}
	}
	return ps
}

func (c *Clause) String() string {
	var b strings.Builder
	b.WriteString("Clause[")
	b.WriteString(c.scope.String())
	b.WriteString(" [")
	for i, pt := range c.parts {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(pt.String())
	}
	b.WriteString("]]")
	return b.String()
}

// CountClause returns a query that counts the rows returned by this query.
// The top level ORDER BY list is dropped. A LIMIT, OFFSET or FETCH after it
// is kept so the count matches the rows the query returns.
func (c *Clause) CountClause() (*Clause, error) {
	if !c.IsQuery() {
		return nil, sqlerr.ErrNotAQuery
	}
	raw := c.raw
	if c.orderBy >= 0 {
		head := strings.TrimRightFunc(raw[:c.orderBy], unicode.IsSpace)
		if c.orderByEnd >= 0 {
			raw = head + " " + raw[c.orderByEnd:]
		} else {
			raw = head
		}
	}
	clauses, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if len(clauses) != 1 {
		return nil, fmt.Errorf("internal error: count form of query has %d statements", len(clauses))
	}
	inner := clauses[0]
	parts := make([]part, 0, len(inner.parts)+2)
	parts = append(parts, &textPart{chunk: "SELECT COUNT(*) FROM ("})
	parts = append(parts, inner.parts...)
	parts = append(parts, &textPart{chunk: ") cnt"})
	return &Clause{
		parts:      parts,
		raw:        "SELECT COUNT(*) FROM (" + raw + ") cnt",
		scope:      QueryScope,
		orderBy:    -1,
		orderByEnd: -1,
	}, nil
}

// Statement is a clause with its parameter values resolved.
type Statement struct {
	SQL  string
	Args []any
}

// BatchStatement is a clause with the parameter values of every item of a
// batch resolved. All items share the same SQL.
type BatchStatement struct {
	SQL  string
	Args [][]any
}

// PlaceholderFunc returns the bind variable for the argument at index n,
// counting from zero, e.g. "?" or "$1".
type PlaceholderFunc func(n int) string

// QuestionMark is the PlaceholderFunc of databases using '?' bind variables.
func QuestionMark(int) string {
	return "?"
}

// Build resolves the parameters of the clause from ps. Named parameters become
// positional placeholders and their values are returned as arguments in
// order. Missing named parameters are bound as NULL.
// Replacement parameters are written into the SQL, they must have a value.
func (c *Clause) Build(ps params.Params, placeholder PlaceholderFunc) (*Statement, error) {
	if ps == nil {
		ps = params.Empty
	}
	b := newSQLBuilder(placeholder)
	var args []any
	for _, pt := range c.parts {
		switch pt := pt.(type) {
		case *textPart:
			b.write(pt.chunk)
		case *paramPart:
			v, _ := ps.Get(pt.name)
			b.writePlaceholder()
			args = append(args, v)
		case *replacementPart:
			v, ok := ps.Get(pt.name)
			if !ok || v == nil {
				return nil, fmt.Errorf("%w: replacement parameter %q", sqlerr.ErrMissingParameter, pt.name)
			}
			b.write(fmt.Sprint(v))
		default:
			return nil, fmt.Errorf("internal error: unknown part type %T", pt)
		}
	}
	return &Statement{SQL: b.getSQL(), Args: args}, nil
}

// BuildBatch resolves the parameters of the clause once per batch item.
// Replacement parameters are not allowed as they would change the SQL of
// each item.
func (c *Clause) BuildBatch(batch []params.Params, placeholder PlaceholderFunc) (*BatchStatement, error) {
	b := newSQLBuilder(placeholder)
	var names []string
	for _, pt := range c.parts {
		switch pt := pt.(type) {
		case *textPart:
			b.write(pt.chunk)
		case *paramPart:
			b.writePlaceholder()
			names = append(names, pt.name)
		case *replacementPart:
			return nil, fmt.Errorf("%w: %s", sqlerr.ErrReplacementInBatch, pt.raw)
		default:
			return nil, fmt.Errorf("internal error: unknown part type %T", pt)
		}
	}

	bs := &BatchStatement{SQL: b.getSQL(), Args: make([][]any, len(batch))}
	for i, ps := range batch {
		if ps == nil {
			ps = params.Empty
		}
		args := make([]any, len(names))
		for j, name := range names {
			args[j], _ = ps.Get(name)
		}
		bs.Args[i] = args
	}
	return bs, nil
}

// sqlBuilder is used to generate SQL string piece by piece using the struct
// methods.
type sqlBuilder struct {
	buf         bytes.Buffer
	placeholder PlaceholderFunc
	count       int
}

func newSQLBuilder(placeholder PlaceholderFunc) *sqlBuilder {
	if placeholder == nil {
		placeholder = QuestionMark
	}
	return &sqlBuilder{placeholder: placeholder}
}

// writePlaceholder writes the next positional placeholder.
func (b *sqlBuilder) writePlaceholder() {
	b.buf.WriteString(b.placeholder(b.count))
	b.count++
}

// write writes the SQL to the sqlBuilder.
func (b *sqlBuilder) write(sql string) {
	b.buf.WriteString(sql)
}

// getSQL returns the generated SQL string.
func (b *sqlBuilder) getSQL() string {
	return strings.TrimSpace(b.buf.String())
}
