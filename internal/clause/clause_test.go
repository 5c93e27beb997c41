// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package clause

import (
	"errors"
	"strconv"

	. "gopkg.in/check.v1"

	"github.com/canonical/sqlcmd/params"
	"github.com/canonical/sqlcmd/sqlerr"
)

type ClauseSuite struct{}

var _ = Suite(&ClauseSuite{})

func dollar(n int) string {
	return "$" + strconv.Itoa(n+1)
}

func parseOne(c *C, input string) *Clause {
	clauses, err := Parse(input)
	c.Assert(err, IsNil)
	c.Assert(clauses, HasLen, 1)
	return clauses[0]
}

var buildTests = []struct {
	summary      string
	input        string
	params       params.Params
	placeholder  PlaceholderFunc
	expectedSQL  string
	expectedArgs []any
}{{
	"question marks by default",
	"SELECT * FROM person WHERE id = :id AND name = #{name}",
	params.Map{"id": 1, "name": "Fred"},
	nil,
	"SELECT * FROM person WHERE id = ? AND name = ?",
	[]any{1, "Fred"},
}, {
	"numbered placeholders",
	"SELECT * FROM person WHERE id = :id AND name = #{name}",
	params.Map{"id": 1, "name": "Fred"},
	dollar,
	"SELECT * FROM person WHERE id = $1 AND name = $2",
	[]any{1, "Fred"},
}, {
	"missing bound parameter is null",
	"UPDATE person SET name = :name WHERE id = :id",
	params.Map{"id": 7},
	dollar,
	"UPDATE person SET name = $1 WHERE id = $2",
	[]any{nil, 7},
}, {
	"replacement spliced as text",
	"SELECT * FROM $table$ WHERE id = :id ORDER BY $col$",
	params.Map{"table": "person", "col": "name", "id": 3},
	nil,
	"SELECT * FROM person WHERE id = ? ORDER BY name",
	[]any{3},
}, {
	"literal question mark kept",
	"SELECT '?', data ? 'key' FROM t WHERE id = :id",
	params.Map{"id": 1},
	dollar,
	"SELECT '?', data ? 'key' FROM t WHERE id = $1",
	[]any{1},
}, {
	"same parameter twice",
	"SELECT * FROM t WHERE a = :a OR b = :a",
	params.Map{"a": "x"},
	dollar,
	"SELECT * FROM t WHERE a = $1 OR b = $2",
	[]any{"x", "x"},
}, {
	"no parameters",
	"  DELETE FROM t  ",
	nil,
	nil,
	"DELETE FROM t",
	nil,
}}

func (s *ClauseSuite) TestBuild(c *C) {
	for i, test := range buildTests {
		cl := parseOne(c, test.input)
		stmt, err := cl.Build(test.params, test.placeholder)
		c.Assert(err, IsNil, Commentf("test %d failed: %s", i, test.summary))
		c.Check(stmt.SQL, Equals, test.expectedSQL, Commentf("test %d failed: %s", i, test.summary))
		c.Check(stmt.Args, DeepEquals, test.expectedArgs, Commentf("test %d failed: %s", i, test.summary))
	}
}

func (s *ClauseSuite) TestBuildMissingReplacement(c *C) {
	cl := parseOne(c, "SELECT * FROM $table$")

	_, err := cl.Build(params.Map{}, nil)
	c.Assert(err, ErrorMatches, `missing parameter value: replacement parameter "table"`)
	c.Assert(errors.Is(err, sqlerr.ErrMissingParameter), Equals, true)

	_, err = cl.Build(params.Map{"table": nil}, nil)
	c.Assert(errors.Is(err, sqlerr.ErrMissingParameter), Equals, true)
}

func (s *ClauseSuite) TestBuildBatch(c *C) {
	cl := parseOne(c, "INSERT INTO t (a, b) VALUES (:a, #{b})")
	batch := []params.Params{
		params.Map{"a": 1, "b": "x"},
		params.Map{"a": 2},
		nil,
	}
	bs, err := cl.BuildBatch(batch, dollar)
	c.Assert(err, IsNil)
	c.Assert(bs.SQL, Equals, "INSERT INTO t (a, b) VALUES ($1, $2)")
	c.Assert(bs.Args, DeepEquals, [][]any{{1, "x"}, {2, nil}, {nil, nil}})
}

func (s *ClauseSuite) TestBuildBatchReplacement(c *C) {
	cl := parseOne(c, "UPDATE $table$ SET a = :a")
	bs, err := cl.BuildBatch([]params.Params{params.Map{"table": "t", "a": 1}}, nil)
	c.Assert(err, ErrorMatches, `batch statements cannot use replacement parameters: \$table\$`)
	c.Assert(errors.Is(err, sqlerr.ErrReplacementInBatch), Equals, true)
	c.Assert(bs, IsNil)
}

var countTests = []struct {
	summary     string
	input       string
	expectedSQL string
}{{
	"no order by",
	"SELECT * FROM person WHERE age > :age",
	"SELECT COUNT(*) FROM (SELECT * FROM person WHERE age > ?) cnt",
}, {
	"top level order by dropped",
	"SELECT * FROM person WHERE age > :age ORDER BY name",
	"SELECT COUNT(*) FROM (SELECT * FROM person WHERE age > ?) cnt",
}, {
	"limit after order by kept",
	"SELECT * FROM person WHERE age > :age ORDER BY id LIMIT 2",
	"SELECT COUNT(*) FROM (SELECT * FROM person WHERE age > ? LIMIT 2) cnt",
}, {
	"offset and fetch after order by kept",
	"SELECT * FROM person WHERE age > :age ORDER BY name DESC, id\nOFFSET 1 ROWS FETCH NEXT 2 ROWS ONLY",
	"SELECT COUNT(*) FROM (SELECT * FROM person WHERE age > ? OFFSET 1 ROWS FETCH NEXT 2 ROWS ONLY) cnt",
}, {
	"limit without order by kept",
	"SELECT * FROM person WHERE age > :age LIMIT 3",
	"SELECT COUNT(*) FROM (SELECT * FROM person WHERE age > ? LIMIT 3) cnt",
}, {
	"lower case order by",
	"select * from person where age > :age order   by name",
	"SELECT COUNT(*) FROM (select * from person where age > ?) cnt",
}, {
	"nested order by kept",
	"SELECT * FROM (SELECT id FROM person WHERE age > :age ORDER BY id LIMIT 5) p",
	"SELECT COUNT(*) FROM (SELECT * FROM (SELECT id FROM person WHERE age > ? ORDER BY id LIMIT 5) p) cnt",
}, {
	"order by in string kept",
	"SELECT 'ORDER BY' AS s FROM person WHERE age > :age",
	"SELECT COUNT(*) FROM (SELECT 'ORDER BY' AS s FROM person WHERE age > ?) cnt",
}, {
	"column named order_by",
	"SELECT order_by FROM t WHERE age > :age",
	"SELECT COUNT(*) FROM (SELECT order_by FROM t WHERE age > ?) cnt",
}}

func (s *ClauseSuite) TestCountClause(c *C) {
	for i, test := range countTests {
		cl := parseOne(c, test.input)
		count, err := cl.CountClause()
		c.Assert(err, IsNil, Commentf("test %d failed: %s", i, test.summary))
		c.Check(count.IsQuery(), Equals, true)

		stmt, err := count.Build(params.Map{"age": 30}, nil)
		c.Assert(err, IsNil)
		c.Check(stmt.SQL, Equals, test.expectedSQL, Commentf("test %d failed: %s", i, test.summary))
		c.Check(stmt.Args, DeepEquals, []any{30})
	}
}

func (s *ClauseSuite) TestCountClauseOfUpdate(c *C) {
	cl := parseOne(c, "DELETE FROM person")
	_, err := cl.CountClause()
	c.Assert(errors.Is(err, sqlerr.ErrNotAQuery), Equals, true)
}

func (s *ClauseSuite) TestCountClauseOfSecondStatement(c *C) {
	clauses, err := Parse("DELETE FROM t; SELECT a FROM t ORDER BY a")
	c.Assert(err, IsNil)
	c.Assert(clauses, HasLen, 2)
	count, err := clauses[1].CountClause()
	c.Assert(err, IsNil)
	c.Assert(count.String(), Equals, "Clause[query [Text[SELECT COUNT(*) FROM (] Text[ SELECT a FROM t] Text[) cnt]]]")
}
