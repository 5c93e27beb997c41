// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlcmd

import (
	"sync"

	. "gopkg.in/check.v1"

	"github.com/canonical/sqlcmd/dialect"
	"github.com/canonical/sqlcmd/metadata"
)

type CacheSuite struct{}

var _ = Suite(&CacheSuite{})

func (s *CacheSuite) newEngine(c *C) (*Engine, *metadata.EntityMapping) {
	d, err := dialect.New(dialect.SQLite)
	c.Assert(err, IsNil)
	e := NewEngine(d)
	em := &metadata.EntityMapping{
		Name:  "Person",
		Table: "person",
		Fields: []*metadata.FieldMapping{
			metadata.NewField("id", metadata.Integer),
			metadata.NewField("name", metadata.Text),
		},
	}
	c.Assert(e.RegisterEntity(em), IsNil)
	return e, em
}

func (s *CacheSuite) TestInsertCacheKey(c *C) {
	_, em := s.newEngine(c)
	c.Check(insertCacheKey(em, em.Fields), Equals, "Person\x00id\x00name")
	c.Check(insertCacheKey(em, em.Fields[1:]), Equals, "Person\x00name")
	c.Check(insertCacheKey(em, nil), Equals, "Person")
}

func (s *CacheSuite) TestInsertCommandReuse(c *C) {
	e, em := s.newEngine(c)

	cmd1, err := e.inserts.command(e, em, em.Fields)
	c.Assert(err, IsNil)
	c.Assert(cmd1.SQL(), Equals, `INSERT INTO "person" ("id", "name") VALUES (:id, :name)`)
	c.Assert(cmd1.Source(), Equals, "insert Person")

	cmd2, err := e.inserts.command(e, em, em.Fields)
	c.Assert(err, IsNil)
	c.Assert(cmd2, Equals, cmd1)

	cmd3, err := e.inserts.command(e, em, em.Fields[1:])
	c.Assert(err, IsNil)
	c.Assert(cmd3, Not(Equals), cmd1)
	c.Assert(cmd3.SQL(), Equals, `INSERT INTO "person" ("name") VALUES (:name)`)
	c.Assert(e.inserts.len(), Equals, 2)
}

func (s *CacheSuite) TestInsertCommandConcurrent(c *C) {
	e, em := s.newEngine(c)

	var wg sync.WaitGroup
	cmds := make([]*Command, 8)
	for i := range cmds {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cmds[i], _ = e.inserts.command(e, em, em.Fields)
		}(i)
	}
	wg.Wait()
	for _, cmd := range cmds {
		c.Assert(cmd, NotNil)
		c.Assert(cmd, Equals, cmds[0])
	}
	c.Assert(e.inserts.len(), Equals, 1)
}
