package sqlcmd_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	. "gopkg.in/check.v1"

	"github.com/canonical/sqlcmd"
	"github.com/canonical/sqlcmd/dialect"
	"github.com/canonical/sqlcmd/metadata"
	"github.com/canonical/sqlcmd/sqlerr"
)

type InsertSuite struct{}

var _ = Suite(&InsertSuite{})

func personMapping() *metadata.EntityMapping {
	id := metadata.NewField("id", metadata.Integer)
	id.PrimaryKey = true
	id.AutoID = true
	return &metadata.EntityMapping{
		Name:  "Person",
		Table: "person",
		Fields: []*metadata.FieldMapping{
			id,
			metadata.NewField("name", metadata.Text),
			metadata.NewField("address_id", metadata.Integer),
		},
	}
}

type Tag struct {
	ID     string `db:"id"`
	Label  string `db:"label"`
	Status string `db:"status"`
}

func (t *Tag) PreCreate() error {
	if t.Label == "" {
		t.Label = "untitled"
	}
	return nil
}

func tagMapping() *metadata.EntityMapping {
	id := metadata.NewField("id", metadata.VarChar)
	id.PrimaryKey = true
	id.AutoID = true
	status := metadata.NewField("status", metadata.VarChar)
	status.DefaultValue = metadata.Constant("new")
	return &metadata.EntityMapping{
		Name:   "Tag",
		Table:  "tag",
		Fields: []*metadata.FieldMapping{id, metadata.NewField("label", metadata.Text), status},
	}
}

func insertEngine(c *C, opts ...sqlcmd.Option) *sqlcmd.Engine {
	e := sqliteEngine(c, opts...)
	c.Assert(e.RegisterEntity(personMapping()), IsNil)
	return e
}

func (s *InsertSuite) TestInsertStruct(c *C) {
	db := personDB(c)
	defer db.Close()
	e := insertEngine(c)

	p := &Person{Fullname: "Nina", PostalCode: 2500}
	ins, err := e.Insert("Person")
	c.Assert(err, IsNil)
	c.Assert(ins.SetAll(p), IsNil)
	n, err := ins.Execute(context.Background(), db)
	c.Assert(err, IsNil)
	c.Assert(n, Equals, int64(1))

	c.Assert(ins.GeneratedID(), Equals, int64(41))
	c.Assert(p.ID, Equals, 41)
	c.Assert(ins.Entity().Value("id"), Equals, int64(41))

	var name string
	c.Assert(db.QueryRow("SELECT name FROM person WHERE id = 41").Scan(&name), IsNil)
	c.Assert(name, Equals, "Nina")
}

func (s *InsertSuite) TestInsertMap(c *C) {
	db := personDB(c)
	defer db.Close()
	e := insertEngine(c)
	ctx := context.Background()

	for i, name := range []string{"Olga", "Pete"} {
		m := map[string]any{"name": name, "address_id": 100 + i}
		ins, err := e.Insert("Person")
		c.Assert(err, IsNil)
		c.Assert(ins.SetAll(m), IsNil)
		_, err = ins.Execute(ctx, db)
		c.Assert(err, IsNil)
		c.Assert(m["id"], Equals, int64(41+i))
	}
	c.Assert(e.InsertCacheLen(), Equals, 1)

	// A different set of fields is a different statement.
	ins, err := e.Insert("Person")
	c.Assert(err, IsNil)
	_, err = ins.Set("name", "Quinn").Execute(ctx, db)
	c.Assert(err, IsNil)
	c.Assert(ins.GeneratedID(), Equals, int64(43))
	c.Assert(e.InsertCacheLen(), Equals, 2)
}

func (s *InsertSuite) TestInsertSkipGeneratedID(c *C) {
	db := personDB(c)
	defer db.Close()
	e := insertEngine(c)

	m := map[string]any{"name": "Rita"}
	ins, err := e.Insert("Person")
	c.Assert(err, IsNil)
	c.Assert(ins.SetAll(m), IsNil)
	_, err = ins.SkipGeneratedID().Execute(context.Background(), db)
	c.Assert(err, IsNil)
	c.Assert(ins.GeneratedID(), IsNil)
	_, ok := m["id"]
	c.Assert(ok, Equals, false)
}

func (s *InsertSuite) TestInsertConcurrent(c *C) {
	db := personDB(c)
	defer db.Close()
	e := insertEngine(c)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ins, err := e.Insert("Person")
			if err != nil {
				errs <- err
				return
			}
			if err := ins.SetAll(&Person{Fullname: fmt.Sprintf("p%d", i), PostalCode: i + 1}); err != nil {
				errs <- err
				return
			}
			_, err = ins.Execute(context.Background(), db)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		c.Assert(err, IsNil)
	}
	c.Assert(e.InsertCacheLen(), Equals, 1)

	var total int64
	c.Assert(db.QueryRow("SELECT COUNT(*) FROM person").Scan(&total), IsNil)
	c.Assert(total, Equals, int64(14))
}

func (s *InsertSuite) TestInsertUUID(c *C) {
	db, err := createExampleDB(c.TestName(), "CREATE TABLE tag (id varchar(38) PRIMARY KEY, label text, status text);", nil)
	c.Assert(err, IsNil)
	defer db.Close()
	e := sqliteEngine(c)
	em := tagMapping()
	c.Assert(e.RegisterEntity(em), IsNil)
	c.Assert(em.Fields[0].Generator, Equals, metadata.UUIDGenerator)
	c.Assert(em.Fields[0].Column.Length, Equals, 38)

	t := &Tag{}
	ins, err := e.Insert("Tag")
	c.Assert(err, IsNil)
	c.Assert(ins.SetAll(t), IsNil)
	_, err = ins.Execute(context.Background(), db)
	c.Assert(err, IsNil)

	c.Assert(t.ID, HasLen, 38)
	c.Assert(strings.HasPrefix(t.ID, "{"), Equals, true)
	c.Assert(ins.GeneratedID(), Equals, t.ID)
	c.Assert(t.Label, Equals, "untitled")
	c.Assert(t.Status, Equals, "new")

	var label, status string
	c.Assert(db.QueryRow("SELECT label, status FROM tag WHERE id = ?", t.ID).Scan(&label, &status), IsNil)
	c.Assert(label, Equals, "untitled")
	c.Assert(status, Equals, "new")
}

func (s *InsertSuite) TestInsertUUIDGiven(c *C) {
	db, err := createExampleDB(c.TestName(), "CREATE TABLE tag (id varchar(38) PRIMARY KEY, label text, status text);", nil)
	c.Assert(err, IsNil)
	defer db.Close()
	e := sqliteEngine(c)
	c.Assert(e.RegisterEntity(tagMapping()), IsNil)

	t := &Tag{ID: "mine", Label: "x", Status: "old"}
	ins, err := e.Insert("Tag")
	c.Assert(err, IsNil)
	c.Assert(ins.SetAll(t), IsNil)
	_, err = ins.Execute(context.Background(), db)
	c.Assert(err, IsNil)
	c.Assert(t.ID, Equals, "mine")
	c.Assert(t.Status, Equals, "old")
	c.Assert(ins.GeneratedID(), IsNil)
}

func (s *InsertSuite) TestInsertSequence(c *C) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	c.Assert(err, IsNil)
	defer db.Close()

	d, err := dialect.New(dialect.Postgres)
	c.Assert(err, IsNil)
	e := sqlcmd.NewEngine(d)
	id := metadata.NewField("id", metadata.BigInt)
	id.PrimaryKey = true
	id.AutoID = true
	em := &metadata.EntityMapping{
		Name:   "Person",
		Table:  "person",
		Fields: []*metadata.FieldMapping{id, metadata.NewField("name", metadata.Text)},
	}
	c.Assert(e.RegisterEntity(em), IsNil)
	seq, ok := e.Sequences().Sequence("seq_person_id")
	c.Assert(ok, Equals, true)
	c.Assert(seq.Name, Equals, "seq_person_id")

	mock.ExpectExec(`INSERT INTO "person" ("id", "name") VALUES (nextval('seq_person_id'), $1)`).
		WithArgs("Ann").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT currval('seq_person_id')`).
		WillReturnRows(sqlmock.NewRows([]string{"currval"}).AddRow(7))
	mock.ExpectExec(`INSERT INTO "person" ("id", "name") VALUES (nextval('seq_person_id'), $1)`).
		WithArgs("Bob").
		WillReturnResult(sqlmock.NewResult(0, 1))

	m := map[string]any{"name": "Ann"}
	ins, err := e.Insert("Person")
	c.Assert(err, IsNil)
	c.Assert(ins.SetAll(m), IsNil)
	_, err = ins.Execute(context.Background(), db)
	c.Assert(err, IsNil)
	c.Assert(m["id"], Equals, int64(7))

	ins, err = e.Insert("Person")
	c.Assert(err, IsNil)
	_, err = ins.Set("name", "Bob").SkipGeneratedID().Execute(context.Background(), db)
	c.Assert(err, IsNil)
	c.Assert(ins.GeneratedID(), IsNil)

	c.Assert(mock.ExpectationsWereMet(), IsNil)
}

func (s *InsertSuite) TestInsertDriverError(c *C) {
	db := personDB(c)
	defer db.Close()
	e := sqliteEngine(c)
	em := personMapping()
	em.Table = "people"
	c.Assert(e.RegisterEntity(em), IsNil)

	ins, err := e.Insert("Person")
	c.Assert(err, IsNil)
	_, err = ins.Set("name", "Sam").Execute(context.Background(), db)
	c.Assert(err, ErrorMatches, "sql command insert Person: no such table: people")
	c.Assert(ins.GeneratedID(), IsNil)
}

func (s *InsertSuite) TestInsertErrors(c *C) {
	e := insertEngine(c)

	_, err := e.Insert("Nobody")
	c.Assert(err, ErrorMatches, `unknown entity "Nobody"`)

	ins, err := e.Insert("Person")
	c.Assert(err, IsNil)
	c.Assert(ins.SetAll(nil), ErrorMatches, "cannot insert Person: nil value")
	c.Assert(ins.SetAll(Person{}), ErrorMatches, "cannot insert Person: need pointer to struct, got sqlcmd_test.Person")

	_, err = ins.Execute(context.Background(), nil)
	c.Assert(err, ErrorMatches, "cannot insert Person: no field values")

	err = e.RegisterEntity(personMapping())
	c.Assert(errors.Is(err, sqlerr.ErrDuplicateConfig), Equals, true)

	// Field names end up as parameters of the insert statement.
	em := personMapping()
	em.Name = "P"
	em.Fields[1] = metadata.NewField("full-name", metadata.Text)
	em.Fields[1].Column.Name = "name"
	err = e.RegisterEntity(em)
	c.Assert(err, ErrorMatches, `field "full-name" of entity "P" is not a valid parameter name`)
	_, err = e.Insert("P")
	c.Assert(err, ErrorMatches, `unknown entity "P"`)
}

type plainDialect struct{}

func (plainDialect) Name() string                    { return "plain" }
func (plainDialect) Placeholder(int) string          { return "?" }
func (plainDialect) QuoteIdentifier(s string) string { return s }

func (s *InsertSuite) TestUnsupportedIDStrategy(c *C) {
	e := sqlcmd.NewEngine(plainDialect{})
	err := e.RegisterEntity(personMapping())
	c.Assert(errors.Is(err, sqlerr.ErrUnsupportedIDStrategy), Equals, true)
	_, ok := e.Entity("Person")
	c.Assert(ok, Equals, false)
}

func (s *InsertSuite) TestSharedSequences(c *C) {
	d, err := dialect.New(dialect.Postgres)
	c.Assert(err, IsNil)
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	seqs := metadata.NewSequenceRegistry()

	for _, table := range []string{"person", "person"} {
		e := sqlcmd.NewEngine(d, sqlcmd.WithSequences(seqs), sqlcmd.WithLogger(logger))
		em := personMapping()
		em.Table = table
		c.Assert(e.RegisterEntity(em), IsNil)
	}
	c.Assert(seqs.Sequences(), HasLen, 1)
	c.Assert(buf.String(), Matches, `(?s).*"sequence":"seq_person_id".*sequence already registered.*`)
}

func (s *InsertSuite) TestInsertSQL(c *C) {
	pg, err := dialect.New(dialect.Postgres)
	c.Assert(err, IsNil)
	my, err := dialect.New(dialect.MySQL)
	c.Assert(err, IsNil)

	em := personMapping()
	em.Fields[0].SequenceName = "seq_person_id"
	em.Fields[2].Column.Name = "addr"

	c.Assert(sqlcmd.InsertSQL(pg, em, em.Fields), Equals,
		`INSERT INTO "person" ("id", "name", "addr") VALUES ($id$, :name, :address_id)`)

	em.Schema = "app"
	c.Assert(sqlcmd.InsertSQL(my, em, em.Fields[1:]), Equals,
		"INSERT INTO `app`.`person` (`name`, `addr`) VALUES (:name, :address_id)")
}
