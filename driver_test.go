// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlcmd

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"
)

// This file contains a wrapper sql.Driver over the SQLite driver which counts
// the prepared statements created and closed, and the statements run through
// them. Tests use the counts to check that a batch is prepared once and that
// no statement is leaked.

// StmtCounts holds the statement activity of one test database.
type StmtCounts struct {
	Prepared int
	Closed   int
	Executed int
}

// stmtCounts is indexed by the test name found in the DSN.
var stmtCounts = map[string]*StmtCounts{}
var stmtCountsMutex sync.Mutex

// TrackedStmts returns the statement activity of the named test database.
func TrackedStmts(testName string) StmtCounts {
	stmtCountsMutex.Lock()
	defer stmtCountsMutex.Unlock()
	if c, ok := stmtCounts[testName]; ok {
		return *c
	}
	return StmtCounts{}
}

func track(testName string, f func(*StmtCounts)) {
	stmtCountsMutex.Lock()
	defer stmtCountsMutex.Unlock()
	c, ok := stmtCounts[testName]
	if !ok {
		c = &StmtCounts{}
		stmtCounts[testName] = c
	}
	f(c)
}

type trackingDriver struct {
	driver.Driver
}

type trackingConn struct {
	testName string
	*sqlite3.SQLiteConn
}

type trackingStmt struct {
	testName string
	*sqlite3.SQLiteStmt
}

func (s *trackingStmt) Close() error {
	track(s.testName, func(c *StmtCounts) { c.Closed++ })
	return s.SQLiteStmt.Close()
}

func (s *trackingStmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	res, err := s.SQLiteStmt.ExecContext(ctx, args)
	if err == nil {
		track(s.testName, func(c *StmtCounts) { c.Executed++ })
	}
	return res, err
}

func (c *trackingConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	s, err := c.SQLiteConn.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	sm, ok := s.(*sqlite3.SQLiteStmt)
	if !ok {
		panic(fmt.Sprintf("internal error: base driver is not SQLite, got %T", s))
	}
	track(c.testName, func(c *StmtCounts) { c.Prepared++ })
	return &trackingStmt{SQLiteStmt: sm, testName: c.testName}, nil
}

func (c *trackingConn) Prepare(query string) (driver.Stmt, error) {
	return c.PrepareContext(context.Background(), query)
}

const TestNameTag = "testName"

// Open expects the DSN to contain the test name using the TestNameTag
// attribute.
func (d *trackingDriver) Open(name string) (driver.Conn, error) {
	var testName string
	if i := strings.IndexByte(name, '?'); i >= 0 {
		for _, p := range strings.Split(name[i+1:], "&") {
			if strings.HasPrefix(p, TestNameTag+"=") {
				testName = strings.TrimPrefix(p, TestNameTag+"=")
			}
		}
	}
	if testName == "" {
		panic("internal error: testName is not found in the db DSN")
	}

	baseConn, err := d.Driver.Open(name)
	if err != nil {
		return nil, err
	}
	sqliteConn, ok := baseConn.(*sqlite3.SQLiteConn)
	if !ok {
		panic("internal error: base driver is not SQLite")
	}
	return &trackingConn{SQLiteConn: sqliteConn, testName: testName}, nil
}

func init() {
	sql.Register("sqlite3_tracked", &trackingDriver{
		&sqlite3.SQLiteDriver{},
	})
}
