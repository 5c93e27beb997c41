// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Command sqlcmd runs a named SQL command from the SQL files of an engine
// configuration and prints the result as JSON.
//
//	sqlcmd -config engine.yaml -run person.byID -params '{"id": 1}'
package main

import (
	"bytes"
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/canonical/sqlcmd"
	"github.com/canonical/sqlcmd/config"
	"github.com/canonical/sqlcmd/params"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "sqlcmd:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("sqlcmd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "engine configuration file")
	key := fs.String("run", "", "key of the command to run")
	paramsJSON := fs.String("params", "{}", "command parameters as a JSON object")
	list := fs.Bool("list", false, "list the command keys and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg.Logging, stderr)
	engine, err := cfg.NewEngine(logger)
	if err != nil {
		return err
	}

	if *list {
		return writeJSON(stdout, engine.CommandKeys())
	}
	if *key == "" {
		return fmt.Errorf("no command given, use -run or -list")
	}
	cmd, ok := engine.Command(*key)
	if !ok {
		return fmt.Errorf("unknown command %q", *key)
	}
	ps, err := decodeParams(*paramsJSON)
	if err != nil {
		return err
	}

	dsn, err := cfg.DataSourceName()
	if err != nil {
		return err
	}
	db, err := sql.Open(cfg.DriverName(), dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	isQuery, err := cmd.IsQuery()
	if err != nil {
		return err
	}
	if isQuery {
		rows := []map[string]any{}
		if err := cmd.ExecuteQuery(ctx, db, ps, sqlcmd.Maps(&rows)); err != nil {
			return err
		}
		return writeJSON(stdout, rows)
	}
	n, err := cmd.ExecuteUpdate(ctx, db, ps)
	if err != nil {
		return err
	}
	return writeJSON(stdout, map[string]int64{"affected": n})
}

// decodeParams decodes a JSON object of parameters. Whole numbers are
// decoded as int64.
func decodeParams(s string) (params.Map, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	for k, v := range m {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		if i, err := n.Int64(); err == nil {
			m[k] = i
		} else if f, err := n.Float64(); err == nil {
			m[k] = f
		}
	}
	return params.Map(m), nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
