/*
Package sqlcmd compiles SQL commands written with named parameters and runs
them on any database/sql database, taking care of the differences between
SQL dialects.

# Basics

An [Engine] is created for a dialect. Commands are created from SQL text and
run with an [Executor], which is any of *sql.DB, *sql.Tx or *sql.Conn:

	d, _ := dialect.New("sqlite3")
	engine := sqlcmd.NewEngine(d)
	cmd := engine.NewCommand("people.byName", "find people by name",
		"SELECT * FROM person WHERE name = :name ORDER BY id")

	var people []Person
	err := cmd.ExecuteQuery(ctx, db, params.Map{"name": "Fred"}, sqlcmd.Structs(&people))
	n, err := cmd.ExecuteCount(ctx, db, params.Map{"name": "Fred"})

A command holds exactly one statement. It is prepared on first use and a
command that fails to prepare returns the same error forever after.

# Syntax

Bound parameters are written :name or #{name}. They are replaced with the
placeholders of the dialect and their values are passed as query arguments. A
bound parameter with no value is NULL.

Replacement parameters are written $name$. Their values are written into the
SQL text before it is sent to the database, so they can hold table or column
names:

	SELECT * FROM $table$ WHERE id = :id

Fragments registered on the engine are included with @include(name). A
fragment may include other fragments. An optional fragment is written
@include(name;required=false) and expands to nothing when it is not
registered:

	engine.AddFragment("person.columns", "id, name, address_id")
	engine.NewCommand("people.all", "", "SELECT @include(person.columns) FROM person")

Parameters inside string literals and comments are left alone, as is the
PostgreSQL cast operator ::.

# Inserts

Entities are described with metadata.EntityMapping and registered on the
engine, which decides how their keys are generated: auto-increment columns
on SQLite and MySQL, sequences on PostgreSQL and UUIDs for character keys.
An [InsertCommand] writes the generated key back into the value it was given:

	insert, _ := engine.Insert("Person")
	p := &Person{Name: "Fred"}
	insert.SetAll(p)
	_, err := insert.Execute(ctx, db) // p.ID is now set
*/
package sqlcmd
