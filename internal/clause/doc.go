/*
Package clause turns SQL text into clauses and clauses into statements ready
to be sent to a database.

A clause is one SQL statement represented as an ordered list of parts. There
are three kinds of part:

  - text, passed to the database verbatim.
  - named parameters, written ":name" or "#{name}". They are replaced by a
    positional placeholder and their value is sent as a query argument.
  - replacement parameters, written "$name$". Their value is written into the
    SQL text when the statement is built. They exist for values that cannot
    be bound as arguments, such as "NEXT VALUE FOR seq". They must never be
    used for values supplied by users.

Parameters inside string literals and comments are not recognised. "::" is
the PostgreSQL cast operator, not a parameter.

PostgreSQL dollar quoted strings are not supported. A body such as
"AS $fn$ ... $fn$" reads as the replacement parameter "fn", which fails to
build unless a value is given. Write such bodies with single quotes.

Each clause knows whether it is a query, from the first keyword of the
statement, and where its top level ORDER BY list starts and ends, so that a
count form of the query can be derived. A LIMIT, OFFSET or FETCH after the
list is kept in the count form.
*/
package clause
