package clause

import "fmt"

// Scope tells whether a parameter belongs to a query or an update statement.
type Scope int

const (
	UpdateScope Scope = iota
	QueryScope
)

func (s Scope) String() string {
	if s == QueryScope {
		return "query"
	}
	return "update"
}

// A part represents a section of a parsed SQL statement. The clause is
// represented as a list of parts.
type part interface {
	// String returns a string representation of the part for debugging and
	// testing purposes.
	String() string

	// part is a marker method.
	part()
}

// textPart is a chunk of SQL passed to the database verbatim.
type textPart struct {
	chunk string
}

func (p *textPart) String() string {
	return "Text[" + p.chunk + "]"
}

func (p *textPart) part() {}

// paramPart is a named parameter bound as a query argument.
type paramPart struct {
	name  string
	scope Scope
	raw   string
}

func (p *paramPart) String() string {
	return fmt.Sprintf("Param[%s]", p.name)
}

func (p *paramPart) part() {}

// replacementPart is a named parameter whose value is written into the SQL.
type replacementPart struct {
	name  string
	scope Scope
	raw   string
}

func (p *replacementPart) String() string {
	return fmt.Sprintf("Replace[%s]", p.name)
}

func (p *replacementPart) part() {}

// Parameter describes a parameter referenced by a clause.
type Parameter struct {
	Name        string
	Scope       Scope
	Replacement bool
}
