// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package clause

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/canonical/sqlcmd/sqlerr"
)

// queryKeywords are the leading keywords of statements that return rows.
var queryKeywords = map[string]bool{
	"SELECT":   true,
	"WITH":     true,
	"VALUES":   true,
	"SHOW":     true,
	"EXPLAIN":  true,
	"DESCRIBE": true,
	"PRAGMA":   true,
}

func NewParser() *Parser {
	return &Parser{}
}

// Parser splits SQL text into clauses. The state is reset on every call to
// Parse so a Parser must not be shared between goroutines, but can be reused.
type Parser struct {
	input string
	pos   int
	// nextPos is start of the next char.
	nextPos int
	// char is the rune starting at pos. char is set to 0 when pos reaches the
	// end of input.
	char rune
	// partStart is the position where the text part currently being scanned
	// starts.
	partStart int
	// stmtStart is the position where the current statement starts.
	stmtStart int
	// depth is the parenthesis nesting level.
	depth int
	// orderBy is the position of the top level ORDER BY of the current
	// statement, or -1.
	orderBy int
	// orderByEnd is the position of the first top level LIMIT, OFFSET or
	// FETCH after orderBy, or -1.
	orderByEnd int
	// openParens holds the checkpoints of the unclosed opening parentheses.
	openParens []*checkpoint
	parts      []part
	clauses    []*Clause
	// lineNum is the number of the current line of the input.
	lineNum int
	// lineStart is the position of the first char of the current line in the
	// input.
	lineStart int
}

// Parse splits input into clauses, one per statement.
func (p *Parser) Parse(input string) (clauses []*Clause, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("%w: %s", sqlerr.ErrParse, err)
		}
	}()

	p.init(input)

	for p.pos < len(p.input) {
		if ok, err := p.skipStringLiteral(); err != nil {
			return nil, err
		} else if ok {
			continue
		}
		if ok, err := p.skipComment(); err != nil {
			return nil, err
		} else if ok {
			continue
		}

		switch p.char {
		case '(':
			p.depth++
			p.openParens = append(p.openParens, p.save())
		case ')':
			if p.depth == 0 {
				return nil, errorAt(fmt.Errorf("unexpected closing parenthesis"), p.lineNum, p.colNum(), p.input)
			}
			p.depth--
			p.openParens = p.openParens[:len(p.openParens)-1]
		case ';':
			if p.depth == 0 {
				p.addText(p.pos)
				p.advanceChar()
				p.finishStatement(p.pos - 1)
				p.partStart = p.pos
				p.stmtStart = p.pos
				continue
			}
		case ':':
			if ok := p.parseNamedParam(); ok {
				continue
			}
		case '#':
			if ok, err := p.parseBracedParam(); err != nil {
				return nil, err
			} else if ok {
				continue
			}
		case '$':
			if ok, err := p.parseReplacement(); err != nil {
				return nil, err
			} else if ok {
				continue
			}
		default:
			if isInitialNameChar(p.char) {
				p.skipWord()
				continue
			}
		}
		p.advanceChar()
	}

	if p.depth > 0 {
		cp := p.openParens[len(p.openParens)-1]
		return nil, errorAt(fmt.Errorf("missing closing parenthesis"), cp.lineNum, cp.colNum(), p.input)
	}
	p.addText(p.pos)
	p.finishStatement(p.pos)
	return p.clauses, nil
}

// init resets the state of the parser and sets the input string.
func (p *Parser) init(input string) {
	p.input = input
	p.pos = 0
	p.nextPos = 0
	p.char = 0
	p.partStart = 0
	p.stmtStart = 0
	p.depth = 0
	p.orderBy = -1
	p.orderByEnd = -1
	p.openParens = nil
	p.parts = nil
	p.clauses = nil
	p.lineNum = 1
	p.lineStart = 0
	p.advanceChar()
}

// colNum calculates the current column number taking into account line breaks.
func (p *Parser) colNum() int {
	return p.pos - p.lineStart + 1
}

// advanceChar moves the parser to the next character in the input. It also
// takes care of updating the line and column numbers if it encounters line
// breaks.
func (p *Parser) advanceChar() bool {
	if p.nextPos >= len(p.input) {
		p.char = 0
		p.pos = p.nextPos
		return false
	}
	if p.char == '\n' {
		p.lineStart = p.nextPos
		p.lineNum++
	}
	var size int
	p.char, size = utf8.DecodeRuneInString(p.input[p.nextPos:])
	p.pos = p.nextPos
	p.nextPos += size
	return true
}

// peekNext returns the rune after the current one, or 0 at the end of input.
func (p *Parser) peekNext() rune {
	if p.nextPos >= len(p.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(p.input[p.nextPos:])
	return r
}

// errorAt wraps an error with line and column information.
func errorAt(err error, line int, column int, input string) error {
	if strings.ContainsRune(input, '\n') {
		return fmt.Errorf("line %d, column %d: %w", line, column, err)
	}
	return fmt.Errorf("column %d: %w", column, err)
}

// A checkpoint struct for saving parser state to restore later.
type checkpoint struct {
	parser    *Parser
	pos       int
	nextPos   int
	char      rune
	lineNum   int
	lineStart int
}

// save takes a snapshot of the position of the parser.
func (p *Parser) save() *checkpoint {
	return &checkpoint{
		parser:    p,
		pos:       p.pos,
		nextPos:   p.nextPos,
		char:      p.char,
		lineNum:   p.lineNum,
		lineStart: p.lineStart,
	}
}

// restore sets the position of the parser to the values stored in the
// checkpoint.
func (cp *checkpoint) restore() {
	cp.parser.pos = cp.pos
	cp.parser.nextPos = cp.nextPos
	cp.parser.char = cp.char
	cp.parser.lineNum = cp.lineNum
	cp.parser.lineStart = cp.lineStart
}

// colNum calculates the column number of the checkpoint.
func (cp *checkpoint) colNum() int {
	return cp.pos - cp.lineStart + 1
}

// addText adds the text between the end of the last part and end as a text
// part.
func (p *Parser) addText(end int) {
	if end > p.partStart {
		p.parts = append(p.parts, &textPart{chunk: p.input[p.partStart:end]})
	}
	p.partStart = end
}

// add pushes a parameter part, preceded by the text before it.
func (p *Parser) add(start int, pt part) {
	p.addText(start)
	p.parts = append(p.parts, pt)
	p.partStart = p.pos
}

// finishStatement turns the parts collected so far into a clause. Statements
// with nothing but blanks and comments are dropped.
func (p *Parser) finishStatement(end int) {
	parts := p.parts
	raw := p.input[p.stmtStart:end]
	orderBy, orderByEnd := p.orderBy, p.orderByEnd
	p.parts = nil
	p.orderBy = -1
	p.orderByEnd = -1

	keyword, ok := leadingKeyword(raw)
	if !ok && !hasParams(parts) {
		return
	}
	scope := UpdateScope
	if queryKeywords[strings.ToUpper(keyword)] {
		scope = QueryScope
	}
	for _, pt := range parts {
		switch pt := pt.(type) {
		case *paramPart:
			pt.scope = scope
		case *replacementPart:
			pt.scope = scope
		}
	}
	if orderBy >= 0 {
		orderBy -= p.stmtStart
	}
	if orderByEnd >= 0 {
		orderByEnd -= p.stmtStart
	}
	p.clauses = append(p.clauses, &Clause{
		parts:      parts,
		raw:        raw,
		scope:      scope,
		orderBy:    orderBy,
		orderByEnd: orderByEnd,
	})
}

func hasParams(parts []part) bool {
	for _, pt := range parts {
		if _, ok := pt.(*textPart); !ok {
			return true
		}
	}
	return false
}

// leadingKeyword returns the first word of a statement, skipping blanks,
// comments and opening parentheses.
func leadingKeyword(raw string) (string, bool) {
	p := &Parser{}
	p.init(raw)
	for p.pos < len(p.input) {
		if ok, _ := p.skipComment(); ok {
			continue
		}
		switch p.char {
		case ' ', '\t', '\r', '\n', '(':
			p.advanceChar()
			continue
		}
		break
	}
	mark := p.pos
	if !p.skipName() {
		return "", p.pos < len(p.input)
	}
	return p.input[mark:p.pos], true
}

// skipComment jumps over comments as SQLite defines them. If no comment
// is found the parser state is left unchanged. An unterminated block comment
// is an error.
func (p *Parser) skipComment() (bool, error) {
	cp := p.save()
	c := p.char
	if p.skipChar('-') || p.skipChar('/') {
		if (c == '-' && p.skipChar('-')) || (c == '/' && p.skipChar('*')) {
			if c == '-' {
				// Don't consume the newline.
				for p.pos < len(p.input) && p.char != '\n' {
					p.advanceChar()
				}
				return true, nil
			}
			for p.pos < len(p.input) {
				if p.skipChar('*') {
					if p.skipChar('/') {
						return true, nil
					}
					continue
				}
				p.advanceChar()
			}
			cp.restore()
			return false, errorAt(fmt.Errorf("unterminated comment"), cp.lineNum, cp.colNum(), p.input)
		}
		cp.restore()
	}
	return false, nil
}

// skipStringLiteral jumps over single and double quoted sections of input.
// Doubled up quotes are escaped.
func (p *Parser) skipStringLiteral() (bool, error) {
	cp := p.save()

	c := p.char
	if p.skipChar('"') || p.skipChar('\'') {
		// We keep track of whether the next quote has been previously
		// escaped. If not, it might be a closing quote.
		maybeCloser := true
		for p.skipCharFind(c) {
			// If this looks like a closing quote, check if it might be an
			// escape for a following quote. If not, we're done.
			if maybeCloser && !p.peekChar(c) {
				return true, nil
			}
			maybeCloser = !maybeCloser
		}

		// Reached end of string and didn't find the closing quote
		cp.restore()
		return false, errorAt(fmt.Errorf("missing closing quote in string literal"), cp.lineNum, cp.colNum(), p.input)
	}
	return false, nil
}

// peekChar returns true if the current char equals the one passed as parameter.
func (p *Parser) peekChar(c rune) bool {
	return p.pos < len(p.input) && p.char == c
}

// skipChar jumps over the current char if it matches the char passed as a
// parameter. Returns true in that case, false otherwise.
func (p *Parser) skipChar(c rune) bool {
	if p.pos < len(p.input) && p.char == c {
		p.advanceChar()
		return true
	}
	return false
}

// skipCharFind looks for a char that matches the one passed as parameter and
// then advances the parser to jump over it. In that case returns true. If the
// end of the string is reached and no matching char was found, it returns
// false and it does not change the parser.
func (p *Parser) skipCharFind(c rune) bool {
	cp := p.save()
	for p.pos < len(p.input) {
		if p.char == c {
			p.advanceChar()
			return true
		}
		p.advanceChar()
	}
	cp.restore()
	return false
}

// skipBlanks advances the parser past spaces, tabs and newlines. Returns
// whether the parser position was changed.
func (p *Parser) skipBlanks() bool {
	mark := p.pos
	for p.pos < len(p.input) {
		switch p.char {
		case ' ', '\t', '\r', '\n':
			p.advanceChar()
		default:
			return p.pos != mark
		}
	}
	return p.pos != mark
}

// isNameChar returns true if the given char can be part of a name. It returns
// false otherwise.
func isNameChar(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_'
}

// isInitialNameChar returns true if the given char can appear at the start of a
// name. It returns false otherwise.
func isInitialNameChar(c rune) bool {
	return unicode.IsLetter(c) || c == '_'
}

// skipName advances the parser until it is on the first non name char and
// returns true. If the p.pos does not start on a name char it returns false.
func (p *Parser) skipName() bool {
	if p.pos >= len(p.input) {
		return false
	}
	mark := p.pos
	if isInitialNameChar(p.char) {
		p.advanceChar()
		for p.pos < len(p.input) && isNameChar(p.char) {
			p.advanceChar()
		}
	}
	return p.pos > mark
}

// parseParamName parses a parameter name. Parameter names are names
// separated by dots, e.g. "user.name".
func (p *Parser) parseParamName() (string, bool) {
	mark := p.pos
	if !p.skipName() {
		return "", false
	}
	for p.peekChar('.') && isInitialNameChar(p.peekNext()) {
		p.advanceChar()
		p.skipName()
	}
	return p.input[mark:p.pos], true
}

// IsParameterName reports whether name can be written as a :name parameter
// and read back whole.
func IsParameterName(name string) bool {
	p := &Parser{}
	p.init(name)
	parsed, ok := p.parseParamName()
	return ok && parsed == name
}

// rowLimitKeywords start the clauses that may follow an ORDER BY list.
var rowLimitKeywords = map[string]bool{
	"LIMIT":  true,
	"OFFSET": true,
	"FETCH":  true,
}

// skipWord jumps over a word of text. The top level ORDER BY list is recorded
// so a count form of the statement can drop it.
func (p *Parser) skipWord() {
	mark := p.pos
	p.skipName()
	if p.depth != 0 {
		return
	}
	word := p.input[mark:p.pos]
	if p.orderBy >= 0 {
		if p.orderByEnd < 0 && rowLimitKeywords[strings.ToUpper(word)] {
			p.orderByEnd = mark
		}
		return
	}
	if !strings.EqualFold(word, "ORDER") {
		return
	}
	cp := p.save()
	if p.skipBlanks() && p.skipString("BY") && !isNameChar(p.char) {
		p.orderBy = mark
	}
	cp.restore()
}

// skipString advances the parser and jumps over the string passed as parameter.
// In that case returns true, false otherwise.
// This function is case insensitive.
func (p *Parser) skipString(s string) bool {
	if p.pos+len(s) <= len(p.input) &&
		strings.EqualFold(p.input[p.pos:p.pos+len(s)], s) {
		for i := 0; i < len(s); i++ {
			p.advanceChar()
		}
		return true
	}
	return false
}

// Functions with the prefix parse attempt to parse some construct. They return
// an error and/or a bool that indicates if the construct was successfully
// parsed.
//
// Return cases:
//  - bool == true, err == nil
//		The construct was successfully parsed
//  - bool == false, err != nil
//		The construct was recognised but was not correctly formatted
//  - bool == false, err == nil
//		The construct was not the one we are looking for

// parseNamedParam parses a parameter of the form ":name". A "::" cast is
// skipped as text.
func (p *Parser) parseNamedParam() bool {
	cp := p.save()
	if !p.skipChar(':') {
		return false
	}
	if p.skipChar(':') {
		return true
	}
	name, ok := p.parseParamName()
	if !ok {
		cp.restore()
		return false
	}
	p.add(cp.pos, &paramPart{name: name, raw: p.input[cp.pos:p.pos]})
	return true
}

// parseBracedParam parses a parameter of the form "#{name}".
func (p *Parser) parseBracedParam() (bool, error) {
	cp := p.save()
	if !(p.skipChar('#') && p.skipChar('{')) {
		cp.restore()
		return false, nil
	}
	p.skipBlanks()
	name, ok := p.parseParamName()
	if !ok {
		cp.restore()
		return false, errorAt(fmt.Errorf("missing parameter name after \"#{\""), cp.lineNum, cp.colNum(), p.input)
	}
	p.skipBlanks()
	if !p.skipChar('}') {
		cp.restore()
		return false, errorAt(fmt.Errorf("missing closing brace in parameter %q", name), cp.lineNum, cp.colNum(), p.input)
	}
	p.add(cp.pos, &paramPart{name: name, raw: p.input[cp.pos:p.pos]})
	return true, nil
}

// parseReplacement parses a replacement parameter of the form "$name$".
// A '$' not followed by a name, such as a "$1" placeholder, is left as text.
func (p *Parser) parseReplacement() (bool, error) {
	cp := p.save()
	if !p.skipChar('$') {
		return false, nil
	}
	name, ok := p.parseParamName()
	if !ok {
		cp.restore()
		return false, nil
	}
	if !p.skipChar('$') {
		cp.restore()
		return false, errorAt(fmt.Errorf("missing closing '$' in replacement parameter %q", name), cp.lineNum, cp.colNum(), p.input)
	}
	p.add(cp.pos, &replacementPart{name: name, raw: p.input[cp.pos:p.pos]})
	return true, nil
}
