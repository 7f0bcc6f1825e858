package expr

import (
	"fmt"
	"runtime"
	"strings"

	u "github.com/araddon/gou"

	"github.com/fenggch/framework/lex"
)

// MaxDepth is the deepest nesting of parenthesized groups accepted.
var MaxDepth = 100

// ParseError is a grammar violation, Pos is the byte offset of the token
// that did not fit.
type ParseError struct {
	Pos      int
	Expected string
	Got      string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: expected %s, got %s", e.Pos, e.Expected, e.Got)
}

// Tree is the parser state for a single filter expression.  It panics
// with a *ParseError on bad input, Parse recovers it into an error.
type Tree struct {
	text   string
	tokens []lex.Token
	cursor int
}

// Parse a filter, returning the Expression or a *lex.LexError or
// *ParseError.  No partial Expression is ever returned.
//
//    Parse("a co 's' and (b eq 1 or c in (1,2))")
//
func Parse(text string) (ex *Expression, err error) {
	tokens, err := lex.Tokenize(text)
	if err != nil {
		return nil, err
	}
	t := &Tree{text: text, tokens: tokens}
	defer t.recover(&ex, &err)
	ex = t.expression(0)
	t.expect(lex.TokenEOF, "and, or or end of input")
	ex.Text = text
	return ex, nil
}

// MustParse is Parse that panics on error, for tests and fixed filters.
func MustParse(text string) *Expression {
	ex, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return ex
}

// recover is the handler that turns panics into returns from the top level of Parse.
func (t *Tree) recover(exp **Expression, errp *error) {
	e := recover()
	if e == nil {
		return
	}
	if _, ok := e.(runtime.Error); ok {
		panic(e)
	}
	pe, ok := e.(*ParseError)
	if !ok {
		panic(e)
	}
	u.Debugf("parse %q failed: %v", t.text, pe)
	*exp = nil
	*errp = pe
}

// Cur is the current token
func (t *Tree) Cur() lex.Token {
	return t.tokens[t.cursor]
}

// Next consumes and returns the current token.
func (t *Tree) Next() lex.Token {
	tok := t.tokens[t.cursor]
	if t.cursor < len(t.tokens)-1 {
		t.cursor++
	}
	return tok
}

// Peek returns but does not consume the token after the current one.
func (t *Tree) Peek() lex.Token {
	if t.cursor+1 < len(t.tokens) {
		return t.tokens[t.cursor+1]
	}
	return t.tokens[len(t.tokens)-1]
}

// unexpected complains about the token and terminates processing.
func (t *Tree) unexpected(tok lex.Token, expected string) {
	got := fmt.Sprintf("%q", tok.Raw)
	if tok.T == lex.TokenEOF {
		got = "end of input"
	}
	panic(&ParseError{Pos: tok.Pos, Expected: expected, Got: got})
}

// expect verifies the current token and guarantees it has the required type
func (t *Tree) expect(expected lex.TokenType, context string) lex.Token {
	tok := t.Cur()
	if tok.T != expected {
		t.unexpected(tok, context)
	}
	return tok
}

/*
Grammar, and binds tighter than or, which is applied by the evaluator; the
parser keeps the flat sequence.

	expr      := term (connector term)*
	term      := 'not'? (predicate | group)
	group     := '(' expr ')'
	predicate := name op value
	op        := eq|gt|lt|ge|le|ne|co|sw|ew|like
	           | pr | is ['not'] null
	           | ['not'] in valuelist
	value     := string | number | null
	valuelist := '(' list ')' | list
	list      := value (',' value)*
	connector := and | or
*/

func (t *Tree) expression(depth int) *Expression {
	if depth > MaxDepth {
		t.unexpected(t.Cur(), fmt.Sprintf("at most %d nested groups", MaxDepth))
	}
	start := t.Cur().Pos
	ex := &Expression{}
	ex.nodes = append(ex.nodes, t.term(depth))
	for {
		tok := t.Cur()
		switch tok.T {
		case lex.TokenLogicAnd, lex.TokenLogicOr:
			t.Next()
			ex.nodes = append(ex.nodes, &ConnectorNode{Op: tok})
			ex.nodes = append(ex.nodes, t.term(depth))
		case lex.TokenEOF, lex.TokenRightParenthesis:
			ex.Text = t.text[start:t.end()]
			return ex
		default:
			t.unexpected(tok, "and, or or end of input")
		}
	}
}

// end is the offset just past the last consumed token
func (t *Tree) end() int {
	if t.cursor == 0 {
		return 0
	}
	last := t.tokens[t.cursor-1]
	return last.Pos + len(last.Raw)
}

func (t *Tree) term(depth int) Node {
	tok := t.Cur()
	switch tok.T {
	case lex.TokenNegate:
		t.Next()
		switch t.Cur().T {
		case lex.TokenName:
			return &NotNode{Arg: t.predicate()}
		case lex.TokenLeftParenthesis:
			return &NotNode{Arg: t.group(depth)}
		}
		t.unexpected(t.Cur(), "predicate or group after not")
	case lex.TokenName:
		return t.predicate()
	case lex.TokenLeftParenthesis:
		return t.group(depth)
	}
	t.unexpected(tok, "name, not or (")
	return nil
}

func (t *Tree) group(depth int) *GroupNode {
	lp := t.Next()
	inner := t.expression(depth + 1)
	rp := t.expect(lex.TokenRightParenthesis, ")")
	t.Next()
	return &GroupNode{Expr: inner, Raw: t.text[lp.Pos : rp.Pos+len(rp.Raw)]}
}

func (t *Tree) predicate() *PredicateNode {
	nameTok := t.Next()
	if strings.HasSuffix(nameTok.V, ".") || strings.Contains(nameTok.V, "..") {
		t.unexpected(nameTok, "field name")
	}
	pn := &PredicateNode{Pos: nameTok.Pos, Name: NewName(nameTok.V)}

	op := t.Cur()
	if !op.T.IsOperator() {
		t.unexpected(op, "operator")
	}
	t.Next()
	pn.Op = op

	switch op.T {
	case lex.TokenPR:
		// no value
	case lex.TokenIs, lex.TokenIsNot:
		t.expect(lex.TokenNull, "null")
		t.Next()
	case lex.TokenIN, lex.TokenNotIn:
		pn.List = t.valueList()
	default:
		pn.Value = t.value()
		if t.Cur().T == lex.TokenComma {
			t.unexpected(t.Cur(), fmt.Sprintf("a single value for %s", op.T))
		}
	}
	return pn
}

func (t *Tree) value() *Value {
	tok := t.Cur()
	switch tok.T {
	case lex.TokenValue, lex.TokenNull:
		t.Next()
		return NewValue(tok)
	case lex.TokenLeftParenthesis:
		t.unexpected(tok, "a single value, not a list")
	}
	t.unexpected(tok, "value")
	return nil
}

func (t *Tree) valueList() *ValueList {
	start := t.Cur().Pos
	vl := &ValueList{}
	if t.Cur().T == lex.TokenLeftParenthesis {
		vl.Paren = true
		t.Next()
	}
	for {
		vl.Values = append(vl.Values, t.value())
		if t.Cur().T != lex.TokenComma {
			break
		}
		t.Next()
	}
	if vl.Paren {
		t.expect(lex.TokenRightParenthesis, ", or )")
		t.Next()
	}
	vl.Raw = t.text[start:t.end()]
	return vl
}
