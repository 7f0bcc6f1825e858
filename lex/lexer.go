// Package lex is the tokenizer for SCEL filter expressions such as
//
//	a co 's' and (b eq 1) or c.name in ('x', 'y')
//
// Every token keeps its exact source text so that parsed expressions can be
// written back out without re-rendering literals.
package lex

import (
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	u "github.com/araddon/gou"
)

var (
	// Trace is a global var to turn on tracing.  can be turned on with env
	// variable "lextrace=true"
	//
	//     export lextrace=true
	Trace bool
)

func init() {
	if t := os.Getenv("lextrace"); t != "" {
		Trace = true
	}
}

func debugf(f string, args ...interface{}) {
	if Trace {
		u.DoLog(3, u.DEBUG, fmt.Sprintf(f, args...))
	}
}

const (
	eof       = -1
	decDigits = "0123456789"
)

// LexError is returned for input that can not be tokenized, Pos is the byte
// offset of the offending input.
type LexError struct {
	Pos int
	Msg string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at offset %d: %s", e.Pos, e.Msg)
}

// StateFn represents the state of the lexer as a function that returns the
// next state.
type StateFn func(*Lexer) StateFn

// Lexer holds the state of the lexical scanning.
//
// many-generations removed from the lexer of the "text/template" package.
// See http://www.youtube.com/watch?v=HxaD_trXwRE
type Lexer struct {
	input  string     // the string being scanned
	state  StateFn    // the next lexing function to enter
	pos    int        // current position in the input
	start  int        // start position of this token
	width  int        // width of last rune read from input
	tokens chan Token // channel of scanned tokens we output on
}

// NewLexer creates a new lexer for the input string
func NewLexer(input string) *Lexer {
	// Two tokens of buffering is sufficient for all state functions.
	return &Lexer{
		input:  input,
		state:  LexScel,
		tokens: make(chan Token, 2),
	}
}

// Tokenize lexes the whole input, returning all tokens followed by a single
// TokenEOF.  Any lexing problem, including input without any token, is
// returned as a *LexError.
func Tokenize(text string) ([]Token, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &LexError{Pos: len(text), Msg: "empty input, expected a filter expression"}
	}
	l := NewLexer(text)
	tokens := make([]Token, 0, 8)
	for {
		tok := l.NextToken()
		switch tok.T {
		case TokenError:
			return nil, &LexError{Pos: tok.Pos, Msg: tok.V}
		case TokenEOF:
			tokens = append(tokens, tok)
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	for {
		select {
		case token := <-l.tokens:
			return token
		default:
			if l.state == nil {
				return Token{T: TokenEOF, Pos: l.pos}
			}
			l.state = l.state(l)
		}
	}
}

// RawInput return the original string we are lexing.
func (l *Lexer) RawInput() string {
	return l.input
}

// Next returns the next rune in the input
func (l *Lexer) Next() (r rune) {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}
	r, l.width = utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += l.width
	return r
}

// Peek returns but does not consume the next rune in the input.
func (l *Lexer) Peek() rune {
	r := l.Next()
	l.backup()
	return r
}

// backup steps back one rune. Can only be called once per call of next.
func (l *Lexer) backup() {
	l.pos -= l.width
}

// ignore skips over the pending input before this point.
func (l *Lexer) ignore() {
	l.start = l.pos
}

// accept consumes the next rune if it's from the valid set.
func (l *Lexer) accept(valid string) bool {
	if strings.ContainsRune(valid, l.Next()) {
		return true
	}
	l.backup()
	return false
}

// acceptRun consumes a run of runes from the valid set.
func (l *Lexer) acceptRun(valid string) bool {
	pos := l.pos
	for strings.ContainsRune(valid, l.Next()) {
	}
	l.backup()
	return l.pos > pos
}

// IsEnd is the input exhausted
func (l *Lexer) IsEnd() bool {
	return l.pos >= len(l.input)
}

// Emit passes a token back to the client, Raw is the source text between the
// start of this token and the current position.
func (l *Lexer) Emit(t TokenType) {
	l.emitValue(t, l.input[l.start:l.pos])
}

func (l *Lexer) emitValue(t TokenType, v string) {
	tok := Token{T: t, V: v, Raw: l.input[l.start:l.pos], Pos: l.start}
	debugf("emit %-8s %q pos=%d", t.Description(), tok.Raw, tok.Pos)
	l.tokens <- tok
	l.start = l.pos
}

// errorf returns an error token and terminates the scan by passing
// back a nil pointer that will be the next state, terminating l.NextToken.
func (l *Lexer) errorf(pos int, format string, args ...interface{}) StateFn {
	l.tokens <- Token{T: TokenError, V: fmt.Sprintf(format, args...), Pos: pos}
	return nil
}

// SkipWhiteSpaces Skips white space characters in the input.
func (l *Lexer) SkipWhiteSpaces() {
	for r := l.Next(); unicode.IsSpace(r); r = l.Next() {
	}
	l.backup()
	l.ignore()
}

// peekWordAt returns the identifier-ish word starting at the first non space
// rune at or after offset, and the offset just past it.
func (l *Lexer) peekWordAt(offset int) (string, int) {
	i := offset
	for i < len(l.input) {
		r, w := utf8.DecodeRuneInString(l.input[i:])
		if !unicode.IsSpace(r) {
			break
		}
		i += w
	}
	start := i
	for i < len(l.input) {
		r, w := utf8.DecodeRuneInString(l.input[i:])
		if !IsIdentifierRune(r) {
			break
		}
		i += w
	}
	return l.input[start:i], i
}

// LexScel is the top level state, each call lexes one token.
func LexScel(l *Lexer) StateFn {
	l.SkipWhiteSpaces()
	if l.IsEnd() {
		l.Emit(TokenEOF)
		return nil
	}

	r := l.Peek()
	debugf("LexScel r=%q pos=%d", r, l.pos)
	switch {
	case r == '(':
		l.Next()
		l.Emit(TokenLeftParenthesis)
		return LexScel
	case r == ')':
		l.Next()
		l.Emit(TokenRightParenthesis)
		return LexScel
	case r == ',':
		l.Next()
		l.Emit(TokenComma)
		return LexScel
	case r == '\'':
		return LexQuotedValue
	case isDigit(r):
		return LexNumber
	case r == '-' || r == '+':
		if l.pos+1 < len(l.input) && isDigit(rune(l.input[l.pos+1])) {
			return LexNumber
		}
	case isIdentifierFirstRune(r):
		return LexWord
	}
	return l.errorf(l.pos, "unrecognized character %q", r)
}

// LexWord lexes keywords and names
//
//	name, alias.name, AND, not in, is not, ...
func LexWord(l *Lexer) StateFn {
	for IsIdentifierRune(l.Next()) {
	}
	l.backup()
	word := l.input[l.start:l.pos]

	tok, isKeyword := LookupKeyword(word)
	if !isKeyword {
		l.Emit(TokenName)
		return LexScel
	}

	// compound operators consume the following keyword as well
	switch tok {
	case TokenNegate:
		if next, end := l.peekWordAt(l.pos); strings.EqualFold(next, "in") {
			l.pos = end
			l.emitValue(TokenNotIn, TokenNotIn.String())
			return LexScel
		}
	case TokenIs:
		if next, end := l.peekWordAt(l.pos); strings.EqualFold(next, "not") {
			l.pos = end
			l.emitValue(TokenIsNot, TokenIsNot.String())
			return LexScel
		}
	}
	l.emitValue(tok, strings.ToLower(word))
	return LexScel
}

// LexQuotedValue lexes a single-quoted string, two single quotes inside the
// string are an escaped quote:
//
//	'hello'   'it''s'
func LexQuotedValue(l *Lexer) StateFn {
	start := l.pos
	l.Next() // opening quote
	var sb strings.Builder
	for {
		r := l.Next()
		switch r {
		case eof:
			return l.errorf(start, "unterminated string literal")
		case '\'':
			if l.Peek() == '\'' {
				l.Next()
				sb.WriteRune('\'')
				continue
			}
			tok := Token{T: TokenValue, V: sb.String(), Raw: l.input[l.start:l.pos],
				Pos: l.start, Quote: '\'', Kind: StringKind}
			debugf("emit VALUE %q pos=%d", tok.Raw, tok.Pos)
			l.tokens <- tok
			l.start = l.pos
			return LexScel
		default:
			sb.WriteRune(r)
		}
	}
}

// LexNumber integers and decimals, optionally signed
//
//	1   -827   1.23   +0.5
func LexNumber(l *Lexer) StateFn {
	l.accept("+-")
	if !l.acceptRun(decDigits) {
		return l.errorf(l.start, "bad number syntax: %q", l.input[l.start:l.pos])
	}
	if l.accept(".") {
		if !l.acceptRun(decDigits) {
			// Requires a digit after the dot.
			return l.errorf(l.start, "bad number syntax: %q", l.input[l.start:l.pos])
		}
	}
	// Next thing must not be part of an identifier.
	if r := l.Peek(); IsIdentifierRune(r) {
		l.Next()
		return l.errorf(l.start, "bad number syntax: %q", l.input[l.start:l.pos])
	}
	tok := Token{T: TokenValue, V: l.input[l.start:l.pos], Raw: l.input[l.start:l.pos],
		Pos: l.start, Kind: NumberKind}
	debugf("emit VALUE %q pos=%d", tok.Raw, tok.Pos)
	l.tokens <- tok
	l.start = l.pos
	return LexScel
}

// Helpers --------------------------------------------------------------------

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// IsIdentifierRune Is this a valid identity rune?
func IsIdentifierRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	return strings.ContainsRune(IDENTITY_CHARS, r)
}

func isIdentifierFirstRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

// IdentityRunesOnly reports whether every rune of identity may appear in a name.
func IdentityRunesOnly(identity string) bool {
	for _, r := range identity {
		if !IsIdentifierRune(r) {
			return false
		}
	}
	return true
}
