package lex

import (
	"fmt"
	"strings"
)

// Tokens ---------------------------------------------------------------------

// TokenType identifies the type of lexical tokens.
type TokenType uint16

// TokenInfo describes a TokenType, its keyword and a human readable description.
type TokenInfo struct {
	T           TokenType
	Kw          string
	Description string
}

// ValueKind is the kind of literal a TokenValue holds.
type ValueKind uint8

const (
	// StringKind is a single-quoted literal.
	StringKind ValueKind = 1
	// NumberKind is a bare, optionally signed, integer or decimal literal.
	NumberKind ValueKind = 2
	// NullKind is the null keyword used as a value.
	NullKind ValueKind = 3
)

// Token represents a text string returned from the lexer.
type Token struct {
	T     TokenType // type
	V     string    // value, quotes stripped and '' unescaped for strings
	Raw   string    // exact source text of this token
	Pos   int       // original byte location
	Quote byte      // quote mark for string values
	Kind  ValueKind // kind of literal for TokenValue
}

// convert to human readable string
func (t Token) String() string {
	return fmt.Sprintf(`Token{Type:"%v" Value:"%v"}`, t.T.String(), t.V)
}

// Operator returns the source text of the token with every run of white space
// collapsed to a single space, so "is   not" renders as "is not".
func (t Token) Operator() string {
	return strings.Join(strings.Fields(t.Raw), " ")
}

const (
	// List of all TokenTypes. Note we do NOT use IOTA, numbers stay stable
	// for anything that persisted a TokenType.

	// Basic grammar items
	TokenNil   TokenType = 0 // not used
	TokenEOF   TokenType = 1 // EOF
	TokenError TokenType = 4 // error occurred; value is text of error

	// Misc
	TokenComma TokenType = 20 // ,

	// Comparison operators
	TokenEQ TokenType = 40 // eq
	TokenGT TokenType = 41 // gt
	TokenLT TokenType = 42 // lt
	TokenGE TokenType = 43 // ge
	TokenLE TokenType = 44 // le
	TokenNE TokenType = 45 // ne

	// String match operators
	TokenCO   TokenType = 50 // co, contains
	TokenSW   TokenType = 51 // sw, starts with
	TokenEW   TokenType = 52 // ew, ends with
	TokenLike TokenType = 53 // like

	// Membership, presence, nullness
	TokenIN    TokenType = 60 // in
	TokenNotIn TokenType = 61 // not in
	TokenPR    TokenType = 62 // pr, present
	TokenIs    TokenType = 63 // is
	TokenIsNot TokenType = 64 // is not

	// Logical
	TokenNegate           TokenType = 80 // not
	TokenLogicAnd         TokenType = 81 // and
	TokenLogicOr          TokenType = 82 // or
	TokenLeftParenthesis  TokenType = 83 // (
	TokenRightParenthesis TokenType = 84 // )

	// Value Types
	TokenName  TokenType = 190 // field reference, optionally alias qualified
	TokenValue TokenType = 191 // 'string' or number
	TokenNull  TokenType = 192 // null
)

var (
	// Which Identity Characters are allowed besides letters and digits.
	// The period separates an alias from the field name.
	IDENTITY_CHARS = "_."

	// list of token-name
	TokenNameMap = map[TokenType]*TokenInfo{

		TokenEOF:   {Description: "EOF"},
		TokenError: {Description: "Error"},

		TokenComma: {Kw: ",", Description: ","},

		TokenEQ: {Kw: "eq", Description: "EQ"},
		TokenGT: {Kw: "gt", Description: "GT"},
		TokenLT: {Kw: "lt", Description: "LT"},
		TokenGE: {Kw: "ge", Description: "GE"},
		TokenLE: {Kw: "le", Description: "LE"},
		TokenNE: {Kw: "ne", Description: "NE"},

		TokenCO:   {Kw: "co", Description: "CO"},
		TokenSW:   {Kw: "sw", Description: "SW"},
		TokenEW:   {Kw: "ew", Description: "EW"},
		TokenLike: {Kw: "like", Description: "LIKE"},

		TokenIN:    {Kw: "in", Description: "IN"},
		TokenNotIn: {Kw: "not in", Description: "NOT_IN"},
		TokenPR:    {Kw: "pr", Description: "PR"},
		TokenIs:    {Kw: "is", Description: "IS"},
		TokenIsNot: {Kw: "is not", Description: "IS_NOT"},

		TokenNegate:   {Kw: "not", Description: "NOT"},
		TokenLogicAnd: {Kw: "and", Description: "AND"},
		TokenLogicOr:  {Kw: "or", Description: "OR"},

		TokenLeftParenthesis:  {Kw: "(", Description: "("},
		TokenRightParenthesis: {Kw: ")", Description: ")"},

		TokenName:  {Description: "name"},
		TokenValue: {Description: "value"},
		TokenNull:  {Kw: "null", Description: "NULL"},
	}

	// keywords maps the lower-case single word keywords to their token.
	// "not in" and "is not" are compound and resolved by the lexer.
	keywords = map[string]TokenType{}
)

func init() {
	LoadTokenInfo()
}

// LoadTokenInfo fills in the derived parts of TokenNameMap and the keyword
// lookup table.
func LoadTokenInfo() {
	for tok, ti := range TokenNameMap {
		ti.T = tok
		if ti.Kw == "" {
			ti.Kw = ti.Description
			continue
		}
		if !strings.Contains(ti.Kw, " ") && IdentityRunesOnly(ti.Kw) {
			keywords[ti.Kw] = tok
		}
	}
}

// convert to human readable string
func (typ TokenType) String() string {
	s, ok := TokenNameMap[typ]
	if ok {
		return s.Kw
	}
	return "not implemented"
}

// Description is the upper-case name of the token, ie NOT_IN
func (typ TokenType) Description() string {
	s, ok := TokenNameMap[typ]
	if ok {
		return s.Description
	}
	return "not implemented"
}

// IsOperator reports whether this token sits between a name and its value(s).
func (typ TokenType) IsOperator() bool {
	switch typ {
	case TokenEQ, TokenGT, TokenLT, TokenGE, TokenLE, TokenNE,
		TokenCO, TokenSW, TokenEW, TokenLike,
		TokenIN, TokenNotIn, TokenPR, TokenIs, TokenIsNot:
		return true
	}
	return false
}

// IsConnector is AND or OR
func (typ TokenType) IsConnector() bool {
	return typ == TokenLogicAnd || typ == TokenLogicOr
}

// LookupKeyword returns the token type of a reserved word, case-insensitive.
func LookupKeyword(word string) (TokenType, bool) {
	tok, ok := keywords[strings.ToLower(word)]
	return tok, ok
}
