package expr

import (
	"fmt"
	"strconv"
	"strings"

	u "github.com/araddon/gou"

	"github.com/fenggch/framework/lex"
)

var (
	_ = u.EMPTY

	// Standard errors
	ErrNotSupported = fmt.Errorf("scel Not supported")
)

// NodeType identifies the concrete type of a Node.
type NodeType uint8

const (
	PredicateNodeType NodeType = 1
	ConnectorNodeType NodeType = 2
	GroupNodeType     NodeType = 3
	NotNodeType       NodeType = 4
)

func (nt NodeType) String() string {
	switch nt {
	case PredicateNodeType:
		return "Predicate"
	case ConnectorNodeType:
		return "Connector"
	case GroupNodeType:
		return "Group"
	case NotNodeType:
		return "Not"
	}
	return "unknown"
}

type (
	// A Node is an element of a parsed filter, the top-level nodes of an
	// Expression are, in source order, predicates, connectors, groups and
	// negations.
	Node interface {
		// string representation of Node, parseable back to itself
		String() string

		// string representation of Node but with values replaced by @rune
		FingerPrint(r rune) string

		NodeType() NodeType

		IsGroup() bool
		IsAnd() bool
		IsOr() bool
		IsNot() bool

		// Equal compares structure, not source formatting
		Equal(Node) bool
	}

	// Name is a field reference, optionally qualified by an alias
	//
	//     name
	//     t.name
	Name struct {
		Alias   string
		Literal string
	}

	// Value is a literal, Raw keeps the original quoting
	//
	//     'it''s'   => Literal: it's
	//     -12.5
	//     null
	Value struct {
		Kind    lex.ValueKind
		Literal string
		Raw     string
	}

	// ValueList is the right hand side of in/not in.  Raw is the source text
	// of the list, parentheses and separator spacing included.
	ValueList struct {
		Values []*Value
		Paren  bool
		Raw    string
	}

	// PredicateNode is a single condition
	//
	//     a eq 1
	//     t.b in ('x','y')
	//     c is not null
	PredicateNode struct {
		Pos   int // byte offset of the name
		Name  Name
		Op    lex.Token
		Value *Value     // scalar operators, nil for pr/is/is not and lists
		List  *ValueList // in, not in
	}

	// ConnectorNode is and/or joining two adjacent terms
	ConnectorNode struct {
		Op lex.Token
	}

	// GroupNode is a parenthesized sub-expression.  Expr is the parsed
	// content, Raw the source text including the parentheses.
	GroupNode struct {
		Expr *Expression
		Raw  string
	}

	// NotNode negates a predicate or a group
	NotNode struct {
		Arg Node
	}
)

// NewName splits an identifier at its first period into alias and literal.
func NewName(ident string) Name {
	if idx := strings.IndexByte(ident, '.'); idx > 0 {
		return Name{Alias: ident[:idx], Literal: ident[idx+1:]}
	}
	return Name{Literal: ident}
}

func (n Name) String() string {
	if n.Alias != "" {
		return n.Alias + "." + n.Literal
	}
	return n.Literal
}

// Equal compares alias and literal, case-insensitive when ignoreCase.
func (n Name) Equal(o Name, ignoreCase bool) bool {
	if ignoreCase {
		return strings.EqualFold(n.Alias, o.Alias) && strings.EqualFold(n.Literal, o.Literal)
	}
	return n.Alias == o.Alias && n.Literal == o.Literal
}

// NewValue creates a Value from a lexed value or null token.
func NewValue(tok lex.Token) *Value {
	if tok.T == lex.TokenNull {
		return &Value{Kind: lex.NullKind, Literal: "null", Raw: tok.Raw}
	}
	return &Value{Kind: tok.Kind, Literal: tok.V, Raw: tok.Raw}
}

func (v *Value) String() string { return v.Raw }

// IsNull is this the null literal
func (v *Value) IsNull() bool { return v.Kind == lex.NullKind }

// IsString was this a single-quoted literal
func (v *Value) IsString() bool { return v.Kind == lex.StringKind }

// IsNumber was this a bare numeric literal
func (v *Value) IsNumber() bool { return v.Kind == lex.NumberKind }

// Float64 returns the numeric value of a number literal.
func (v *Value) Float64() (float64, bool) {
	if v.Kind != lex.NumberKind {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.Literal, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Equal compares kind and decoded literal
func (v *Value) Equal(o *Value) bool {
	if v == nil || o == nil {
		return v == o
	}
	return v.Kind == o.Kind && v.Literal == o.Literal
}

func (l *ValueList) String() string { return l.Raw }

// Equal compares the values and whether the list was parenthesized.
func (l *ValueList) Equal(o *ValueList) bool {
	if l == nil || o == nil {
		return l == o
	}
	if l.Paren != o.Paren || len(l.Values) != len(o.Values) {
		return false
	}
	for i, v := range l.Values {
		if !v.Equal(o.Values[i]) {
			return false
		}
	}
	return true
}

// Operator is the normalized operator text
//
//     eq, not in, is null, is not null
func (m *PredicateNode) Operator() string {
	switch m.Op.T {
	case lex.TokenIs:
		return "is null"
	case lex.TokenIsNot:
		return "is not null"
	}
	return m.Op.T.String()
}

// HasValue is false for the operators taking no value (pr, is, is not).
func (m *PredicateNode) HasValue() bool {
	return m.Value != nil || m.List != nil
}

func (m *PredicateNode) String() string {
	switch {
	case m.List != nil:
		return fmt.Sprintf("%s %s %s", m.Name, m.Operator(), m.List.Raw)
	case m.Value != nil:
		return fmt.Sprintf("%s %s %s", m.Name, m.Operator(), m.Value.Raw)
	}
	return fmt.Sprintf("%s %s", m.Name, m.Operator())
}

func (m *PredicateNode) FingerPrint(r rune) string {
	if m.HasValue() {
		return fmt.Sprintf("%s %s %s", m.Name, m.Operator(), string(r))
	}
	return m.String()
}

func (m *PredicateNode) NodeType() NodeType { return PredicateNodeType }
func (m *PredicateNode) IsGroup() bool      { return false }
func (m *PredicateNode) IsAnd() bool        { return false }
func (m *PredicateNode) IsOr() bool         { return false }
func (m *PredicateNode) IsNot() bool        { return false }

func (m *PredicateNode) Equal(n Node) bool {
	o, ok := n.(*PredicateNode)
	if !ok || o == nil {
		return false
	}
	return m.Name.Equal(o.Name, false) && m.Op.T == o.Op.T &&
		m.Value.Equal(o.Value) && m.List.Equal(o.List)
}

func (m *ConnectorNode) String() string            { return m.Op.T.String() }
func (m *ConnectorNode) FingerPrint(r rune) string { return m.String() }
func (m *ConnectorNode) NodeType() NodeType        { return ConnectorNodeType }
func (m *ConnectorNode) IsGroup() bool             { return false }
func (m *ConnectorNode) IsAnd() bool               { return m.Op.T == lex.TokenLogicAnd }
func (m *ConnectorNode) IsOr() bool                { return m.Op.T == lex.TokenLogicOr }
func (m *ConnectorNode) IsNot() bool               { return false }

func (m *ConnectorNode) Equal(n Node) bool {
	o, ok := n.(*ConnectorNode)
	return ok && o != nil && m.Op.T == o.Op.T
}

func (m *GroupNode) String() string {
	return "( " + m.Expr.String() + " )"
}
func (m *GroupNode) FingerPrint(r rune) string {
	return "( " + m.Expr.FingerPrint(r) + " )"
}
func (m *GroupNode) NodeType() NodeType { return GroupNodeType }
func (m *GroupNode) IsGroup() bool      { return true }
func (m *GroupNode) IsAnd() bool        { return false }
func (m *GroupNode) IsOr() bool         { return false }
func (m *GroupNode) IsNot() bool        { return false }

func (m *GroupNode) Equal(n Node) bool {
	o, ok := n.(*GroupNode)
	if !ok || o == nil {
		return false
	}
	return m.Expr.Equal(o.Expr)
}

func (m *NotNode) String() string            { return "not " + m.Arg.String() }
func (m *NotNode) FingerPrint(r rune) string { return "not " + m.Arg.FingerPrint(r) }
func (m *NotNode) NodeType() NodeType        { return NotNodeType }
func (m *NotNode) IsGroup() bool             { return false }
func (m *NotNode) IsAnd() bool               { return false }
func (m *NotNode) IsOr() bool                { return false }
func (m *NotNode) IsNot() bool               { return true }

func (m *NotNode) Equal(n Node) bool {
	o, ok := n.(*NotNode)
	if !ok || o == nil {
		return false
	}
	return m.Arg.Equal(o.Arg)
}
