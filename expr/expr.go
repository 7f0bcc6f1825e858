package expr

import (
	"strings"
)

// Expression is a parsed filter.  The top-level nodes are kept in source
// order, groups hold their own Expression so callers choose whether to
// recurse.  An Expression is never modified after Parse and is safe for
// concurrent use.
type Expression struct {
	Text  string // source text this expression was parsed from
	nodes []Node
}

// Nodes returns the top-level nodes in source order.
func (m *Expression) Nodes() []Node {
	nodes := make([]Node, len(m.nodes))
	copy(nodes, m.nodes)
	return nodes
}

// Len is the number of top-level nodes
func (m *Expression) Len() int { return len(m.nodes) }

// Node returns the i'th top-level node
func (m *Expression) Node(i int) Node { return m.nodes[i] }

// String writes the expression back out with single spaces between tokens.
//
//     not (a eq 's') and (c eq 1)  =>  not ( a eq 's' ) and ( c eq 1 )
//     a in (1,2)                   =>  a in (1,2)
func (m *Expression) String() string {
	return m.join(func(n Node) string { return n.String() })
}

// FingerPrint is String with every value or value list replaced by r,
// filters differing only in their values share a fingerprint.
func (m *Expression) FingerPrint(r rune) string {
	return m.join(func(n Node) string { return n.FingerPrint(r) })
}

func (m *Expression) join(render func(Node) string) string {
	buf := strings.Builder{}
	for i, n := range m.nodes {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(render(n))
	}
	return buf.String()
}

// FindNameValue returns the first top-level predicate whose field literal
// matches name, or nil.  Matching is case-sensitive unless ignoreCase is
// passed as true.  Predicates inside groups or negations are not searched.
func (m *Expression) FindNameValue(name string, ignoreCase ...bool) *PredicateNode {
	fold := len(ignoreCase) > 0 && ignoreCase[0]
	for _, n := range m.nodes {
		pn, ok := n.(*PredicateNode)
		if !ok {
			continue
		}
		if pn.Name.Literal == name || (fold && strings.EqualFold(pn.Name.Literal, name)) {
			return pn
		}
	}
	return nil
}

// Names returns every field referenced, groups and negations included, in
// source order.
func (m *Expression) Names() []Name {
	names := make([]Name, 0, len(m.nodes))
	Walk(m, func(pn *PredicateNode) {
		names = append(names, pn.Name)
	})
	return names
}

// Walk calls fn for every predicate of the expression, recursing into
// groups and negations.
func Walk(m *Expression, fn func(*PredicateNode)) {
	for _, n := range m.nodes {
		walkNode(n, fn)
	}
}

func walkNode(n Node, fn func(*PredicateNode)) {
	switch nt := n.(type) {
	case *PredicateNode:
		fn(nt)
	case *GroupNode:
		Walk(nt.Expr, fn)
	case *NotNode:
		walkNode(nt.Arg, fn)
	}
}

// Equal is structural equality, formatting of the source text is ignored
// except for whether value lists were parenthesized.
func (m *Expression) Equal(o *Expression) bool {
	if m == nil || o == nil {
		return m == o
	}
	if len(m.nodes) != len(o.nodes) {
		return false
	}
	for i, n := range m.nodes {
		if !n.Equal(o.nodes[i]) {
			return false
		}
	}
	return true
}
