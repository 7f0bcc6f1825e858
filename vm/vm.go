// VM implements the evaluator for parsed filter expressions, testing
// whether a record matches.
package vm

import (
	"strings"
	"time"

	u "github.com/araddon/gou"
	"github.com/mb0/glob"

	"github.com/fenggch/framework/expr"
	"github.com/fenggch/framework/lex"
	"github.com/fenggch/framework/value"
)

var (
	// MaxDepth acts as a guard against deeply nested groups, evaluation
	// past it does not match.
	MaxDepth = 1000
	_        = u.EMPTY
)

// Test evaluates the expression against a native record.  Absent fields
// never cause an error, see Matches.
//
//     vm.Test(expr.MustParse("a co 's'"), map[string]interface{}{"a": "ss"})  // true
func Test(e *expr.Expression, record map[string]interface{}) bool {
	return Matches(NewContextSimpleNative(record), e)
}

// Matches executes a filter expression against a record returning true if
// the record matches.  And binds tighter than or, both short-circuit left
// to right and groups are always evaluated.
func Matches(cr ContextReader, e *expr.Expression) bool {
	return evalExpression(cr, e, 0)
}

func evalExpression(cr ContextReader, e *expr.Expression, depth int) bool {
	if depth > MaxDepth {
		u.Warnf("filter nested deeper than %d: %s", MaxDepth, e.Text)
		return false
	}
	if e == nil || e.Len() == 0 {
		return false
	}
	// result of the current chain of and-ed terms
	result := evalNode(cr, e.Node(0), depth)
	for i := 1; i+1 < e.Len(); i += 2 {
		conn := e.Node(i)
		switch {
		case conn.IsOr():
			if result {
				return true
			}
			result = evalNode(cr, e.Node(i+1), depth)
		case conn.IsAnd():
			if result {
				result = evalNode(cr, e.Node(i+1), depth)
			}
		default:
			u.Warnf("expected connector got %T %s", conn, conn)
			return false
		}
	}
	return result
}

func evalNode(cr ContextReader, n expr.Node, depth int) bool {
	switch nt := n.(type) {
	case *expr.PredicateNode:
		return evalPredicate(cr, nt)
	case *expr.GroupNode:
		return evalExpression(cr, nt.Expr, depth+1)
	case *expr.NotNode:
		return !evalNode(cr, nt.Arg, depth+1)
	}
	u.Warnf("unexpected node %T %s", n, n)
	return false
}

func isNull(v value.Value) bool {
	return v == nil || v.Type() == value.NilType
}

func evalPredicate(cr ContextReader, pn *expr.PredicateNode) bool {
	v, present := getField(cr, pn.Name.Alias, pn.Name.Literal)
	null := !present || isNull(v)

	switch pn.Op.T {
	case lex.TokenPR, lex.TokenIsNot:
		return !null
	case lex.TokenIs:
		return null
	case lex.TokenIN:
		if !present {
			return false
		}
		return inList(v, pn.List)
	case lex.TokenNotIn:
		if !present {
			return true
		}
		return !inList(v, pn.List)
	}

	lit := pn.Value
	if lit == nil {
		return false
	}
	if lit.IsNull() {
		switch pn.Op.T {
		case lex.TokenEQ:
			return null
		case lex.TokenNE:
			return !null
		}
		return false
	}
	if null {
		return false
	}

	switch pn.Op.T {
	case lex.TokenCO, lex.TokenSW, lex.TokenEW, lex.TokenLike:
		s, ok := value.ValueToString(v)
		if !ok {
			return false
		}
		switch pn.Op.T {
		case lex.TokenCO:
			return strings.Contains(s, lit.Literal)
		case lex.TokenSW:
			return strings.HasPrefix(s, lit.Literal)
		case lex.TokenEW:
			return strings.HasSuffix(s, lit.Literal)
		}
		match, _ := LikeCompare(s, lit.Literal)
		return match.Val()
	}

	cmp, ok := compare(v, lit)
	if !ok {
		return false
	}
	switch pn.Op.T {
	case lex.TokenEQ:
		return cmp == 0
	case lex.TokenNE:
		return cmp != 0
	case lex.TokenGT:
		return cmp > 0
	case lex.TokenGE:
		return cmp >= 0
	case lex.TokenLT:
		return cmp < 0
	case lex.TokenLE:
		return cmp <= 0
	}
	u.Warnf("unsupported operator %s", pn.Op.T)
	return false
}

// inList membership honoring the kind of each literal, a null member
// matches a null field.  Slice fields match when any element is a member.
func inList(v value.Value, list *expr.ValueList) bool {
	if list == nil {
		return false
	}
	if sl, isSlice := v.(value.Slice); isSlice {
		for _, item := range sl.SliceValue() {
			if inList(item, list) {
				return true
			}
		}
		return false
	}
	null := isNull(v)
	for _, lit := range list.Values {
		if lit.IsNull() {
			if null {
				return true
			}
			continue
		}
		if null {
			continue
		}
		if cmp, ok := compare(v, lit); ok && cmp == 0 {
			return true
		}
	}
	return false
}

// compare the field value to a literal, numerically when a number literal or
// numeric field meets a value that parses as a number, as times for time
// fields, otherwise as strings.
func compare(v value.Value, lit *expr.Value) (int, bool) {
	switch vt := v.(type) {
	case value.TimeValue:
		rht, err := value.StringToTime(lit.Literal)
		if err != nil {
			u.Debugf("could not compare time to %q: %v", lit.Literal, err)
			return 0, false
		}
		return compareTimes(vt.Val(), rht), true
	case value.BoolValue:
		bv, ok := value.StringToBool(lit.Literal)
		if !ok {
			return 0, false
		}
		return compareBools(vt.Val(), bv), true
	}

	if lit.IsNumber() || v.Type().IsNumeric() {
		if rf, ok := value.StringToFloat64(lit.Literal); ok {
			if lf, ok := value.ValueToFloat64(v); ok {
				return compareFloats(lf, rf), true
			}
		}
	}
	s, ok := value.ValueToString(v)
	if !ok {
		return 0, false
	}
	return strings.Compare(s, lit.Literal), true
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func compareBools(a, b bool) int {
	switch {
	case a == b:
		return 0
	case b:
		return -1
	}
	return 1
}

// likeGlobber has no path separator, wildcards match across '/'
var likeGlobber = func() *glob.Globber {
	g, err := glob.New(glob.Config{Star: '*', Quest: '?', Range: '[', RangeEnd: ']', RangeNeg: '^', GlobStar: true})
	if err != nil {
		panic(err)
	}
	return g
}()

// LikeCompare takes two strings and evaluates them for like equality check
// where % matches any run of characters and _ exactly one.  Every other
// character of the pattern, glob syntax included, is literal.
func LikeCompare(a, b string) (value.BoolValue, bool) {
	match, err := likeGlobber.Match(likeToGlob(b), a)
	if err != nil {
		return value.BoolValueFalse, false
	}
	if match {
		return value.BoolValueTrue, true
	}
	return value.BoolValueFalse, true
}

func likeToGlob(pattern string) string {
	var buf strings.Builder
	for _, r := range pattern {
		switch r {
		case '%':
			buf.WriteByte('*')
		case '_':
			buf.WriteByte('?')
		case '*', '?', '[', ']', '\\':
			buf.WriteByte('\\')
			buf.WriteRune(r)
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
