// Package rel translates a parsed filter into a parameterized sql
// predicate for a query backend.
package rel

import (
	"bytes"
	"strings"

	u "github.com/araddon/gou"
	"github.com/pkg/errors"

	"github.com/fenggch/framework/expr"
	"github.com/fenggch/framework/lex"
	"github.com/fenggch/framework/schema"
	"github.com/fenggch/framework/value"
)

var _ = u.EMPTY

// EnvMacroSuffix a literal ending in this is an environment lookup, emitted
// inline as #{env.name} instead of being bound.  The name must be made of
// identifier runes.
const EnvMacroSuffix = "()"

// Translator builds the where-clause body for a filter.  It holds no
// per-call state and may be shared.
type Translator struct {
	Resolvers    schema.Resolvers
	DefaultAlias string // alias for names without one
}

// NewTranslator a translator resolving unqualified names against defaultAlias
func NewTranslator(defaultAlias string, rs schema.Resolvers) *Translator {
	return &Translator{Resolvers: rs, DefaultAlias: defaultAlias}
}

// TranslateExpression translates the top-level nodes of e
func (m *Translator) TranslateExpression(e *expr.Expression) (string, []interface{}, error) {
	return m.Translate(e.Nodes())
}

// Translate the flat node sequence into predicate text and its ordered
// args.  Groups are copied verbatim from source, their names are not
// resolved and their values are not bound.
//
//    u.age >= ? and ( b eq 1 or c eq 2 )   [18]
//
func (m *Translator) Translate(nodes []expr.Node) (string, []interface{}, error) {
	w := &bytes.Buffer{}
	args := make([]interface{}, 0)
	for _, n := range nodes {
		var err error
		args, err = m.walkNode(w, n, args)
		if err != nil {
			u.Debugf("translate failed %v", err)
			return "", nil, err
		}
	}
	u.Debugf("translated %q args=%v", w.String(), args)
	return w.String(), args, nil
}

func (m *Translator) walkNode(w *bytes.Buffer, n expr.Node, args []interface{}) ([]interface{}, error) {
	switch nt := n.(type) {
	case *expr.ConnectorNode:
		if nt.IsAnd() {
			w.WriteString(" and ")
		} else {
			w.WriteString(" or ")
		}
	case *expr.GroupNode:
		w.WriteString(nt.Raw)
	case *expr.NotNode:
		w.WriteString("not ")
		switch arg := nt.Arg.(type) {
		case *expr.PredicateNode:
			w.WriteByte('(')
			var err error
			args, err = m.walkPredicate(w, arg, args)
			if err != nil {
				return nil, err
			}
			w.WriteByte(')')
		case *expr.GroupNode:
			w.WriteString(arg.Raw)
		default:
			return nil, expr.ErrNotSupported
		}
	case *expr.PredicateNode:
		return m.walkPredicate(w, nt, args)
	default:
		u.Warnf("unrecognized node %T", n)
		return nil, expr.ErrNotSupported
	}
	return args, nil
}

// resolve finds the field for a predicate name and checks it may be filtered.
func (m *Translator) resolve(pn *expr.PredicateNode) (string, *schema.Field, error) {
	alias := pn.Name.Alias
	if alias == "" {
		alias = m.DefaultAlias
	}
	r, ok := m.Resolvers.Get(alias)
	if !ok {
		return "", nil, &UnknownAliasError{Alias: alias, Pos: pn.Pos}
	}
	fld, ok := r.Resolve(alias, pn.Name.Literal)
	if !ok || fld == nil {
		return "", nil, &UnknownFieldError{Name: pn.Name.String(), Pos: pn.Pos}
	}
	if !fld.Filterable() {
		return "", nil, &NotFilterableError{Name: pn.Name.String(), Relation: fld.Relation, Pos: pn.Pos}
	}
	return alias, fld, nil
}

func (m *Translator) walkPredicate(w *bytes.Buffer, pn *expr.PredicateNode, args []interface{}) ([]interface{}, error) {
	alias, fld, err := m.resolve(pn)
	if err != nil {
		return nil, err
	}
	op, err := SqlOperator(pn.Op.T)
	if err != nil {
		return nil, err
	}
	w.WriteString(alias)
	w.WriteByte('.')
	w.WriteString(fld.ColumnName())
	w.WriteByte(' ')

	switch pn.Op.T {
	case lex.TokenIs, lex.TokenIsNot, lex.TokenPR:
		w.WriteString(op)
		return args, nil
	case lex.TokenIN, lex.TokenNotIn:
		list := make([]interface{}, 0, len(pn.List.Values))
		for _, v := range pn.List.Values {
			if v.IsNull() {
				list = append(list, nil)
				continue
			}
			cv, err := value.Convert(v.Literal, fld.Type)
			if err != nil {
				return nil, &InvalidValueError{Name: pn.Name.String(), Pos: pn.Pos, Err: err}
			}
			list = append(list, cv)
		}
		w.WriteString(op)
		w.WriteString(" ?")
		return append(args, list), nil
	}

	if pn.Value.IsNull() {
		switch pn.Op.T {
		case lex.TokenEQ:
			w.WriteString("is null")
			return args, nil
		case lex.TokenNE:
			w.WriteString("is not null")
			return args, nil
		}
		w.WriteString(op)
		w.WriteString(" ?")
		return append(args, nil), nil
	}

	lit := pn.Value.Literal
	switch pn.Op.T {
	case lex.TokenSW:
		lit = "%" + lit
	case lex.TokenEW:
		lit = lit + "%"
	case lex.TokenCO:
		lit = "%" + lit + "%"
	}

	if strings.HasSuffix(lit, EnvMacroSuffix) {
		name := strings.TrimSuffix(lit, EnvMacroSuffix)
		if name == "" || !lex.IdentityRunesOnly(name) {
			return nil, &InvalidValueError{Name: pn.Name.String(), Pos: pn.Pos,
				Err: errors.Errorf("invalid environment macro %q", lit)}
		}
		w.WriteString(op)
		w.WriteString(" #{env.")
		w.WriteString(name)
		w.WriteByte('}')
		return args, nil
	}
	w.WriteString(op)
	w.WriteString(" ?")

	switch pn.Op.T {
	case lex.TokenSW, lex.TokenEW, lex.TokenCO, lex.TokenLike:
		return append(args, lit), nil
	}
	cv, err := value.Convert(lit, fld.Type)
	if err != nil {
		return nil, &InvalidValueError{Name: pn.Name.String(), Pos: pn.Pos, Err: err}
	}
	return append(args, cv), nil
}

// SqlOperator the sql operator for a filter operator
func SqlOperator(t lex.TokenType) (string, error) {
	switch t {
	case lex.TokenEQ:
		return "=", nil
	case lex.TokenGE:
		return ">=", nil
	case lex.TokenLE:
		return "<=", nil
	case lex.TokenGT:
		return ">", nil
	case lex.TokenLT:
		return "<", nil
	case lex.TokenNE:
		return "<>", nil
	case lex.TokenIN:
		return "in", nil
	case lex.TokenNotIn:
		return "not in", nil
	case lex.TokenLike, lex.TokenCO, lex.TokenSW, lex.TokenEW:
		return "like", nil
	case lex.TokenIs:
		return "is null", nil
	case lex.TokenIsNot, lex.TokenPR:
		return "is not null", nil
	}
	return "", &UnsupportedOperatorError{Op: t}
}
