package rel

import (
	"errors"
	"fmt"

	"github.com/fenggch/framework/lex"
)

var (
	// ErrBadRequest every translation error is a bad request: the filter
	// referenced an invalid or disallowed field.
	//
	//     if errors.Is(err, rel.ErrBadRequest) { // respond 400
	ErrBadRequest = errors.New("bad request")
)

// UnknownFieldError the name does not resolve to a field
type UnknownFieldError struct {
	Name string
	Pos  int
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("field %q does not exist (offset %d)", e.Name, e.Pos)
}
func (e *UnknownFieldError) Is(target error) bool { return target == ErrBadRequest }

// NotFilterableError the field exists but may not be filtered on, either
// marked not filterable or a relation to another table.
type NotFilterableError struct {
	Name     string
	Relation bool
	Pos      int
}

func (e *NotFilterableError) Error() string {
	if e.Relation {
		return fmt.Sprintf("field %q is a relation and can not be filtered (offset %d)", e.Name, e.Pos)
	}
	return fmt.Sprintf("field %q can not be filtered (offset %d)", e.Name, e.Pos)
}
func (e *NotFilterableError) Is(target error) bool { return target == ErrBadRequest }

// UnknownAliasError no schema is registered for the alias
type UnknownAliasError struct {
	Alias string
	Pos   int
}

func (e *UnknownAliasError) Error() string {
	return fmt.Sprintf("unknown alias %q (offset %d)", e.Alias, e.Pos)
}
func (e *UnknownAliasError) Is(target error) bool { return target == ErrBadRequest }

// UnsupportedOperatorError the operator has no sql equivalent
type UnsupportedOperatorError struct {
	Op lex.TokenType
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("unsupported operator %s", e.Op.Description())
}
func (e *UnsupportedOperatorError) Is(target error) bool { return target == ErrBadRequest }

// InvalidValueError the literal can not be converted to the field's type
type InvalidValueError struct {
	Name string
	Pos  int
	Err  error
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value for %q (offset %d): %v", e.Name, e.Pos, e.Err)
}
func (e *InvalidValueError) Is(target error) bool { return target == ErrBadRequest }
func (e *InvalidValueError) Unwrap() error        { return e.Err }
