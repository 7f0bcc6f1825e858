// Value package defines the core value types (string, int, etc) that
// records are boxed into for evaluation and that schema fields declare,
// providing common interfaces instead of reflection.
package value

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	u "github.com/araddon/gou"
)

var (
	_ = u.EMPTY

	NilValueVal      = NewNilValue()
	BoolValueTrue    = BoolValue{v: true}
	BoolValueFalse   = BoolValue{v: false}
	NumberNaNValue   = NewNumberValue(math.NaN())
	EmptyStringValue = NewStringValue("")
	TimeZeroValue    = NewTimeValue(time.Time{})

	_ Value = (StringValue)(EmptyStringValue)

	// force some types to implement interfaces
	_ Slice        = (*StringsValue)(nil)
	_ Slice        = (*SliceValue)(nil)
	_ NumericValue = (*IntValue)(nil)
	_ NumericValue = (*NumberValue)(nil)
	_ NumericValue = (*TimeValue)(nil)
)

// This is the DataType system, ie string, int, etc
type ValueType uint8

const (
	// Enum values for Type system, DO NOT CHANGE the numbers, do not use iota
	NilType            ValueType = 0
	ErrorType          ValueType = 1
	UnknownType        ValueType = 2
	ValueInterfaceType ValueType = 3 // Is of type Value Interface, ie unknown
	NumberType         ValueType = 10
	IntType            ValueType = 11
	BoolType           ValueType = 12
	TimeType           ValueType = 13
	StringType         ValueType = 20
	StringsType        ValueType = 21
	SliceValueType     ValueType = 40
	StructType         ValueType = 50
)

func (m ValueType) String() string {
	switch m {
	case NilType:
		return "nil"
	case ErrorType:
		return "error"
	case UnknownType:
		return "unknown"
	case ValueInterfaceType:
		return "value"
	case NumberType:
		return "number"
	case IntType:
		return "int"
	case BoolType:
		return "bool"
	case TimeType:
		return "time"
	case StringType:
		return "string"
	case StringsType:
		return "[]string"
	case SliceValueType:
		return "[]value"
	case StructType:
		return "struct"
	default:
		return "invalid"
	}
}

func (m ValueType) IsSlice() bool {
	switch m {
	case StringsType, SliceValueType:
		return true
	}
	return false
}

func (m ValueType) IsNumeric() bool {
	switch m {
	case NumberType, IntType:
		return true
	}
	return false
}

// UnmarshalYAML lets schema files name types as strings.
func (m *ValueType) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	vt := ValueFromString(s)
	if vt == UnknownType && !strings.EqualFold(s, "unknown") {
		return fmt.Errorf("unrecognized value type %q", s)
	}
	*m = vt
	return nil
}

type (
	Value interface {
		// Is this a nil/empty?
		// empty string counts as nil, empty slices, nil structs.
		Nil() bool
		// Is this an error, or unable to evaluate?
		Err() bool
		Value() interface{}
		ToString() string
		Type() ValueType
	}
	// Certain types are Numeric (Ints, Time, Number)
	NumericValue interface {
		Float() float64
		Int() int64
	}
	// Slices can always return a []Value representation and is meant to be used
	// when iterating over all items in a non-scalar value.
	Slice interface {
		SliceValue() []Value
		Len() int
		json.Marshaler
	}
)

type (
	NumberValue struct {
		v float64
	}
	IntValue struct {
		v int64
	}
	BoolValue struct {
		v bool
	}
	StringValue struct {
		v string
	}
	TimeValue struct {
		v time.Time
	}
	StringsValue struct {
		v []string
	}
	SliceValue struct {
		v []Value
	}
	StructValue struct {
		v interface{}
	}
	ErrorValue struct {
		v error
	}
	NilValue struct{}
)

// ValueFromString Given a string, convert to valuetype.  Common column type
// names used in schema files (integer, varchar, datetime...) are accepted.
func ValueFromString(vt string) ValueType {
	switch strings.ToLower(vt) {
	case "nil", "null":
		return NilType
	case "error":
		return ErrorType
	case "unknown":
		return UnknownType
	case "value":
		return ValueInterfaceType
	case "number", "float", "double", "decimal", "numeric", "real":
		return NumberType
	case "int", "integer", "long", "bigint", "smallint":
		return IntType
	case "bool", "boolean":
		return BoolType
	case "time", "date", "datetime", "timestamp":
		return TimeType
	case "string", "text", "varchar", "char":
		return StringType
	case "[]string":
		return StringsType
	case "[]value":
		return SliceValueType
	case "struct":
		return StructType
	default:
		return UnknownType
	}
}

// NewValue creates a new Value type from a native Go value.
//
// Defaults to StructValue for unknown types.
func NewValue(goVal interface{}) Value {

	switch val := goVal.(type) {
	case nil:
		return NilValueVal
	case Value:
		return val
	case float64:
		return NewNumberValue(val)
	case float32:
		return NewNumberValue(float64(val))
	case *float64:
		if val == nil {
			return NilValueVal
		}
		return NewNumberValue(*val)
	case int8:
		return NewIntValue(int64(val))
	case int16:
		return NewIntValue(int64(val))
	case int:
		return NewIntValue(int64(val))
	case *int:
		if val == nil {
			return NilValueVal
		}
		return NewIntValue(int64(*val))
	case int32:
		return NewIntValue(int64(val))
	case int64:
		return NewIntValue(val)
	case *int64:
		if val == nil {
			return NilValueVal
		}
		return NewIntValue(*val)
	case uint8:
		return NewIntValue(int64(val))
	case uint16:
		return NewIntValue(int64(val))
	case uint32:
		return NewIntValue(int64(val))
	case uint:
		return NewIntValue(int64(val))
	case uint64:
		return NewIntValue(int64(val))
	case json.Number:
		if iv, err := val.Int64(); err == nil {
			return NewIntValue(iv)
		}
		if fv, err := val.Float64(); err == nil {
			return NewNumberValue(fv)
		}
		return NewStringValue(val.String())
	case string:
		return NewStringValue(val)
	case *string:
		if val == nil {
			return NilValueVal
		}
		return NewStringValue(*val)
	case []string:
		return NewStringsValue(val)
	case []byte:
		return NewStringValue(string(val))
	case bool:
		return NewBoolValue(val)
	case *bool:
		if val == nil {
			return NilValueVal
		}
		return NewBoolValue(*val)
	case time.Time:
		return NewTimeValue(val)
	case *time.Time:
		if val == nil {
			return NilValueVal
		}
		return NewTimeValue(*val)
	case []interface{}:
		return NewSliceValuesNative(val)
	default:
		if err, isErr := val.(error); isErr {
			return NewErrorValue(err)
		}
		return NewStructValue(val)
	}
}

func NewNumberValue(v float64) NumberValue {
	return NumberValue{v: v}
}

func (m NumberValue) Nil() bool                    { return math.IsNaN(m.v) }
func (m NumberValue) Err() bool                    { return math.IsNaN(m.v) }
func (m NumberValue) Type() ValueType              { return NumberType }
func (m NumberValue) Value() interface{}           { return m.v }
func (m NumberValue) Val() float64                 { return m.v }
func (m NumberValue) MarshalJSON() ([]byte, error) { return marshalFloat(m.v) }
func (m NumberValue) ToString() string             { return strconv.FormatFloat(m.v, 'f', -1, 64) }
func (m NumberValue) Float() float64               { return m.v }
func (m NumberValue) Int() int64                   { return int64(m.v) }

func NewIntValue(v int64) IntValue {
	return IntValue{v: v}
}

func (m IntValue) Nil() bool                    { return false }
func (m IntValue) Err() bool                    { return false }
func (m IntValue) Type() ValueType              { return IntType }
func (m IntValue) Value() interface{}           { return m.v }
func (m IntValue) Val() int64                   { return m.v }
func (m IntValue) MarshalJSON() ([]byte, error) { return json.Marshal(m.v) }
func (m IntValue) NumberValue() NumberValue     { return NewNumberValue(float64(m.v)) }
func (m IntValue) ToString() string             { return strconv.FormatInt(m.v, 10) }
func (m IntValue) Float() float64               { return float64(m.v) }
func (m IntValue) Int() int64                   { return m.v }

func NewBoolValue(v bool) BoolValue {
	if v {
		return BoolValueTrue
	}
	return BoolValueFalse
}

func (m BoolValue) Nil() bool                    { return false }
func (m BoolValue) Err() bool                    { return false }
func (m BoolValue) Type() ValueType              { return BoolType }
func (m BoolValue) Value() interface{}           { return m.v }
func (m BoolValue) Val() bool                    { return m.v }
func (m BoolValue) MarshalJSON() ([]byte, error) { return json.Marshal(m.v) }
func (m BoolValue) ToString() string             { return strconv.FormatBool(m.v) }

func NewStringValue(v string) StringValue {
	return StringValue{v: v}
}

func (m StringValue) Nil() bool                    { return len(m.v) == 0 }
func (m StringValue) Err() bool                    { return false }
func (m StringValue) Type() ValueType              { return StringType }
func (m StringValue) Value() interface{}           { return m.v }
func (m StringValue) Val() string                  { return m.v }
func (m StringValue) MarshalJSON() ([]byte, error) { return json.Marshal(m.v) }
func (m StringValue) ToString() string             { return m.v }

func NewStringsValue(v []string) StringsValue {
	return StringsValue{v: v}
}

func (m StringsValue) Nil() bool                    { return len(m.v) == 0 }
func (m StringsValue) Err() bool                    { return false }
func (m StringsValue) Type() ValueType              { return StringsType }
func (m StringsValue) Value() interface{}           { return m.v }
func (m StringsValue) Val() []string                { return m.v }
func (m StringsValue) MarshalJSON() ([]byte, error) { return json.Marshal(m.v) }
func (m StringsValue) Len() int                     { return len(m.v) }
func (m StringsValue) ToString() string             { return strings.Join(m.v, ",") }
func (m StringsValue) Strings() []string            { return m.v }
func (m StringsValue) SliceValue() []Value {
	vs := make([]Value, len(m.v))
	for i, v := range m.v {
		vs[i] = NewStringValue(v)
	}
	return vs
}

func NewSliceValues(v []Value) SliceValue {
	return SliceValue{v: v}
}
func NewSliceValuesNative(iv []interface{}) SliceValue {
	vs := make([]Value, len(iv))
	for i, v := range iv {
		vs[i] = NewValue(v)
	}
	return SliceValue{v: vs}
}

func (m SliceValue) Nil() bool          { return len(m.v) == 0 }
func (m SliceValue) Err() bool          { return false }
func (m SliceValue) Type() ValueType    { return SliceValueType }
func (m SliceValue) Value() interface{} { return m.v }
func (m SliceValue) Val() []Value       { return m.v }
func (m SliceValue) ToString() string {
	sv := make([]string, len(m.v))
	for i, val := range m.v {
		sv[i] = val.ToString()
	}
	return strings.Join(sv, ",")
}
func (m SliceValue) MarshalJSON() ([]byte, error) {
	vals := make([]interface{}, len(m.v))
	for i, v := range m.v {
		vals[i] = v.Value()
	}
	return json.Marshal(vals)
}
func (m SliceValue) Len() int            { return len(m.v) }
func (m SliceValue) SliceValue() []Value { return m.v }
func (m SliceValue) Values() []interface{} {
	vals := make([]interface{}, len(m.v))
	for i, v := range m.v {
		vals[i] = v.Value()
	}
	return vals
}

func NewStructValue(v interface{}) StructValue {
	return StructValue{v: v}
}

func (m StructValue) Nil() bool          { return m.v == nil }
func (m StructValue) Err() bool          { return false }
func (m StructValue) Type() ValueType    { return StructType }
func (m StructValue) Value() interface{} { return m.v }
func (m StructValue) Val() interface{}   { return m.v }
func (m StructValue) ToString() string   { return fmt.Sprintf("%v", m.v) }

func NewTimeValue(v time.Time) TimeValue {
	return TimeValue{v: v}
}

func (m TimeValue) Nil() bool                    { return m.v.IsZero() }
func (m TimeValue) Err() bool                    { return false }
func (m TimeValue) Type() ValueType              { return TimeType }
func (m TimeValue) Value() interface{}           { return m.v }
func (m TimeValue) Val() time.Time               { return m.v }
func (m TimeValue) MarshalJSON() ([]byte, error) { return json.Marshal(m.v) }
func (m TimeValue) ToString() string             { return m.v.Format(time.RFC3339Nano) }
func (m TimeValue) Float() float64               { return float64(m.Int()) }
func (m TimeValue) Int() int64                   { return m.v.In(time.UTC).UnixNano() / 1e6 }
func (m TimeValue) Time() time.Time              { return m.v }

func NewErrorValue(v error) ErrorValue {
	return ErrorValue{v: v}
}

func (m ErrorValue) Nil() bool          { return false }
func (m ErrorValue) Err() bool          { return true }
func (m ErrorValue) Type() ValueType    { return ErrorType }
func (m ErrorValue) Value() interface{} { return m.v }
func (m ErrorValue) Val() error         { return m.v }
func (m ErrorValue) ToString() string   { return m.v.Error() }

func NewNilValue() NilValue {
	return NilValue{}
}

func (m NilValue) Nil() bool                    { return true }
func (m NilValue) Err() bool                    { return false }
func (m NilValue) Type() ValueType              { return NilType }
func (m NilValue) Value() interface{}           { return nil }
func (m NilValue) Val() interface{}             { return nil }
func (m NilValue) MarshalJSON() ([]byte, error) { return []byte("null"), nil }
func (m NilValue) ToString() string             { return "" }
