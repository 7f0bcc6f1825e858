package value

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	u "github.com/araddon/gou"
	"github.com/lytics/datemath"
)

var _ = u.EMPTY

// ConversionError a filter literal could not be converted to the type a
// field declares.
type ConversionError struct {
	Literal string
	Type    ValueType
	Err     error
}

func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot convert %q to %s: %v", e.Literal, e.Type, e.Err)
	}
	return fmt.Sprintf("cannot convert %q to %s", e.Literal, e.Type)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Convert a filter literal into the native Go value a field of type vt
// expects.
//
//	int                 =>  int64
//	number              =>  float64
//	bool                =>  bool
//	time                =>  time.Time   ("2019-01-02", "now-3d", ...)
//	string, unknown     =>  string
func Convert(literal string, vt ValueType) (interface{}, error) {
	switch vt {
	case StringType, UnknownType, ValueInterfaceType, StringsType:
		return literal, nil
	case NilType:
		return nil, nil
	case IntType:
		if iv, ok := StringToInt64(literal); ok {
			return iv, nil
		}
		return nil, &ConversionError{Literal: literal, Type: vt}
	case NumberType:
		if fv, ok := StringToFloat64(literal); ok {
			return fv, nil
		}
		return nil, &ConversionError{Literal: literal, Type: vt}
	case BoolType:
		if bv, ok := StringToBool(literal); ok {
			return bv, nil
		}
		return nil, &ConversionError{Literal: literal, Type: vt}
	case TimeType:
		t, err := StringToTime(literal)
		if err != nil {
			return nil, &ConversionError{Literal: literal, Type: vt, Err: err}
		}
		return t, nil
	}
	return nil, &ConversionError{Literal: literal, Type: vt, Err: fmt.Errorf("unsupported type")}
}

// StringToTime parses date math relative to now ("now-3d", "now+1h") or any
// date format dateparse recognizes.
func StringToTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 3 && strings.ToLower(s[:3]) == "now" {
		if len(s) == 3 {
			return time.Now(), nil
		}
		// Is date math
		return datemath.Eval(s[3:])
	}
	return dateparse.ParseAny(s)
}

// StringToInt64 parses decimal or 0x hex integers.  Float forms are
// accepted only when they are whole ("12.0", "1e3"), a fractional part
// is never truncated away.
func StringToInt64(s string) (int64, bool) {
	if strings.HasPrefix(s, "0x") {
		iv, err := strconv.ParseInt(s[2:], 16, 64)
		return iv, err == nil
	}
	if iv, err := strconv.ParseInt(s, 10, 64); err == nil {
		return iv, true
	}
	fv, err := strconv.ParseFloat(s, 64)
	if err != nil || fv != math.Trunc(fv) || math.Abs(fv) >= 1<<63 {
		return 0, false
	}
	return int64(fv), true
}

// StringToFloat64 parses a float, "1,000" and "$5" are not numbers.
func StringToFloat64(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN(), false
	}
	return f, true
}

// marshalFloat json has no NaN or Inf, they are written as strings
func marshalFloat(n float64) ([]byte, error) {
	switch {
	case math.IsNaN(n):
		return json.Marshal("NaN")
	case math.IsInf(n, 1):
		return json.Marshal("+Inf")
	case math.IsInf(n, -1):
		return json.Marshal("-Inf")
	}
	return json.Marshal(n)
}

// StringToBool true/false/1/0 and the other forms strconv understands.
func StringToBool(s string) (bool, bool) {
	bv, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, false
	}
	return bv, true
}

// ValueToString the string form of a scalar value, slices of length one
// use their single element.
func ValueToString(val Value) (string, bool) {
	if val == nil || val.Err() {
		return "", false
	}
	switch v := val.(type) {
	case NilValue:
		return "", false
	case StringValue:
		return v.Val(), true
	case StringsValue:
		if v.Len() == 1 {
			return v.Val()[0], true
		}
		return "", false
	case SliceValue:
		if v.Len() == 1 {
			return ValueToString(v.Val()[0])
		}
		return "", false
	}
	return val.ToString(), true
}

// ValueToFloat64 numeric form of a value; strings are parsed, bools are 1/0,
// times are unix milliseconds.
func ValueToFloat64(val Value) (float64, bool) {
	if val == nil || val.Err() {
		return math.NaN(), false
	}
	switch v := val.(type) {
	case NumberValue:
		return v.Val(), true
	case IntValue:
		return float64(v.Val()), true
	case TimeValue:
		return v.Float(), true
	case BoolValue:
		if v.Val() {
			return 1, true
		}
		return 0, true
	case StringValue:
		return StringToFloat64(v.Val())
	case StructValue:
		if n, ok := v.Val().(json.Number); ok {
			if f, err := n.Float64(); err == nil {
				return f, true
			}
		}
	}
	return math.NaN(), false
}

// ValueToInt64 integer form of a value, see ValueToFloat64
func ValueToInt64(val Value) (int64, bool) {
	switch v := val.(type) {
	case IntValue:
		return v.Val(), true
	case StringValue:
		return StringToInt64(v.Val())
	}
	f, ok := ValueToFloat64(val)
	if !ok || math.IsNaN(f) {
		return 0, false
	}
	return int64(f), true
}

// ValueToTime time form of a value; strings may be date math or any
// format dateparse recognizes, integers are unix milliseconds.
func ValueToTime(val Value) (time.Time, bool) {
	if val == nil || val.Err() {
		return time.Time{}, false
	}
	switch v := val.(type) {
	case TimeValue:
		return v.Val(), true
	case StringValue:
		t, err := StringToTime(v.Val())
		if err != nil {
			u.Debugf("could not parse time %q: %v", v.Val(), err)
			return time.Time{}, false
		}
		return t, true
	case IntValue:
		return time.Unix(0, v.Val()*int64(time.Millisecond)).In(time.UTC), true
	}
	return time.Time{}, false
}
