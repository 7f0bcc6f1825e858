package value

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/araddon/dateparse"
	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v2"
)

type vtest struct {
	in  interface{}
	out interface{}
	t   ValueType
	s   string
}

var (
	te    = fmt.Errorf("err")
	t1, _ = dateparse.ParseIn("2016/01/01", time.UTC)
	i64   = int64(1500)
	i64n  *int64
	sp    = "ptr"
	f64   = float64(1.57)
	stv   = struct{ Name string }{Name: "world"}
	vals  = []vtest{
		{uint8(5), int64(5), IntType, "5"},
		{int16(1), int64(1), IntType, "1"},
		{int(3), int64(3), IntType, "3"},
		{int32(32), int64(32), IntType, "32"},
		{&i64, int64(1500), IntType, "1500"},
		{i64n, nil, NilType, ""},
		{uint64(65), int64(65), IntType, "65"},
		{1.55, float64(1.55), NumberType, "1.55"},
		{&f64, float64(1.57), NumberType, "1.57"},
		{json.Number("12"), int64(12), IntType, "12"},
		{json.Number("1.5"), float64(1.5), NumberType, "1.5"},
		{t1, t1, TimeType, "2016-01-01T00:00:00Z"},
		{"hello", "hello", StringType, "hello"},
		{&sp, "ptr", StringType, "ptr"},
		{[]byte("bytes"), "bytes", StringType, "bytes"},
		{true, true, BoolType, "true"},
		{nil, nil, NilType, ""},
		{te, te, ErrorType, "err"},
		{stv, stv, StructType, "{world}"},
		{[]string{"a", "b"}, []string{"a", "b"}, StringsType, "a,b"},
	}
)

func TestValues(t *testing.T) {
	t.Parallel()
	for _, v := range vals {
		val := NewValue(v.in)
		assert.Equal(t, v.t, val.Type(), "%#v", v.in)
		assert.Equal(t, v.out, val.Value(), "%#v", v.in)
		assert.Equal(t, v.s, val.ToString(), "%#v", v.in)
		// boxing a Value is a no-op
		assert.Equal(t, val, NewValue(val))
	}

	sv := NewValue([]interface{}{"a", 2, nil})
	assert.Equal(t, SliceValueType, sv.Type())
	slv := sv.(SliceValue)
	assert.Equal(t, 3, slv.Len())
	assert.Equal(t, "a,2,", slv.ToString())
	assert.Equal(t, []interface{}{"a", int64(2), nil}, slv.Values())
	by, err := json.Marshal(slv)
	assert.NoError(t, err)
	assert.Equal(t, `["a",2,null]`, string(by))

	assert.True(t, NewNumberValue(math.NaN()).Nil())
	assert.True(t, EmptyStringValue.Nil())
	assert.True(t, NilValueVal.Nil())
	assert.True(t, NewValue(te).Err())
}

func TestValueJson(t *testing.T) {
	t.Parallel()
	for _, tt := range []struct {
		v   Value
		out string
	}{
		{NewNumberValue(1.5), `1.5`},
		{NewNumberValue(-2), `-2`},
		{NumberNaNValue, `"NaN"`},
		{NewNumberValue(math.Inf(1)), `"+Inf"`},
		{NewNumberValue(math.Inf(-1)), `"-Inf"`},
		{NewIntValue(7), `7`},
		{NewStringValue("a"), `"a"`},
		{BoolValueTrue, `true`},
		{NilValueVal, `null`},
	} {
		by, err := json.Marshal(tt.v)
		assert.NoError(t, err, tt.out)
		assert.Equal(t, tt.out, string(by))
	}

	// values nested in a document marshal the same way
	by, err := json.Marshal(map[string]Value{"n": NewNumberValue(math.NaN())})
	assert.NoError(t, err)
	assert.Equal(t, `{"n":"NaN"}`, string(by))
}

func TestValueTypes(t *testing.T) {
	t.Parallel()
	for _, vt := range []ValueType{NilType, ErrorType, UnknownType, ValueInterfaceType,
		NumberType, IntType, BoolType, TimeType, StringType, StringsType, SliceValueType, StructType} {
		assert.Equal(t, vt, ValueFromString(vt.String()), vt.String())
	}
	assert.Equal(t, IntType, ValueFromString("INTEGER"))
	assert.Equal(t, TimeType, ValueFromString("datetime"))
	assert.Equal(t, StringType, ValueFromString("varchar"))
	assert.Equal(t, UnknownType, ValueFromString("geo"))
	assert.Equal(t, "invalid", ValueType(99).String())
	assert.True(t, IntType.IsNumeric())
	assert.False(t, StringType.IsNumeric())
	assert.True(t, StringsType.IsSlice())
}

func TestValueTypeYaml(t *testing.T) {
	t.Parallel()
	var f struct {
		Type ValueType `yaml:"type"`
	}
	assert.NoError(t, yaml.Unmarshal([]byte("type: int"), &f))
	assert.Equal(t, IntType, f.Type)
	assert.NoError(t, yaml.Unmarshal([]byte("type: datetime"), &f))
	assert.Equal(t, TimeType, f.Type)
	assert.Error(t, yaml.Unmarshal([]byte("type: polygon"), &f))
}
