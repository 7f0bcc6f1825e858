package vm

import (
	"net/url"
	"strings"
	"time"

	u "github.com/araddon/gou"

	"github.com/fenggch/framework/value"
)

var (
	_ ContextReader = (*ContextSimple)(nil)
	_ ContextReader = (*ContextUrlValues)(nil)
	_               = u.EMPTY
)

// ContextReader is interface to read the record being evaluated
type ContextReader interface {
	Get(key string) (value.Value, bool)
	Row() map[string]value.Value
	Ts() time.Time
}

type ContextSimple struct {
	Data map[string]value.Value
	ts   time.Time
}

func NewContextSimple() *ContextSimple {
	return &ContextSimple{Data: make(map[string]value.Value), ts: time.Now()}
}
func NewContextSimpleData(data map[string]value.Value) *ContextSimple {
	return &ContextSimple{Data: data, ts: time.Now()}
}
func NewContextSimpleTs(data map[string]value.Value, ts time.Time) *ContextSimple {
	return &ContextSimple{Data: data, ts: ts}
}

// NewContextSimpleNative boxes a native record.  Nested objects are also
// flattened into period separated keys so alias qualified names resolve:
//
//     {"t": {"name": "x"}}   =>   t.name = "x"
func NewContextSimpleNative(data map[string]interface{}) *ContextSimple {
	vals := make(map[string]value.Value, len(data))
	flattenInto(vals, "", data)
	return &ContextSimple{Data: vals, ts: time.Now()}
}

func flattenInto(vals map[string]value.Value, prefix string, data map[string]interface{}) {
	for k, v := range data {
		if prefix != "" {
			k = prefix + "." + k
		}
		if nested, ok := v.(map[string]interface{}); ok {
			flattenInto(vals, k, nested)
			continue
		}
		vals[k] = value.NewValue(v)
	}
}

func (m ContextSimple) Row() map[string]value.Value {
	return m.Data
}

func (m ContextSimple) Get(key string) (value.Value, bool) {
	val, ok := m.Data[key]
	return val, ok
}

func (m ContextSimple) Ts() time.Time {
	return m.ts
}

func (m *ContextSimple) Put(key string, v value.Value) {
	m.Data[key] = v
}

// ContextUrlValues reads records from query-string style values, every
// value is a string.
type ContextUrlValues struct {
	Data url.Values
	ts   time.Time
}

func NewContextUrlValues(uv url.Values) *ContextUrlValues {
	return &ContextUrlValues{uv, time.Now()}
}
func NewContextUrlValuesTs(uv url.Values, ts time.Time) *ContextUrlValues {
	return &ContextUrlValues{uv, ts}
}
func (m ContextUrlValues) Get(key string) (value.Value, bool) {
	vals, ok := m.Data[key]
	if ok {
		if len(vals) == 1 {
			return value.NewStringValue(vals[0]), true
		}
		return value.NewStringsValue(vals), true
	}
	return value.EmptyStringValue, false
}
func (m ContextUrlValues) Row() map[string]value.Value {
	mi := make(map[string]value.Value)
	for k, v := range m.Data {
		if len(v) == 1 {
			mi[k] = value.NewStringValue(v[0])
		} else if len(v) > 1 {
			mi[k] = value.NewStringsValue(v)
		}
	}
	return mi
}

func (m ContextUrlValues) Ts() time.Time {
	return m.ts
}

// getField resolves a name against the record: the alias qualified key,
// then the bare literal, each exact first then case-insensitive.
func getField(cr ContextReader, alias, literal string) (value.Value, bool) {
	keys := []string{literal}
	if alias != "" {
		keys = []string{alias + "." + literal, literal}
	}
	for _, key := range keys {
		if v, ok := cr.Get(key); ok {
			return v, true
		}
	}
	row := cr.Row()
	for _, key := range keys {
		for k, v := range row {
			if strings.EqualFold(k, key) {
				return v, true
			}
		}
	}
	return nil, false
}
