// Package schema describes the fields a filter may reference: for each
// table alias the storage column and value type of every field, and
// whether it may be filtered on.
package schema

import (
	"fmt"
	"strings"

	u "github.com/araddon/gou"

	"github.com/fenggch/framework/value"
)

var (
	_ = u.EMPTY

	_ Resolver = (*Table)(nil)
)

type (
	// Resolver maps a field name, qualified by the alias it was referenced
	// with, to its Field.
	Resolver interface {
		Resolve(alias, name string) (*Field, bool)
	}

	// Table represents traditional definition of Database Table, the fields
	// a filter on it may use.
	Table struct {
		Name     string            `yaml:"name"`   // Name of table in the query backend
		Alias    string            `yaml:"alias"`  // Alias the table is joined as, defaults to Name
		Fields   []*Field          `yaml:"fields"` // List of Fields, in order
		FieldMap map[string]*Field `yaml:"-"`      // Fields keyed by lower-cased name
	}

	// Field Describes a filterable property and the column it is stored in
	Field struct {
		Name          string          `yaml:"name"`
		Column        string          `yaml:"column"` // storage column, defaults to Name
		Type          value.ValueType `yaml:"type"`
		NotFilterable bool            `yaml:"notFilterable"`
		Relation      bool            `yaml:"relation"` // reference to another table, never filterable
		Description   string          `yaml:"description"`
	}

	// Resolvers maps alias to the Resolver for that alias
	Resolvers map[string]Resolver
)

// NewTable creates a table, alias defaults to the table name.
func NewTable(name, alias string) *Table {
	if alias == "" {
		alias = name
	}
	return &Table{
		Name:     name,
		Alias:    alias,
		Fields:   make([]*Field, 0),
		FieldMap: make(map[string]*Field),
	}
}

// NewField a filterable field stored in a column of the same name
func NewField(name string, valType value.ValueType, description string) *Field {
	return &Field{
		Name:        name,
		Type:        valType,
		Description: description,
	}
}

// ColumnName is the storage column of this field
func (m *Field) ColumnName() string {
	if m.Column != "" {
		return m.Column
	}
	return m.Name
}

// Filterable can this field be used in a filter predicate
func (m *Field) Filterable() bool {
	return !m.NotFilterable && !m.Relation
}

func (m *Field) String() string {
	return fmt.Sprintf("%s(%s %s)", m.Name, m.ColumnName(), m.Type)
}

// init builds the field map after loading from config
func (m *Table) init() {
	if m.Alias == "" {
		m.Alias = m.Name
	}
	m.FieldMap = make(map[string]*Field, len(m.Fields))
	for _, fld := range m.Fields {
		if fld.Type == value.NilType {
			// no type given, literals are bound as strings
			fld.Type = value.UnknownType
		}
		m.FieldMap[strings.ToLower(fld.Name)] = fld
	}
}

func (m *Table) HasField(name string) bool {
	_, ok := m.FieldMap[strings.ToLower(name)]
	return ok
}

func (m *Table) AddField(fld *Field) {
	m.Fields = append(m.Fields, fld)
	m.FieldMap[strings.ToLower(fld.Name)] = fld
}

func (m *Table) AddFieldType(name string, valType value.ValueType) {
	m.AddField(&Field{Type: valType, Name: name})
}

// Resolve a field by name, case-insensitive.  The alias is already
// resolved to this table by the caller.
func (m *Table) Resolve(alias, name string) (*Field, bool) {
	fld, ok := m.FieldMap[strings.ToLower(name)]
	if !ok {
		u.Debugf("table %s has no field %q", m.Name, name)
	}
	return fld, ok
}

// NewResolvers keys each table by its alias
func NewResolvers(tables ...*Table) Resolvers {
	rs := make(Resolvers, len(tables))
	for _, tbl := range tables {
		rs[tbl.Alias] = tbl
	}
	return rs
}

// Get the resolver for an alias, case-insensitive.
func (m Resolvers) Get(alias string) (Resolver, bool) {
	if r, ok := m[alias]; ok {
		return r, true
	}
	for a, r := range m {
		if strings.EqualFold(a, alias) {
			return r, true
		}
	}
	return nil, false
}
