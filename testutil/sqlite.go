package testutil

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	u "github.com/araddon/gou"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/fenggch/framework/schema"
	"github.com/fenggch/framework/value"
)

// SqliteDb is an in-memory sqlite table built from a schema.Table, used to
// run translated predicates against real rows.
type SqliteDb struct {
	*sqlx.DB
	Table *schema.Table
	// Env values substituted for #{env.name} macros
	Env map[string]interface{}
}

// NewSqliteDb opens a private in-memory database and creates the table.
func NewSqliteDb(tbl *schema.Table) (*SqliteDb, error) {
	db, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, err
	}
	// each connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	create := TableToString(tbl)
	u.Debugf("create \n%s", create)
	if _, err = db.Exec(create); err != nil {
		db.Close()
		return nil, err
	}
	return &SqliteDb{DB: db, Table: tbl, Env: make(map[string]interface{})}, nil
}

// TableToString the sqlite create statement for a table, relations are
// not stored.
func TableToString(tbl *schema.Table) string {
	w := &bytes.Buffer{}
	fmt.Fprintf(w, "CREATE TABLE `%s` (", tbl.Name)
	i := 0
	for _, fld := range tbl.Fields {
		if fld.Relation {
			continue
		}
		if i != 0 {
			w.WriteByte(',')
		}
		i++
		fmt.Fprint(w, "\n    ")
		WriteField(w, fld)
	}
	fmt.Fprint(w, "\n);")
	return w.String()
}

// WriteField write a schema.Field as a column of the create statement
//
// https://www.sqlite.org/datatype3.html
func WriteField(w *bytes.Buffer, fld *schema.Field) {
	fmt.Fprintf(w, "`%s` ", fld.ColumnName())
	switch fld.Type {
	case value.BoolType, value.IntType:
		fmt.Fprint(w, "INTEGER")
	case value.NumberType:
		fmt.Fprint(w, "REAL")
	default:
		fmt.Fprint(w, "text")
	}
}

// Insert a row keyed by field name, missing fields are null.
func (m *SqliteDb) Insert(row map[string]interface{}) error {
	cols := make([]string, 0, len(row))
	args := make([]interface{}, 0, len(row))
	for name, v := range row {
		fld, ok := m.Table.Resolve(m.Table.Alias, name)
		if !ok {
			return fmt.Errorf("no field %q in %s", name, m.Table.Name)
		}
		cols = append(cols, "`"+fld.ColumnName()+"`")
		args = append(args, bindValue(v))
	}
	sql := fmt.Sprintf("INSERT INTO `%s` (%s) VALUES (%s)", m.Table.Name,
		strings.Join(cols, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))
	_, err := m.Exec(sql, args...)
	return err
}

// Ids runs the translated predicate and returns the matching id column
// values in id order.
func (m *SqliteDb) Ids(pred string, args []interface{}) ([]int64, error) {
	where, flat, err := Expand(pred, args, m.Env)
	if err != nil {
		return nil, err
	}
	sql := fmt.Sprintf("SELECT %s.id FROM `%s` AS %s WHERE %s ORDER BY %s.id",
		m.Table.Alias, m.Table.Name, m.Table.Alias, where, m.Table.Alias)
	u.Debugf("query %s  %v", sql, flat)
	ids := make([]int64, 0)
	err = m.Select(&ids, m.Rebind(sql), flat...)
	return ids, err
}

// Expand rewrites a translated predicate into plain bindvars.  A slice arg
// becomes a parenthesized list of one bindvar per member, a #{env.name}
// macro becomes a bindvar for the Env value.  Quoted text is left alone.
func Expand(pred string, args []interface{}, env map[string]interface{}) (string, []interface{}, error) {
	w := &bytes.Buffer{}
	flat := make([]interface{}, 0, len(args))
	ai := 0
	inQuote := false
	for i := 0; i < len(pred); i++ {
		c := pred[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
		case inQuote:
		case c == '?':
			if ai >= len(args) {
				return "", nil, fmt.Errorf("more bindvars than args in %q", pred)
			}
			arg := args[ai]
			ai++
			list, isList := arg.([]interface{})
			if !isList {
				flat = append(flat, bindValue(arg))
				break
			}
			w.WriteByte('(')
			for li, lv := range list {
				if li > 0 {
					w.WriteString(", ")
				}
				w.WriteByte('?')
				flat = append(flat, bindValue(lv))
			}
			w.WriteByte(')')
			continue
		case strings.HasPrefix(pred[i:], "#{env."):
			end := strings.IndexByte(pred[i:], '}')
			if end < 0 {
				return "", nil, fmt.Errorf("unterminated macro in %q", pred)
			}
			name := pred[i+len("#{env.") : i+end]
			ev, ok := env[name]
			if !ok {
				return "", nil, fmt.Errorf("no env value for %q", name)
			}
			w.WriteByte('?')
			flat = append(flat, bindValue(ev))
			i += end
			continue
		}
		w.WriteByte(c)
	}
	if ai != len(args) {
		return "", nil, fmt.Errorf("%d args for %d bindvars in %q", len(args), ai, pred)
	}
	return w.String(), flat, nil
}

// fixed width so text comparison orders times
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// bindValue times are stored as utc text
func bindValue(v interface{}) interface{} {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(timeFormat)
	}
	return v
}
