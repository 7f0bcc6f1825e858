package rel

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenggch/framework/expr"
	"github.com/fenggch/framework/lex"
	"github.com/fenggch/framework/schema"
	"github.com/fenggch/framework/testutil"
	"github.com/fenggch/framework/value"
	"github.com/fenggch/framework/vm"
)

var resolvers schema.Resolvers

func TestMain(m *testing.M) {
	testutil.Setup()
	tables, err := schema.LoadTablesFile("../schema/testdata/tables.yaml")
	if err != nil {
		panic(err.Error())
	}
	resolvers = schema.NewResolvers(tables...)
	// Now run the actual Tests
	os.Exit(m.Run())
}

type translateTest struct {
	filter string
	sql    string
	args   []interface{}
}

var translateTests = []translateTest{
	{"age ge 18", "u.age >= ?", []interface{}{int64(18)}},
	{"age gt 18.0", "u.age > ?", []interface{}{int64(18)}},
	{"score le 7.5", "u.score <= ?", []interface{}{7.5}},
	{"age ne 3", "u.age <> ?", []interface{}{int64(3)}},
	{"active eq 'true'", "u.active = ?", []interface{}{true}},
	{"userName eq 'it''s'", "u.user_name = ?", []interface{}{"it's"}},
	{"userName lt 'b'", "u.user_name < ?", []interface{}{"b"}},

	{"userName sw 'ab'", "u.user_name like ?", []interface{}{"%ab"}},
	{"userName ew 'ab'", "u.user_name like ?", []interface{}{"ab%"}},
	{"userName co 'ab'", "u.user_name like ?", []interface{}{"%ab%"}},
	{"userName like 'a%b'", "u.user_name like ?", []interface{}{"a%b"}},
	// like family binds the string even for typed fields
	{"age co 1", "u.age like ?", []interface{}{"%1%"}},

	{"created is null", "u.created_at is null", []interface{}{}},
	{"created is not null", "u.created_at is not null", []interface{}{}},
	{"created pr", "u.created_at is not null", []interface{}{}},
	{"age eq null", "u.age is null", []interface{}{}},
	{"age ne null", "u.age is not null", []interface{}{}},
	{"age gt null", "u.age > ?", []interface{}{nil}},

	{"id in (1,2,null)", "u.id in ?", []interface{}{[]interface{}{int64(1), int64(2), nil}}},
	{"id not in 1, 2", "u.id not in ?", []interface{}{[]interface{}{int64(1), int64(2)}}},
	{"userName in ('a','b')", "u.user_name in ?", []interface{}{[]interface{}{"a", "b"}}},

	{"userName eq 'currentUser()'", "u.user_name = #{env.currentUser}", []interface{}{}},
	{"age eq 1 and userName ne 'me()'", "u.age = ? and u.user_name <> #{env.me}", []interface{}{int64(1)}},
	{"userName eq 'org.owner_id()'", "u.user_name = #{env.org.owner_id}", []interface{}{}},
	// the suffix is checked after wildcards are added
	{"userName ew 'x()'", "u.user_name like ?", []interface{}{"x()%"}},

	{"o.status eq 'open' and o.total gt 10.5", "o.status = ? and o.total > ?", []interface{}{"open", 10.5}},
	{"U.AGE eq 3 or o.userId eq 2", "U.age = ? or o.user_id = ?", []interface{}{int64(3), int64(2)}},
	{"u.userName eq 'a' and age lt 9", "u.user_name = ? and u.age < ?", []interface{}{"a", int64(9)}},

	{"not age eq 1", "not (u.age = ?)", []interface{}{int64(1)}},
	{"not (age eq 1 or x eq 2)", "not (age eq 1 or x eq 2)", []interface{}{}},
	// groups are copied from source, unresolved and unbound
	{"age gt 1 and (nope eq 1 or b eq 'x')", "u.age > ? and (nope eq 1 or b eq 'x')", []interface{}{int64(1)}},
	{"( a  in 1,2 ) or age lt 2", "( a  in 1,2 ) or u.age < ?", []interface{}{int64(2)}},
}

func TestTranslate(t *testing.T) {
	t.Parallel()
	tr := NewTranslator("u", resolvers)
	for _, tt := range translateTests {
		ex, err := expr.Parse(tt.filter)
		require.NoError(t, err, tt.filter)
		sql, args, err := tr.TranslateExpression(ex)
		require.NoError(t, err, tt.filter)
		assert.Equal(t, tt.sql, sql, tt.filter)
		assert.Equal(t, tt.args, args, tt.filter)
	}
}

func TestTranslateTime(t *testing.T) {
	t.Parallel()
	tr := NewTranslator("u", resolvers)
	sql, args, err := tr.TranslateExpression(expr.MustParse("created ge '2019-03-01T10:00:00Z'"))
	require.NoError(t, err)
	assert.Equal(t, "u.created_at >= ?", sql)
	require.Equal(t, 1, len(args))
	assert.Equal(t, time.Date(2019, 3, 1, 10, 0, 0, 0, time.UTC), args[0].(time.Time).UTC())

	_, args, err = tr.TranslateExpression(expr.MustParse("created gt 'now-1d'"))
	require.NoError(t, err)
	ts := args[0].(time.Time)
	assert.True(t, ts.Before(time.Now().Add(-23*time.Hour)), "%v", ts)
}

func TestTranslateErrors(t *testing.T) {
	t.Parallel()
	tr := NewTranslator("u", resolvers)

	_, _, err := tr.TranslateExpression(expr.MustParse("nope eq 1"))
	fe := &UnknownFieldError{}
	require.True(t, errors.As(err, &fe), "%v", err)
	assert.Equal(t, "nope", fe.Name)
	assert.Equal(t, 0, fe.Pos)

	_, _, err = tr.TranslateExpression(expr.MustParse("age eq 1 and password eq 'x'"))
	nfe := &NotFilterableError{}
	require.True(t, errors.As(err, &nfe), "%v", err)
	assert.Equal(t, "password", nfe.Name)
	assert.Equal(t, 13, nfe.Pos)
	assert.False(t, nfe.Relation)

	_, _, err = tr.TranslateExpression(expr.MustParse("not roles co 'admin'"))
	require.True(t, errors.As(err, &nfe), "%v", err)
	assert.True(t, nfe.Relation)

	_, _, err = tr.TranslateExpression(expr.MustParse("x.age eq 1"))
	ae := &UnknownAliasError{}
	require.True(t, errors.As(err, &ae), "%v", err)
	assert.Equal(t, "x", ae.Alias)

	_, _, err = tr.TranslateExpression(expr.MustParse("age eq 'abc'"))
	ve := &InvalidValueError{}
	require.True(t, errors.As(err, &ve), "%v", err)
	ce := &value.ConversionError{}
	assert.True(t, errors.As(err, &ce))
	assert.Equal(t, value.IntType, ce.Type)

	_, _, err = tr.TranslateExpression(expr.MustParse("id in (1,'x')"))
	assert.True(t, errors.As(err, &ve), "%v", err)

	// int fields never silently drop a fractional part
	for _, tt := range []struct {
		filter, name string
		pos          int
	}{
		{"age gt 17.9", "age", 0},
		{"id eq 1 or age eq 17.5", "age", 11},
		{"id in (1, 2.5)", "id", 0},
	} {
		_, _, err = tr.TranslateExpression(expr.MustParse(tt.filter))
		require.True(t, errors.As(err, &ve), "%s: %v", tt.filter, err)
		assert.Equal(t, tt.name, ve.Name, tt.filter)
		assert.Equal(t, tt.pos, ve.Pos, tt.filter)
		require.True(t, errors.As(err, &ce), tt.filter)
		assert.Equal(t, value.IntType, ce.Type, tt.filter)
	}

	// environment macro names are identifiers, anything else would be
	// spliced into the sql text
	for _, filter := range []string{
		"userName eq 'a} or 1=1 -- ()'",
		"userName eq '()'",
		"userName ne 'a b()'",
		"userName sw 'now()'",
	} {
		sql, args, err := tr.TranslateExpression(expr.MustParse(filter))
		require.True(t, errors.As(err, &ve), "%s: %v", filter, err)
		assert.Equal(t, "userName", ve.Name, filter)
		assert.Equal(t, "", sql, filter)
		assert.Nil(t, args, filter)
	}

	// no table for the default alias
	_, _, err = NewTranslator("", resolvers).TranslateExpression(expr.MustParse("age eq 1"))
	assert.True(t, errors.As(err, &ae), "%v", err)

	_, err = SqlOperator(lex.TokenComma)
	oe := &UnsupportedOperatorError{}
	require.True(t, errors.As(err, &oe), "%v", err)
	assert.Equal(t, lex.TokenComma, oe.Op)

	bad := []string{"nope eq 1", "password eq 'x'", "roles pr", "x.age eq 1", "age eq 'abc'",
		"age lt 17.9", "userName eq 'a} or 1=1 -- ()'"}
	for _, filter := range bad {
		sql, args, err := tr.TranslateExpression(expr.MustParse(filter))
		assert.True(t, errors.Is(err, ErrBadRequest), filter)
		assert.Equal(t, "", sql)
		assert.Nil(t, args)
	}
	assert.True(t, errors.Is(&UnsupportedOperatorError{}, ErrBadRequest))
}

func TestSqlOperator(t *testing.T) {
	t.Parallel()
	ops := map[lex.TokenType]string{
		lex.TokenEQ:    "=",
		lex.TokenGE:    ">=",
		lex.TokenLE:    "<=",
		lex.TokenGT:    ">",
		lex.TokenLT:    "<",
		lex.TokenNE:    "<>",
		lex.TokenIN:    "in",
		lex.TokenNotIn: "not in",
		lex.TokenLike:  "like",
		lex.TokenCO:    "like",
		lex.TokenSW:    "like",
		lex.TokenEW:    "like",
		lex.TokenIs:    "is null",
		lex.TokenIsNot: "is not null",
		lex.TokenPR:    "is not null",
	}
	for tt, expected := range ops {
		op, err := SqlOperator(tt)
		assert.NoError(t, err)
		assert.Equal(t, expected, op, tt.Description())
	}
}

func TestTranslateNodes(t *testing.T) {
	t.Parallel()
	ex := expr.MustParse("age eq 1 or userName pr")
	tr := NewTranslator("u", resolvers)
	nodes := ex.Nodes()
	require.Equal(t, 3, len(nodes))
	// callers may translate a subset of the top-level nodes
	sql, args, err := tr.Translate(nodes[2:])
	require.NoError(t, err)
	assert.Equal(t, "u.user_name is not null", sql)
	assert.Equal(t, 0, len(args))
}

var (
	jan19 = time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	jun19 = time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)
	jan20 = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	userRows = []map[string]interface{}{
		{"id": 1, "userName": "alice", "age": 30, "score": 7.5, "active": true, "created": jan19},
		{"id": 2, "userName": "bob", "age": 17, "score": 3.0, "active": false, "created": jun19},
		{"id": 3, "userName": "carol", "score": 9.0, "active": true},
		{"id": 4, "userName": "alicia", "age": 45, "active": false, "created": jan20},
	}
)

func loadUsers(t *testing.T) *testutil.SqliteDb {
	users, ok := resolvers.Get("u")
	require.True(t, ok)
	db, err := testutil.NewSqliteDb(users.(*schema.Table))
	require.NoError(t, err)
	for _, row := range userRows {
		require.NoError(t, db.Insert(row))
	}
	return db
}

// evaluating in memory and running the translation in sqlite agree
func TestSqliteMatchesEvaluator(t *testing.T) {
	t.Parallel()
	db := loadUsers(t)
	defer db.Close()

	tests := []struct {
		filter string
		ids    []int64
	}{
		{"age ge 18", []int64{1, 4}},
		{"age lt 18 or score gt 8", []int64{2, 3}},
		{"userName co 'li'", []int64{1, 4}},
		{"userName like 'a%'", []int64{1, 4}},
		{"userName eq 'bob'", []int64{2}},
		{"age is null", []int64{3}},
		{"age pr", []int64{1, 2, 4}},
		{"created is not null and active eq 'false'", []int64{2, 4}},
		{"id in (1, 3)", []int64{1, 3}},
		{"id not in 1, 3", []int64{2, 4}},
		{"active eq 'true' and score ge 8", []int64{3}},
		{"not userName eq 'bob'", []int64{1, 3, 4}},
		{"created gt '2019-03-01T00:00:00Z'", []int64{2, 4}},
		{"created le '2019-06-01T00:00:00Z' and u.age gt 10", []int64{1, 2}},
		{"age eq null or age gt 40", []int64{3, 4}},
		{"age eq 17.0", []int64{2}},
		{"age lt 30.0", []int64{2}},
		{"score lt 7.6", []int64{1, 2}},
		{"score eq 3", []int64{2}},
		{"age ge 30.0 and score lt 9.5", []int64{1}},
	}
	tr := NewTranslator("u", resolvers)
	for _, tt := range tests {
		ex := expr.MustParse(tt.filter)
		sql, args, err := tr.TranslateExpression(ex)
		require.NoError(t, err, tt.filter)
		ids, err := db.Ids(sql, args)
		require.NoError(t, err, tt.filter)
		assert.Equal(t, tt.ids, ids, "sqlite %s", tt.filter)

		matched := make([]int64, 0)
		for _, row := range userRows {
			if vm.Test(ex, row) {
				matched = append(matched, int64(row["id"].(int)))
			}
		}
		assert.Equal(t, tt.ids, matched, "evaluator %s", tt.filter)
	}
}

// a fractional literal against an int column is refused rather than
// truncated into sql that disagrees with the evaluator
func TestSqliteFractionalInt(t *testing.T) {
	t.Parallel()
	db := loadUsers(t)
	defer db.Close()
	tr := NewTranslator("u", resolvers)

	for _, tt := range []struct {
		filter string
		ids    []int64
	}{
		{"age lt 17.9", []int64{2}},
		{"age eq 17.5", []int64{}},
		{"age ne 17.5", []int64{1, 2, 4}},
		{"age gt 29.5", []int64{1, 4}},
	} {
		ex := expr.MustParse(tt.filter)
		_, _, err := tr.TranslateExpression(ex)
		assert.True(t, errors.Is(err, ErrBadRequest), "%s: %v", tt.filter, err)

		matched := make([]int64, 0)
		for _, row := range userRows {
			if vm.Test(ex, row) {
				matched = append(matched, int64(row["id"].(int)))
			}
		}
		assert.Equal(t, tt.ids, matched, "evaluator %s", tt.filter)
	}

	// the whole-number form of the same filter runs in sqlite
	sql, args, err := tr.TranslateExpression(expr.MustParse("age lt 18"))
	require.NoError(t, err)
	ids, err := db.Ids(sql, args)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids)
}

func TestSqliteEnvMacro(t *testing.T) {
	t.Parallel()
	db := loadUsers(t)
	defer db.Close()
	db.Env["currentUser"] = "carol"

	tr := NewTranslator("u", resolvers)
	sql, args, err := tr.TranslateExpression(expr.MustParse("userName eq 'currentUser()' or age eq 17"))
	require.NoError(t, err)
	ids, err := db.Ids(sql, args)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, ids)

	sql, args, err = tr.TranslateExpression(expr.MustParse("userName eq 'nobody()'"))
	require.NoError(t, err)
	_, err = db.Ids(sql, args)
	assert.Error(t, err)
}

// sw binds a leading wildcard and ew a trailing one, so in sql they match
// the opposite end of the value from the evaluator.
func TestSqliteWildcardSides(t *testing.T) {
	t.Parallel()
	db := loadUsers(t)
	defer db.Close()
	tr := NewTranslator("u", resolvers)

	sql, args, err := tr.TranslateExpression(expr.MustParse("userName sw 'ce'"))
	require.NoError(t, err)
	ids, err := db.Ids(sql, args)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)

	sql, args, err = tr.TranslateExpression(expr.MustParse("userName ew 'ali'"))
	require.NoError(t, err)
	ids, err = db.Ids(sql, args)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 4}, ids)

	assert.True(t, vm.Test(expr.MustParse("userName sw 'ali'"), userRows[0]))
	assert.True(t, vm.Test(expr.MustParse("userName ew 'ce'"), userRows[0]))
}
