package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qres/internal/queryir"
	"github.com/roach88/qres/internal/value"
)

func TestCompile_SimpleSelect(t *testing.T) {
	compiler := NewSQLCompiler()

	query := queryir.Select{
		From:    "users",
		Columns: []string{"id", "name"},
		Filter: queryir.Equals{
			Field: "status",
			Value: value.String("active"),
		},
	}

	sql, params, err := compiler.Compile(query, queryir.Arguments{})
	require.NoError(t, err)

	assert.Equal(t, "SELECT id, name FROM users WHERE status = ? ORDER BY id ASC", sql)
	assert.NotContains(t, sql, "active")
	assert.Equal(t, []any{"active"}, params)
}

func TestCompile_PointerTypes(t *testing.T) {
	query := &queryir.Select{
		From:    "users",
		Columns: []string{"id"},
		Filter:  &queryir.Equals{Field: "name", Value: value.String("Alice")},
	}

	sql, params, err := NewSQLCompiler().Compile(query, queryir.Arguments{})
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM users WHERE name = ? ORDER BY id ASC", sql)
	assert.Equal(t, []any{"Alice"}, params)
}

func TestCompile_AlwaysOrdersByID(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(
		queryir.Select{From: "users", Columns: []string{"id"}},
		queryir.Arguments{},
	)
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM users ORDER BY id ASC", sql)
	assert.Empty(t, params)
}

func TestCompile_ParentColumn(t *testing.T) {
	query := queryir.Select{
		From:    "posts",
		Columns: []string{"id", "title"},
		Parent:  "author_id",
		Filter: queryir.In{
			Field:  "author_id",
			Values: []value.Value{value.IntID(1), value.IntID(2)},
		},
	}

	sql, params, err := NewSQLCompiler().Compile(query, queryir.Arguments{})
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id, title, author_id AS __parent FROM posts WHERE author_id IN (?, ?) ORDER BY id ASC",
		sql)
	assert.Equal(t, []any{int64(1), int64(2)}, params)
}

func TestCompile_EmptyInMatchesNothing(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(
		queryir.Select{From: "posts", Columns: []string{"id"}, Filter: queryir.In{Field: "author_id"}},
		queryir.Arguments{},
	)
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM posts WHERE 1 = 0 ORDER BY id ASC", sql)
	assert.Empty(t, params)
}

func TestCompile_NullEquals(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(
		queryir.Select{From: "users", Columns: []string{"id"}, Filter: queryir.Equals{Field: "deleted_at", Value: value.Null{}}},
		queryir.Arguments{},
	)
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM users WHERE deleted_at IS NULL ORDER BY id ASC", sql)
	assert.Empty(t, params)
}

func TestCompile_AndWithNesting(t *testing.T) {
	filter := queryir.And{Predicates: []queryir.Predicate{
		queryir.Equals{Field: "a", Value: value.Int(1)},
		queryir.And{Predicates: []queryir.Predicate{
			queryir.Equals{Field: "b", Value: value.Bool(true)},
			queryir.Equals{Field: "c", Value: value.StringID("x")},
		}},
		queryir.And{},
	}}

	sql, params, err := NewSQLCompiler().Compile(
		queryir.Select{From: "t", Columns: []string{"id"}, Filter: filter},
		queryir.Arguments{},
	)
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM t WHERE a = ? AND (b = ? AND c = ?) AND (1 = 1) ORDER BY id ASC", sql)
	assert.Equal(t, []any{int64(1), true, "x"}, params)
}

func TestCompile_Arguments(t *testing.T) {
	base := queryir.Select{
		From:    "users",
		Columns: []string{"id", "name"},
		Filter:  queryir.Equals{Field: "status", Value: value.String("active")},
	}

	tests := []struct {
		name       string
		args       queryir.Arguments
		wantSQL    string
		wantParams []any
	}{
		{
			name:       "first",
			args:       queryir.Arguments{First: queryir.Int(2)},
			wantSQL:    "SELECT id, name FROM users WHERE status = ? ORDER BY id ASC LIMIT ?",
			wantParams: []any{"active", 2},
		},
		{
			name:       "first with skip",
			args:       queryir.Arguments{First: queryir.Int(2), Skip: 4},
			wantSQL:    "SELECT id, name FROM users WHERE status = ? ORDER BY id ASC LIMIT ? OFFSET ?",
			wantParams: []any{"active", 2, 4},
		},
		{
			name:       "skip only",
			args:       queryir.Arguments{Skip: 1},
			wantSQL:    "SELECT id, name FROM users WHERE status = ? ORDER BY id ASC LIMIT -1 OFFSET ?",
			wantParams: []any{"active", 1},
		},
		{
			name:       "last reverses order",
			args:       queryir.Arguments{Last: queryir.Int(3)},
			wantSQL:    "SELECT id, name FROM users WHERE status = ? ORDER BY id DESC LIMIT ?",
			wantParams: []any{"active", 3},
		},
		{
			name: "order by with id tiebreak",
			args: queryir.Arguments{OrderBy: []queryir.OrderBy{
				{Field: "name", Descending: true},
			}},
			wantSQL:    "SELECT id, name FROM users WHERE status = ? ORDER BY name DESC, id ASC",
			wantParams: []any{"active"},
		},
		{
			name: "order by id has no extra tiebreak",
			args: queryir.Arguments{OrderBy: []queryir.OrderBy{
				{Field: "id", Descending: true},
			}},
			wantSQL:    "SELECT id, name FROM users WHERE status = ? ORDER BY id DESC",
			wantParams: []any{"active"},
		},
		{
			name: "last flips explicit order",
			args: queryir.Arguments{
				Last:    queryir.Int(1),
				OrderBy: []queryir.OrderBy{{Field: "name"}},
			},
			wantSQL:    "SELECT id, name FROM users WHERE status = ? ORDER BY name DESC, id DESC LIMIT ?",
			wantParams: []any{"active", 1},
		},
		{
			name:       "cursors",
			args:       queryir.Arguments{After: value.IntID(10), Before: value.IntID(20)},
			wantSQL:    "SELECT id, name FROM users WHERE status = ? AND id > ? AND id < ? ORDER BY id ASC",
			wantParams: []any{"active", int64(10), int64(20)},
		},
		{
			name:       "argument filter joins select filter",
			args:       queryir.Arguments{Filter: queryir.Equals{Field: "age", Value: value.Int(30)}},
			wantSQL:    "SELECT id, name FROM users WHERE status = ? AND age = ? ORDER BY id ASC",
			wantParams: []any{"active", int64(30)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := NewSQLCompiler().Compile(base, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantParams, params)
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		query queryir.Query
		args  queryir.Arguments
		want  string
	}{
		{"nil query", nil, queryir.Arguments{}, "nil query"},
		{"no columns", queryir.Select{From: "users"}, queryir.Arguments{}, "no columns"},
		{
			"bad table",
			queryir.Select{From: "users; DROP TABLE x", Columns: []string{"id"}},
			queryir.Arguments{},
			"invalid identifier",
		},
		{
			"bad column",
			queryir.Select{From: "users", Columns: []string{"id", "name--"}},
			queryir.Arguments{},
			"invalid identifier",
		},
		{
			"bad order field",
			queryir.Select{From: "users", Columns: []string{"id"}},
			queryir.Arguments{OrderBy: []queryir.OrderBy{{Field: "a b"}}},
			"invalid identifier",
		},
		{
			"invalid arguments",
			queryir.Select{From: "users", Columns: []string{"id"}},
			queryir.Arguments{First: queryir.Int(1), Last: queryir.Int(1)},
			"cannot be combined",
		},
		{
			"list as parameter",
			queryir.Select{From: "users", Columns: []string{"id"}, Filter: queryir.Equals{Field: "tags", Value: value.List{}}},
			queryir.Arguments{},
			"list cannot be used as SQL parameter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewSQLCompiler().Compile(tt.query, tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
