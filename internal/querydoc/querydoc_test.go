package querydoc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qres/internal/executor"
	"github.com/roach88/qres/internal/queryir"
	"github.com/roach88/qres/internal/schema"
	"github.com/roach88/qres/internal/testutil"
	"github.com/roach88/qres/internal/value"
)

func blogRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg, err := schema.CompileString(testutil.BlogSchema)
	require.NoError(t, err)
	return reg
}

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(`
name: authors
model: User
many: true
where: {active: true}
order_by:
  - field: name
    desc: true
first: 2
select: [name]
lists: [tags]
include:
  posts:
    select: [title]
  profile:
`))
	require.NoError(t, err)

	assert.Equal(t, "authors", doc.Name)
	assert.Equal(t, "User", doc.Model)
	assert.True(t, doc.Many)
	assert.Equal(t, map[string]any{"active": true}, doc.Where)
	assert.Equal(t, []Order{{Field: "name", Desc: true}}, doc.OrderBy)
	require.NotNil(t, doc.First)
	assert.Equal(t, 2, *doc.First)
	assert.Equal(t, []string{"name"}, doc.Select)
	assert.Equal(t, []string{"tags"}, doc.Lists)
	require.Contains(t, doc.Include, "posts")
	assert.Equal(t, []string{"title"}, doc.Include["posts"].Select)
	assert.Contains(t, doc.Include, "profile")
	assert.Nil(t, doc.Include["profile"])
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing model", `select: [name]`},
		{"unknown key", "model: User\nlimit: 3"},
		{"first and last", "model: User\nmany: true\nfirst: 1\nlast: 1"},
		{"negative skip", "model: User\nmany: true\nskip: -1"},
		{"object filter value", "model: User\nwhere: {name: {eq: Alice}}"},
		{"bad identifier", "model: User\nselect: [\"na me\"]"},
		{"unknown relation key", "model: User\ninclude: {posts: {limit: 1}}"},
		{"not a mapping", "- model: User"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			require.Error(t, err)
			assert.True(t, IsValidationError(err), "expected ValidationError, got %v", err)
		})
	}
}

func TestParse_MalformedYAML(t *testing.T) {
	_, err := Parse([]byte("model: [User"))
	require.Error(t, err)
	assert.False(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "parse YAML")
}

func TestQuery_Many(t *testing.T) {
	doc, err := Parse([]byte(`
model: User
many: true
where:
  active: true
  id: [u1, u2]
order_by: [{field: name, desc: true}]
first: 2
after: u1
select: [name, age]
lists: [tags]
include:
  profile:
    name: about
    select: [bio]
  posts:
    where: {published: true}
    select: [title]
`))
	require.NoError(t, err)

	q, err := doc.Query(blogRegistry(t))
	require.NoError(t, err)

	assert.Equal(t, executor.ManyRecordsQuery{
		Model: "User",
		Arguments: queryir.Arguments{
			Filter: queryir.And{Predicates: []queryir.Predicate{
				queryir.Equals{Field: "active", Value: value.Bool(true)},
				queryir.In{Field: "id", Values: []value.Value{value.StringID("u1"), value.StringID("u2")}},
			}},
			OrderBy: []queryir.OrderBy{{Field: "name", Descending: true}},
			First:   queryir.Int(2),
			After:   value.StringID("u1"),
		},
		Selection: executor.Selection{
			Scalars: []string{"name", "age"},
			Lists:   []string{"tags"},
			Relations: []executor.RelationQuery{
				{
					Field: "posts",
					Arguments: queryir.Arguments{
						Filter: queryir.Equals{Field: "published", Value: value.Bool(true)},
					},
					Selection: executor.Selection{Scalars: []string{"title"}},
				},
				{
					Field:     "profile",
					Name:      "about",
					Selection: executor.Selection{Scalars: []string{"bio"}},
				},
			},
		},
	}, q)
}

func TestQuery_Record(t *testing.T) {
	doc, err := Parse([]byte(`
name: post
model: Post
where: {id: 2}
select: [title]
include:
  comments:
`))
	require.NoError(t, err)

	q, err := doc.Query(blogRegistry(t))
	require.NoError(t, err)

	assert.Equal(t, executor.RecordQuery{
		Name:  "post",
		Model: "Post",
		Where: queryir.Equals{Field: "id", Value: value.IntID(2)},
		Selection: executor.Selection{
			Scalars:   []string{"title"},
			Relations: []executor.RelationQuery{{Field: "comments"}},
		},
	}, q)
}

func TestQuery_TypedCursors(t *testing.T) {
	doc, err := Parse([]byte(`
model: Post
where: {id: "1"}
include:
  comments:
    after: 01900000-0000-7000-8000-000000000001
    first: 1
`))
	require.NoError(t, err)

	q, err := doc.Query(blogRegistry(t))
	require.NoError(t, err)

	rq := q.(executor.RecordQuery)
	assert.Equal(t, queryir.Equals{Field: "id", Value: value.IntID(1)}, rq.Where)

	want, err := value.ParseID(value.KindUUID, "01900000-0000-7000-8000-000000000001")
	require.NoError(t, err)
	require.Len(t, rq.Selection.Relations, 1)
	assert.Equal(t, want, rq.Selection.Relations[0].Arguments.After)
}

func TestQuery_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		problem string
	}{
		{"unknown model", "model: Ghost", `unknown model "Ghost"`},
		{"unknown filter field", "model: User\nwhere: {nickname: x}", `where.nickname: User has no field "nickname"`},
		{"wrong filter type", "model: User\nwhere: {age: old}", "where.age: User.age is int, got old"},
		{"wrong list item type", "model: User\nmany: true\nwhere: {active: [true, 1]}", "where.active: User.active is bool, got 1"},
		{"bad int cursor", "model: Post\nmany: true\nafter: abc", "after: parse int id"},
		{"bad uuid filter", "model: Comment\nwhere: {id: nope}", "where.id: parse uuid id"},
		{"unknown relation", "model: User\ninclude: {friends: {}}", `include.friends: User has no relation "friends"`},
		{"nested error path", "model: User\ninclude: {posts: {where: {title: 3}}}", "include.posts.where.title: Post.title is string, got 3"},
		{"single with pagination", "model: User\nfirst: 1", "ordering and pagination need many: true"},
	}
	reg := blogRegistry(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.src))
			require.NoError(t, err)

			_, err = doc.Query(reg)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.Contains(t, err.Error(), tt.problem)
		})
	}
}

func TestQuery_CollectsAllProblems(t *testing.T) {
	doc, err := Parse([]byte("model: User\nwhere: {age: x, active: y}"))
	require.NoError(t, err)

	_, err = doc.Query(blogRegistry(t))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Problems, 2)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("model: User\nselect: [name]\n"), 0o644))
	doc, err := LoadFile(good)
	require.NoError(t, err)
	assert.Equal(t, "User", doc.Model)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("select: [name]\n"), 0o644))
	_, err = LoadFile(bad)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, bad, ve.Source)
	assert.Contains(t, err.Error(), bad)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.False(t, IsValidationError(err))
}
