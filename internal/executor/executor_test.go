package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qres/internal/queryir"
	"github.com/roach88/qres/internal/record"
	"github.com/roach88/qres/internal/result"
	"github.com/roach88/qres/internal/testutil"
	"github.com/roach88/qres/internal/value"
)

func newTestExecutor(t *testing.T, opts ...Option) (*Executor, *testutil.CountingReader) {
	t.Helper()
	s, reg := testutil.NewBlogStore(t)
	reader := testutil.NewCountingReader(s)
	e, err := New(reader, reg, opts...)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e, reader
}

func asMany(t *testing.T, r result.ReadQueryResult) *result.ManyReadQueryResults {
	t.Helper()
	many, ok := r.(*result.ManyReadQueryResults)
	require.True(t, ok, "expected ManyReadQueryResults, got %T", r)
	return many
}

func asSingle(t *testing.T, r result.ReadQueryResult) *result.SingleReadQueryResult {
	t.Helper()
	single, ok := r.(*result.SingleReadQueryResult)
	require.True(t, ok, "expected SingleReadQueryResult, got %T", r)
	return single
}

func TestExecute_ScalarsOnly(t *testing.T) {
	e, reader := newTestExecutor(t)

	r, err := e.Execute(context.Background(), ManyRecordsQuery{
		Model:     "User",
		Selection: Selection{Scalars: []string{"name", "age"}},
	})
	require.NoError(t, err)

	users := asMany(t, r)
	assert.Equal(t, "User", users.Name())
	assert.Equal(t, []string{"name", "age"}, users.Fields())
	require.Equal(t, 3, users.Len())
	assert.Equal(t, []value.Value{value.String("Alice"), value.Int(30)}, users.Scalars().Records[0].Values)
	assert.Equal(t, []value.Value{value.String("Carol"), value.Null{}}, users.Scalars().Records[2].Values)

	// No lists or relations, so id is not pulled in.
	_, ok := users.FindIDs()
	assert.False(t, ok)
	assert.Empty(t, users.Nested())
	assert.Equal(t, 1, reader.RecordReads())
}

func TestExecute_EmptySelectionReadsID(t *testing.T) {
	e, _ := newTestExecutor(t)

	r, err := e.Execute(context.Background(), ManyRecordsQuery{Model: "Post"})
	require.NoError(t, err)

	posts := asMany(t, r)
	assert.Equal(t, []string{"id"}, posts.Fields())
	assert.False(t, posts.SelectedFields().IsExplicit("id"))
	ids, ok := posts.FindIDs()
	require.True(t, ok)
	assert.Equal(t, []value.ID{value.IntID(1), value.IntID(2), value.IntID(3)}, ids)
}

func TestExecute_RelationsAndLists(t *testing.T) {
	e, reader := newTestExecutor(t)

	r, err := e.Execute(context.Background(), ManyRecordsQuery{
		Name:  "users",
		Model: "User",
		Selection: Selection{
			Scalars: []string{"name"},
			Lists:   []string{"tags"},
			Relations: []RelationQuery{
				{Field: "posts", Selection: Selection{Scalars: []string{"title"}}},
				{Field: "profile", Selection: Selection{Scalars: []string{"bio"}}},
			},
		},
	})
	require.NoError(t, err)

	users := asMany(t, r)
	assert.Equal(t, "users", users.Name())
	assert.Equal(t, []string{"name", "id"}, users.Fields())
	assert.True(t, users.SelectedFields().IsExplicit("name"))
	assert.False(t, users.SelectedFields().IsExplicit("id"))
	assert.Equal(t, []queryir.SelectedRelation{
		{Field: "posts", Many: true},
		{Field: "profile", Many: false},
	}, users.SelectedFields().Relations)

	ids, ok := users.FindIDs()
	require.True(t, ok)
	assert.Equal(t, []value.ID{value.StringID("u1"), value.StringID("u2"), value.StringID("u3")}, ids)

	require.Len(t, users.Lists(), 1)
	tags := users.Lists()[0]
	assert.Equal(t, "tags", tags.Field)
	assert.Equal(t, []value.Value{value.String("admin"), value.String("dev")}, tags.ValuesFor(value.StringID("u1")))
	assert.Equal(t, []value.Value{}, tags.ValuesFor(value.StringID("u2")))

	require.Len(t, users.Nested(), 2)
	posts := asMany(t, users.Nested()[0])
	assert.Equal(t, "posts", posts.Name())
	assert.Equal(t, []string{"title"}, posts.Fields())
	require.Equal(t, 3, posts.Len())
	assert.Equal(t, value.StringID("u1"), posts.Scalars().Records[0].ParentID)
	assert.Equal(t, value.StringID("u1"), posts.Scalars().Records[1].ParentID)
	assert.Equal(t, value.StringID("u2"), posts.Scalars().Records[2].ParentID)

	// A to-one relation under a collection is still a collection, grouped
	// by parent link.
	profiles := asMany(t, users.Nested()[1])
	require.Equal(t, 1, profiles.Len())
	assert.Equal(t, value.StringID("u1"), profiles.Scalars().Records[0].ParentID)

	// One read per relation, not per parent.
	assert.Equal(t, 3, reader.RecordReads())
	assert.Equal(t, 1, reader.ListReads())
}

func TestExecute_RecordQuery(t *testing.T) {
	e, _ := newTestExecutor(t)

	r, err := e.Execute(context.Background(), RecordQuery{
		Model: "User",
		Where: queryir.Equals{Field: "email", Value: value.String("alice@example.com")},
		Selection: Selection{
			Scalars: []string{"id", "name"},
			Relations: []RelationQuery{
				{
					Field: "posts",
					Arguments: queryir.Arguments{
						OrderBy: []queryir.OrderBy{{Field: "title"}},
						First:   queryir.Int(1),
					},
					Selection: Selection{Scalars: []string{"title"}},
				},
				{Field: "profile", Name: "about", Selection: Selection{Scalars: []string{"bio"}}},
			},
		},
	})
	require.NoError(t, err)

	user := asSingle(t, r)
	require.True(t, user.Found())
	id, ok := user.FindID()
	require.True(t, ok)
	assert.Equal(t, value.StringID("u1"), id)
	_, ok = user.ParentID()
	assert.False(t, ok)

	posts := asMany(t, user.Nested()[0])
	require.Equal(t, 1, posts.Len())
	assert.Equal(t, []value.Value{value.String("Draft")}, posts.Scalars().Records[0].Values)
	assert.Equal(t, queryir.Int(1), posts.QueryArguments().First)

	profile := asSingle(t, user.Nested()[1])
	assert.Equal(t, "about", profile.Name())
	require.True(t, profile.Found())
	parent, ok := profile.ParentID()
	require.True(t, ok)
	assert.Equal(t, value.StringID("u1"), parent)
	assert.Equal(t, []value.Value{value.String("Gopher")}, profile.Scalars().Record.Values)
}

func TestExecute_RecordQueryNotFound(t *testing.T) {
	e, reader := newTestExecutor(t)

	r, err := e.Execute(context.Background(), RecordQuery{
		Model: "User",
		Where: queryir.Equals{Field: "id", Value: value.StringID("nobody")},
		Selection: Selection{
			Scalars:   []string{"name"},
			Lists:     []string{"tags"},
			Relations: []RelationQuery{{Field: "posts", Selection: Selection{Scalars: []string{"title"}}}},
		},
	})
	require.NoError(t, err)

	user := asSingle(t, r)
	assert.False(t, user.Found())
	_, ok := user.FindID()
	assert.False(t, ok)

	posts := asMany(t, user.Nested()[0])
	assert.Equal(t, 0, posts.Len())
	ids, ok := posts.FindIDs()
	require.True(t, ok)
	assert.Empty(t, ids)

	// Children of a missing record are not read.
	assert.Equal(t, 1, reader.RecordReads())
}

func TestExecute_ToOneNotFoundUnderRecord(t *testing.T) {
	e, _ := newTestExecutor(t)

	r, err := e.Execute(context.Background(), RecordQuery{
		Model: "User",
		Where: queryir.Equals{Field: "id", Value: value.StringID("u2")},
		Selection: Selection{
			Scalars:   []string{"name"},
			Relations: []RelationQuery{{Field: "profile", Selection: Selection{Scalars: []string{"bio"}}}},
		},
	})
	require.NoError(t, err)

	profile := asSingle(t, asSingle(t, r).Nested()[0])
	assert.False(t, profile.Found())
	_, ok := profile.ParentID()
	assert.False(t, ok)
}

func TestExecute_Pagination(t *testing.T) {
	tests := []struct {
		name string
		args queryir.Arguments
		want []value.ID
	}{
		{"first", queryir.Arguments{First: queryir.Int(2)}, []value.ID{value.IntID(1), value.IntID(2)}},
		{"skip", queryir.Arguments{Skip: 1}, []value.ID{value.IntID(2), value.IntID(3)}},
		{"last keeps forward order", queryir.Arguments{Last: queryir.Int(2)}, []value.ID{value.IntID(2), value.IntID(3)}},
		{"after cursor", queryir.Arguments{After: value.IntID(1)}, []value.ID{value.IntID(2), value.IntID(3)}},
		{"before cursor with last", queryir.Arguments{Before: value.IntID(3), Last: queryir.Int(1)}, []value.ID{value.IntID(2)}},
		{
			"filter",
			queryir.Arguments{Filter: queryir.Equals{Field: "published", Value: value.Bool(true)}},
			[]value.ID{value.IntID(1), value.IntID(3)},
		},
		{
			"order by title descending",
			queryir.Arguments{OrderBy: []queryir.OrderBy{{Field: "title", Descending: true}}},
			[]value.ID{value.IntID(1), value.IntID(2), value.IntID(3)},
		},
		{"empty page", queryir.Arguments{First: queryir.Int(0)}, []value.ID{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestExecutor(t)
			r, err := e.Execute(context.Background(), ManyRecordsQuery{
				Model:     "Post",
				Arguments: tt.args,
				Selection: Selection{Scalars: []string{"id"}},
			})
			require.NoError(t, err)

			posts := asMany(t, r)
			ids, ok := posts.FindIDs()
			require.True(t, ok)
			assert.Equal(t, tt.want, ids)
			assert.Equal(t, tt.args, posts.QueryArguments())
		})
	}
}

func TestExecute_ThreeLevels(t *testing.T) {
	e, reader := newTestExecutor(t, WithMaxConcurrency(1))

	r, err := e.Execute(context.Background(), ManyRecordsQuery{
		Model: "User",
		Selection: Selection{
			Scalars: []string{"name"},
			Relations: []RelationQuery{
				{
					Field: "posts",
					Selection: Selection{
						Scalars: []string{"title"},
						Lists:   []string{"scores"},
						Relations: []RelationQuery{
							{Field: "comments", Selection: Selection{Scalars: []string{"body"}}},
						},
					},
				},
				{Field: "profile", Selection: Selection{Scalars: []string{"bio"}}},
			},
		},
	})
	require.NoError(t, err)

	users := asMany(t, r)
	posts := asMany(t, users.Nested()[0])
	assert.Equal(t, []string{"title", "id"}, posts.Fields())
	assert.Equal(t, []value.Value{value.Int(5), value.Int(3)}, posts.Lists()[0].ValuesFor(value.IntID(1)))

	comments := asMany(t, posts.Nested()[0])
	require.Equal(t, 3, comments.Len())
	assert.Equal(t, value.IntID(1), comments.Scalars().Records[0].ParentID)
	assert.Equal(t, value.IntID(1), comments.Scalars().Records[1].ParentID)
	assert.Equal(t, value.IntID(3), comments.Scalars().Records[2].ParentID)

	var names []string
	result.Walk(r, func(r result.ReadQueryResult, depth int) bool {
		names = append(names, r.Name())
		return true
	})
	assert.Equal(t, []string{"User", "posts", "comments", "profile"}, names)

	assert.Equal(t, 4, reader.RecordReads())
	assert.Equal(t, 1, reader.ListReads())
}

func TestExecute_RelationOverNoParents(t *testing.T) {
	e, reader := newTestExecutor(t)

	r, err := e.Execute(context.Background(), ManyRecordsQuery{
		Model:     "User",
		Arguments: queryir.Arguments{Filter: queryir.Equals{Field: "name", Value: value.String("Nobody")}},
		Selection: Selection{
			Lists:     []string{"tags"},
			Relations: []RelationQuery{{Field: "posts"}},
		},
	})
	require.NoError(t, err)

	users := asMany(t, r)
	assert.Equal(t, 0, users.Len())
	posts := asMany(t, users.Nested()[0])
	assert.Equal(t, 0, posts.Len())
	assert.Equal(t, []string{"id"}, posts.Scalars().FieldNames)
	assert.Equal(t, []record.ListResult{{Field: "tags", Values: []record.ScalarListValues{}}}, users.Lists())
	assert.Equal(t, 1, reader.RecordReads())
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name  string
		query ReadQuery
		code  QueryErrorCode
		want  string
	}{
		{"nil query", nil, ErrCodeInvalidQuery, "nil query"},
		{"unknown model", ManyRecordsQuery{Model: "Tag"}, ErrCodeUnknownModel, `unknown model "Tag"`},
		{
			"unknown field",
			ManyRecordsQuery{Model: "User", Selection: Selection{Scalars: []string{"nickname"}}},
			ErrCodeUnknownField, `User has no field "nickname"`,
		},
		{
			"unknown list",
			ManyRecordsQuery{Model: "User", Selection: Selection{Lists: []string{"name"}}},
			ErrCodeUnknownField, `no list field "name"`,
		},
		{
			"unknown relation",
			ManyRecordsQuery{Model: "User", Selection: Selection{Relations: []RelationQuery{{Field: "friends"}}}},
			ErrCodeUnknownField, `no relation "friends"`,
		},
		{
			"duplicate field",
			ManyRecordsQuery{Model: "User", Selection: Selection{Scalars: []string{"name", "name"}}},
			ErrCodeInvalidQuery, "selected twice",
		},
		{
			"filter on unknown field",
			ManyRecordsQuery{Model: "User", Arguments: queryir.Arguments{Filter: queryir.Equals{Field: "x", Value: value.Int(1)}}},
			ErrCodeUnknownField, `unknown field "x"`,
		},
		{
			"where on unknown field",
			RecordQuery{Model: "User", Where: queryir.In{Field: "x"}},
			ErrCodeUnknownField, `unknown field "x"`,
		},
		{
			"order by unknown field",
			ManyRecordsQuery{Model: "User", Arguments: queryir.Arguments{OrderBy: []queryir.OrderBy{{Field: "x"}}}},
			ErrCodeUnknownField, `unknown field "x"`,
		},
		{
			"invalid arguments",
			ManyRecordsQuery{Model: "User", Arguments: queryir.Arguments{First: queryir.Int(1), Last: queryir.Int(1)}},
			ErrCodeInvalidQuery, "invalid arguments",
		},
		{
			"pagination under collection",
			ManyRecordsQuery{Model: "User", Selection: Selection{Relations: []RelationQuery{
				{Field: "posts", Arguments: queryir.Arguments{First: queryir.Int(1)}},
			}}},
			ErrCodeUnsupported, "under a collection",
		},
		{
			"pagination on to-one",
			RecordQuery{Model: "User", Selection: Selection{Relations: []RelationQuery{
				{Field: "profile", Arguments: queryir.Arguments{Skip: 1}},
			}}},
			ErrCodeUnsupported, "to-one relation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, reader := newTestExecutor(t)
			_, err := e.Execute(context.Background(), tt.query)
			require.Error(t, err)
			assert.True(t, IsQueryError(err, tt.code), "got %v", err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, 0, reader.RecordReads(), "planning errors run no SQL")
		})
	}
}

func TestExecute_ContextCancelled(t *testing.T) {
	e, _ := newTestExecutor(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Execute(ctx, ManyRecordsQuery{Model: "User"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQueryError_Format(t *testing.T) {
	err := &QueryError{Code: ErrCodeStore, Message: "read records", Query: "users", Err: assert.AnError}
	assert.Equal(t, "STORE_ERROR: read records (query=users): "+assert.AnError.Error(), err.Error())
	assert.ErrorIs(t, err, assert.AnError)
	assert.False(t, IsQueryError(assert.AnError, ErrCodeStore))
}
