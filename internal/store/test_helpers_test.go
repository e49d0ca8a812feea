package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/qres/internal/schema"
)

const testSchema = `
model: User: {
	table: "users"
	id:    "string"
	fields: {
		name:   "string"
		age:    "int"
		active: "bool"
	}
	lists: tags: "string"
	relations: posts: {
		model:       "Post"
		foreign_key: "author_id"
		many:        true
	}
}

model: Post: {
	table: "posts"
	id:    "int"
	fields: {
		title:     "string"
		author_id: "string"
	}
	lists: scores: "int"
}

model: Token: {
	table: "tokens"
	id:    "uuid"
	fields: label: "string"
}
`

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createMigratedStore creates a store with testSchema migrated.
func createMigratedStore(t *testing.T) (*Store, *schema.Registry) {
	t.Helper()
	reg, err := schema.CompileString(testSchema)
	require.NoError(t, err)

	s := createTestStore(t)
	require.NoError(t, s.Migrate(context.Background(), reg))
	return s, reg
}

func mustModel(t *testing.T, reg *schema.Registry, name string) *schema.Model {
	t.Helper()
	m, ok := reg.Model(name)
	require.True(t, ok, "model %s", name)
	return m
}
