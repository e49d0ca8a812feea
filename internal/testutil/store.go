// Package testutil holds fixtures shared by package tests: a small blog
// schema, matching rows, and a read-counting store wrapper.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/qres/internal/schema"
	"github.com/roach88/qres/internal/store"
)

// BlogSchema declares users with tags, a to-one profile and to-many posts;
// posts have to-many comments. Each model uses a different id kind.
const BlogSchema = `
model: User: {
	table: "users"
	id:    "string"
	fields: {
		name:   "string"
		email:  "string"
		age:    "int"
		active: "bool"
	}
	lists: tags: "string"
	relations: {
		posts: {
			model:       "Post"
			foreign_key: "author_id"
			many:        true
		}
		profile: {
			model:       "Profile"
			foreign_key: "user_id"
		}
	}
}

model: Profile: {
	table: "profiles"
	fields: {
		bio:     "string"
		user_id: "string"
	}
}

model: Post: {
	table: "posts"
	id:    "int"
	fields: {
		title:     "string"
		published: "bool"
		author_id: "string"
	}
	lists: scores: "int"
	relations: comments: {
		model:       "Comment"
		foreign_key: "post_id"
		many:        true
	}
}

model: Comment: {
	table: "comments"
	id:    "uuid"
	fields: {
		body:    "string"
		post_id: "int"
	}
}
`

// BlogFixtures populates BlogSchema's tables.
const BlogFixtures = `
INSERT INTO users (id, name, email, age, active) VALUES ('u1', 'Alice', 'alice@example.com', 30, 1);
INSERT INTO users (id, name, email, age, active) VALUES ('u2', 'Bob', 'bob@example.com', 25, 0);
INSERT INTO users (id, name, email, age, active) VALUES ('u3', 'Carol', NULL, NULL, 1);

INSERT INTO users_tags (node_id, position, value) VALUES ('u1', 0, 'admin');
INSERT INTO users_tags (node_id, position, value) VALUES ('u1', 1, 'dev');
INSERT INTO users_tags (node_id, position, value) VALUES ('u3', 0, 'ops');

INSERT INTO profiles (id, bio, user_id) VALUES ('p1', 'Gopher', 'u1');

INSERT INTO posts (id, title, published, author_id) VALUES (1, 'Hello', 1, 'u1');
INSERT INTO posts (id, title, published, author_id) VALUES (2, 'Draft', 0, 'u1');
INSERT INTO posts (id, title, published, author_id) VALUES (3, 'Bob writes', 1, 'u2');

INSERT INTO posts_scores (node_id, position, value) VALUES (1, 0, 5);
INSERT INTO posts_scores (node_id, position, value) VALUES (1, 1, 3);

INSERT INTO comments (id, body, post_id) VALUES ('01900000-0000-7000-8000-000000000001', 'Nice', 1);
INSERT INTO comments (id, body, post_id) VALUES ('01900000-0000-7000-8000-000000000002', '+1', 1);
INSERT INTO comments (id, body, post_id) VALUES ('01900000-0000-7000-8000-000000000003', 'Hi Bob', 3);
`

// NewStore opens a store in a temp dir, migrates schemaSrc into it and runs
// fixtures. The store is closed when the test ends.
func NewStore(t testing.TB, schemaSrc, fixtures string) (*store.Store, *schema.Registry) {
	t.Helper()

	reg, err := schema.CompileString(schemaSrc)
	if err != nil {
		t.Fatalf("compile schema: %v", err)
	}

	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	if err := s.Migrate(ctx, reg); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if fixtures != "" {
		if err := s.Exec(ctx, fixtures); err != nil {
			t.Fatalf("fixtures: %v", err)
		}
	}
	return s, reg
}

// NewBlogStore is NewStore with BlogSchema and BlogFixtures.
func NewBlogStore(t testing.TB) (*store.Store, *schema.Registry) {
	t.Helper()
	return NewStore(t, BlogSchema, BlogFixtures)
}
