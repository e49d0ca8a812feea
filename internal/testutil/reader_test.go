package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qres/internal/store"
	"github.com/roach88/qres/internal/value"
)

func TestNewBlogStore_LoadsFixtures(t *testing.T) {
	s, reg := NewBlogStore(t)

	var count int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM posts").Scan(&count))
	assert.Equal(t, 3, count)
	assert.Len(t, reg.Models(), 4)
}

func TestCountingReader_Counts(t *testing.T) {
	s, reg := NewBlogStore(t)
	users, _ := reg.Model("User")
	reader := NewCountingReader(s)
	ctx := context.Background()

	layout, err := store.LayoutFor(users, []string{"id"}, "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reader.ReadRecords(ctx, "SELECT id FROM users ORDER BY id ASC", nil, layout)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	_, err = reader.ReadScalarLists(ctx, users, "tags", []value.ID{value.StringID("u1")})
	require.NoError(t, err)

	assert.Equal(t, 10, reader.RecordReads())
	assert.Equal(t, 1, reader.ListReads())
	assert.Len(t, reader.Queries(), 10)

	reader.Reset()
	assert.Equal(t, 0, reader.RecordReads())
	assert.Equal(t, 0, reader.ListReads())
}
