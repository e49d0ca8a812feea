package testutil

import (
	"context"
	"sync"

	"github.com/roach88/qres/internal/record"
	"github.com/roach88/qres/internal/schema"
	"github.com/roach88/qres/internal/store"
	"github.com/roach88/qres/internal/value"
)

// RecordReader is the read surface of *store.Store.
type RecordReader interface {
	ReadRecords(ctx context.Context, query string, params []any, layout store.Layout) (record.ManyRecords, error)
	ReadScalarLists(ctx context.Context, m *schema.Model, list string, nodeIDs []value.ID) (record.ListResult, error)
}

// CountingReader wraps a RecordReader and records every query it runs.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type CountingReader struct {
	inner RecordReader

	mu      sync.Mutex
	queries []string
	lists   int
}

// NewCountingReader wraps inner.
func NewCountingReader(inner RecordReader) *CountingReader {
	return &CountingReader{inner: inner}
}

// ReadRecords records the query and delegates.
func (c *CountingReader) ReadRecords(ctx context.Context, query string, params []any, layout store.Layout) (record.ManyRecords, error) {
	c.mu.Lock()
	c.queries = append(c.queries, query)
	c.mu.Unlock()
	return c.inner.ReadRecords(ctx, query, params, layout)
}

// ReadScalarLists counts the read and delegates.
func (c *CountingReader) ReadScalarLists(ctx context.Context, m *schema.Model, list string, nodeIDs []value.ID) (record.ListResult, error) {
	c.mu.Lock()
	c.lists++
	c.mu.Unlock()
	return c.inner.ReadScalarLists(ctx, m, list, nodeIDs)
}

// RecordReads returns how many record queries ran.
func (c *CountingReader) RecordReads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queries)
}

// ListReads returns how many scalar-list reads ran.
func (c *CountingReader) ListReads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lists
}

// Queries returns a copy of every record query, in the order they ran.
func (c *CountingReader) Queries() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.queries...)
}

// Reset forgets every recorded read.
func (c *CountingReader) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = nil
	c.lists = 0
}
