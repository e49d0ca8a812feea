package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/roach88/qres/internal/queryir"
	"github.com/roach88/qres/internal/querysql"
	"github.com/roach88/qres/internal/record"
	"github.com/roach88/qres/internal/result"
	"github.com/roach88/qres/internal/schema"
	"github.com/roach88/qres/internal/store"
	"github.com/roach88/qres/internal/value"
)

// DefaultMaxConcurrency bounds concurrent sibling reads when no option sets it.
const DefaultMaxConcurrency = 4

// errFetchPanicked marks a fetch whose worker panicked; the pool's panic
// handler logs the panic value.
var errFetchPanicked = errors.New("read panicked")

// Reader is the storage the executor reads from. *store.Store implements it.
type Reader interface {
	ReadRecords(ctx context.Context, query string, params []any, layout store.Layout) (record.ManyRecords, error)
	ReadScalarLists(ctx context.Context, m *schema.Model, list string, nodeIDs []value.ID) (record.ListResult, error)
}

// Executor runs read queries.
// Safe for concurrent use; Close releases its worker pool.
type Executor struct {
	reader   Reader
	registry *schema.Registry
	compiler *querysql.SQLCompiler
	pool     *ants.Pool
	logger   *slog.Logger

	maxConcurrency int
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithMaxConcurrency bounds how many sibling reads run at once.
// Values below 1 mean DefaultMaxConcurrency.
func WithMaxConcurrency(n int) Option {
	return func(e *Executor) {
		e.maxConcurrency = n
	}
}

// New creates an executor reading models of registry from reader.
func New(reader Reader, registry *schema.Registry, opts ...Option) (*Executor, error) {
	e := &Executor{
		reader:         reader,
		registry:       registry,
		compiler:       querysql.NewSQLCompiler(),
		logger:         slog.Default(),
		maxConcurrency: DefaultMaxConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.maxConcurrency < 1 {
		e.maxConcurrency = DefaultMaxConcurrency
	}

	pool, err := ants.NewPool(e.maxConcurrency, ants.WithPanicHandler(func(v any) {
		e.logger.Error("read worker panic", "panic", v)
	}))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	e.pool = pool
	return e, nil
}

// Close releases the worker pool. The executor must not be used afterwards.
func (e *Executor) Close() {
	if e.pool != nil {
		e.pool.Release()
	}
}

// Execute runs a read and returns its result tree: a SingleReadQueryResult
// for a RecordQuery, a ManyReadQueryResults for a ManyRecordsQuery.
func (e *Executor) Execute(ctx context.Context, q ReadQuery) (result.ReadQueryResult, error) {
	root, err := e.plan(q)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("executing read", "query", root.name, "model", root.model.Name, "single", root.single)

	level := []*node{root}
	for depth := 0; len(level) > 0; depth++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled: %w", err)
		}
		if err := e.fetchLevel(ctx, level); err != nil {
			return nil, err
		}

		var next []*node
		for _, n := range level {
			next = append(next, n.children...)
		}
		if len(next) > 0 {
			e.logger.Debug("resolving relations", "query", root.name, "depth", depth+1, "reads", len(next))
		}
		level = next
	}

	return build(root)
}

// fetchLevel fetches sibling nodes concurrently and waits for all of them.
// Workers never wait on other workers, so a bounded pool cannot deadlock.
func (e *Executor) fetchLevel(ctx context.Context, nodes []*node) error {
	if len(nodes) == 1 {
		return e.fetch(ctx, nodes[0])
	}

	errs := make([]error, len(nodes))
	var wg sync.WaitGroup
	for i, n := range nodes {
		errs[i] = errFetchPanicked
		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()
			errs[i] = e.fetch(ctx, n)
		})
		if err != nil {
			wg.Done()
			errs[i] = fmt.Errorf("submit read %s: %w", n.name, err)
		}
	}
	wg.Wait()

	return errors.Join(errs...)
}

// fetch reads one node's records and list values. Its parent, if any, has
// already been fetched.
func (e *Executor) fetch(ctx context.Context, n *node) error {
	sel := queryir.Select{From: n.model.Table, Columns: n.columns, Filter: n.where}
	var parentKind value.IDKind

	if n.parent != nil {
		if len(n.parent.ids) == 0 {
			n.records = record.NewManyRecords(n.columns)
			n.listValues = emptyLists(n.lists)
			return nil
		}
		parentIDs := make([]value.Value, len(n.parent.ids))
		for i, id := range n.parent.ids {
			parentIDs[i] = id
		}
		sel.Filter = queryir.In{Field: n.relation.ForeignKey, Values: parentIDs}
		sel.Parent = n.relation.ForeignKey
		parentKind = n.parent.model.IDKind
	}

	sqlText, params, err := e.compiler.Compile(sel, n.args)
	if err != nil {
		return &QueryError{Code: ErrCodeInvalidQuery, Query: n.name, Message: "compile read", Err: err}
	}
	e.logger.Debug("compiled read", "query", n.name, "sql", sqlText, "params", len(params))

	layout, err := store.LayoutFor(n.model, n.columns, parentKind)
	if err != nil {
		return &QueryError{Code: ErrCodeUnknownField, Query: n.name, Message: "layout", Err: err}
	}
	recs, err := e.reader.ReadRecords(ctx, sqlText, params, layout)
	if err != nil {
		return &QueryError{Code: ErrCodeStore, Query: n.name, Message: "read records", Err: err}
	}
	if n.args.Reversed() {
		recs.Reverse()
	}
	n.records = recs

	if len(n.children) == 0 && len(n.lists) == 0 {
		return nil
	}
	ids, err := n.findIDs()
	if err != nil {
		return err
	}
	n.ids = ids

	n.listValues = make([]record.ListResult, len(n.lists))
	for i, list := range n.lists {
		lr, err := e.reader.ReadScalarLists(ctx, n.model, list, ids)
		if err != nil {
			return &QueryError{Code: ErrCodeStore, Query: n.name, Message: "read list " + list, Err: err}
		}
		n.listValues[i] = lr
	}
	return nil
}

// findIDs resolves the identifiers of a fetched node through a scalar-only
// result, the same lookups consumers use on the final tree.
func (n *node) findIDs() ([]value.ID, error) {
	if n.single {
		probe, err := result.NewSingleReadQueryResult(n.name, n.columns, n.records.Single(), nil, nil, n.selected)
		if err != nil {
			return nil, err
		}
		if !probe.Found() {
			return []value.ID{}, nil
		}
		id, ok := probe.FindID()
		if !ok {
			return nil, newQueryError(ErrCodeInvalidQuery, n.name, "record has no identifier")
		}
		return []value.ID{id}, nil
	}

	probe, err := result.NewManyReadQueryResults(n.name, n.columns, n.records, nil, nil, n.args, n.selected)
	if err != nil {
		return nil, err
	}
	ids, ok := probe.FindIDs()
	if !ok {
		return nil, newQueryError(ErrCodeInvalidQuery, n.name, "records lack identifiers")
	}
	return ids, nil
}

// build constructs the result tree bottom-up.
func build(n *node) (result.ReadQueryResult, error) {
	var nested []result.ReadQueryResult
	for _, child := range n.children {
		r, err := build(child)
		if err != nil {
			return nil, err
		}
		nested = append(nested, r)
	}

	if n.single {
		r, err := result.NewSingleReadQueryResult(n.name, n.columns, n.records.Single(), nested, n.listValues, n.selected)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	r, err := result.NewManyReadQueryResults(n.name, n.columns, n.records, nested, n.listValues, n.args, n.selected)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func emptyLists(lists []string) []record.ListResult {
	out := make([]record.ListResult, len(lists))
	for i, l := range lists {
		out[i] = record.ListResult{Field: l, Values: []record.ScalarListValues{}}
	}
	return out
}
