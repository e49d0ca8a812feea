package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/qres/internal/executor"
	"github.com/roach88/qres/internal/querydoc"
	"github.com/roach88/qres/internal/result"
	"github.com/roach88/qres/internal/schema"
	"github.com/roach88/qres/internal/serialize"
	"github.com/roach88/qres/internal/store"
	"github.com/roach88/qres/internal/testutil"
)

// Harness runs the steps of one scenario against a prepared database.
type Harness struct {
	registry *schema.Registry
	reader   *testutil.CountingReader
	executor *executor.Executor
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh database in a temporary directory:
//  1. Load the schema and migrate it
//  2. Run fixture scripts and inline setup SQL
//  3. Run each step's query document, counting reads
//  4. Check each step's expectations
//
// A returned error means the scenario could not run; unmet expectations are
// reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	reg, err := schema.LoadDir(scenario.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}

	dir, err := os.MkdirTemp("", "qres-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	defer os.RemoveAll(dir)

	st, err := store.Open(filepath.Join(dir, "scenario.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	if err := prepare(ctx, st, reg, scenario); err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in scenarios
	reader := testutil.NewCountingReader(st)
	exec, err := executor.New(reader, reg,
		executor.WithLogger(logger),
		executor.WithMaxConcurrency(scenario.MaxConcurrency),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create executor: %w", err)
	}
	defer exec.Close()

	h := &Harness{registry: reg, reader: reader, executor: exec, logger: logger}

	res := NewResult()
	for i, step := range scenario.Steps {
		sr, err := h.runStep(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Name, err)
		}
		res.Steps = append(res.Steps, sr)
		for _, aerr := range CheckStep(sr, step.Expect) {
			res.AddError(aerr.Error())
		}
		h.logger.Info("step completed", "step", step.Name, "error", sr.Error, "records", sr.Count)
	}
	return res, nil
}

func prepare(ctx context.Context, st *store.Store, reg *schema.Registry, scenario *Scenario) error {
	if err := st.Migrate(ctx, reg); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	for _, f := range scenario.Fixtures {
		script, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("failed to read fixture: %w", err)
		}
		if err := st.Exec(ctx, string(script)); err != nil {
			return fmt.Errorf("fixture %s: %w", filepath.Base(f), err)
		}
	}
	if scenario.Setup != "" {
		if err := st.Exec(ctx, scenario.Setup); err != nil {
			return fmt.Errorf("setup: %w", err)
		}
	}
	return nil
}

// runStep runs one query document. Query failures are part of the step
// result; only unreadable inputs are returned as errors.
func (h *Harness) runStep(ctx context.Context, step Step) (StepResult, error) {
	sr := StepResult{Name: step.Name}
	h.reader.Reset()

	src, err := h.querySource(step)
	if err != nil {
		return sr, err
	}

	doc, err := querydoc.Parse(src)
	if err != nil {
		return failed(sr, ErrInvalidDocument, err), nil
	}
	q, err := doc.Query(h.registry)
	if err != nil {
		return failed(sr, ErrInvalidDocument, err), nil
	}

	r, err := h.executor.Execute(ctx, q)
	sr.RecordReads = h.reader.RecordReads()
	sr.ListReads = h.reader.ListReads()
	if err != nil {
		var qe *executor.QueryError
		if errors.As(err, &qe) {
			return failed(sr, string(qe.Code), err), nil
		}
		return failed(sr, ErrExecution, err), nil
	}

	out, err := serialize.Serialize(r)
	if err != nil {
		return failed(sr, ErrExecution, err), nil
	}
	sr.Output = out

	switch root := r.(type) {
	case *result.SingleReadQueryResult:
		if root.Found() {
			sr.Count = 1
		}
		if id, ok := root.FindID(); ok {
			sr.IDs = []string{id.String()}
		}
	case *result.ManyReadQueryResults:
		sr.Count = root.Len()
		if ids, ok := root.FindIDs(); ok {
			sr.IDs = make([]string, len(ids))
			for i, id := range ids {
				sr.IDs[i] = id.String()
			}
		}
	}
	return sr, nil
}

func (h *Harness) querySource(step Step) ([]byte, error) {
	if step.QueryFile != "" {
		src, err := os.ReadFile(step.QueryFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read query file: %w", err)
		}
		return src, nil
	}
	src, err := yaml.Marshal(&step.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to encode inline query: %w", err)
	}
	return src, nil
}

func failed(sr StepResult, code string, err error) StepResult {
	sr.Error = code
	sr.Message = err.Error()
	sr.Output = nil
	return sr
}
