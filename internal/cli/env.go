package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/qres/internal/executor"
	"github.com/roach88/qres/internal/querydoc"
	"github.com/roach88/qres/internal/result"
	"github.com/roach88/qres/internal/schema"
	"github.com/roach88/qres/internal/store"
)

// env is what the query commands run against: the compiled schema and an
// open database.
type env struct {
	registry *schema.Registry
	store    *store.Store
}

// openEnv loads the schema directory and opens the database.
func openEnv(f *OutputFormatter, opts *RootOptions) (*env, error) {
	cfg := opts.Config

	reg, err := loadSchema(f, cfg.SchemaDir)
	if err != nil {
		return nil, err
	}

	slog.Debug("opening database", "path", cfg.Database)
	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, reportError(f, ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	return &env{registry: reg, store: st}, nil
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// loadSchema compiles the models in dir. Failures are reported through f.
func loadSchema(f *OutputFormatter, dir string) (*schema.Registry, error) {
	slog.Debug("loading schema", "dir", dir)
	reg, err := schema.LoadDir(dir)
	if err != nil {
		var loadErr *schema.LoadError
		if errors.As(err, &loadErr) {
			return nil, reportError(f, schemaExitCode(loadErr.Code), loadErr.Code, loadErr.Message, err)
		}
		return nil, reportError(f, ExitCommandError, schema.ErrCodeGeneric, err.Error(), err)
	}
	return reg, nil
}

// checkMigrated verifies every model has been migrated into the database.
func (e *env) checkMigrated(ctx context.Context, f *OutputFormatter) error {
	entries, err := e.store.ReadCatalog(ctx)
	if err != nil {
		return reportError(f, ExitCommandError, ErrCodeDatabase, "failed to read catalog", err)
	}
	migrated := make(map[string]bool, len(entries))
	for _, entry := range entries {
		migrated[entry.Name] = true
	}
	for _, m := range e.registry.Models() {
		if !migrated[m.Name] {
			msg := fmt.Sprintf("model %s is not migrated; run qres migrate", m.Name)
			return reportError(f, ExitCommandError, ErrCodeDatabase, msg, nil)
		}
	}
	return nil
}

// execute loads a query document and runs it.
func (e *env) execute(ctx context.Context, f *OutputFormatter, opts *RootOptions, path string, prepare func(*querydoc.Document)) (result.ReadQueryResult, error) {
	doc, err := querydoc.LoadFile(path)
	if err != nil {
		if querydoc.IsValidationError(err) {
			return nil, reportError(f, ExitFailure, ErrCodeQueryDocument, err.Error(), err)
		}
		return nil, reportError(f, ExitCommandError, ErrCodeQueryDocument, err.Error(), err)
	}
	if prepare != nil {
		prepare(doc)
	}

	q, err := doc.Query(e.registry)
	if err != nil {
		return nil, reportError(f, ExitFailure, ErrCodeQueryDocument, err.Error(), err)
	}

	if err := e.checkMigrated(ctx, f); err != nil {
		return nil, err
	}

	exec, err := executor.New(e.store, e.registry,
		executor.WithLogger(slog.Default()),
		executor.WithMaxConcurrency(opts.Config.MaxConcurrency),
	)
	if err != nil {
		return nil, reportError(f, ExitCommandError, ErrCodeQuery, "failed to start executor", err)
	}
	defer exec.Close()

	r, err := exec.Execute(ctx, q)
	if err != nil {
		code := ExitFailure
		if executor.IsQueryError(err, executor.ErrCodeStore) {
			code = ExitCommandError
		}
		return nil, reportError(f, code, ErrCodeQuery, err.Error(), err)
	}
	return r, nil
}

// reportError writes an error report and returns the matching ExitError.
func reportError(f *OutputFormatter, exitCode int, code, message string, err error) error {
	_ = f.Error(code, message, nil)
	if err == nil {
		return NewExitError(exitCode, fmt.Sprintf("%s: %s", code, message))
	}
	return WrapExitError(exitCode, code, err)
}

// schemaExitCode maps load errors to exit codes: unreadable input is a
// command error, an invalid model is a validation failure.
func schemaExitCode(code string) int {
	switch code {
	case schema.ErrCodeNotFound, schema.ErrCodeScanError, schema.ErrCodeNoFiles:
		return ExitCommandError
	default:
		return ExitFailure
	}
}
