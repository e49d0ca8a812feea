package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// MigrateOptions holds flags for the migrate command.
type MigrateOptions struct {
	*RootOptions
	Seed string // SQL script run after migrating
}

// MigratedModel is one catalog entry reported by migrate.
type MigratedModel struct {
	Name  string `json:"name"`
	Table string `json:"table"`
}

// MigrateResult is the data of a successful migrate.
type MigrateResult struct {
	Database string          `json:"database"`
	Models   []MigratedModel `json:"models"`
	Seeded   bool            `json:"seeded,omitempty"`
}

func (r MigrateResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Migrated %d model(s) into %s", len(r.Models), r.Database)
	for _, m := range r.Models {
		fmt.Fprintf(&b, "\n  %s -> %s", m.Name, m.Table)
	}
	if r.Seeded {
		b.WriteString("\nSeed data loaded")
	}
	return b.String()
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MigrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create tables for the schema's models",
		Long: `Create the table, scalar-list tables and foreign-key indexes of every model
in the schema. Models already migrated with the same definition are left
alone; a changed definition is an error.

Example:
  qres migrate --database blog.db --schema ./schema
  qres migrate --seed fixtures.sql`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Seed, "seed", "", "SQL script to run after migrating")
	return cmd
}

func runMigrate(opts *MigrateOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	e, err := openEnv(formatter, opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.Close()

	slog.Info("migrating", "database", opts.Config.Database, "models", len(e.registry.Models()))
	if err := e.store.Migrate(ctx, e.registry); err != nil {
		return reportError(formatter, ExitFailure, ErrCodeDatabase, "migration failed", err)
	}

	res := MigrateResult{Database: opts.Config.Database, Models: []MigratedModel{}}
	if opts.Seed != "" {
		script, err := os.ReadFile(opts.Seed)
		if err != nil {
			return reportError(formatter, ExitCommandError, ErrCodeDatabase, "failed to read seed script", err)
		}
		if err := e.store.Exec(ctx, string(script)); err != nil {
			return reportError(formatter, ExitFailure, ErrCodeDatabase, "seed failed", err)
		}
		formatter.VerboseLog("Ran seed script %s", opts.Seed)
		res.Seeded = true
	}

	entries, err := e.store.ReadCatalog(ctx)
	if err != nil {
		return reportError(formatter, ExitCommandError, ErrCodeDatabase, "failed to read catalog", err)
	}
	for _, entry := range entries {
		res.Models = append(res.Models, MigratedModel{Name: entry.Name, Table: entry.Table})
	}
	return formatter.Success(res)
}
