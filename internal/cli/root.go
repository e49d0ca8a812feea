// Package cli implements the qres command line.
package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/qres/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile     string
	Verbose        bool
	Format         string // "json" | "text"
	Database       string
	SchemaDir      string
	MaxConcurrency int

	// Config is resolved from the config file, environment and flags before
	// any subcommand runs.
	Config *config.Config
}

// NewRootCommand creates the root command for the qres CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "qres",
		Short: "qres - nested read queries over SQLite",
		Long: `qres reads nested records from a SQLite database described by a CUE
schema. Query documents select scalars, scalar lists and relations; results
are printed as canonical JSON.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigFile, cmd.Flags())
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			opts.Config = cfg
			setupLogging(cmd.ErrOrStderr(), cfg.Verbose)
			if cfg.File != "" {
				slog.Debug("config loaded", "file", cfg.File)
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigFile, "config", "", "config file (default ./qres.yaml if present)")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", config.DefaultFormat, "output format (json|text)")
	flags.StringVar(&opts.Database, "database", config.DefaultDatabase, "path to SQLite database")
	flags.StringVar(&opts.SchemaDir, "schema", config.DefaultSchemaDir, "directory of CUE model files")
	flags.IntVar(&opts.MaxConcurrency, "max-concurrency", config.DefaultMaxConcurrency, "concurrent relation reads")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewExecCommand(opts))
	cmd.AddCommand(NewIDsCommand(opts))

	return cmd
}

// setupLogging installs the default slog logger: text on w, Debug when
// verbose and Info otherwise.
func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Config.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Config.Verbose,
	}
}
