package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/qres/internal/serialize"
)

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec <query.yaml>",
		Short: "Run a query document",
		Long: `Run a YAML query document against the database and print the result as
canonical JSON: an object (or null) for a single read, a list for many: true.

Example:
  qres exec queries/authors.yaml
  qres exec --format json queries/authors.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runExec(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	e, err := openEnv(formatter, opts)
	if err != nil {
		return err
	}
	defer e.Close()

	r, err := e.execute(cmd.Context(), formatter, opts, path, nil)
	if err != nil {
		return err
	}

	out, err := serialize.Encode(r)
	if err != nil {
		return reportError(formatter, ExitFailure, ErrCodeQuery, "failed to serialize result", err)
	}
	return formatter.Success(rawJSON(out))
}
