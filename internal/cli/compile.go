package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/qres/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // SQL file path
}

// CompiledModel is the DDL of one model.
type CompiledModel struct {
	Name       string   `json:"name"`
	Statements []string `json:"statements"`
}

// CompilationResult is the data of a successful compile.
type CompilationResult struct {
	Models []CompiledModel `json:"models"`
	Output string          `json:"output,omitempty"`
}

func (r CompilationResult) String() string {
	if r.Output != "" {
		return fmt.Sprintf("✓ Compiled %d model(s) to %s", len(r.Models), r.Output)
	}
	return r.script()
}

// script renders every statement as one SQL script.
func (r CompilationResult) script() string {
	var b strings.Builder
	for _, m := range r.Models {
		fmt.Fprintf(&b, "-- %s\n", m.Name)
		for _, stmt := range m.Statements {
			b.WriteString(stmt)
			b.WriteString(";\n")
		}
	}
	return b.String()
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [schema-dir]",
		Short: "Compile the CUE schema to SQL DDL",
		Long: `Compile the CUE model files and print the CREATE statements migrate would
run, without opening a database.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := rootOpts.Config.SchemaDir
			if len(args) == 1 {
				dir = args[0]
			}
			return runCompile(opts, dir, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the SQL script to this file")
	return cmd
}

func runCompile(opts *CompileOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	reg, err := loadSchema(formatter, dir)
	if err != nil {
		return err
	}

	res := CompilationResult{Models: []CompiledModel{}}
	for _, m := range reg.Models() {
		formatter.VerboseLog("Compiling model: %s", m.Name)
		res.Models = append(res.Models, CompiledModel{Name: m.Name, Statements: store.ModelDDL(m)})
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(res.script()), 0o644); err != nil {
			return reportError(formatter, ExitCommandError, ErrCodeWriteFailed, "writing output file", err)
		}
		res.Output = opts.Output
	}
	return formatter.Success(res)
}
