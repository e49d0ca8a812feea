package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/qres/internal/schema"
)

// ModelSummary describes one compiled model.
type ModelSummary struct {
	Name      string   `json:"name"`
	Table     string   `json:"table"`
	IDKind    string   `json:"id"`
	Fields    []string `json:"fields"`
	Lists     []string `json:"lists,omitempty"`
	Relations []string `json:"relations,omitempty"`
}

// ValidationResult is the data of a successful validate.
type ValidationResult struct {
	Valid  bool           `json:"valid"`
	Models []ModelSummary `json:"models"`
}

func (r ValidationResult) String() string {
	return fmt.Sprintf("✓ %d model(s) valid", len(r.Models))
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [schema-dir]",
		Short: "Validate the CUE schema",
		Long: `Compile the CUE model files and check tables, field types and relations
without touching the database. The schema directory defaults to the
configured schema_dir.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := rootOpts.Config.SchemaDir
			if len(args) == 1 {
				dir = args[0]
			}
			return runValidate(rootOpts, dir, cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	reg, err := loadSchema(formatter, dir)
	if err != nil {
		return err
	}

	res := ValidationResult{Valid: true, Models: []ModelSummary{}}
	for _, m := range reg.Models() {
		s := summarize(m)
		formatter.VerboseLog("Model %s: table %s, %d field(s), %d list(s), %d relation(s)",
			s.Name, s.Table, len(s.Fields), len(s.Lists), len(s.Relations))
		res.Models = append(res.Models, s)
	}
	return formatter.Success(res)
}

func summarize(m *schema.Model) ModelSummary {
	s := ModelSummary{
		Name:   m.Name,
		Table:  m.Table,
		IDKind: string(m.IDKind),
		Fields: m.ScalarNames(),
	}
	for _, l := range m.Lists {
		s.Lists = append(s.Lists, l.Name)
	}
	for _, r := range m.Relations {
		arity := "one"
		if r.Many {
			arity = "many"
		}
		s.Relations = append(s.Relations, strings.Join([]string{r.Name, r.Model, arity}, ":"))
	}
	return s
}
