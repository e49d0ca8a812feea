package cli

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/qres/internal/querydoc"
	"github.com/roach88/qres/internal/result"
	"github.com/roach88/qres/internal/schema"
)

// IDsResult is the data of a successful ids.
type IDsResult struct {
	Query string   `json:"query"`
	IDs   []string `json:"ids"`
}

func (r IDsResult) String() string {
	if len(r.IDs) == 0 {
		return "(none)"
	}
	return strings.Join(r.IDs, "\n")
}

// NewIDsCommand creates the ids command.
func NewIDsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ids <query.yaml>",
		Short: "Print the ids of the records a query document matches",
		Long: `Run a query document and print the identifiers of its top-level records,
one per line, in result order. Relations and lists in the document are read
but not printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIDs(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runIDs(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	e, err := openEnv(formatter, opts)
	if err != nil {
		return err
	}
	defer e.Close()

	r, err := e.execute(cmd.Context(), formatter, opts, path, selectID)
	if err != nil {
		return err
	}

	res := IDsResult{Query: r.Name(), IDs: []string{}}
	switch root := r.(type) {
	case *result.SingleReadQueryResult:
		if id, ok := root.FindID(); ok {
			res.IDs = append(res.IDs, id.String())
		}
	case *result.ManyReadQueryResults:
		ids, ok := root.FindIDs()
		if !ok {
			return reportError(formatter, ExitFailure, ErrCodeQuery, "records lack identifiers", nil)
		}
		for _, id := range ids {
			res.IDs = append(res.IDs, id.String())
		}
	}
	return formatter.Success(res)
}

// selectID makes sure the top-level read selects the id field.
func selectID(doc *querydoc.Document) {
	if !slices.Contains(doc.Select, schema.IDField) {
		doc.Select = append(doc.Select, schema.IDField)
	}
}
