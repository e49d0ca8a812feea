package querysql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/qres/internal/queryir"
	"github.com/roach88/qres/internal/value"
)

// ParentColumn is the alias the parent-link column is read under.
const ParentColumn = "__parent"

// identPattern restricts table and column names; identifiers cannot be
// parameterized, so anything else is rejected rather than quoted.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLCompiler compiles QueryIR reads to parameterized SQL for SQLite.
//
// CRITICAL: every query ends its ORDER BY with the id column so pages are
// deterministic.
// CRITICAL: values are always parameterized, never interpolated.
type SQLCompiler struct {
	// IDColumn is the tiebreak column and the column cursors compare against.
	IDColumn string
}

// NewSQLCompiler creates a compiler ordering by "id".
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{IDColumn: "id"}
}

// Compile converts a read plus its arguments into SQL.
// Returns (sql, params, error).
//
// With args.Last set the ORDER BY is reversed so LIMIT keeps the tail of the
// collection; the caller must reverse the rows it reads back.
func (c *SQLCompiler) Compile(q queryir.Query, args queryir.Arguments) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}
	if err := queryir.Validate(q); err != nil {
		return "", nil, err
	}
	if err := args.Validate(); err != nil {
		return "", nil, err
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query, args)
	case *queryir.Select:
		return c.compileSelect(*query, args)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileSelect(q queryir.Select, args queryir.Arguments) (string, []any, error) {
	if err := checkIdent(q.From); err != nil {
		return "", nil, err
	}

	selectClause, err := c.compileColumns(q)
	if err != nil {
		return "", nil, err
	}

	var conds []string
	var params []any
	for _, p := range []queryir.Predicate{q.Filter, args.Filter} {
		if p == nil {
			continue
		}
		sql, ps, err := c.compilePredicate(p)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		conds = append(conds, sql)
		params = append(params, ps...)
	}
	if args.After != nil {
		conds = append(conds, c.IDColumn+" > ?")
		params = append(params, value.IDParam(args.After))
	}
	if args.Before != nil {
		conds = append(conds, c.IDColumn+" < ?")
		params = append(params, value.IDParam(args.Before))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", selectClause, q.From)
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}

	orderBy, err := c.orderBy(args)
	if err != nil {
		return "", nil, err
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(orderBy)

	limit := args.Limit()
	switch {
	case limit >= 0 && args.Skip > 0:
		sb.WriteString(" LIMIT ? OFFSET ?")
		params = append(params, limit, args.Skip)
	case limit >= 0:
		sb.WriteString(" LIMIT ?")
		params = append(params, limit)
	case args.Skip > 0:
		// SQLite only accepts OFFSET after a LIMIT; -1 means unbounded.
		sb.WriteString(" LIMIT -1 OFFSET ?")
		params = append(params, args.Skip)
	}

	return sb.String(), params, nil
}

// compileColumns builds the explicit column list. The parent-link column, if
// any, is appended last under ParentColumn.
func (c *SQLCompiler) compileColumns(q queryir.Select) (string, error) {
	cols := make([]string, 0, len(q.Columns)+1)
	for _, col := range q.Columns {
		if err := checkIdent(col); err != nil {
			return "", err
		}
		cols = append(cols, col)
	}
	if q.Parent != "" {
		if err := checkIdent(q.Parent); err != nil {
			return "", err
		}
		cols = append(cols, fmt.Sprintf("%s AS %s", q.Parent, ParentColumn))
	}
	return strings.Join(cols, ", "), nil
}

// orderBy returns the ORDER BY list: requested fields, then the id column as
// tiebreaker unless already ordered on. Reversed reads flip every direction.
func (c *SQLCompiler) orderBy(args queryir.Arguments) (string, error) {
	reversed := args.Reversed()
	var parts []string
	hasID := false
	for _, o := range args.OrderBy {
		if err := checkIdent(o.Field); err != nil {
			return "", err
		}
		if o.Field == c.IDColumn {
			hasID = true
		}
		parts = append(parts, o.Field+" "+direction(o.Descending != reversed))
	}
	if !hasID {
		parts = append(parts, c.IDColumn+" "+direction(reversed))
	}
	return strings.Join(parts, ", "), nil
}

func direction(desc bool) string {
	if desc {
		return "DESC"
	}
	return "ASC"
}

// compilePredicate compiles a predicate to a WHERE fragment.
// CRITICAL: values are never interpolated.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "1 = 1", nil, nil
	case queryir.Equals:
		return c.compileEquals(pred)
	case *queryir.Equals:
		return c.compileEquals(*pred)
	case queryir.In:
		return c.compileIn(pred)
	case *queryir.In:
		return c.compileIn(*pred)
	case queryir.And:
		return c.compileAnd(pred)
	case *queryir.And:
		return c.compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileEquals compiles "field = ?". Null compares with IS NULL.
func (c *SQLCompiler) compileEquals(eq queryir.Equals) (string, []any, error) {
	if err := checkIdent(eq.Field); err != nil {
		return "", nil, err
	}
	if value.IsNull(eq.Value) {
		return eq.Field + " IS NULL", nil, nil
	}
	param, err := value.ToParam(eq.Value)
	if err != nil {
		return "", nil, fmt.Errorf("convert value for %s: %w", eq.Field, err)
	}
	return eq.Field + " = ?", []any{param}, nil
}

// compileIn compiles "field IN (?, ...)". An empty set matches nothing.
func (c *SQLCompiler) compileIn(in queryir.In) (string, []any, error) {
	if err := checkIdent(in.Field); err != nil {
		return "", nil, err
	}
	if len(in.Values) == 0 {
		return "1 = 0", nil, nil
	}

	params := make([]any, len(in.Values))
	for i, v := range in.Values {
		param, err := value.ToParam(v)
		if err != nil {
			return "", nil, fmt.Errorf("convert value %d for %s: %w", i, in.Field, err)
		}
		params[i] = param
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(params)), ", ")
	return fmt.Sprintf("%s IN (%s)", in.Field, placeholders), params, nil
}

// compileAnd compiles a conjunction. Nested conjunctions are parenthesized.
func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, ps, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		switch pred.(type) {
		case queryir.And, *queryir.And:
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		params = append(params, ps...)
	}
	return strings.Join(parts, " AND "), params, nil
}

func checkIdent(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}
