package querydoc

import (
	"fmt"
	"slices"

	"github.com/roach88/qres/internal/executor"
	"github.com/roach88/qres/internal/queryir"
	"github.com/roach88/qres/internal/schema"
	"github.com/roach88/qres/internal/value"
)

// Query converts the document into an executor query. Filter values and
// cursors are typed by the fields they apply to in reg; every problem found is
// reported in one ValidationError.
func (d *Document) Query(reg *schema.Registry) (executor.ReadQuery, error) {
	c := &converter{registry: reg}

	m, ok := reg.Model(d.Model)
	if !ok {
		c.addProblem("model", "unknown model %q", d.Model)
		return nil, c.err()
	}

	if !d.Many {
		if d.OrderBy != nil || d.Block.paginated() {
			c.addProblem("", "ordering and pagination need many: true")
		}
		q := executor.RecordQuery{
			Name:      d.Name,
			Model:     m.Name,
			Where:     c.where("where", m, d.Where),
			Selection: c.selection("", m, d.Block),
		}
		if err := c.err(); err != nil {
			return nil, err
		}
		return q, nil
	}

	q := executor.ManyRecordsQuery{
		Name:      d.Name,
		Model:     m.Name,
		Arguments: c.arguments("", m, d.Block),
		Selection: c.selection("", m, d.Block),
	}
	if err := c.err(); err != nil {
		return nil, err
	}
	return q, nil
}

func (b Block) paginated() bool {
	return b.Skip > 0 || b.First != nil || b.Last != nil || b.After != nil || b.Before != nil
}

type converter struct {
	registry *schema.Registry
	problems []string
}

func (c *converter) addProblem(path, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if path != "" {
		msg = path + ": " + msg
	}
	c.problems = append(c.problems, msg)
}

func (c *converter) err() error {
	if len(c.problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: c.problems}
}

func (c *converter) arguments(path string, m *schema.Model, b Block) queryir.Arguments {
	args := queryir.Arguments{
		Filter: c.where(join(path, "where"), m, b.Where),
		Skip:   b.Skip,
		First:  b.First,
		Last:   b.Last,
	}
	for _, o := range b.OrderBy {
		args.OrderBy = append(args.OrderBy, queryir.OrderBy{Field: o.Field, Descending: o.Desc})
	}
	if b.After != nil {
		args.After = c.cursor(join(path, "after"), m, b.After)
	}
	if b.Before != nil {
		args.Before = c.cursor(join(path, "before"), m, b.Before)
	}
	return args
}

func (c *converter) selection(path string, m *schema.Model, b Block) executor.Selection {
	sel := executor.Selection{Scalars: b.Select, Lists: b.Lists}

	// Map order is random; relations are planned in name order.
	fields := make([]string, 0, len(b.Include))
	for f := range b.Include {
		fields = append(fields, f)
	}
	slices.Sort(fields)

	for _, f := range fields {
		relPath := join(path, "include."+f)
		rel, ok := m.Relation(f)
		if !ok {
			c.addProblem(relPath, "%s has no relation %q", m.Name, f)
			continue
		}
		target, ok := c.registry.Model(rel.Model)
		if !ok {
			c.addProblem(relPath, "unknown model %q", rel.Model)
			continue
		}

		inc := b.Include[f]
		if inc == nil {
			inc = &Include{}
		}
		sel.Relations = append(sel.Relations, executor.RelationQuery{
			Field:     f,
			Name:      inc.Name,
			Arguments: c.arguments(relPath, target, inc.Block),
			Selection: c.selection(relPath, target, inc.Block),
		})
	}
	return sel
}

// where builds a conjunction over the fields in sorted order. A list value
// becomes a membership test.
func (c *converter) where(path string, m *schema.Model, where map[string]any) queryir.Predicate {
	if len(where) == 0 {
		return nil
	}
	fields := make([]string, 0, len(where))
	for f := range where {
		fields = append(fields, f)
	}
	slices.Sort(fields)

	preds := make([]queryir.Predicate, 0, len(fields))
	for _, f := range fields {
		fieldPath := join(path, f)
		if items, ok := where[f].([]any); ok {
			vals := make([]value.Value, 0, len(items))
			for _, item := range items {
				if v, ok := c.typed(fieldPath, m, f, item); ok {
					vals = append(vals, v)
				}
			}
			preds = append(preds, queryir.In{Field: f, Values: vals})
			continue
		}
		if v, ok := c.typed(fieldPath, m, f, where[f]); ok {
			preds = append(preds, queryir.Equals{Field: f, Value: v})
		}
	}
	return queryir.Conjoin(preds...)
}

// typed converts a raw document value into a value of the field's type.
func (c *converter) typed(path string, m *schema.Model, field string, raw any) (value.Value, bool) {
	if field == schema.IDField {
		id := c.cursor(path, m, raw)
		return id, id != nil
	}
	f, ok := m.Field(field)
	if !ok {
		c.addProblem(path, "%s has no field %q", m.Name, field)
		return nil, false
	}

	v, err := value.FromAny(raw)
	if err != nil {
		c.addProblem(path, "%v", err)
		return nil, false
	}
	var matches bool
	switch f.Type {
	case schema.TypeString:
		_, matches = v.(value.String)
	case schema.TypeInt:
		_, matches = v.(value.Int)
	case schema.TypeBool:
		_, matches = v.(value.Bool)
	}
	if !matches {
		c.addProblem(path, "%s.%s is %s, got %v", m.Name, field, f.Type, raw)
		return nil, false
	}
	return v, true
}

// cursor parses an identifier of m's id kind.
func (c *converter) cursor(path string, m *schema.Model, raw any) value.ID {
	switch raw.(type) {
	case string, int, int64, uint64:
	default:
		c.addProblem(path, "identifier must be a string or integer, got %v", raw)
		return nil
	}
	id, err := value.ParseID(m.IDKind, fmt.Sprint(raw))
	if err != nil {
		c.addProblem(path, "%v", err)
		return nil
	}
	return id
}

func join(path, elem string) string {
	if path == "" {
		return elem
	}
	return path + "." + elem
}
