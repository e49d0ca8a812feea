package executor

import (
	"github.com/roach88/qres/internal/queryir"
	"github.com/roach88/qres/internal/record"
	"github.com/roach88/qres/internal/schema"
	"github.com/roach88/qres/internal/value"
)

// node is one read of the plan tree. Planning fills the static part; fetch
// fills records, ids and lists.
type node struct {
	name     string
	model    *schema.Model
	single   bool
	where    queryir.Predicate // Top-level record reads only
	args     queryir.Arguments
	selected queryir.SelectedFields
	columns  []string
	lists    []string

	parent   *node
	relation schema.Relation // Set when parent != nil

	children []*node

	records    record.ManyRecords
	ids        []value.ID
	listValues []record.ListResult
}

func (e *Executor) plan(q ReadQuery) (*node, error) {
	switch query := q.(type) {
	case RecordQuery:
		return e.planRoot(query.name(), query.Model, true, query.Where, queryir.Arguments{}, query.Selection)
	case *RecordQuery:
		return e.plan(*query)
	case ManyRecordsQuery:
		return e.planRoot(query.name(), query.Model, false, nil, query.Arguments, query.Selection)
	case *ManyRecordsQuery:
		return e.plan(*query)
	case nil:
		return nil, newQueryError(ErrCodeInvalidQuery, "", "nil query")
	default:
		return nil, newQueryError(ErrCodeInvalidQuery, "", "unsupported query type %T", q)
	}
}

func (e *Executor) planRoot(name, modelName string, single bool, where queryir.Predicate, args queryir.Arguments, sel Selection) (*node, error) {
	m, ok := e.registry.Model(modelName)
	if !ok {
		return nil, newQueryError(ErrCodeUnknownModel, name, "unknown model %q", modelName)
	}
	if where != nil {
		if err := checkPredicate(name, m, where); err != nil {
			return nil, err
		}
	}
	if single {
		args = queryir.Arguments{First: queryir.Int(1)}
	}
	n := &node{name: name, model: m, single: single, where: where}
	if err := e.planNode(n, args, sel); err != nil {
		return nil, err
	}
	return n, nil
}

// planNode validates a selection against n.model and plans its relations.
func (e *Executor) planNode(n *node, args queryir.Arguments, sel Selection) error {
	if err := args.Validate(); err != nil {
		return &QueryError{Code: ErrCodeInvalidQuery, Query: n.name, Message: "invalid arguments", Err: err}
	}
	if args.Filter != nil {
		if err := checkPredicate(n.name, n.model, args.Filter); err != nil {
			return err
		}
	}
	for _, o := range args.OrderBy {
		if _, ok := n.model.Field(o.Field); !ok {
			return newQueryError(ErrCodeUnknownField, n.name, "cannot order %s by unknown field %q", n.model.Name, o.Field)
		}
	}
	n.args = args

	var selected queryir.SelectedFields
	seen := make(map[string]bool)
	for _, f := range sel.Scalars {
		if _, ok := n.model.Field(f); !ok {
			return newQueryError(ErrCodeUnknownField, n.name, "%s has no field %q", n.model.Name, f)
		}
		if seen[f] {
			return newQueryError(ErrCodeInvalidQuery, n.name, "field %q selected twice", f)
		}
		seen[f] = true
		selected.Scalars = append(selected.Scalars, queryir.SelectedScalar{Field: f})
	}
	for _, l := range sel.Lists {
		if _, ok := n.model.List(l); !ok {
			return newQueryError(ErrCodeUnknownField, n.name, "%s has no list field %q", n.model.Name, l)
		}
		if seen[l] {
			return newQueryError(ErrCodeInvalidQuery, n.name, "field %q selected twice", l)
		}
		seen[l] = true
		selected.Lists = append(selected.Lists, l)
	}
	n.lists = selected.Lists

	for _, rq := range sel.Relations {
		child, err := e.planRelation(n, rq)
		if err != nil {
			return err
		}
		if seen[child.name] {
			return newQueryError(ErrCodeInvalidQuery, n.name, "field %q selected twice", child.name)
		}
		seen[child.name] = true
		selected.Relations = append(selected.Relations, queryir.SelectedRelation{Field: child.name, Many: child.relation.Many})
		n.children = append(n.children, child)
	}

	// Lists and relations are keyed by id; a read with no scalars still needs
	// one column.
	if len(selected.Lists) > 0 || len(selected.Relations) > 0 || len(selected.Scalars) == 0 {
		selected = selected.WithImplicit(schema.IDField)
	}
	n.selected = selected
	n.columns = selected.Columns()
	return nil
}

func (e *Executor) planRelation(parent *node, rq RelationQuery) (*node, error) {
	name := rq.name()
	rel, ok := parent.model.Relation(rq.Field)
	if !ok {
		return nil, newQueryError(ErrCodeUnknownField, parent.name, "%s has no relation %q", parent.model.Name, rq.Field)
	}
	target, ok := e.registry.Model(rel.Model)
	if !ok {
		return nil, newQueryError(ErrCodeUnknownModel, name, "unknown model %q", rel.Model)
	}

	args := rq.Arguments
	if args.IsPaginated() {
		if !parent.single {
			return nil, newQueryError(ErrCodeUnsupported, name, "pagination on relation %q under a collection", rq.Field)
		}
		if !rel.Many {
			return nil, newQueryError(ErrCodeUnsupported, name, "pagination on to-one relation %q", rq.Field)
		}
	}

	single := parent.single && !rel.Many
	if single {
		args.First = queryir.Int(1)
	}

	child := &node{
		name:     name,
		model:    target,
		single:   single,
		parent:   parent,
		relation: rel,
	}
	if err := e.planNode(child, args, rq.Selection); err != nil {
		return nil, err
	}
	return child, nil
}

// checkPredicate verifies every field a predicate references exists on m.
func checkPredicate(query string, m *schema.Model, p queryir.Predicate) error {
	var fields []string
	collectFields(p, &fields)
	for _, f := range fields {
		if _, ok := m.Field(f); !ok {
			return newQueryError(ErrCodeUnknownField, query, "cannot filter %s by unknown field %q", m.Name, f)
		}
	}
	return nil
}

func collectFields(p queryir.Predicate, out *[]string) {
	switch pred := p.(type) {
	case queryir.Equals:
		*out = append(*out, pred.Field)
	case *queryir.Equals:
		*out = append(*out, pred.Field)
	case queryir.In:
		*out = append(*out, pred.Field)
	case *queryir.In:
		*out = append(*out, pred.Field)
	case queryir.And:
		for _, sub := range pred.Predicates {
			collectFields(sub, out)
		}
	case *queryir.And:
		for _, sub := range pred.Predicates {
			collectFields(sub, out)
		}
	}
}
