package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/qres/internal/record"
	"github.com/roach88/qres/internal/schema"
	"github.com/roach88/qres/internal/value"
)

// Column describes how to decode one selected column.
// IDKind is set for identifier columns, which decode to value.ID.
type Column struct {
	Name   string
	Type   schema.FieldType
	IDKind value.IDKind
}

// Layout describes the columns of a record query in select order.
// ParentKind is set when the query also selects the parent-link column last;
// that column decodes into Record.ParentID rather than Values.
type Layout struct {
	Columns    []Column
	ParentKind value.IDKind
}

// FieldNames returns the column names in order.
func (l Layout) FieldNames() []string {
	names := make([]string, len(l.Columns))
	for i, c := range l.Columns {
		names[i] = c.Name
	}
	return names
}

// LayoutFor builds the layout for selecting columns of model m. parentKind is
// the parent model's id kind, or "" for top-level reads.
func LayoutFor(m *schema.Model, columns []string, parentKind value.IDKind) (Layout, error) {
	layout := Layout{Columns: make([]Column, len(columns)), ParentKind: parentKind}
	for i, name := range columns {
		f, ok := m.Field(name)
		if !ok {
			return Layout{}, fmt.Errorf("%s has no field %q", m.Name, name)
		}
		col := Column{Name: name, Type: f.Type}
		if name == schema.IDField {
			col.IDKind = m.IDKind
		}
		layout.Columns[i] = col
	}
	return layout, nil
}

// ReadRecords runs a compiled record query and decodes its rows.
// Rows are returned in query order; an empty result is an empty collection.
func (s *Store) ReadRecords(ctx context.Context, query string, params []any, layout Layout) (record.ManyRecords, error) {
	rows, err := s.Query(ctx, query, params...)
	if err != nil {
		return record.ManyRecords{}, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	width := len(layout.Columns)
	if layout.ParentKind != "" {
		width++
	}

	var recs []record.Record
	for rows.Next() {
		raw := make([]any, width)
		ptrs := make([]any, width)
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return record.ManyRecords{}, fmt.Errorf("scan record: %w", err)
		}

		rec, err := decodeRecord(raw, layout)
		if err != nil {
			return record.ManyRecords{}, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return record.ManyRecords{}, fmt.Errorf("iterate records: %w", err)
	}

	return record.NewManyRecords(layout.FieldNames(), recs...), nil
}

func decodeRecord(raw []any, layout Layout) (record.Record, error) {
	vals := make([]value.Value, len(layout.Columns))
	for i, col := range layout.Columns {
		var err error
		if col.IDKind != "" {
			vals[i], err = decodeID(raw[i], col.IDKind)
		} else {
			vals[i], err = decodeScalar(raw[i], col.Type)
		}
		if err != nil {
			return record.Record{}, fmt.Errorf("decode column %s: %w", col.Name, err)
		}
	}

	rec := record.NewRecord(vals...)
	if layout.ParentKind != "" {
		parent, err := decodeID(raw[len(layout.Columns)], layout.ParentKind)
		if err != nil {
			return record.Record{}, fmt.Errorf("decode parent link: %w", err)
		}
		rec = rec.WithParent(parent)
	}
	return rec, nil
}

// ReadScalarLists reads one scalar-list field for the given records.
// Entries follow the order of nodeIDs; records without values are omitted.
func (s *Store) ReadScalarLists(ctx context.Context, m *schema.Model, list string, nodeIDs []value.ID) (record.ListResult, error) {
	field, ok := m.List(list)
	if !ok {
		return record.ListResult{}, fmt.Errorf("%s has no list field %q", m.Name, list)
	}

	result := record.ListResult{Field: list, Values: []record.ScalarListValues{}}
	if len(nodeIDs) == 0 {
		return result, nil
	}

	params := make([]any, len(nodeIDs))
	for i, id := range nodeIDs {
		params[i] = value.IDParam(id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(params)), ", ")
	query := fmt.Sprintf(`
		SELECT node_id, value
		FROM %s
		WHERE node_id IN (%s)
		ORDER BY node_id ASC, position ASC
	`, m.ListTable(list), placeholders)

	rows, err := s.Query(ctx, query, params...)
	if err != nil {
		return record.ListResult{}, fmt.Errorf("query list %s.%s: %w", m.Name, list, err)
	}
	defer rows.Close()

	byNode := make(map[value.ID][]value.Value)
	for rows.Next() {
		var rawID, rawVal any
		if err := rows.Scan(&rawID, &rawVal); err != nil {
			return record.ListResult{}, fmt.Errorf("scan list value: %w", err)
		}
		id, err := decodeID(rawID, m.IDKind)
		if err != nil {
			return record.ListResult{}, fmt.Errorf("decode list node id: %w", err)
		}
		v, err := decodeScalar(rawVal, field.Type)
		if err != nil {
			return record.ListResult{}, fmt.Errorf("decode list value: %w", err)
		}
		byNode[id] = append(byNode[id], v)
	}
	if err := rows.Err(); err != nil {
		return record.ListResult{}, fmt.Errorf("iterate list values: %w", err)
	}

	seen := make(map[value.ID]bool, len(nodeIDs))
	for _, id := range nodeIDs {
		vals, ok := byNode[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		result.Values = append(result.Values, record.ScalarListValues{NodeID: id, Values: vals})
	}
	return result, nil
}
