package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/qres/internal/schema"
	"github.com/roach88/qres/internal/value"
)

// Exec runs a SQL script, typically fixture INSERTs. Multiple statements
// separated by semicolons are allowed.
func (s *Store) Exec(ctx context.Context, script string) error {
	if _, err := s.db.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("exec script: %w", err)
	}
	return nil
}

// Insert writes one record of model m and returns its id.
//
// The row may carry "id". Without one, UUID models get a fresh UUIDv7,
// int models let SQLite assign the next rowid and string models are
// rejected. Unknown fields are rejected. Missing fields are stored as NULL.
func (s *Store) Insert(ctx context.Context, m *schema.Model, row value.Object) (value.ID, error) {
	id, err := insertID(m, row)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", m.Name, err)
	}

	var cols []string
	var args []any
	if id != nil {
		cols = append(cols, schema.IDField)
		args = append(args, value.IDParam(id))
	}
	for _, name := range row.SortedKeys() {
		if name == schema.IDField {
			continue
		}
		if _, ok := m.Field(name); !ok {
			return nil, fmt.Errorf("insert %s: unknown field %q", m.Name, name)
		}
		param, err := value.ToParam(row[name])
		if err != nil {
			return nil, fmt.Errorf("insert %s.%s: %w", m.Name, name, err)
		}
		cols = append(cols, name)
		args = append(args, param)
	}

	var query string
	if len(cols) == 0 {
		query = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", m.Table)
	} else {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", m.Table, strings.Join(cols, ", "), placeholders)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", m.Name, err)
	}
	if id != nil {
		return id, nil
	}

	rowID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert %s: last insert id: %w", m.Name, err)
	}
	return value.IntID(rowID), nil
}

// insertID resolves the id to write, or nil when SQLite assigns it.
func insertID(m *schema.Model, row value.Object) (value.ID, error) {
	raw, ok := row[schema.IDField]
	if !ok || value.IsNull(raw) {
		switch m.IDKind {
		case value.KindUUID:
			return value.NewUUID(), nil
		case value.KindInt:
			return nil, nil
		default:
			return nil, fmt.Errorf("string id required")
		}
	}

	if id, ok := value.IsID(raw); ok {
		if id.Kind() != m.IDKind {
			return nil, fmt.Errorf("id kind %s does not match model id kind %s", id.Kind(), m.IDKind)
		}
		return id, nil
	}
	switch v := raw.(type) {
	case value.String:
		return value.ParseID(m.IDKind, string(v))
	case value.Int:
		if m.IDKind == value.KindInt {
			return value.IntID(v), nil
		}
	}
	return nil, fmt.Errorf("invalid id %v", raw)
}

// InsertList replaces the values of one scalar-list field of one record.
func (s *Store) InsertList(ctx context.Context, m *schema.Model, list string, nodeID value.ID, values []value.Value) error {
	if _, ok := m.List(list); !ok {
		return fmt.Errorf("insert list: %s has no list field %q", m.Name, list)
	}
	table := m.ListTable(list)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert list %s: begin: %w", table, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE node_id = ?", table), value.IDParam(nodeID)); err != nil {
		return fmt.Errorf("insert list %s: clear: %w", table, err)
	}
	stmt := fmt.Sprintf("INSERT INTO %s (node_id, position, value) VALUES (?, ?, ?)", table)
	for i, v := range values {
		param, err := value.ToParam(v)
		if err != nil {
			return fmt.Errorf("insert list %s[%d]: %w", table, i, err)
		}
		if _, err := tx.ExecContext(ctx, stmt, value.IDParam(nodeID), i, param); err != nil {
			return fmt.Errorf("insert list %s[%d]: %w", table, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert list %s: commit: %w", table, err)
	}
	return nil
}
