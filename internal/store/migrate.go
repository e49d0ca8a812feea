package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/qres/internal/schema"
	"github.com/roach88/qres/internal/value"
)

// CatalogEntry is one migrated model recorded in the catalog.
type CatalogEntry struct {
	Name       string
	Table      string
	Definition string // Canonical JSON
	MigratedAt time.Time
}

// Migrate creates the tables, list tables and foreign-key indexes of every
// model in the registry and records each model in the catalog. It runs in one
// transaction and is idempotent.
//
// A model already in the catalog with a different definition is an error:
// Migrate only ever creates, it never alters existing tables.
func (s *Store) Migrate(ctx context.Context, reg *schema.Registry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate: begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for _, m := range reg.Models() {
		def, err := marshalModel(m)
		if err != nil {
			return err
		}

		var existing string
		err = tx.QueryRowContext(ctx, `SELECT definition FROM qres_models WHERE name = ?`, m.Name).Scan(&existing)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return fmt.Errorf("migrate %s: read catalog: %w", m.Name, err)
		case existing != def:
			return fmt.Errorf("migrate %s: definition changed since last migration", m.Name)
		default:
			continue
		}

		for _, stmt := range ModelDDL(m) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migrate %s: %w", m.Name, err)
			}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO qres_models (name, table_name, definition, migrated_at)
			VALUES (?, ?, ?, ?)
		`, m.Name, m.Table, def, now); err != nil {
			return fmt.Errorf("migrate %s: record catalog: %w", m.Name, err)
		}
	}

	// Foreign-key indexes go last: the related table may sort after its parent.
	for _, m := range reg.Models() {
		for _, rel := range m.Relations {
			target, _ := reg.Model(rel.Model)
			if _, err := tx.ExecContext(ctx, foreignKeyIndexDDL(target, rel.ForeignKey)); err != nil {
				return fmt.Errorf("migrate %s.%s: %w", m.Name, rel.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit: %w", err)
	}
	return nil
}

// ReadCatalog returns every migrated model ordered by name.
func (s *Store) ReadCatalog(ctx context.Context) ([]CatalogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, table_name, definition, migrated_at
		FROM qres_models
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	entries := []CatalogEntry{}
	for rows.Next() {
		var e CatalogEntry
		var migratedAt int64
		if err := rows.Scan(&e.Name, &e.Table, &e.Definition, &migratedAt); err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		e.MigratedAt = time.Unix(migratedAt, 0).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog: %w", err)
	}
	return entries, nil
}

// ModelDDL returns the CREATE statements for a model's table and its scalar
// list tables.
func ModelDDL(m *schema.Model) []string {
	cols := make([]string, 0, len(m.Fields)+1)
	if m.IDKind == value.KindInt {
		cols = append(cols, "id INTEGER PRIMARY KEY")
	} else {
		cols = append(cols, "id TEXT PRIMARY KEY")
	}
	for _, f := range m.Fields {
		cols = append(cols, f.Name+" "+columnType(f.Type))
	}

	stmts := []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n    %s\n)", m.Table, strings.Join(cols, ",\n    ")),
	}
	for _, l := range m.Lists {
		table := m.ListTable(l.Name)
		stmts = append(stmts, fmt.Sprintf(
			"CREATE TABLE IF NOT EXISTS %s (\n"+
				"    node_id %s NOT NULL REFERENCES %s(id) ON DELETE CASCADE,\n"+
				"    position INTEGER NOT NULL,\n"+
				"    value %s,\n"+
				"    PRIMARY KEY (node_id, position)\n"+
				")",
			table, columnType(schema.IDStorageType(m.IDKind)), m.Table, columnType(l.Type)))
	}
	return stmts
}

func foreignKeyIndexDDL(m *schema.Model, column string) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s(%s)", m.Table, column, m.Table, column)
}

func columnType(ft schema.FieldType) string {
	switch ft {
	case schema.TypeInt, schema.TypeBool:
		return "INTEGER"
	default:
		return "TEXT"
	}
}
