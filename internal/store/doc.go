// Package store provides the SQLite storage reads execute against.
//
// Each schema model is a table with an "id" primary key and one column per
// scalar field. Each scalar-list field is a side table
// <table>_<field>(node_id, position, value) holding the ordered list values
// of one record. A relation is a plain column on the related model's table
// holding the parent id; Migrate indexes it.
//
// # Critical Patterns
//
// Deterministic reads:
//   - Every record query carries an ORDER BY ending in the id column
//   - Scalar lists are read ORDER BY node_id, position
//
// Parameterized SQL:
//   - Values are always bound, never interpolated
//   - Identifiers come from the compiled schema only
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
