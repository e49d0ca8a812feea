// Package executor runs read queries against the store and assembles their
// results into ReadQueryResult trees.
//
// A read is planned in full before any SQL runs: every selected scalar, list
// field and relation is checked against the schema, and "id" is selected
// implicitly wherever lists or relations need it. Records are then fetched
// one tree level at a time. Sibling reads of a level run concurrently on a
// bounded worker pool; a level starts only after its parents' identifiers are
// known.
//
// Results are immutable, so the tree is built bottom-up once every level has
// been fetched: each nested result is complete before its parent is
// constructed around it.
//
// Relations are resolved with one read per relation, not per parent record:
//
//	SELECT id, title, author_id AS __parent FROM posts
//	WHERE author_id IN (?, ?, ?) ORDER BY id ASC
//
// The foreign key comes back in each record's parent-link slot, which is how
// consumers regroup children under their parents.
package executor
