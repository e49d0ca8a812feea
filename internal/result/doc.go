// Package result models the in-memory result of a read query before it is
// serialized into a response.
//
// A read targets either one record or a collection, so a result is one of
// two shapes:
//
//   - SingleReadQueryResult: zero or one matched record
//   - ManyReadQueryResults: zero or more matched records, plus the query
//     arguments that produced the page
//
// ReadQueryResult is the sealed union over both. Each result owns its nested
// relation results (one per requested relation) and its scalar-list results
// (one per requested list field), so a result is the root of a tree.
//
// Results are immutable value trees. A result must be fully built before it
// is attached to its parent's nested sequence; once exposed, concurrent
// readers need no locking.
//
// Identifiers are only ever extracted through FindID, FindIDs and ParentID.
// "No identifier available" is a normal outcome reported as ok == false,
// never as an error. The only error this package returns is ShapeError,
// raised at construction when a record's values do not line up with the
// result's field names.
//
// This package does not execute queries or talk to storage.
package result
