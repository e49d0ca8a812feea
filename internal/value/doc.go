// Package value provides the scalar value model carried by read-query results.
//
// Value is a sealed interface. Only the types in this package implement it,
// which keeps type switches over values exhaustive. Record identifiers are a
// distinguished subset of values: StringID, IntID and UUID also implement the
// sealed ID interface, and IsID is the discriminant check every identifier
// lookup goes through.
//
// This package imports nothing internal. Every other internal package may
// import it.
package value
