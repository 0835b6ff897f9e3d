// Package query defines the predicate and sort IR the engine hands to the
// store adapter.
//
// Predicates are a small sealed tree: field comparisons, conjunction,
// disjunction, and the explicit All marker. The engine composes them; the
// adapter compiles them to whatever its backend speaks. Values inside
// predicates are doc.Value, so identifier and timestamp encodings are
// decided once, at the store boundary.
package query
