// Package doc defines the typed schemaless document model used by the
// persistence engine.
//
// A document is a mapping of field names to Value, a sealed union of the
// types the store can hold: null, string, int64, float64, bool, timestamp,
// array, object, and the ordered compound Key used by history records.
//
// Two details matter for correctness elsewhere:
//
// Timestamps are encoded as fixed-width RFC 3339 UTC strings with
// nanoseconds, so that the string comparison the store performs on encoded
// values is exactly chronological comparison.
//
// Compound keys preserve field declaration order, and EncodeID maps an
// identifier to a single string whose lexicographic order matches the
// field-by-field order of the key. The versioning subsystem relies on this
// when it queries for the greatest history identifier at or below a given
// (id, timestamp) bound.
package doc
