// Package pagination implements range-based pagination.
//
// Offset-based pagination degrades on large collections and is unstable
// under concurrent insert and delete. This engine instead encodes "where to
// resume" as a cursor of sort-field values plus the identifier, and derives
// a store predicate selecting only records from that position onward. It is
// a pure function over the adapter's fetch: no state is kept between pages.
package pagination
