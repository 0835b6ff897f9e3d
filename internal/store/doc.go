// Package store declares the document-store adapter contract.
//
// The engine issues raw CRUD primitives through this interface: insert one,
// fetch matching documents, conditional update with set/unset operators,
// atomic find-and-remove, count. Everything below the interface - the
// driver, connections, indexes, timeouts - belongs to the implementation
// (see the sqlstore package for the SQLite one).
package store
