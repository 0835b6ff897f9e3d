package store

import (
	"context"
	"errors"

	"github.com/recline-db/recline/internal/doc"
	"github.com/recline-db/recline/internal/query"
)

// ErrNotFound reports that no document matched.
var ErrNotFound = errors.New("store: document not found")

// ErrEmptyUpdate reports an UpdateByQuery with neither set nor unset fields.
// The store rejects empty update operators; callers must omit whichever side
// is empty and never issue a write with both sides empty.
var ErrEmptyUpdate = errors.New("store: update with no set and no unset fields")

// Store is the document-store adapter the engine is built on.
//
// Implementations own connection management, wire-level execution, and
// timeouts; those surface here only as returned errors. The engine treats
// every call as a single request with whatever atomicity the backend gives
// a single write.
type Store interface {
	// Insert stores a new document and returns it with its identifier.
	// If the document has no identifier, one is generated. Fails on
	// constraint violation (duplicate identifier) or driver error.
	Insert(ctx context.Context, collection string, record doc.Record) (doc.Record, error)

	// FetchOne returns one matching document in implementation-defined
	// order, or ErrNotFound.
	FetchOne(ctx context.Context, collection string, predicate query.Predicate) (doc.Record, error)

	// Fetch returns matching documents in the given order. A limit of 0
	// means no limit. A nil predicate matches everything.
	Fetch(ctx context.Context, collection string, predicate query.Predicate, sort []query.Sort, limit int) ([]doc.Record, error)

	// Count returns the number of matching documents.
	Count(ctx context.Context, collection string, predicate query.Predicate) (int64, error)

	// UpdateByQuery assigns set fields and removes unset fields on every
	// matching document, returning the number of documents written.
	// At least one of set/unset must be non-empty (ErrEmptyUpdate).
	UpdateByQuery(ctx context.Context, collection string, match query.Predicate, set doc.Record, unset []string) (int64, error)

	// AtomicRemoveMatching finds and removes one matching document as a
	// single atomic operation, returning the removed document or
	// ErrNotFound.
	AtomicRemoveMatching(ctx context.Context, collection string, predicate query.Predicate) (doc.Record, error)

	// DeleteMatching removes every matching document, returning the count.
	// A nil predicate is refused; query.All is the explicit opt-in.
	DeleteMatching(ctx context.Context, collection string, predicate query.Predicate) (int64, error)
}
