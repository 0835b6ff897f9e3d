package lifecycle

import (
	"context"

	"github.com/recline-db/recline/internal/doc"
	"github.com/recline-db/recline/internal/query"
)

// FindByID loads the record with the given identifier.
// Returns store.ErrNotFound when no record matches and doc.ErrInvalidID
// for a malformed identifier.
func FindByID(ctx context.Context, m Model, id any) (doc.Record, error) {
	idValue, err := doc.CoerceID(id)
	if err != nil {
		return nil, err
	}
	return m.Store.FetchOne(ctx, m.Entity.collection, query.ByID(idValue))
}

// Count returns the number of records matching the predicate.
// A nil predicate counts the whole collection.
func Count(ctx context.Context, m Model, predicate query.Predicate) (int64, error) {
	return m.Store.Count(ctx, m.Entity.collection, predicate)
}
