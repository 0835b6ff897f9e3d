package lifecycle

import (
	"context"
	"errors"

	"github.com/recline-db/recline/internal/doc"
	"github.com/recline-db/recline/internal/query"
	"github.com/recline-db/recline/internal/store"
)

// Delete removes the record with the given identifier and returns the
// removed count: 0 when nothing matched, 1 normally - never more, since
// identifiers are unique.
//
// The before-delete triggers see the record as fetched; the remove itself
// is the store's single atomic match-and-remove, so the count reflects
// exactly what the store deleted in that instant even under concurrent
// deleters. The after-delete chain receives the removed document.
func Delete(ctx context.Context, m Model, id any) (int, error) {
	e := m.Entity

	idValue, err := doc.CoerceID(id)
	if err != nil {
		return 0, err
	}

	record, err := m.Store.FetchOne(ctx, e.collection, query.ByID(idValue))
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	for _, h := range e.beforeDelete {
		h(ctx, m, record)
	}

	removed, err := m.Store.AtomicRemoveMatching(ctx, e.collection, query.ByID(idValue))
	if errors.Is(err, store.ErrNotFound) {
		// A concurrent deleter won the race; nothing was removed here.
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	runChain(ctx, m, removed, e.afterDelete)
	return 1, nil
}

// DeleteAll removes every record matching the predicate, bypassing all
// callbacks and validation.
//
// A nil predicate is refused. Matching the whole collection requires the
// explicit query.All marker - there is no default that deletes everything.
func DeleteAll(ctx context.Context, m Model, predicate query.Predicate) (int64, error) {
	return m.Store.DeleteMatching(ctx, m.Entity.collection, predicate)
}

// UpdateAll applies the updates to every record matching the predicate in
// one store call, bypassing all callbacks, validation, and timestamp
// policy. Updates may schedule removals with doc.Unset.
//
// The same footgun rule as DeleteAll applies: nil predicates are refused
// and query.All is the explicit whole-collection opt-in.
func UpdateAll(ctx context.Context, m Model, predicate query.Predicate, updates doc.Record) (int64, error) {
	if predicate == nil {
		return 0, errNilBulkPredicate
	}
	set, unset := partitionUnsets(updates)
	return m.Store.UpdateByQuery(ctx, m.Entity.collection, predicate, set, unset)
}

var errNilBulkPredicate = errors.New("lifecycle: nil predicate on bulk operation; pass query.All to target every record")
