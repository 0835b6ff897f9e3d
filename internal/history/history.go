// Package history persists and reconstructs point-in-time snapshots of
// records in a secondary collection.
//
// A history record's identifier is the compound key {_id, updated_at} -
// identifier first, timestamp second. The store compares identifiers by
// their encoded form, so for one original record the snapshots form a total
// order by updated_at, and a range query on the whole identifier finds "the
// latest snapshot at or before a time" in a single fetch.
//
// History is written only when application hooks (typically before-update
// and before-delete) call into this package explicitly; the lifecycle
// engine itself never writes history.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/recline-db/recline/internal/doc"
	"github.com/recline-db/recline/internal/lifecycle"
	"github.com/recline-db/recline/internal/query"
	"github.com/recline-db/recline/internal/store"
)

// ErrNoHistoryCollection reports a history operation on an entity that
// declares no history collection.
var ErrNoHistoryCollection = errors.New("history: entity has no history collection")

// historyModel derives the model the subsystem writes through: the same
// store handle, a bare descriptor on the history collection sharing the
// entity's clock, and none of the entity's hooks or validators.
func historyModel(m lifecycle.Model) (lifecycle.Model, error) {
	name := m.Entity.HistoryCollection()
	if name == "" {
		return lifecycle.Model{}, ErrNoHistoryCollection
	}
	entity := lifecycle.NewEntity(name).WithClock(m.Entity.Now)
	return lifecycle.Model{Store: m.Store, Entity: entity}, nil
}

// Save snapshots the live record into the history collection.
//
// The snapshot's identifier is {_id: liveID, updated_at: liveUpdatedAt}
// and its body is the full live record. Returns store.ErrNotFound when no
// live record has the identifier; insert failures surface as a
// *lifecycle.ValidationError with the fault under "base".
func Save(ctx context.Context, m lifecycle.Model, id any) (doc.Record, error) {
	hm, err := historyModel(m)
	if err != nil {
		return nil, err
	}

	live, err := lifecycle.FindByID(ctx, m, id)
	if err != nil {
		return nil, err
	}

	key, err := snapshotKey(live)
	if err != nil {
		return nil, err
	}

	snapshot := doc.Clone(live)
	snapshot[doc.IDField] = key

	return lifecycle.Create(ctx, hm, snapshot)
}

// Delete removes the history record matching the current live record's
// {_id, updated_at} and returns the removed count.
//
// Used to roll back a just-taken snapshot when the update that triggered
// Save in before-update subsequently fails at the store layer; otherwise an
// orphaned "latest" history entry would exist for a write that never
// happened.
func Delete(ctx context.Context, m lifecycle.Model, id any) (int, error) {
	hm, err := historyModel(m)
	if err != nil {
		return 0, err
	}

	live, err := lifecycle.FindByID(ctx, m, id)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	key, err := snapshotKey(live)
	if err != nil {
		return 0, err
	}

	return lifecycle.Delete(ctx, hm, key)
}

// SaveDelete snapshots the live record and then appends a tombstone marking
// its deletion.
//
// The tombstone's identifier is {_id: id, updated_at: deletionTime} and it
// carries deleted_at plus created_at/updated_at all set explicitly to the
// same deletion timestamp - never left to auto-timestamping, so the three
// fields agree exactly.
func SaveDelete(ctx context.Context, m lifecycle.Model, id any) (doc.Record, error) {
	if _, err := Save(ctx, m, id); err != nil {
		return nil, err
	}

	hm, err := historyModel(m)
	if err != nil {
		return nil, err
	}
	idValue, err := doc.CoerceID(id)
	if err != nil {
		return nil, err
	}

	deletedAt := doc.NewTime(m.Entity.Now())
	tombstone := doc.Record{
		doc.IDField:        doc.HistoryKey(idValue, deletedAt),
		doc.DeletedAtField: deletedAt,
		doc.CreatedAtField: deletedAt,
		doc.UpdatedAtField: deletedAt,
	}

	return lifecycle.Create(ctx, hm, tombstone)
}

// FindLatestMatchingRecordAt returns the record's state as of the given
// time, restricted to states matching extra (nil for no restriction).
//
// Fast path: when the live record matches extra and its updated_at is not
// after the requested time, nothing has changed since - it is returned
// without a history lookup. Otherwise the greatest history identifier at or
// below {id, updated_at: at} wins.
//
// Because identifier comparison is lexicographic on {_id, updated_at} in
// that field order, the range match can spuriously return a snapshot of a
// different record whose identifier sorts below the target. The embedded
// identifier is therefore verified against the requested one; a mismatch is
// store.ErrNotFound. A tombstone (deleted_at present) is returned as-is.
func FindLatestMatchingRecordAt(ctx context.Context, m lifecycle.Model, id any, at time.Time, extra query.Predicate) (doc.Record, error) {
	hm, err := historyModel(m)
	if err != nil {
		return nil, err
	}
	idValue, err := doc.CoerceID(id)
	if err != nil {
		return nil, err
	}
	atValue := doc.NewTime(at)

	live, err := m.Store.FetchOne(ctx, m.Entity.Collection(), query.AndOf(
		query.ByID(idValue),
		query.Cmp{Field: doc.UpdatedAtField, Op: query.Lte, Value: atValue},
		extra,
	))
	if err == nil {
		return live, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	bound := doc.HistoryKey(idValue, atValue)
	snapshots, err := m.Store.Fetch(ctx, hm.Entity.Collection(), query.AndOf(
		query.Cmp{Field: doc.IDField, Op: query.Lte, Value: bound},
		extra,
	), []query.Sort{{Field: doc.IDField, Desc: true}}, 1)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, store.ErrNotFound
	}

	snapshot := snapshots[0]
	if !doc.Equal(embeddedID(snapshot), idValue) {
		return nil, store.ErrNotFound
	}
	return snapshot, nil
}

// FindRecordAt returns the record's state as of the given time.
func FindRecordAt(ctx context.Context, m lifecycle.Model, id any, at time.Time) (doc.Record, error) {
	return FindLatestMatchingRecordAt(ctx, m, id, at, nil)
}

// FindAllByRecordID returns every history record of the given original
// record - snapshots and tombstones - most recent first.
//
// This matches the identifier's _id sub-field, not the whole compound
// identifier.
func FindAllByRecordID(ctx context.Context, m lifecycle.Model, id any) ([]doc.Record, error) {
	hm, err := historyModel(m)
	if err != nil {
		return nil, err
	}
	idValue, err := doc.CoerceID(id)
	if err != nil {
		return nil, err
	}

	return m.Store.Fetch(ctx, hm.Entity.Collection(),
		query.Cmp{Field: doc.IDField + "." + doc.IDField, Op: query.Eq, Value: idValue},
		[]query.Sort{{Field: doc.IDField, Desc: true}}, 0)
}

// snapshotKey builds the compound history identifier from a live record.
func snapshotKey(live doc.Record) (doc.Key, error) {
	liveID, present := doc.RecordID(live)
	if !present {
		return nil, errors.New("history: live record has no identifier")
	}
	updatedAt, present := doc.UpdatedAt(live)
	if !present {
		return nil, errors.New("history: live record has no updated_at timestamp")
	}
	return doc.HistoryKey(liveID, updatedAt), nil
}

// embeddedID extracts the original identifier embedded in a history
// record's compound identifier, as read back from the store.
func embeddedID(snapshot doc.Record) doc.Value {
	switch key := snapshot[doc.IDField].(type) {
	case doc.Object:
		return key[doc.IDField]
	case doc.Key:
		v, _ := key.Field(doc.IDField)
		return v
	default:
		return nil
	}
}
