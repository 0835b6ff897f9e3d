package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recline-db/recline/internal/doc"
	"github.com/recline-db/recline/internal/lifecycle"
	"github.com/recline-db/recline/internal/query"
	"github.com/recline-db/recline/internal/sqlstore"
	"github.com/recline-db/recline/internal/store"
	"github.com/recline-db/recline/internal/testutil"
)

var historyStart = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func newHistoryModel(t *testing.T) lifecycle.Model {
	t.Helper()
	s, err := sqlstore.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	clock := testutil.NewClock(historyStart, time.Second)
	entity := lifecycle.NewEntity("users").
		WithHistory("users_history").
		WithClock(clock.Now)
	return lifecycle.Model{Store: s, Entity: entity}
}

func mustUpdatedAt(t *testing.T, r doc.Record) time.Time {
	t.Helper()
	ts, ok := doc.UpdatedAt(r)
	require.True(t, ok)
	return ts.Std()
}

func TestSave_SnapshotsLiveRecord(t *testing.T) {
	m := newHistoryModel(t)
	ctx := context.Background()

	created, err := lifecycle.Create(ctx, m, doc.Record{
		doc.IDField: doc.String("u1"),
		"name":      doc.String("alice"),
	})
	require.NoError(t, err)

	snapshot, err := Save(ctx, m, "u1")
	require.NoError(t, err)

	// The snapshot's identifier is the {_id, updated_at} compound key and
	// its body is the live record.
	assert.Equal(t, doc.String("alice"), snapshot["name"])
	assert.True(t, doc.Equal(
		doc.HistoryKey(doc.String("u1"), created[doc.UpdatedAtField].(doc.Time)),
		snapshot[doc.IDField],
	))

	// The live record is untouched.
	live, err := lifecycle.FindByID(ctx, m, "u1")
	require.NoError(t, err)
	assert.True(t, doc.Equal(created, live))
}

func TestSave_MissingLiveRecord(t *testing.T) {
	m := newHistoryModel(t)

	_, err := Save(context.Background(), m, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSave_NoHistoryCollection(t *testing.T) {
	bare := newHistoryModel(t)
	bare.Entity = lifecycle.NewEntity("users")

	_, err := Save(context.Background(), bare, "u1")
	require.ErrorIs(t, err, ErrNoHistoryCollection)
}

func TestHistoryRoundTrip(t *testing.T) {
	m := newHistoryModel(t)
	ctx := context.Background()

	// Version 1.
	v1, err := lifecycle.Create(ctx, m, doc.Record{
		doc.IDField: doc.String("u1"),
		"name":      doc.String("alice"),
		"role":      doc.String("viewer"),
	})
	require.NoError(t, err)
	_, err = Save(ctx, m, "u1")
	require.NoError(t, err)
	t1 := mustUpdatedAt(t, v1)

	// Version 2.
	v2, err := lifecycle.Update(ctx, m, "u1", doc.Record{"role": doc.String("editor")})
	require.NoError(t, err)
	_, err = Save(ctx, m, "u1")
	require.NoError(t, err)
	t2 := mustUpdatedAt(t, v2)

	// Deletion: tombstone plus final snapshot are appended, then the live
	// record goes away.
	_, err = lifecycle.Update(ctx, m, "u1", doc.Record{"role": doc.String("owner")})
	require.NoError(t, err)
	tombstone, err := SaveDelete(ctx, m, "u1")
	require.NoError(t, err)
	removed, err := lifecycle.Delete(ctx, m, "u1")
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	deletedAt, ok := tombstone[doc.DeletedAtField].(doc.Time)
	require.True(t, ok)
	assert.Equal(t, tombstone[doc.CreatedAtField], tombstone[doc.DeletedAtField])
	assert.Equal(t, tombstone[doc.UpdatedAtField], tombstone[doc.DeletedAtField])

	// All history, most recent first: tombstone, v3 snapshot, v2, v1.
	all, err := FindAllByRecordID(ctx, m, "u1")
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, doc.String("viewer"), all[3]["role"])
	assert.Equal(t, doc.String("editor"), all[2]["role"])
	assert.Equal(t, doc.String("owner"), all[1]["role"])
	_, isTombstone := all[0][doc.DeletedAtField]
	assert.True(t, isTombstone)

	// Point-in-time reconstruction.
	at, err := FindRecordAt(ctx, m, "u1", t1)
	require.NoError(t, err)
	assert.Equal(t, doc.String("viewer"), at["role"])

	at, err = FindRecordAt(ctx, m, "u1", t2.Add(500*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, doc.String("editor"), at["role"])

	// After the deletion the reconstruction is the tombstone.
	at, err = FindRecordAt(ctx, m, "u1", deletedAt.Std().Add(time.Hour))
	require.NoError(t, err)
	_, isTombstone = at[doc.DeletedAtField]
	assert.True(t, isTombstone)

	// Before the record existed there is nothing.
	_, err = FindRecordAt(ctx, m, "u1", t1.Add(-time.Hour))
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestFindRecordAt_LiveFastPath(t *testing.T) {
	m := newHistoryModel(t)
	ctx := context.Background()

	created, err := lifecycle.Create(ctx, m, doc.Record{
		doc.IDField: doc.String("u1"),
		"name":      doc.String("alice"),
	})
	require.NoError(t, err)

	// No history written at all; the live record satisfies the lookup.
	at, err := FindRecordAt(ctx, m, "u1", mustUpdatedAt(t, created).Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, doc.Equal(created, at))
}

func TestFindRecordAt_RejectsSpuriousPrefixMatch(t *testing.T) {
	m := newHistoryModel(t)
	ctx := context.Background()

	// "u1" has history; "u10" never existed. The encoded identifier of
	// every u1 snapshot sorts below the u10 range bound, so without the
	// embedded-identifier check the range query would hand back a u1
	// snapshot.
	_, err := lifecycle.Create(ctx, m, doc.Record{doc.IDField: doc.String("u1")})
	require.NoError(t, err)
	_, err = Save(ctx, m, "u1")
	require.NoError(t, err)

	_, err = FindRecordAt(ctx, m, "u10", historyStart.Add(time.Hour))
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestFindLatestMatchingRecordAt_ExtraPredicate(t *testing.T) {
	m := newHistoryModel(t)
	ctx := context.Background()

	_, err := lifecycle.Create(ctx, m, doc.Record{
		doc.IDField: doc.String("u1"),
		"role":      doc.String("viewer"),
	})
	require.NoError(t, err)
	_, err = Save(ctx, m, "u1")
	require.NoError(t, err)

	v2, err := lifecycle.Update(ctx, m, "u1", doc.Record{"role": doc.String("editor")})
	require.NoError(t, err)
	_, err = Save(ctx, m, "u1")
	require.NoError(t, err)

	// Restricting to viewer states skips the newer editor snapshot.
	at, err := FindLatestMatchingRecordAt(ctx, m, "u1",
		mustUpdatedAt(t, v2).Add(time.Hour),
		query.Cmp{Field: "role", Op: query.Eq, Value: doc.String("viewer")})
	require.NoError(t, err)
	assert.Equal(t, doc.String("viewer"), at["role"])
}

func TestDelete_RollsBackSnapshot(t *testing.T) {
	m := newHistoryModel(t)
	ctx := context.Background()

	_, err := lifecycle.Create(ctx, m, doc.Record{doc.IDField: doc.String("u1")})
	require.NoError(t, err)
	_, err = Save(ctx, m, "u1")
	require.NoError(t, err)

	removed, err := Delete(ctx, m, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	all, err := FindAllByRecordID(ctx, m, "u1")
	require.NoError(t, err)
	assert.Empty(t, all)

	// Rolling back when the live record is gone is a no-op.
	_, err = lifecycle.Delete(ctx, m, "u1")
	require.NoError(t, err)
	removed, err = Delete(ctx, m, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}
