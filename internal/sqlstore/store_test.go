package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recline-db/recline/internal/doc"
	"github.com/recline-db/recline/internal/query"
	"github.com/recline-db/recline/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestInsertAndFetchOne(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ts := doc.NewTime(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	record := doc.Record{
		doc.IDField:        doc.String("user-1"),
		"name":             doc.String("alice"),
		"age":              doc.Int(30),
		doc.CreatedAtField: ts,
	}

	inserted, err := s.Insert(ctx, "users", record)
	require.NoError(t, err)
	assert.Equal(t, doc.String("user-1"), inserted[doc.IDField])

	fetched, err := s.FetchOne(ctx, "users", query.ByID(doc.String("user-1")))
	require.NoError(t, err)
	assert.True(t, doc.Equal(record, fetched), "fetched record differs: %v", fetched)

	// Timestamps survive the round trip as Time values.
	_, ok := fetched[doc.CreatedAtField].(doc.Time)
	assert.True(t, ok)
}

func TestInsert_GeneratesID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inserted, err := s.Insert(ctx, "users", doc.Record{"name": doc.String("bob")})
	require.NoError(t, err)

	id, ok := doc.RecordID(inserted)
	require.True(t, ok, "insert must assign an identifier")
	assert.NotEmpty(t, id)

	fetched, err := s.FetchOne(ctx, "users", query.ByID(id))
	require.NoError(t, err)
	assert.Equal(t, doc.String("bob"), fetched["name"])
}

func TestInsert_DuplicateID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, "users", doc.Record{doc.IDField: doc.String("dup")})
	require.NoError(t, err)

	_, err = s.Insert(ctx, "users", doc.Record{doc.IDField: doc.String("dup")})
	require.Error(t, err)
	assert.True(t, IsConstraintViolation(err), "expected constraint violation, got: %v", err)
}

func TestFetchOne_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.FetchOne(context.Background(), "users", query.ByID(doc.String("missing")))
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestFetch_SortAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, r := range []doc.Record{
		{doc.IDField: doc.String("a"), "rank": doc.Int(3)},
		{doc.IDField: doc.String("b"), "rank": doc.Int(1)},
		{doc.IDField: doc.String("c"), "rank": doc.Int(2)},
	} {
		_, err := s.Insert(ctx, "items", r)
		require.NoError(t, err)
	}

	records, err := s.Fetch(ctx, "items", nil, []query.Sort{{Field: "rank", Desc: true}}, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, doc.String("a"), records[0][doc.IDField])
	assert.Equal(t, doc.String("c"), records[1][doc.IDField])
}

func TestFetch_EmptyIsNotNil(t *testing.T) {
	s := newTestStore(t)

	records, err := s.Fetch(context.Background(), "items", nil, nil, 0)
	require.NoError(t, err)
	require.NotNil(t, records)
	assert.Empty(t, records)
}

func TestFetch_FieldPredicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, r := range []doc.Record{
		{doc.IDField: doc.String("a"), "status": doc.String("active"), "flag": doc.Bool(true)},
		{doc.IDField: doc.String("b"), "status": doc.String("archived"), "flag": doc.Bool(false)},
		{doc.IDField: doc.String("c"), "status": doc.String("active"), "deleted": doc.Null{}},
	} {
		_, err := s.Insert(ctx, "items", r)
		require.NoError(t, err)
	}

	records, err := s.Fetch(ctx, "items",
		query.Cmp{Field: "status", Op: query.Eq, Value: doc.String("active")}, nil, 0)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	// JSON booleans surface as 0/1 to SQLite; the compiler handles the
	// conversion.
	records, err = s.Fetch(ctx, "items",
		query.Cmp{Field: "flag", Op: query.Eq, Value: doc.Bool(true)}, nil, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, doc.String("a"), records[0][doc.IDField])

	// Explicit null matches with IS NULL.
	records, err = s.Fetch(ctx, "items",
		query.Cmp{Field: "deleted", Op: query.Eq, Value: doc.Null{}}, nil, 0)
	require.NoError(t, err)
	// Absent fields also yield NULL from json_extract.
	assert.Len(t, records, 3)
}

func TestCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.Insert(ctx, "items", doc.Record{"n": doc.Int(int64(i))})
		require.NoError(t, err)
	}

	count, err := s.Count(ctx, "items", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	count, err = s.Count(ctx, "items", query.Cmp{Field: "n", Op: query.Gte, Value: doc.Int(1)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestUpdateByQuery(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, "users", doc.Record{
		doc.IDField: doc.String("u1"),
		"name":      doc.String("alice"),
		"nick":      doc.String("al"),
	})
	require.NoError(t, err)

	affected, err := s.UpdateByQuery(ctx, "users", query.ByID(doc.String("u1")),
		doc.Record{"name": doc.String("alicia"), "age": doc.Int(30)}, []string{"nick"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	fetched, err := s.FetchOne(ctx, "users", query.ByID(doc.String("u1")))
	require.NoError(t, err)
	assert.Equal(t, doc.String("alicia"), fetched["name"])
	assert.Equal(t, doc.Int(30), fetched["age"])
	_, present := fetched["nick"]
	assert.False(t, present, "unset field must be removed")
}

func TestUpdateByQuery_Guards(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.UpdateByQuery(ctx, "users", query.ByID(doc.String("u1")), nil, nil)
	require.ErrorIs(t, err, store.ErrEmptyUpdate)

	_, err = s.UpdateByQuery(ctx, "users", query.ByID(doc.String("u1")),
		doc.Record{doc.IDField: doc.String("other")}, nil)
	require.Error(t, err, "identifier must be immutable")

	_, err = s.UpdateByQuery(ctx, "users", query.ByID(doc.String("u1")),
		doc.Record{"bad-field!": doc.Int(1)}, nil)
	require.Error(t, err)
}

func TestUpdateByQuery_NoMatch(t *testing.T) {
	s := newTestStore(t)

	affected, err := s.UpdateByQuery(context.Background(), "users",
		query.ByID(doc.String("missing")), doc.Record{"x": doc.Int(1)}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}

func TestAtomicRemoveMatching(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, "users", doc.Record{doc.IDField: doc.String("u1"), "name": doc.String("alice")})
	require.NoError(t, err)

	removed, err := s.AtomicRemoveMatching(ctx, "users", query.ByID(doc.String("u1")))
	require.NoError(t, err)
	assert.Equal(t, doc.String("alice"), removed["name"])

	_, err = s.AtomicRemoveMatching(ctx, "users", query.ByID(doc.String("u1")))
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteMatching(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.Insert(ctx, "items", doc.Record{"n": doc.Int(int64(i))})
		require.NoError(t, err)
	}

	// Nil predicates are refused outright.
	_, err := s.DeleteMatching(ctx, "items", nil)
	require.Error(t, err)

	affected, err := s.DeleteMatching(ctx, "items", query.Cmp{Field: "n", Op: query.Lt, Value: doc.Int(2)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	affected, err = s.DeleteMatching(ctx, "items", query.All{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
}

func TestCompoundIdentifierOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := doc.String("user-1")
	times := []time.Time{
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	// Insert out of chronological order.
	for _, i := range []int{1, 0, 2} {
		_, err := s.Insert(ctx, "users_history", doc.Record{
			doc.IDField: doc.HistoryKey(id, doc.NewTime(times[i])),
			"version":   doc.Int(int64(i)),
		})
		require.NoError(t, err)
	}

	// Identifier order is chronological order for a fixed record id.
	records, err := s.Fetch(ctx, "users_history", nil, []query.Sort{{Field: doc.IDField}}, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, r := range records {
		assert.Equal(t, doc.Int(int64(i)), r["version"])
	}

	// Range query: greatest snapshot at or before a bound, in one fetch.
	bound := doc.HistoryKey(id, doc.NewTime(times[1]))
	records, err = s.Fetch(ctx, "users_history",
		query.Cmp{Field: doc.IDField, Op: query.Lte, Value: bound},
		[]query.Sort{{Field: doc.IDField, Desc: true}}, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, doc.Int(1), records[0]["version"])
}

func TestInvalidCollectionName(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Insert(context.Background(), "users; DROP TABLE users", doc.Record{})
	require.Error(t, err)
}

func TestOpen_Idempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	s1, err := Open(path)
	require.NoError(t, err)
	_, err = s1.Insert(context.Background(), "items", doc.Record{doc.IDField: doc.String("x")})
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	fetched, err := s2.FetchOne(context.Background(), "items", query.ByID(doc.String("x")))
	require.NoError(t, err)
	assert.Equal(t, doc.String("x"), fetched[doc.IDField])
}
