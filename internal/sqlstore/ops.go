package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/recline-db/recline/internal/doc"
	"github.com/recline-db/recline/internal/query"
	"github.com/recline-db/recline/internal/store"
)

// Insert stores a new document, generating a UUID identifier if the
// document has none. Returns the stored document including its identifier.
// A duplicate identifier surfaces as a constraint-violation error.
func (s *Store) Insert(ctx context.Context, collection string, record doc.Record) (doc.Record, error) {
	table, err := s.ensureCollection(collection)
	if err != nil {
		return nil, err
	}

	stored := doc.Clone(record)
	if stored == nil {
		stored = doc.Record{}
	}
	id, ok := doc.RecordID(stored)
	if !ok {
		id = doc.String(uuid.NewString())
		stored[doc.IDField] = id
	}

	key, err := doc.EncodeID(id)
	if err != nil {
		return nil, fmt.Errorf("insert into %q: %w", collection, err)
	}

	body, err := doc.MarshalRecord(stored)
	if err != nil {
		return nil, fmt.Errorf("insert into %q: %w", collection, err)
	}

	if _, err := s.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (id, doc) VALUES (?, ?)", table),
		key, string(body),
	); err != nil {
		return nil, fmt.Errorf("insert into %q: %w", collection, err)
	}

	return stored, nil
}

// FetchOne returns one matching document, or store.ErrNotFound.
// Ordered by id for determinism.
func (s *Store) FetchOne(ctx context.Context, collection string, predicate query.Predicate) (doc.Record, error) {
	table, err := s.ensureCollection(collection)
	if err != nil {
		return nil, err
	}

	where, params, err := compilePredicate(predicate)
	if err != nil {
		return nil, fmt.Errorf("fetch one from %q: %w", collection, err)
	}

	var body string
	err = s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT doc FROM %s WHERE %s ORDER BY id ASC LIMIT 1", table, where),
		params...,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch one from %q: %w", collection, err)
	}

	return doc.UnmarshalRecord([]byte(body))
}

// Fetch returns matching documents in the given order.
// A limit of 0 means no limit. Returns an empty slice, not nil, when
// nothing matches.
func (s *Store) Fetch(ctx context.Context, collection string, predicate query.Predicate, sorts []query.Sort, limit int) ([]doc.Record, error) {
	table, err := s.ensureCollection(collection)
	if err != nil {
		return nil, err
	}

	where, params, err := compilePredicate(predicate)
	if err != nil {
		return nil, fmt.Errorf("fetch from %q: %w", collection, err)
	}
	orderBy, err := compileSort(sorts)
	if err != nil {
		return nil, fmt.Errorf("fetch from %q: %w", collection, err)
	}

	q := fmt.Sprintf("SELECT doc FROM %s WHERE %s ORDER BY %s", table, where, orderBy)
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, q, params...)
	if err != nil {
		return nil, fmt.Errorf("fetch from %q: %w", collection, err)
	}
	defer rows.Close()

	records := []doc.Record{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		rec, err := doc.UnmarshalRecord([]byte(body))
		if err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return records, nil
}

// Count returns the number of matching documents.
func (s *Store) Count(ctx context.Context, collection string, predicate query.Predicate) (int64, error) {
	table, err := s.ensureCollection(collection)
	if err != nil {
		return 0, err
	}

	where, params, err := compilePredicate(predicate)
	if err != nil {
		return 0, fmt.Errorf("count %q: %w", collection, err)
	}

	var count int64
	err = s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", table, where),
		params...,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count %q: %w", collection, err)
	}
	return count, nil
}

// UpdateByQuery assigns set fields and removes unset fields on every
// matching document via json_set/json_remove, returning the number of
// documents written. The identifier column is immutable; neither side may
// name the identifier field.
func (s *Store) UpdateByQuery(ctx context.Context, collection string, match query.Predicate, set doc.Record, unset []string) (int64, error) {
	if len(set) == 0 && len(unset) == 0 {
		return 0, store.ErrEmptyUpdate
	}

	table, err := s.ensureCollection(collection)
	if err != nil {
		return 0, err
	}

	expr := "doc"
	var params []any

	// Deterministic field order for the nested json_set chain.
	setFields := make([]string, 0, len(set))
	for f := range set {
		setFields = append(setFields, f)
	}
	sort.Strings(setFields)

	for _, f := range setFields {
		if f == doc.IDField {
			return 0, fmt.Errorf("update %q: identifier field is immutable", collection)
		}
		if !fieldPathRe.MatchString(f) {
			return 0, fmt.Errorf("update %q: invalid field path %q", collection, f)
		}
		body, err := doc.MarshalValue(set[f])
		if err != nil {
			return 0, fmt.Errorf("update %q: field %q: %w", collection, f, err)
		}
		expr = fmt.Sprintf("json_set(%s, '$.%s', json(?))", expr, f)
		params = append(params, string(body))
	}

	for _, f := range unset {
		if f == doc.IDField {
			return 0, fmt.Errorf("update %q: identifier field is immutable", collection)
		}
		if !fieldPathRe.MatchString(f) {
			return 0, fmt.Errorf("update %q: invalid field path %q", collection, f)
		}
		expr = fmt.Sprintf("json_remove(%s, '$.%s')", expr, f)
	}

	where, whereParams, err := compilePredicate(match)
	if err != nil {
		return 0, fmt.Errorf("update %q: %w", collection, err)
	}
	params = append(params, whereParams...)

	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET doc = %s WHERE %s", table, expr, where),
		params...,
	)
	if err != nil {
		return 0, fmt.Errorf("update %q: %w", collection, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update %q: rows affected: %w", collection, err)
	}
	return affected, nil
}

// AtomicRemoveMatching finds and removes one matching document as a single
// statement, returning the removed document or store.ErrNotFound. The
// single-statement DELETE..RETURNING gives a trustworthy outcome under
// concurrent deleters.
func (s *Store) AtomicRemoveMatching(ctx context.Context, collection string, predicate query.Predicate) (doc.Record, error) {
	table, err := s.ensureCollection(collection)
	if err != nil {
		return nil, err
	}

	where, params, err := compilePredicate(predicate)
	if err != nil {
		return nil, fmt.Errorf("remove from %q: %w", collection, err)
	}

	q := fmt.Sprintf(
		"DELETE FROM %s WHERE id IN (SELECT id FROM %s WHERE %s ORDER BY id ASC LIMIT 1) RETURNING doc",
		table, table, where,
	)

	var body string
	err = s.db.QueryRowContext(ctx, q, params...).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("remove from %q: %w", collection, err)
	}

	return doc.UnmarshalRecord([]byte(body))
}

// DeleteMatching removes every matching document and returns the count.
// A nil predicate is refused: matching the whole collection requires the
// explicit query.All marker.
func (s *Store) DeleteMatching(ctx context.Context, collection string, predicate query.Predicate) (int64, error) {
	if predicate == nil {
		return 0, fmt.Errorf("delete from %q: nil predicate; pass query.All to delete everything", collection)
	}

	table, err := s.ensureCollection(collection)
	if err != nil {
		return 0, err
	}

	where, params, err := compilePredicate(predicate)
	if err != nil {
		return 0, fmt.Errorf("delete from %q: %w", collection, err)
	}

	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE %s", table, where),
		params...,
	)
	if err != nil {
		return 0, fmt.Errorf("delete from %q: %w", collection, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete from %q: rows affected: %w", collection, err)
	}
	return affected, nil
}

// IsConstraintViolation reports whether err is a uniqueness/constraint
// failure from the driver (for example a duplicate identifier insert).
func IsConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "constraint failed")
}
