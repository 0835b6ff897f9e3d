// Package unique provides the uniqueness predicate used by validators:
// a thin check over the adapter's fetch-one that excludes the record's own
// identifier, so a record always counts as unique against itself.
package unique

import (
	"context"
	"errors"

	"github.com/recline-db/recline/internal/doc"
	"github.com/recline-db/recline/internal/lifecycle"
	"github.com/recline-db/recline/internal/query"
	"github.com/recline-db/recline/internal/store"
)

// IsUnique reports whether no other record in the model's collection holds
// the same values for the given fields. A field absent from the record
// matches records where the field is absent or null.
func IsUnique(ctx context.Context, m lifecycle.Model, record doc.Record, fields ...string) (bool, error) {
	preds := make([]query.Predicate, 0, len(fields)+1)
	for _, field := range fields {
		value, present := record[field]
		if !present {
			value = doc.Null{}
		}
		preds = append(preds, query.Cmp{Field: field, Op: query.Eq, Value: value})
	}
	if id, present := doc.RecordID(record); present {
		preds = append(preds, query.Cmp{Field: doc.IDField, Op: query.Ne, Value: id})
	}

	_, err := m.Store.FetchOne(ctx, m.Entity.Collection(), query.AndOf(preds...))
	if errors.Is(err, store.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// Validator returns a lifecycle validator enforcing that the combination
// of the given fields is unique within the collection.
func Validator(fields ...string) lifecycle.Validator {
	return func(ctx context.Context, m lifecycle.Model, record doc.Record) lifecycle.Errors {
		ok, err := IsUnique(ctx, m, record, fields...)
		if err != nil {
			return lifecycle.Errors{lifecycle.BaseField: []string{err.Error()}}
		}
		if ok {
			return nil
		}
		errs := lifecycle.Errors{}
		for _, field := range fields {
			errs.Add(field, "has already been taken")
		}
		return errs
	}
}
