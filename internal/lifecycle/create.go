package lifecycle

import (
	"context"

	"github.com/recline-db/recline/internal/doc"
)

// Create runs the create pipeline and inserts a new record.
//
// Pipeline, in fixed order: before-validation, before-validation-on-create,
// validator, before-save, before-create, default timestamps, insert,
// after-create.
//
// created_at/updated_at default to the current time but are never
// overridden when the attributes already contain the key - even with an
// explicit null - so deterministic backfills keep their timestamps.
//
// Returns the inserted record, or a *ValidationError when the validator
// rejects it or the store refuses the insert (duplicate identifier,
// driver fault). No write happens on validation failure.
func Create(ctx context.Context, m Model, attributes doc.Record) (doc.Record, error) {
	e := m.Entity

	record := doc.Clone(attributes)
	if record == nil {
		record = doc.Record{}
	}
	// An Unset marker on a record that does not exist yet means the field
	// is simply absent.
	for field, value := range record {
		if doc.IsUnset(value) {
			delete(record, field)
		}
	}

	record = runChain(ctx, m, record, e.beforeValidation)
	record = runChain(ctx, m, record, e.beforeValidationOnCreate)

	if e.validator != nil {
		if errs := e.validator(ctx, m, record); !errs.Empty() {
			return nil, NewValidationError(errs)
		}
	}

	record = runChain(ctx, m, record, e.beforeSave)
	record = runChain(ctx, m, record, e.beforeCreate)

	now := doc.NewTime(e.Now())
	if _, present := record[doc.CreatedAtField]; !present {
		record[doc.CreatedAtField] = now
	}
	if _, present := record[doc.UpdatedAtField]; !present {
		record[doc.UpdatedAtField] = now
	}

	inserted, err := m.Store.Insert(ctx, e.collection, record)
	if err != nil {
		return nil, newBaseError(err)
	}

	return runChain(ctx, m, inserted, e.afterCreate), nil
}
