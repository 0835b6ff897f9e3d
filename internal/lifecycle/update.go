package lifecycle

import (
	"context"
	"fmt"
	"sort"

	"github.com/recline-db/recline/internal/doc"
	"github.com/recline-db/recline/internal/query"
)

// UpdateOption configures a single Update call.
type UpdateOption func(*updateOptions)

type updateOptions struct {
	skipValidations bool
	optimisticLock  bool
}

// SkipValidations disables the validator for this update. Hooks still run.
func SkipValidations() UpdateOption {
	return func(o *updateOptions) { o.skipValidations = true }
}

// WithOptimisticLock guards the write on the record's previous updated_at
// in addition to its identifier. A concurrent writer between the read and
// the write then surfaces as ErrConflict instead of a silent lost update.
func WithOptimisticLock() UpdateOption {
	return func(o *updateOptions) { o.optimisticLock = true }
}

// Update loads the record, applies the attributes through the update
// pipeline, and writes the result back.
//
// Attributes whose value is doc.Unset schedule field removal instead of
// assignment. The identifier is always forced back to the loaded record's
// identifier before any hook sees it.
//
// If the fully prepared record equals the loaded record field for field,
// Update returns the loaded record with no write, unchanged updated_at,
// and no before-update/after-update invocation.
//
// Returns store.ErrNotFound when no record has the identifier, a
// *ValidationError on validation failure or store write fault (the
// on-update-errors hooks fire first, with the unsaved record), and the
// re-read record threaded through after-update on success.
func Update(ctx context.Context, m Model, id any, attributes doc.Record, opts ...UpdateOption) (doc.Record, error) {
	var options updateOptions
	for _, opt := range opts {
		opt(&options)
	}
	e := m.Entity

	idValue, err := doc.CoerceID(id)
	if err != nil {
		return nil, err
	}

	old, err := m.Store.FetchOne(ctx, e.collection, query.ByID(idValue))
	if err != nil {
		return nil, err
	}

	normal, unset := partitionUnsets(attributes)

	changed := doc.Merge(doc.Without(old, unset), normal)
	oldID, _ := doc.RecordID(old)
	changed[doc.IDField] = oldID

	changed = runChain(ctx, m, changed, e.beforeValidation)

	if !options.skipValidations && e.validator != nil {
		if errs := e.validator(ctx, m, changed); !errs.Empty() {
			return nil, NewValidationError(errs)
		}
	}

	changed = runChain(ctx, m, changed, e.beforeSave)

	// No-op short-circuit: nothing to write, updated_at untouched.
	if doc.Equal(changed, old) {
		return old, nil
	}

	changed = runChain(ctx, m, changed, e.beforeUpdate)

	// An explicitly changed updated_at wins; otherwise stamp now.
	oldUpdated := old[doc.UpdatedAtField]
	if cur, present := changed[doc.UpdatedAtField]; !present || doc.Equal(cur, oldUpdated) {
		changed[doc.UpdatedAtField] = doc.NewTime(e.Now())
	}

	set := doc.Without(changed, []string{doc.IDField})
	unset = withoutReassigned(unset, set)

	match := query.ByID(idValue)
	if options.optimisticLock {
		if prev, ok := doc.UpdatedAt(old); ok {
			match = query.AndOf(match, query.Cmp{Field: doc.UpdatedAtField, Op: query.Eq, Value: prev})
		}
	}

	affected, err := m.Store.UpdateByQuery(ctx, e.collection, match, set, unset)
	if err != nil {
		for _, h := range e.onUpdateErrors {
			h(ctx, m, changed)
		}
		return nil, newBaseError(err)
	}
	if options.optimisticLock && affected == 0 {
		return nil, fmt.Errorf("%w: %v", ErrConflict, idValue)
	}

	// The update acknowledgment does not return the new document.
	final, err := m.Store.FetchOne(ctx, e.collection, query.ByID(idValue))
	if err != nil {
		return nil, err
	}

	return runAfterUpdate(ctx, m, final, old, e.afterUpdate), nil
}

// partitionUnsets splits attributes into assignments and scheduled field
// removals. The unset list is sorted for deterministic store calls.
func partitionUnsets(attributes doc.Record) (doc.Record, []string) {
	normal := make(doc.Record, len(attributes))
	var unset []string
	for field, value := range attributes {
		if doc.IsUnset(value) {
			unset = append(unset, field)
			continue
		}
		normal[field] = value
	}
	sort.Strings(unset)
	return normal, unset
}

// withoutReassigned drops scheduled removals that a hook assigned again.
// A field must never appear on both sides of the same store call.
func withoutReassigned(unset []string, set doc.Record) []string {
	kept := unset[:0]
	for _, f := range unset {
		if _, present := set[f]; !present {
			kept = append(kept, f)
		}
	}
	return kept
}
