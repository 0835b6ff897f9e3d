package lifecycle

import (
	"context"
	"time"

	"github.com/recline-db/recline/internal/doc"
	"github.com/recline-db/recline/internal/store"
)

// Model is what a caller supplies to every operation: a store handle and an
// entity descriptor. Passed by value; the engine never mutates it.
type Model struct {
	Store  store.Store
	Entity *Entity
}

// Hook transforms a record at a lifecycle stage. Hooks in a slot compose
// left to right: each hook receives the previous hook's output and must
// return the record (transformed or not).
type Hook func(ctx context.Context, m Model, record doc.Record) doc.Record

// AfterUpdateHook runs after a successful update. The chain is threaded on
// the current record; every element also receives the original pre-update
// record.
type AfterUpdateHook func(ctx context.Context, m Model, current, old doc.Record) doc.Record

// NotifyHook is a pure side-effecting trigger; its return value is ignored.
// Used for before-delete and on-update-errors.
type NotifyHook func(ctx context.Context, m Model, record doc.Record)

// Validator inspects a prepared record and returns the structured error
// payload. Empty or nil means the record passes.
type Validator func(ctx context.Context, m Model, record doc.Record) Errors

// Entity describes one collection: its name, optional history collection,
// validator, and lifecycle hooks.
//
// Build it once with NewEntity and the registration methods, then treat it
// as read-only. Hook slots are ordered slices fixed at configuration time;
// there is no runtime registration.
type Entity struct {
	collection        string
	historyCollection string
	clock             func() time.Time

	validator Validator

	beforeValidation         []Hook
	beforeValidationOnCreate []Hook
	beforeSave               []Hook
	beforeCreate             []Hook
	afterCreate              []Hook
	beforeUpdate             []Hook
	onUpdateErrors           []NotifyHook
	afterUpdate              []AfterUpdateHook
	beforeDelete             []NotifyHook
	afterDelete              []Hook
}

// NewEntity creates a descriptor for the named collection.
func NewEntity(collection string) *Entity {
	return &Entity{
		collection: collection,
		clock:      time.Now,
	}
}

// Collection returns the collection name.
func (e *Entity) Collection() string {
	return e.collection
}

// HistoryCollection returns the history collection name ("" when the
// entity keeps no history).
func (e *Entity) HistoryCollection() string {
	return e.historyCollection
}

// Now returns the current time from the entity's clock.
func (e *Entity) Now() time.Time {
	return e.clock()
}

// WithHistory sets the history collection name.
func (e *Entity) WithHistory(collection string) *Entity {
	e.historyCollection = collection
	return e
}

// WithClock overrides the time source. For tests and backfills.
func (e *Entity) WithClock(clock func() time.Time) *Entity {
	e.clock = clock
	return e
}

// WithValidator sets the validator.
func (e *Entity) WithValidator(v Validator) *Entity {
	e.validator = v
	return e
}

// OnBeforeValidation appends hooks run before validation on both create
// and update.
func (e *Entity) OnBeforeValidation(hooks ...Hook) *Entity {
	e.beforeValidation = append(e.beforeValidation, hooks...)
	return e
}

// OnBeforeValidationOnCreate appends hooks run before validation on create
// only.
func (e *Entity) OnBeforeValidationOnCreate(hooks ...Hook) *Entity {
	e.beforeValidationOnCreate = append(e.beforeValidationOnCreate, hooks...)
	return e
}

// OnBeforeSave appends hooks run after validation on both create and
// update, before the no-op check.
func (e *Entity) OnBeforeSave(hooks ...Hook) *Entity {
	e.beforeSave = append(e.beforeSave, hooks...)
	return e
}

// OnBeforeCreate appends hooks run just before the insert.
func (e *Entity) OnBeforeCreate(hooks ...Hook) *Entity {
	e.beforeCreate = append(e.beforeCreate, hooks...)
	return e
}

// OnAfterCreate appends hooks run after a successful insert.
func (e *Entity) OnAfterCreate(hooks ...Hook) *Entity {
	e.afterCreate = append(e.afterCreate, hooks...)
	return e
}

// OnBeforeUpdate appends hooks run after the no-op check, before the write.
func (e *Entity) OnBeforeUpdate(hooks ...Hook) *Entity {
	e.beforeUpdate = append(e.beforeUpdate, hooks...)
	return e
}

// OnUpdateErrors appends hooks invoked with the unsaved record when the
// store rejects an update.
func (e *Entity) OnUpdateErrors(hooks ...NotifyHook) *Entity {
	e.onUpdateErrors = append(e.onUpdateErrors, hooks...)
	return e
}

// OnAfterUpdate appends hooks run after a successful update.
func (e *Entity) OnAfterUpdate(hooks ...AfterUpdateHook) *Entity {
	e.afterUpdate = append(e.afterUpdate, hooks...)
	return e
}

// OnBeforeDelete appends side-effecting triggers run before the remove.
func (e *Entity) OnBeforeDelete(hooks ...NotifyHook) *Entity {
	e.beforeDelete = append(e.beforeDelete, hooks...)
	return e
}

// OnAfterDelete appends hooks run with the removed record after a delete.
func (e *Entity) OnAfterDelete(hooks ...Hook) *Entity {
	e.afterDelete = append(e.afterDelete, hooks...)
	return e
}

// runChain threads a record through a hook slot left to right.
func runChain(ctx context.Context, m Model, record doc.Record, hooks []Hook) doc.Record {
	for _, h := range hooks {
		record = h(ctx, m, record)
	}
	return record
}

// runAfterUpdate threads the current record through the after-update chain;
// every element also sees the original pre-update record.
func runAfterUpdate(ctx context.Context, m Model, current, old doc.Record, hooks []AfterUpdateHook) doc.Record {
	for _, h := range hooks {
		current = h(ctx, m, current, old)
	}
	return current
}
