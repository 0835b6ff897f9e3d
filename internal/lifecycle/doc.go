// Package lifecycle implements the record lifecycle engine: create, update,
// and delete with callback chains, validation, no-op detection, and
// timestamp policy on top of the raw store adapter.
//
// ARCHITECTURE:
//
// The engine is stateless and synchronous per call. Each operation receives
// a Model (store handle plus entity descriptor) by value, issues one or
// more sequential adapter requests, and blocks until each completes. There
// is no background scheduling and no shared mutable state; concurrency is
// whatever the caller provides.
//
// Hook slots are immutable ordered lists built through the Entity
// registration methods. Registration is configuration: it must finish
// before the descriptor is handed to concurrent traffic.
//
// Within one Update call the read-compute-write sequence is not atomic
// against concurrent writers. By default the write is matched on the
// identifier only, so a concurrent update between the read and the write is
// a possible lost update. WithOptimisticLock adds a guard on the previous
// updated_at and surfaces the race as ErrConflict instead.
//
// ERROR MAPPING:
//
// Expected failure modes come back as values, never panics: validation
// failures and store-level write faults are a *ValidationError carrying the
// field->reasons payload (store faults under the "base" key), and a missing
// record is store.ErrNotFound. Malformed identifiers (doc.ErrInvalidID) and
// faulting hooks are not expected failures; they propagate to the caller
// unmodified. Hooks are trusted application code - the engine does not
// recover a hook panic.
package lifecycle
