// Package sqlstore implements the store adapter on SQLite.
//
// Documents are rows of (id, doc): the id column carries the canonical
// identifier encoding, the doc column the JSON document body. Collections
// map to tables created lazily on first use. Predicates compile to
// parameterized WHERE fragments over json_extract; updates compile to a
// nested json_set/json_remove chain; the atomic remove is a single
// DELETE..RETURNING statement.
package sqlstore

import "github.com/recline-db/recline/internal/store"

var _ store.Store = (*Store)(nil)
