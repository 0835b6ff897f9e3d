// Package config compiles CUE entity declarations into lifecycle
// descriptors.
//
// A config file declares entities under the "entity" field:
//
//	entity: users: {
//		collection: "users"
//		history:    "users_history"
//		unique: [["email"], ["first_name", "last_name"]]
//	}
//
// Compilation uses the CUE SDK's Go API directly (not a CLI subprocess).
package config

import (
	"context"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/recline-db/recline/internal/doc"
	"github.com/recline-db/recline/internal/lifecycle"
	"github.com/recline-db/recline/internal/unique"
)

// EntityConfig is one compiled entity declaration.
type EntityConfig struct {
	// Name is the declaration label.
	Name string

	// Collection is the live collection name.
	Collection string

	// History is the history collection name; empty means no history.
	History string

	// Unique lists field sets that must be unique within the collection.
	Unique [][]string
}

// CompileError reports a problem in an entity declaration.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CompileEntity parses a CUE value into an EntityConfig.
//
// The CUE value should be the entity struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`entity: users: { collection: "users" }`)
//	cfg, err := config.CompileEntity(v.LookupPath(cue.ParsePath("entity.users")))
func CompileEntity(v cue.Value) (*EntityConfig, error) {
	if err := v.Err(); err != nil {
		return nil, err
	}

	cfg := &EntityConfig{}

	// Declaration name from the struct label (the path selector).
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		cfg.Name = labels[len(labels)-1].String()
	}

	collectionVal := v.LookupPath(cue.ParsePath("collection"))
	if !collectionVal.Exists() {
		return nil, &CompileError{
			Field:   "collection",
			Message: "collection is required",
			Pos:     v.Pos(),
		}
	}
	collection, err := collectionVal.String()
	if err != nil {
		return nil, err
	}
	if collection == "" {
		return nil, &CompileError{
			Field:   "collection",
			Message: "collection must be non-empty",
			Pos:     collectionVal.Pos(),
		}
	}
	cfg.Collection = collection

	historyVal := v.LookupPath(cue.ParsePath("history"))
	if historyVal.Exists() {
		history, err := historyVal.String()
		if err != nil {
			return nil, err
		}
		cfg.History = history
	}

	uniqueVal := v.LookupPath(cue.ParsePath("unique"))
	if uniqueVal.Exists() {
		sets, err := parseUniqueSets(uniqueVal)
		if err != nil {
			return nil, err
		}
		cfg.Unique = sets
	}

	return cfg, nil
}

// parseUniqueSets parses the unique field: a list of field-name lists.
func parseUniqueSets(v cue.Value) ([][]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, err
	}

	var sets [][]string
	for iter.Next() {
		fieldIter, err := iter.Value().List()
		if err != nil {
			return nil, err
		}
		var fields []string
		for fieldIter.Next() {
			field, err := fieldIter.Value().String()
			if err != nil {
				return nil, err
			}
			fields = append(fields, field)
		}
		if len(fields) == 0 {
			return nil, &CompileError{
				Field:   "unique",
				Message: "unique field set must name at least one field",
				Pos:     iter.Value().Pos(),
			}
		}
		sets = append(sets, fields)
	}
	return sets, nil
}

// Entity builds a lifecycle descriptor from the compiled config, wiring a
// uniqueness validator for each declared field set.
func (cfg *EntityConfig) Entity() *lifecycle.Entity {
	entity := lifecycle.NewEntity(cfg.Collection)
	if cfg.History != "" {
		entity.WithHistory(cfg.History)
	}
	if len(cfg.Unique) > 0 {
		entity.WithValidator(uniqueValidator(cfg.Unique))
	}
	return entity
}

// uniqueValidator composes one validator per unique field set, merging the
// payloads so every violated set reports.
func uniqueValidator(sets [][]string) lifecycle.Validator {
	validators := make([]lifecycle.Validator, len(sets))
	for i, fields := range sets {
		validators[i] = unique.Validator(fields...)
	}
	return func(ctx context.Context, m lifecycle.Model, record doc.Record) lifecycle.Errors {
		merged := lifecycle.Errors{}
		for _, v := range validators {
			for field, reasons := range v(ctx, m, record) {
				for _, reason := range reasons {
					merged.Add(field, reason)
				}
			}
		}
		if merged.Empty() {
			return nil
		}
		return merged
	}
}
