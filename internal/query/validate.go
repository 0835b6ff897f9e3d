package query

import (
	"fmt"

	"github.com/recline-db/recline/internal/doc"
)

// Validate checks a predicate tree for structural problems before it is
// handed to a backend compiler.
//
// Rules:
//  1. Cmp fields must be non-empty and values non-nil.
//  2. The Unset marker is not a comparable value.
//  3. And/Or must have at least one sub-predicate (use All explicitly).
//
// A nil predicate is valid and means "no filter" for read operations;
// bulk writes enforce their own non-nil requirement.
func Validate(p Predicate) error {
	if p == nil {
		return nil
	}
	switch pred := p.(type) {
	case Cmp:
		return validateCmp(pred)
	case *Cmp:
		return validateCmp(*pred)
	case And:
		return validateBranch("And", pred.Predicates)
	case *And:
		return validateBranch("And", pred.Predicates)
	case Or:
		return validateBranch("Or", pred.Predicates)
	case *Or:
		return validateBranch("Or", pred.Predicates)
	case All, *All:
		return nil
	default:
		return fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func validateCmp(c Cmp) error {
	if c.Field == "" {
		return fmt.Errorf("Cmp with empty field")
	}
	switch c.Op {
	case Eq, Ne, Lt, Lte, Gt, Gte:
	default:
		return fmt.Errorf("Cmp %q: unknown operator %q", c.Field, c.Op)
	}
	if c.Value == nil {
		return fmt.Errorf("Cmp %q: nil value", c.Field)
	}
	if doc.IsUnset(c.Value) {
		return fmt.Errorf("Cmp %q: the Unset marker is not a comparable value", c.Field)
	}
	return nil
}

func validateBranch(kind string, preds []Predicate) error {
	if len(preds) == 0 {
		return fmt.Errorf("%s with no sub-predicates: use All to match everything", kind)
	}
	for i, sub := range preds {
		if sub == nil {
			return fmt.Errorf("%s sub-predicate %d is nil", kind, i)
		}
		if err := Validate(sub); err != nil {
			return fmt.Errorf("%s sub-predicate %d: %w", kind, i, err)
		}
	}
	return nil
}
