package query

import "github.com/recline-db/recline/internal/doc"

// Predicate represents a filter condition over record fields.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in backend compilers.
//
// Predicate types:
//   - Cmp: field <op> literal value
//   - And: all sub-predicates must hold
//   - Or: at least one sub-predicate must hold
//   - All: matches every record (explicit opt-in, never a default)
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Op is a comparison operator in a Cmp predicate.
type Op string

const (
	Eq  Op = "="
	Ne  Op = "!="
	Lt  Op = "<"
	Lte Op = "<="
	Gt  Op = ">"
	Gte Op = ">="
)

// Cmp compares a field against a literal value.
//
// Field may be a dot path ("_id._id") to match a sub-field of an embedded
// object rather than the whole value. The identifier field itself compares
// by its canonical encoded form, which for compound identifiers is
// lexicographic in field declaration order.
type Cmp struct {
	Field string
	Op    Op
	Value doc.Value
}

func (Cmp) predicateNode() {}

// And holds when every sub-predicate holds. An empty And is vacuously true
// but is rejected by Validate; use All for an explicit match-everything.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or holds when at least one sub-predicate holds.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// All matches every record in a collection.
//
// Bulk operations refuse a nil predicate; passing All is the unmistakable
// "yes, the whole collection" opt-in.
type All struct{}

func (All) predicateNode() {}

// Sort orders results by a field, ascending unless Desc is set.
type Sort struct {
	Field string
	Desc  bool
}

// ByID returns an equality predicate on the identifier field.
func ByID(id doc.Value) Predicate {
	return Cmp{Field: doc.IDField, Op: Eq, Value: id}
}

// AndOf combines predicates, flattening nils. Returns nil when all inputs
// are nil, the single predicate when only one remains.
func AndOf(preds ...Predicate) Predicate {
	var kept []Predicate
	for _, p := range preds {
		if p != nil {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return And{Predicates: kept}
	}
}
