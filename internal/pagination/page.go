package pagination

import (
	"context"
	"errors"
	"fmt"

	"github.com/recline-db/recline/internal/doc"
	"github.com/recline-db/recline/internal/lifecycle"
	"github.com/recline-db/recline/internal/query"
)

// Query is the caller's view of a page request: an optional filter and an
// optional sort. The sort is normalized to always end with the identifier
// field, so ties on the primary field are broken deterministically; an
// explicit identifier sort chooses the tie-break direction (ascending by
// default).
type Query struct {
	Where query.Predicate
	Sort  []query.Sort
}

// Cursor marks where a page begins: the value of every sort field plus the
// identifier of the first record of the page. Opaque to callers and stable
// across repeated requests as long as the underlying data does not change.
// A nil cursor means the first page.
type Cursor = doc.Record

// Page is one page of results plus resume positions in both directions.
// A nil cursor means no page exists in that direction.
type Page struct {
	Items             []doc.Record
	NextPageStart     Cursor
	PreviousPageStart Cursor
}

// ErrPageSize reports a degenerate page size.
var ErrPageSize = errors.New("pagination: page size must be at least 1")

// ErrSortDepth reports a sort spec beyond the supported shape.
// Only a single primary sort field plus the identifier tie-break is
// supported; secondary sort fields are not.
var ErrSortDepth = errors.New("pagination: at most one sort field besides the identifier is supported")

// Paginate computes one page of records and its forward/backward cursors
// without offset-based skipping.
//
// The cursor encodes "where to resume" as sort-field values plus the
// identifier; the page predicate selects only records at or after that
// position in sort order, so pages stay stable on large collections under
// concurrent inserts and deletes before the cursor position.
func Paginate(ctx context.Context, m lifecycle.Model, q Query, cursor Cursor, pageSize int) (Page, error) {
	if pageSize < 1 {
		return Page{}, ErrPageSize
	}

	sorts, err := normalizeSort(q.Sort)
	if err != nil {
		return Page{}, err
	}

	forward, err := cursorPredicate(sorts, cursor)
	if err != nil {
		return Page{}, err
	}

	items, err := m.Store.Fetch(ctx, m.Entity.Collection(),
		query.AndOf(q.Where, forward), sorts, pageSize+1)
	if err != nil {
		return Page{}, err
	}

	page := Page{Items: items}
	if len(items) == pageSize+1 {
		page.NextPageStart = cursorFrom(items[pageSize], sorts)
		page.Items = items[:pageSize]
	}

	// Page one has no previous page by definition.
	if cursor != nil {
		reversed := reverseSort(sorts)
		backward, err := cursorPredicate(reversed, cursor)
		if err != nil {
			return Page{}, err
		}
		behind, err := m.Store.Fetch(ctx, m.Entity.Collection(),
			query.AndOf(q.Where, backward), reversed, pageSize+1)
		if err != nil {
			return Page{}, err
		}
		// behind[0] is the cursor record itself; anything beyond it is
		// the previous page, ending at that page's first record.
		if len(behind) > 1 {
			page.PreviousPageStart = cursorFrom(behind[len(behind)-1], sorts)
		}
	}

	return page, nil
}

// normalizeSort guarantees a total order by ensuring the spec ends with the
// identifier field, and rejects unsupported multi-field sorts. An explicit
// identifier sort is folded into the trailing tie-break, keeping its
// direction.
func normalizeSort(sorts []query.Sort) ([]query.Sort, error) {
	normalized := make([]query.Sort, 0, len(sorts)+1)
	idSort := query.Sort{Field: doc.IDField}
	for _, s := range sorts {
		if s.Field == doc.IDField {
			idSort.Desc = s.Desc
			continue
		}
		normalized = append(normalized, s)
	}
	if len(normalized) > 1 {
		return nil, ErrSortDepth
	}
	return append(normalized, idSort), nil
}

// reverseSort flips every direction; used to walk backward from a cursor.
func reverseSort(sorts []query.Sort) []query.Sort {
	reversed := make([]query.Sort, len(sorts))
	for i, s := range sorts {
		reversed[i] = query.Sort{Field: s.Field, Desc: !s.Desc}
	}
	return reversed
}

// cursorPredicate builds the range predicate selecting records at or after
// the cursor position in the given sort order:
//
//	OR( primary cmp cursor.primary,
//	    AND( primary == cursor.primary, id cmpIncl cursor.id ) )
//
// cmp is strict (> ascending, < descending) on the primary field; the
// identifier tie-break is inclusive on the last sort field's direction, so
// the cursor record itself begins the page. A nil cursor means no
// constraint (first page).
func cursorPredicate(sorts []query.Sort, cursor Cursor) (query.Predicate, error) {
	if cursor == nil {
		return nil, nil
	}

	last := sorts[len(sorts)-1]
	idValue, err := cursorValue(cursor, doc.IDField)
	if err != nil {
		return nil, err
	}
	idCmp := query.Cmp{Field: doc.IDField, Op: inclusiveOp(last.Desc), Value: idValue}

	if len(sorts) == 1 {
		return idCmp, nil
	}

	primary := sorts[0]
	primaryValue, err := cursorValue(cursor, primary.Field)
	if err != nil {
		return nil, err
	}

	return query.Or{Predicates: []query.Predicate{
		query.Cmp{Field: primary.Field, Op: strictOp(primary.Desc), Value: primaryValue},
		query.And{Predicates: []query.Predicate{
			query.Cmp{Field: primary.Field, Op: query.Eq, Value: primaryValue},
			idCmp,
		}},
	}}, nil
}

func strictOp(desc bool) query.Op {
	if desc {
		return query.Lt
	}
	return query.Gt
}

func inclusiveOp(desc bool) query.Op {
	if desc {
		return query.Lte
	}
	return query.Gte
}

func cursorValue(cursor Cursor, field string) (doc.Value, error) {
	value, present := cursor[field]
	if !present {
		return nil, fmt.Errorf("pagination: cursor is missing sort field %q", field)
	}
	return value, nil
}

// cursorFrom captures a record's position: every sort field value plus the
// identifier.
func cursorFrom(record doc.Record, sorts []query.Sort) Cursor {
	cursor := make(Cursor, len(sorts))
	for _, s := range sorts {
		if value, present := record[s.Field]; present {
			cursor[s.Field] = value
		} else {
			cursor[s.Field] = doc.Null{}
		}
	}
	return cursor
}
