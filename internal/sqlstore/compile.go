package sqlstore

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/recline-db/recline/internal/doc"
	"github.com/recline-db/recline/internal/query"
)

// fieldPathRe restricts predicate field paths to dot-separated identifiers.
// Paths are spliced into json_extract expressions and cannot be
// parameterized.
var fieldPathRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// compilePredicate compiles a query.Predicate to a SQL WHERE fragment.
// Returns (sql, params, error).
// CRITICAL: values are always parameterized, never interpolated.
func compilePredicate(p query.Predicate) (string, []any, error) {
	if p == nil {
		return "1 = 1", nil, nil
	}

	switch pred := p.(type) {
	case query.Cmp:
		return compileCmp(pred)
	case *query.Cmp:
		return compileCmp(*pred)
	case query.And:
		return compileBranch(pred.Predicates, " AND ")
	case *query.And:
		return compileBranch(pred.Predicates, " AND ")
	case query.Or:
		return compileBranch(pred.Predicates, " OR ")
	case *query.Or:
		return compileBranch(pred.Predicates, " OR ")
	case query.All, *query.All:
		return "1 = 1", nil, nil
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileCmp compiles a field comparison.
//
// The whole identifier field compares on the id column against the
// canonical encoded form; every other field (including sub-fields of an
// embedded identifier, via dot paths) compares on json_extract of the
// document body.
func compileCmp(c query.Cmp) (string, []any, error) {
	expr, err := fieldExpr(c.Field)
	if err != nil {
		return "", nil, err
	}

	if _, isNull := c.Value.(doc.Null); isNull {
		switch c.Op {
		case query.Eq:
			return expr + " IS NULL", nil, nil
		case query.Ne:
			return expr + " IS NOT NULL", nil, nil
		default:
			return "", nil, fmt.Errorf("field %q: operator %q not defined for null", c.Field, c.Op)
		}
	}

	var param any
	if c.Field == doc.IDField {
		encoded, err := doc.EncodeID(c.Value)
		if err != nil {
			return "", nil, fmt.Errorf("field %q: %w", c.Field, err)
		}
		param = encoded
	} else {
		param, err = valueToParam(c.Value)
		if err != nil {
			return "", nil, fmt.Errorf("field %q: %w", c.Field, err)
		}
	}

	return fmt.Sprintf("%s %s ?", expr, c.Op), []any{param}, nil
}

func compileBranch(preds []query.Predicate, sep string) (string, []any, error) {
	if len(preds) == 0 {
		return "", nil, fmt.Errorf("empty predicate branch")
	}

	var sqlParts []string
	var allParams []any
	for _, pred := range preds {
		sql, params, err := compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		sqlParts = append(sqlParts, "("+sql+")")
		allParams = append(allParams, params...)
	}

	return strings.Join(sqlParts, sep), allParams, nil
}

// fieldExpr returns the SQL expression that yields a field's value.
func fieldExpr(field string) (string, error) {
	if field == doc.IDField {
		return "id", nil
	}
	if !fieldPathRe.MatchString(field) {
		return "", fmt.Errorf("invalid field path %q", field)
	}
	return fmt.Sprintf("json_extract(doc, '$.%s')", field), nil
}

// valueToParam converts a doc.Value to a SQL parameter.
// Timestamps become their fixed-width encoding, so SQLite's string
// comparison on them is chronological comparison.
func valueToParam(v doc.Value) (any, error) {
	switch val := v.(type) {
	case doc.String:
		return string(val), nil
	case doc.Int:
		return int64(val), nil
	case doc.Float:
		return float64(val), nil
	case doc.Bool:
		// json_extract yields 0/1 for JSON booleans
		if val {
			return int64(1), nil
		}
		return int64(0), nil
	case doc.Time:
		return val.Std().UTC().Format(doc.TimeLayout), nil
	default:
		return nil, fmt.Errorf("value type %T cannot be used as a comparison parameter", v)
	}
}

// compileSort compiles a sort spec to an ORDER BY clause body.
// An empty spec falls back to id ASC for deterministic results.
func compileSort(sorts []query.Sort) (string, error) {
	if len(sorts) == 0 {
		return "id ASC", nil
	}

	parts := make([]string, 0, len(sorts))
	for _, s := range sorts {
		expr, err := fieldExpr(s.Field)
		if err != nil {
			return "", err
		}
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		parts = append(parts, expr+" "+dir)
	}
	return strings.Join(parts, ", "), nil
}
