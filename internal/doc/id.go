package doc

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalidID reports a malformed identifier passed to an id-accepting
// operation (for example an empty string). Unlike store failures, it is
// surfaced to callers unmodified.
var ErrInvalidID = errors.New("doc: invalid identifier")

// CoerceID converts an identifier supplied by a caller into a Value.
//
// Public operations accept either a native identifier Value (String, Int,
// Time, or a compound Key) or its canonical string form; plain Go strings
// are coerced transparently.
func CoerceID(id any) (Value, error) {
	switch v := id.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil", ErrInvalidID)
	case string:
		if v == "" {
			return nil, fmt.Errorf("%w: empty string", ErrInvalidID)
		}
		return String(v), nil
	case String:
		if v == "" {
			return nil, fmt.Errorf("%w: empty string", ErrInvalidID)
		}
		return v, nil
	case Int:
		return v, nil
	case Time:
		return v, nil
	case Key:
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: empty compound key", ErrInvalidID)
		}
		return v, nil
	case Value:
		return nil, fmt.Errorf("%w: unsupported identifier type %T", ErrInvalidID, id)
	default:
		return nil, fmt.Errorf("%w: unsupported identifier type %T", ErrInvalidID, id)
	}
}

// EncodeID maps an identifier to the single string the store keys rows by.
//
// The encoding is order-preserving: for scalar identifiers the byte order of
// the result matches the value order, and for compound keys it matches
// field-by-field comparison in declaration order. Strings are NFC normalized
// so that equal identifiers in different Unicode forms collide rather than
// silently diverge.
func EncodeID(id Value) (string, error) {
	switch v := id.(type) {
	case String:
		return norm.NFC.String(string(v)), nil
	case Int:
		return fmt.Sprintf("%020d", int64(v)), nil
	case Time:
		return v.Std().UTC().Format(TimeLayout), nil
	case Key:
		parts := make([]string, 0, len(v))
		for _, f := range v {
			enc, err := EncodeID(f.Value)
			if err != nil {
				return "", fmt.Errorf("compound field %q: %w", f.Name, err)
			}
			parts = append(parts, f.Name+"\x1e"+enc)
		}
		return strings.Join(parts, "\x1f"), nil
	default:
		return "", fmt.Errorf("%w: unsupported identifier type %T", ErrInvalidID, id)
	}
}

func errNotObject(v Value) error {
	return fmt.Errorf("stored document is not an object: %T", v)
}
