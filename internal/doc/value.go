package doc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// TimeLayout is the wire encoding for Time values. Fixed width, UTC, with
// nanoseconds, so encoded timestamps sort lexicographically in time order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// Value is a sealed interface over the types a document field can hold.
// Only Null, String, Int, Float, Bool, Time, Array, Object, Key, and the
// Unset marker implement it.
type Value interface {
	docValue() // sealed
}

// Null represents an explicit null field value.
type Null struct{}

func (Null) docValue() {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// String represents a string field value.
type String string

func (String) docValue() {}

// Int represents an integer field value. Always int64.
type Int int64

func (Int) docValue() {}

// Float represents a floating-point field value.
type Float float64

func (Float) docValue() {}

// Bool represents a boolean field value.
type Bool bool

func (Bool) docValue() {}

// Time represents a timestamp field value.
// Construct with NewTime to normalize to UTC.
type Time time.Time

func (Time) docValue() {}

// NewTime creates a Time value normalized to UTC.
func NewTime(t time.Time) Time {
	return Time(t.UTC())
}

// Std returns the underlying time.Time.
func (v Time) Std() time.Time {
	return time.Time(v)
}

// MarshalJSON encodes the timestamp using TimeLayout.
func (v Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Std().UTC().Format(TimeLayout))
}

// Array represents an ordered list of values.
type Array []Value

func (Array) docValue() {}

// Object represents a mapping of field names to values.
// Iteration order is unspecified; use SortedKeys for deterministic output.
type Object map[string]Value

func (Object) docValue() {}

// unsetMarker is the type of the Unset sentinel.
type unsetMarker struct{}

func (unsetMarker) docValue() {}

// Unset is the sentinel an update caller assigns to a field to schedule
// its removal from the stored record rather than an assignment.
// It is never persisted; the store rejects it as a field value.
var Unset Value = unsetMarker{}

// IsUnset reports whether v is the Unset sentinel.
func IsUnset(v Value) bool {
	_, ok := v.(unsetMarker)
	return ok
}

// SortedKeys returns the object's keys in ascending byte order.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON implements json.Marshaler for Object with sorted keys for
// deterministic output.
func (obj Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range obj.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := MarshalValue(obj[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalValue marshals a Value to JSON bytes.
// The Unset sentinel cannot be marshaled; it must be partitioned out before
// a document reaches the store.
func MarshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("nil Value cannot be marshaled")
	case Null:
		return []byte("null"), nil
	case String:
		return json.Marshal(string(val))
	case Int:
		return json.Marshal(int64(val))
	case Float:
		return json.Marshal(float64(val))
	case Bool:
		return json.Marshal(bool(val))
	case Time:
		return val.MarshalJSON()
	case Array:
		return marshalArray(val)
	case Object:
		return val.MarshalJSON()
	case Key:
		return val.MarshalJSON()
	case unsetMarker:
		return nil, fmt.Errorf("the Unset marker cannot be marshaled")
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
}

func marshalArray(arr Array) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemBytes, err := MarshalValue(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(elemBytes)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalValue decodes JSON bytes into a Value.
//
// This is the coercion point at the store boundary: strings that parse
// exactly as TimeLayout become Time values, and whole numbers become Int
// (other numbers become Float). Compound keys read back from the store
// decode as plain Objects; field order is only meaningful on the write path.
func UnmarshalValue(data []byte) (Value, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON value")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		if len(s) == len(TimeLayout) {
			if t, err := time.Parse(TimeLayout, s); err == nil {
				return NewTime(t), nil
			}
		}
		return String(s), nil

	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil

	case 'n':
		return Null{}, nil

	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		arr := make(Array, len(raw))
		for i, elem := range raw {
			v, err := UnmarshalValue(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = v
		}
		return arr, nil

	case '{':
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		obj := make(Object, len(raw))
		for k, elem := range raw {
			v, err := UnmarshalValue(elem)
			if err != nil {
				return nil, fmt.Errorf("object key %q: %w", k, err)
			}
			obj[k] = v
		}
		return obj, nil

	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		if i, err := n.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("number out of range: %s", n)
		}
		return Float(f), nil
	}
}

// Equal reports deep equality of two values.
// Time values compare by instant; an Object and a Key compare equal when
// they hold the same fields with equal values.
func Equal(a, b Value) bool {
	if ka, ok := a.(Key); ok {
		a = ka.Object()
	}
	if kb, ok := b.(Key); ok {
		b = kb.Object()
	}

	switch av := a.(type) {
	case nil:
		return b == nil
	case Null:
		_, ok := b.(Null)
		return ok
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Float:
		bv, ok := b.(Float)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Time:
		bv, ok := b.(Time)
		return ok && av.Std().Equal(bv.Std())
	case Array:
		bv, ok := b.(Array)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Object:
		bv, ok := b.(Object)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, present := bv[k]
			if !present || !Equal(v, other) {
				return false
			}
		}
		return true
	case unsetMarker:
		return IsUnset(b)
	default:
		return false
	}
}

// CloneValue returns a deep copy of v. Scalars are returned as-is.
func CloneValue(v Value) Value {
	switch val := v.(type) {
	case Array:
		out := make(Array, len(val))
		for i, elem := range val {
			out[i] = CloneValue(elem)
		}
		return out
	case Object:
		out := make(Object, len(val))
		for k, elem := range val {
			out[k] = CloneValue(elem)
		}
		return out
	case Key:
		out := make(Key, len(val))
		for i, f := range val {
			out[i] = KeyField{Name: f.Name, Value: CloneValue(f.Value)}
		}
		return out
	default:
		return val
	}
}
