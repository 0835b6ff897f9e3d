package doc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// KeyField is one ordered sub-field of a compound Key.
type KeyField struct {
	Name  string
	Value Value
}

// Key is an ordered compound identifier.
//
// The store compares identifiers by their encoded form, not by field name,
// so the same sub-fields in a different order are a distinct, non-matching
// identifier. History record identifiers are always built identifier field
// first, timestamp field second; use HistoryKey for that.
type Key []KeyField

func (Key) docValue() {}

// NewKey builds a compound key from ordered fields.
func NewKey(fields ...KeyField) Key {
	return Key(fields)
}

// HistoryKey builds the compound identifier of a history record:
// the original record identifier first, the snapshot timestamp second.
func HistoryKey(id Value, updatedAt Time) Key {
	return Key{
		{Name: IDField, Value: id},
		{Name: UpdatedAtField, Value: updatedAt},
	}
}

// Field returns the value of the named sub-field.
func (k Key) Field(name string) (Value, bool) {
	for _, f := range k {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Object returns the key's fields as an unordered Object.
// Used when a key is embedded in a document body and read back generically.
func (k Key) Object() Object {
	obj := make(Object, len(k))
	for _, f := range k {
		obj[f.Name] = f.Value
	}
	return obj
}

// MarshalJSON writes the key as a JSON object in declaration order.
func (k Key) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range k {
		if i > 0 {
			buf.WriteByte(',')
		}
		nameBytes, err := json.Marshal(f.Name)
		if err != nil {
			return nil, fmt.Errorf("marshal key field %q: %w", f.Name, err)
		}
		buf.Write(nameBytes)
		buf.WriteByte(':')
		valBytes, err := MarshalValue(f.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal key field %q: %w", f.Name, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
