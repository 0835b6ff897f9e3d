package doc

// Well-known field names.
const (
	// IDField is the unique identifier field every record carries.
	IDField = "_id"

	// CreatedAtField and UpdatedAtField are the lifecycle timestamps
	// stamped onto every created record.
	CreatedAtField = "created_at"
	UpdatedAtField = "updated_at"

	// DeletedAtField marks a history tombstone.
	DeletedAtField = "deleted_at"
)

// Record is a document: a mapping of field names to values.
// Two records with equal identifiers are the same logical entity at
// different points in time.
type Record = Object

// RecordID returns the record's identifier value.
func RecordID(r Record) (Value, bool) {
	v, ok := r[IDField]
	return v, ok
}

// Clone returns a deep copy of the record.
func Clone(r Record) Record {
	if r == nil {
		return nil
	}
	return CloneValue(r).(Object)
}

// Merge returns a copy of base with every field of overlay assigned over it.
// Neither argument is mutated.
func Merge(base, overlay Record) Record {
	out := Clone(base)
	if out == nil {
		out = make(Record, len(overlay))
	}
	for k, v := range overlay {
		out[k] = CloneValue(v)
	}
	return out
}

// Without returns a copy of the record with the named fields removed.
func Without(r Record, fields []string) Record {
	out := Clone(r)
	for _, f := range fields {
		delete(out, f)
	}
	return out
}

// UpdatedAt returns the record's updated_at timestamp, if present and a Time.
func UpdatedAt(r Record) (Time, bool) {
	t, ok := r[UpdatedAtField].(Time)
	return t, ok
}

// MarshalRecord encodes a record to its stored JSON form.
func MarshalRecord(r Record) ([]byte, error) {
	return Object(r).MarshalJSON()
}

// UnmarshalRecord decodes a stored JSON document back into a Record.
func UnmarshalRecord(data []byte) (Record, error) {
	v, err := UnmarshalValue(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(Object)
	if !ok {
		return nil, errNotObject(v)
	}
	return obj, nil
}
