package lifecycle

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// BaseField is the Errors key store-level faults are reported under.
const BaseField = "base"

// Errors is the structured validation payload: field name to reasons.
// An empty or nil Errors means the record passed.
type Errors map[string][]string

// Add appends a reason for a field, allocating the map on first use so a
// zero Errors value is usable.
func (e *Errors) Add(field, reason string) {
	if *e == nil {
		*e = Errors{}
	}
	(*e)[field] = append((*e)[field], reason)
}

// Empty reports whether no errors were recorded.
func (e Errors) Empty() bool {
	return len(e) == 0
}

// ValidationError carries an Errors payload across the engine boundary.
//
// Store-level write faults are converted to a ValidationError with the
// fault under the "base" key; they never propagate as raw driver errors.
type ValidationError struct {
	Errors Errors
}

// Error implements the error interface with deterministic field order.
func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for f := range e.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(e.Errors[f], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// NewValidationError wraps an Errors payload.
func NewValidationError(errs Errors) *ValidationError {
	return &ValidationError{Errors: errs}
}

// newBaseError converts a store-level fault into the structured payload.
func newBaseError(err error) *ValidationError {
	return &ValidationError{Errors: Errors{BaseField: []string{err.Error()}}}
}

// ValidationErrors extracts the Errors payload if err is a validation
// outcome. Uses errors.As to handle wrapped errors.
func ValidationErrors(err error) (Errors, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Errors, true
	}
	return nil, false
}

// ErrConflict reports that an optimistic-lock update matched no record:
// the record changed (or disappeared) between the read and the write.
var ErrConflict = errors.New("lifecycle: record changed since read")
