// Package validation carries field-level validation failures as values so
// callers (forms, APIs, batch jobs) can render per-field feedback without
// parsing error strings.
package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Errors maps field names to human-readable messages. The zero value is
// usable; a nil or empty Errors means the input was valid.
type Errors map[string]string

func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e[f]))
	}
	return strings.Join(parts, "; ")
}

// Add records a failure for field, keeping the first message when the
// same field fails more than once.
func (e Errors) Add(field, message string) {
	if _, exists := e[field]; !exists {
		e[field] = message
	}
}

// Merge copies failures from other into e.
func (e Errors) Merge(other Errors) {
	for f, msg := range other {
		e.Add(f, msg)
	}
}

// OrNil returns e as an error, or nil when no failures were recorded.
func (e Errors) OrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// AsErrors extracts an Errors value from err when present.
func AsErrors(err error) (Errors, bool) {
	var ve Errors
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
