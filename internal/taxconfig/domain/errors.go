package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyFeeTable   = errors.New("emission fee table is empty")
	ErrInvalidFeeTable = errors.New("emission fee table must be ascending with at most one unbounded last tier")
)

// MissingConfigError reports a required key with no stored value and no
// safe default. Rates must never silently fall back to zero.
type MissingConfigError struct {
	Key string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("configuration key %s has no value and no default", e.Key)
}

// InvalidConfigError reports a stored value that cannot be decoded.
type InvalidConfigError struct {
	Key   string
	Cause error
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("configuration key %s holds an invalid value: %v", e.Key, e.Cause)
}

func (e *InvalidConfigError) Unwrap() error { return e.Cause }
