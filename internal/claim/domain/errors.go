package domain

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("claim not found")

// InvalidTransitionError names both the attempted operation and the
// state that refused it, so the operator sees why it was rejected.
type InvalidTransitionError struct {
	Attempted string
	Current   State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a claim in state %q", e.Attempted, e.Current)
}
