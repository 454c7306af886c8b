package domain

import "errors"

var (
	ErrNotFound        = errors.New("policy not found")
	ErrInsurerNotFound = errors.New("insurer not found")
	ErrBrokerNotFound  = errors.New("broker not found")

	// ErrPolicyInUse guards the protected delete: a policy referenced
	// by line items, invoices or claims cannot be removed.
	ErrPolicyInUse = errors.New("policy has dependent records")
)
