package domain

import "errors"

var (
	ErrNotFound = errors.New("invoice not found")

	// ErrInvoiceHasPayments guards the protected delete.
	ErrInvoiceHasPayments = errors.New("invoice has recorded payments")
)
