package domain

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("payment not found")

// OverpaymentError reports an approval that would push the approved
// total past the invoice total.
type OverpaymentError struct {
	InvoiceID    snowflake.ID
	InvoiceTotal decimal.Decimal
	Approved     decimal.Decimal
	Attempted    decimal.Decimal
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("approving %s would exceed invoice %s total %s (already approved %s)",
		e.Attempted.StringFixed(2), e.InvoiceID, e.InvoiceTotal.StringFixed(2), e.Approved.StringFixed(2))
}
