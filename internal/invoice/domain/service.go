package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type BillRequest struct {
	PolicyID  snowflake.ID
	Number    string
	IssueDate time.Time
	DueDate   time.Time

	Subtotal   decimal.Decimal
	Retentions decimal.Decimal

	// VAT overrides the rate-derived amount when set; insurers
	// occasionally bill VAT figures that differ by a rounding cent.
	VAT *decimal.Decimal
}

type Service interface {
	Bill(ctx context.Context, req BillRequest) (*Invoice, error)
	Get(ctx context.Context, id snowflake.ID) (*Invoice, error)

	// Recompute re-derives discount, total and status from the approved
	// payments. Pure re-derivation; calling it twice with no new
	// payments is a no-op.
	Recompute(ctx context.Context, invoiceID snowflake.ID) (*Invoice, error)

	// RecomputeAll refreshes every unsettled invoice, primarily to flip
	// pending invoices to overdue as due dates pass.
	RecomputeAll(ctx context.Context) (updated int, err error)

	Delete(ctx context.Context, invoiceID snowflake.ID) error
}
