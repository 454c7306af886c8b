package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type RecordRequest struct {
	InvoiceID snowflake.ID
	Amount    decimal.Decimal
	PaidAt    time.Time
	Reference string
}

type Service interface {
	Record(ctx context.Context, req RecordRequest) (*Payment, error)

	// Approve marks the payment approved after validating, against a
	// freshly-read balance inside the same transaction, that the
	// approved total stays within the invoice total.
	Approve(ctx context.Context, paymentID snowflake.ID) (*Payment, error)

	Reject(ctx context.Context, paymentID snowflake.ID) (*Payment, error)
	Remove(ctx context.Context, paymentID snowflake.ID) error
}
