package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// LineItemInput is one coverage entry of a policy's breakdown. Premium
// may be given directly or derived from InsuredSum × Rate/100 when
// zero and a rate is present.
type LineItemInput struct {
	CoverageSubtype string
	InsuredSum      decimal.Decimal
	Rate            decimal.Decimal
	Premium         decimal.Decimal
}

type CreateRequest struct {
	Number        string
	InsurerID     snowflake.ID
	BrokerID      snowflake.ID
	CoverageGroup string
	StartDate     time.Time
	EndDate       time.Time
	InsuredSum    decimal.Decimal
	NetPremium    decimal.Decimal

	DeductibleFixed   decimal.Decimal
	DeductiblePercent decimal.Decimal
	DeductibleFloor   decimal.Decimal

	LargeTaxpayer bool

	LineItems []LineItemInput
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Policy, error)
	Get(ctx context.Context, id snowflake.ID) (*Policy, []PolicyLineItem, error)

	// Recalculate re-derives every line item's cascade output from a
	// fresh rates snapshot and updates the policy's total premium.
	Recalculate(ctx context.Context, policyID snowflake.ID) (*Policy, error)

	Cancel(ctx context.Context, policyID snowflake.ID) error
	Delete(ctx context.Context, policyID snowflake.ID) error

	// RefreshStatuses re-derives the stored status of every
	// non-cancelled policy. Idempotent; run periodically.
	RefreshStatuses(ctx context.Context) (updated int, err error)
}
