package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/segurosandina/backoffice/internal/indemnity"
	"github.com/shopspring/decimal"
)

type RegisterRequest struct {
	// PolicyID may be zero when AssetID is set; the policy is then
	// derived from the asset.
	PolicyID      snowflake.ID
	AssetID       *snowflake.ID
	ClaimType     string
	LossDate      time.Time
	EstimatedLoss decimal.Decimal
	Description   string
}

// Detail is a claim plus the settlement math recomputed from current
// policy terms and asset values. Never cached: an asset revaluation
// before settlement must show up here.
type Detail struct {
	Claim          *Claim
	Deductible     decimal.Decimal
	Indemnifiable  decimal.Decimal
	Underinsurance indemnity.Underinsurance
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*Claim, error)
	Get(ctx context.Context, id snowflake.ID) (*Claim, error)
	Detail(ctx context.Context, id snowflake.ID) (*Detail, error)

	NotifyBroker(ctx context.Context, id snowflake.ID) (*Claim, error)
	RecordBrokerResponse(ctx context.Context, id snowflake.ID, origin string) (*Claim, error)
	SubmitToInsurer(ctx context.Context, id snowflake.ID) (*Claim, error)
	RecordReceipt(ctx context.Context, id snowflake.ID, origin string, figures ReceiptFigures) (*Claim, error)
	OpenDispute(ctx context.Context, id snowflake.ID, reason string) (*Claim, error)
	ResolveDispute(ctx context.Context, id snowflake.ID, resolution string) (*Claim, error)
	SignReceipt(ctx context.Context, id snowflake.ID) (*Claim, error)
	SendToLiquidation(ctx context.Context, id snowflake.ID) (*Claim, error)
	RegisterLiquidation(ctx context.Context, id snowflake.ID, info LiquidationInfo) (*Claim, error)
	Close(ctx context.Context, id snowflake.ID) (*Claim, error)
	Reject(ctx context.Context, id snowflake.ID, reason string) (*Claim, error)
}
