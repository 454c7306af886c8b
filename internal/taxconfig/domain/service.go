package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Provider exposes the current tax and alerting parameters. Lookup
// order is database override, then file default, then built-in default;
// a key with none of the three fails with MissingConfigError.
type Provider interface {
	// Rates returns a consistent snapshot of every engine parameter.
	Rates(ctx context.Context) (Rates, error)

	Decimal(ctx context.Context, key string) (decimal.Decimal, error)
	Int(ctx context.Context, key string) (int, error)
	EmissionFees(ctx context.Context) (EmissionFeeTable, error)

	// Set stores an operator override for key. The value is validated
	// before it is written.
	Set(ctx context.Context, key string, value any) error
}
