// Package domain defines the operator-editable tax and alerting
// parameters consumed by the financial cascade and the claim engine.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Configuration keys. Rates are fractions (0.035 = 3.5%), windows are
// whole days, the liquidation deadline is whole hours.
const (
	KeySuperintendencyRate      = "SUPERINTENDENCY_RATE"
	KeyAgriculturalRate         = "AGRICULTURAL_RATE"
	KeyVATRate                  = "VAT_RATE"
	KeyEmissionFeeTable         = "EMISSION_FEE_TABLE"
	KeyEarlyPaymentDiscountRate = "EARLY_PAYMENT_DISCOUNT_RATE"
	KeyEarlyPaymentWindowDays   = "EARLY_PAYMENT_WINDOW_DAYS"
	KeyClaimDocsAlertDays       = "CLAIM_DOCS_ALERT_DAYS"
	KeyInsurerResponseAlertDays = "INSURER_RESPONSE_ALERT_DAYS"
	KeyPolicyExpiryAlertDays    = "POLICY_EXPIRY_ALERT_DAYS"
	KeyLiquidationDeadlineHours = "LIQUIDATION_DEADLINE_HOURS"
)

// SystemConfig is one operator-editable configuration entry. Values are
// stored as JSON so a single table carries rates, day counts and the
// emission-fee schedule.
type SystemConfig struct {
	ID        snowflake.ID   `gorm:"primaryKey"`
	Key       string         `gorm:"type:text;not null;uniqueIndex"`
	Value     datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (SystemConfig) TableName() string { return "system_configs" }

// EmissionFeeTier is one row of the tiered emission-fee schedule. A nil
// UpperBound marks the unbounded last tier.
type EmissionFeeTier struct {
	UpperBound *decimal.Decimal `json:"upper_bound"`
	Fee        decimal.Decimal  `json:"fee"`
}

// EmissionFeeTable is an ascending list of tiers. The legacy default
// schedule is only a seed; operators replace it at runtime.
type EmissionFeeTable []EmissionFeeTier

// Fee returns the fee of the first tier whose bound is >= premium, or
// the unbounded tier when none matches. An empty table is invalid.
func (t EmissionFeeTable) Fee(premium decimal.Decimal) (decimal.Decimal, error) {
	if len(t) == 0 {
		return decimal.Zero, ErrEmptyFeeTable
	}
	for _, tier := range t {
		if tier.UpperBound == nil || premium.LessThanOrEqual(*tier.UpperBound) {
			return tier.Fee, nil
		}
	}
	// All tiers bounded and premium above the last bound: the schedule
	// has no unbounded entry, fall back to the final tier's fee.
	return t[len(t)-1].Fee, nil
}

// Validate checks the table is non-empty, ascending, and non-negative.
func (t EmissionFeeTable) Validate() error {
	if len(t) == 0 {
		return ErrEmptyFeeTable
	}
	var prev *decimal.Decimal
	for i, tier := range t {
		if tier.Fee.IsNegative() {
			return ErrInvalidFeeTable
		}
		if tier.UpperBound == nil {
			if i != len(t)-1 {
				return ErrInvalidFeeTable
			}
			continue
		}
		if prev != nil && !tier.UpperBound.GreaterThan(*prev) {
			return ErrInvalidFeeTable
		}
		prev = tier.UpperBound
	}
	return nil
}

// Rates is a point-in-time snapshot of every parameter one cascade or
// claim computation needs. Batch jobs take a fresh snapshot per run;
// rates are operator-editable and must not be cached across runs.
type Rates struct {
	SuperintendencyRate      decimal.Decimal
	AgriculturalRate         decimal.Decimal
	VATRate                  decimal.Decimal
	EmissionFees             EmissionFeeTable
	EarlyPaymentDiscountRate decimal.Decimal
	EarlyPaymentWindowDays   int
	ClaimDocsAlertDays       int
	InsurerResponseAlertDays int
	PolicyExpiryAlertDays    int
	LiquidationDeadlineHours int
}
