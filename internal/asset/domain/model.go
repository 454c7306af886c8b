// Package domain describes insured assets: the valued goods a policy
// covers, referenced by claims for the underinsurance check.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// InsuredAsset belongs to one policy and one coverage subtype. The
// three valuation columns are nullable; valuations are often unknown
// when the asset is first registered.
type InsuredAsset struct {
	ID              snowflake.ID `gorm:"primaryKey"`
	PolicyID        snowflake.ID `gorm:"index;not null"`
	CoverageSubtype string       `gorm:"type:text;not null"`
	Description     string       `gorm:"type:text"`

	PurchaseValue   *decimal.Decimal `gorm:"type:decimal(15,2)"`
	CurrentValue    *decimal.Decimal `gorm:"type:decimal(15,2)"`
	CommercialValue *decimal.Decimal `gorm:"type:decimal(15,2)"`
	InsuredValue    *decimal.Decimal `gorm:"type:decimal(15,2)"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (InsuredAsset) TableName() string { return "insured_assets" }

// ReplacementValue resolves the value the asset would cost to replace
// today: commercial value first, then current, then purchase. Nil when
// no valuation is recorded.
func (a *InsuredAsset) ReplacementValue() *decimal.Decimal {
	for _, v := range []*decimal.Decimal{a.CommercialValue, a.CurrentValue, a.PurchaseValue} {
		if v != nil && v.IsPositive() {
			return v
		}
	}
	return nil
}
