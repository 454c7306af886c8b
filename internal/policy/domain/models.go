// Package domain holds the policy aggregate: insurers, brokers,
// policies, and the per-coverage line items carrying cascade outputs.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Insurer is a carrier the agency places risk with.
type Insurer struct {
	ID    snowflake.ID `gorm:"primaryKey"`
	Name  string       `gorm:"type:text;not null"`
	TaxID string       `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Insurer) TableName() string { return "insurers" }

// Broker is an intermediary accredited with exactly one insurer. A
// policy's broker must belong to the policy's insurer.
type Broker struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	InsurerID snowflake.ID `gorm:"index;not null"`
	Name      string       `gorm:"type:text;not null"`
	Email     string       `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Broker) TableName() string { return "brokers" }

// Status is derived from the coverage window on every read; only
// cancellation is stored.
type Status string

const (
	StatusActive    Status = "active"
	StatusExpiring  Status = "expiring"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// Policy is one insurance contract. Deductible terms apply to every
// claim against the policy; the large-taxpayer flag enables statutory
// withholding on its line items and invoices but never changes the
// base tax math.
type Policy struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	Number        string       `gorm:"type:text;not null;index"`
	InsurerID     snowflake.ID `gorm:"index;not null"`
	BrokerID      snowflake.ID `gorm:"index;not null"`
	CoverageGroup string       `gorm:"type:text;not null"`

	StartDate time.Time `gorm:"not null"`
	EndDate   time.Time `gorm:"not null"`

	InsuredSum   decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	NetPremium   decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	TotalPremium decimal.Decimal `gorm:"type:decimal(15,2);not null"`

	DeductibleFixed   decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	DeductiblePercent decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
	DeductibleFloor   decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`

	LargeTaxpayer bool `gorm:"not null;default:false"`

	Status      Status     `gorm:"type:text;not null;default:'active'"`
	CancelledAt *time.Time `gorm:""`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Policy) TableName() string { return "policies" }

// Covers reports whether t falls inside the coverage window. The end
// date is inclusive: a loss on the final day is still covered.
func (p *Policy) Covers(t time.Time) bool {
	return !t.Before(p.StartDate) && !t.After(p.EndDate)
}

// StatusAt derives the policy status from its dates. Cancellation is
// sticky; expiry never un-cancels a policy.
func (p *Policy) StatusAt(now time.Time, expiryWindowDays int) Status {
	if p.CancelledAt != nil {
		return StatusCancelled
	}
	if now.After(p.EndDate) {
		return StatusExpired
	}
	if expiryWindowDays > 0 && !now.Before(p.EndDate.AddDate(0, 0, -expiryWindowDays)) {
		return StatusExpiring
	}
	return StatusActive
}

// PolicyLineItem is one coverage-subtype breakdown of a policy. Every
// derived column is a pure function of {premium, rates, large-taxpayer
// flag}; recalculation overwrites all of them together.
type PolicyLineItem struct {
	ID              snowflake.ID `gorm:"primaryKey"`
	PolicyID        snowflake.ID `gorm:"index;not null"`
	CoverageSubtype string       `gorm:"type:text;not null"`

	InsuredSum decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Rate       decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
	Premium    decimal.Decimal `gorm:"type:decimal(15,2);not null"`

	SuperintendencyContribution decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	AgriculturalContribution    decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	EmissionFee                 decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	TaxBase                     decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	VAT                         decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	TotalInvoiced               decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	PremiumWithholding          decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	VATWithholding              decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	Payable                     decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (PolicyLineItem) TableName() string { return "policy_line_items" }
