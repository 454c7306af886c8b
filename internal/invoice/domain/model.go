// Package domain holds invoices and their derived payment status.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusPartial Status = "partial"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

// Invoice bills a policy. Total and status are always re-derived from
// the stored components and the approved payments, never incremented
// in place.
type Invoice struct {
	ID       snowflake.ID `gorm:"primaryKey"`
	PolicyID snowflake.ID `gorm:"index;not null"`
	Number   string       `gorm:"type:text;not null;uniqueIndex"`

	IssueDate time.Time `gorm:"not null"`
	DueDate   time.Time `gorm:"not null"`

	Subtotal                    decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	VAT                         decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	SuperintendencyContribution decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	AgriculturalContribution    decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	Retentions                  decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	EarlyPaymentDiscount        decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	Total                       decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`

	Status Status `gorm:"type:text;not null;default:'pending'"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Invoice) TableName() string { return "invoices" }

// Outstanding is the unpaid remainder against approved payments,
// floored at zero.
func (i *Invoice) Outstanding(approvedSum decimal.Decimal) decimal.Decimal {
	remaining := i.Total.Sub(approvedSum)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// DeriveStatus re-derives the payment status from scratch. Paid wins
// over overdue: a fully-settled invoice past its due date is paid.
func DeriveStatus(total, approvedSum decimal.Decimal, dueDate, now time.Time) Status {
	if approvedSum.GreaterThanOrEqual(total) && total.IsPositive() {
		return StatusPaid
	}
	if approvedSum.IsPositive() {
		return StatusPartial
	}
	if now.After(dueDate) {
		return StatusOverdue
	}
	return StatusPending
}
