// Package domain holds payments against invoices. Only approved
// payments count toward an invoice's paid total.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

type Payment struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	InvoiceID snowflake.ID `gorm:"index;not null"`

	Amount    decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	PaidAt    time.Time       `gorm:"not null"`
	Status    Status          `gorm:"type:text;not null;default:'pending'"`
	Reference string          `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Payment) TableName() string { return "payments" }
