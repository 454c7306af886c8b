package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	Update(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	ListUnsettled(ctx context.Context, db *gorm.DB) ([]Invoice, error)

	// ApprovedPaymentsSum totals the approved payments of an invoice.
	ApprovedPaymentsSum(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) (decimal.Decimal, error)

	// FirstApprovedPaymentDate is nil when no payment was approved yet.
	FirstApprovedPaymentDate(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) (*time.Time, error)

	CountPayments(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) (int64, error)
}
