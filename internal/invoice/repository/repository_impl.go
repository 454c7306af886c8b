package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/segurosandina/backoffice/internal/invoice/domain"
	"github.com/segurosandina/backoffice/pkg/db"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, conn *gorm.DB, invoice *domain.Invoice) error {
	return conn.WithContext(ctx).Create(invoice).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	return r.find(ctx, conn, id)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	return r.find(ctx, db.LockForUpdate(conn), id)
}

func (r *repo) find(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := conn.WithContext(ctx).First(&invoice, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repo) Update(ctx context.Context, conn *gorm.DB, invoice *domain.Invoice) error {
	return conn.WithContext(ctx).Save(invoice).Error
}

func (r *repo) Delete(ctx context.Context, conn *gorm.DB, id snowflake.ID) error {
	return conn.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Invoice{}).Error
}

func (r *repo) ListUnsettled(ctx context.Context, conn *gorm.DB) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	err := conn.WithContext(ctx).
		Where("status <> ?", domain.StatusPaid).
		Order("id").
		Find(&invoices).Error
	return invoices, err
}

func (r *repo) ApprovedPaymentsSum(ctx context.Context, conn *gorm.DB, invoiceID snowflake.ID) (decimal.Decimal, error) {
	var raw string
	err := conn.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(amount), 0)
		 FROM payments
		 WHERE invoice_id = ? AND status = 'approved'`,
		invoiceID,
	).Scan(&raw).Error
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(raw)
}

func (r *repo) FirstApprovedPaymentDate(ctx context.Context, conn *gorm.DB, invoiceID snowflake.ID) (*time.Time, error) {
	var first *time.Time
	err := conn.WithContext(ctx).Raw(
		`SELECT MIN(paid_at)
		 FROM payments
		 WHERE invoice_id = ? AND status = 'approved'`,
		invoiceID,
	).Scan(&first).Error
	if err != nil {
		return nil, err
	}
	return first, nil
}

func (r *repo) CountPayments(ctx context.Context, conn *gorm.DB, invoiceID snowflake.ID) (int64, error) {
	var count int64
	err := conn.WithContext(ctx).
		Table("payments").
		Where("invoice_id = ?", invoiceID).
		Count(&count).Error
	return count, err
}
