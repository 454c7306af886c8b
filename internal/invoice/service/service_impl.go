package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/segurosandina/backoffice/internal/cascade"
	"github.com/segurosandina/backoffice/internal/clock"
	invoicedomain "github.com/segurosandina/backoffice/internal/invoice/domain"
	policydomain "github.com/segurosandina/backoffice/internal/policy/domain"
	taxdomain "github.com/segurosandina/backoffice/internal/taxconfig/domain"
	"github.com/segurosandina/backoffice/pkg/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       invoicedomain.Repository
	PolicyRepo policydomain.Repository
	Taxes      taxdomain.Provider
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       invoicedomain.Repository
	policyRepo policydomain.Repository
	taxes      taxdomain.Provider
}

func New(p Params) invoicedomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("invoice.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		policyRepo: p.PolicyRepo,
		taxes:      p.Taxes,
	}
}

func (s *Service) Bill(ctx context.Context, req invoicedomain.BillRequest) (*invoicedomain.Invoice, error) {
	req.Number = strings.TrimSpace(req.Number)
	if err := validateBill(req); err != nil {
		return nil, err
	}
	if _, err := s.policyRepo.FindPolicy(ctx, s.db, req.PolicyID); err != nil {
		return nil, err
	}
	rates, err := s.taxes.Rates(ctx)
	if err != nil {
		return nil, err
	}

	superintendency, agricultural := cascade.Contributions(req.Subtotal, rates)
	vat := req.Subtotal.Mul(rates.VATRate)
	if req.VAT != nil {
		vat = *req.VAT
	}

	now := s.clock.Now()
	invoice := &invoicedomain.Invoice{
		ID:                          s.genID.Generate(),
		PolicyID:                    req.PolicyID,
		Number:                      req.Number,
		IssueDate:                   req.IssueDate,
		DueDate:                     req.DueDate,
		Subtotal:                    req.Subtotal,
		VAT:                         vat,
		SuperintendencyContribution: superintendency,
		AgriculturalContribution:    agricultural,
		Retentions:                  req.Retentions,
		CreatedAt:                   now,
		UpdatedAt:                   now,
	}
	invoice.Total = cascade.InvoiceTotal(invoice.Subtotal, invoice.VAT,
		invoice.SuperintendencyContribution, invoice.AgriculturalContribution,
		invoice.Retentions, invoice.EarlyPaymentDiscount)
	invoice.Status = invoicedomain.DeriveStatus(invoice.Total, decimal.Zero, invoice.DueDate, now)

	if err := s.repo.Create(ctx, s.db, invoice); err != nil {
		return nil, err
	}
	s.log.Info("invoice billed",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("number", invoice.Number),
		zap.String("total", invoice.Total.StringFixed(2)))
	return invoice, nil
}

func validateBill(req invoicedomain.BillRequest) error {
	ve := validation.Errors{}
	if req.Number == "" {
		ve.Add("number", "required")
	}
	if !req.Subtotal.IsPositive() {
		ve.Add("subtotal", "must be greater than zero")
	}
	if req.Retentions.IsNegative() {
		ve.Add("retentions", "must not be negative")
	}
	if req.IssueDate.IsZero() || req.DueDate.IsZero() {
		ve.Add("dates", "issue and due dates are required")
	} else if req.DueDate.Before(req.IssueDate) {
		ve.Add("due_date", "must not precede the issue date")
	}
	return ve.OrNil()
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*invoicedomain.Invoice, error) {
	return s.repo.FindByID(ctx, s.db, id)
}

func (s *Service) Recompute(ctx context.Context, invoiceID snowflake.ID) (*invoicedomain.Invoice, error) {
	rates, err := s.taxes.Rates(ctx)
	if err != nil {
		return nil, err
	}

	var invoice *invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err = s.repo.FindByIDForUpdate(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		return s.recomputeLocked(ctx, tx, invoice, rates)
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// recomputeLocked re-derives discount, total and status against the
// approved payments. Caller holds the invoice row lock.
func (s *Service) recomputeLocked(ctx context.Context, tx *gorm.DB, invoice *invoicedomain.Invoice, rates taxdomain.Rates) error {
	approvedSum, err := s.repo.ApprovedPaymentsSum(ctx, tx, invoice.ID)
	if err != nil {
		return err
	}
	firstPayment, err := s.repo.FirstApprovedPaymentDate(ctx, tx, invoice.ID)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	discount := cascade.EarlyPaymentDiscount(invoice.Subtotal, invoice.IssueDate, firstPayment, rates)
	total := cascade.InvoiceTotal(invoice.Subtotal, invoice.VAT,
		invoice.SuperintendencyContribution, invoice.AgriculturalContribution,
		invoice.Retentions, discount)
	status := invoicedomain.DeriveStatus(total, approvedSum, invoice.DueDate, now)

	if invoice.EarlyPaymentDiscount.Equal(discount) && invoice.Total.Equal(total) && invoice.Status == status {
		return nil
	}
	invoice.EarlyPaymentDiscount = discount
	invoice.Total = total
	invoice.Status = status
	invoice.UpdatedAt = now
	return s.repo.Update(ctx, tx, invoice)
}

func (s *Service) RecomputeAll(ctx context.Context) (int, error) {
	rates, err := s.taxes.Rates(ctx)
	if err != nil {
		return 0, err
	}
	invoices, err := s.repo.ListUnsettled(ctx, s.db)
	if err != nil {
		return 0, err
	}

	updated := 0
	for i := range invoices {
		before := invoices[i].Status
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			fresh, err := s.repo.FindByIDForUpdate(ctx, tx, invoices[i].ID)
			if err != nil {
				return err
			}
			if err := s.recomputeLocked(ctx, tx, fresh, rates); err != nil {
				return err
			}
			invoices[i] = *fresh
			return nil
		})
		if err != nil {
			s.log.Error("invoice recompute failed",
				zap.String("invoice_id", invoices[i].ID.String()), zap.Error(err))
			continue
		}
		if invoices[i].Status != before {
			updated++
		}
	}
	return updated, nil
}

// Delete removes an invoice only when no payments reference it,
// approved or not.
func (s *Service) Delete(ctx context.Context, invoiceID snowflake.ID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.repo.FindByID(ctx, tx, invoiceID); err != nil {
			return err
		}
		payments, err := s.repo.CountPayments(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if payments > 0 {
			return invoicedomain.ErrInvoiceHasPayments
		}
		return s.repo.Delete(ctx, tx, invoiceID)
	})
}
