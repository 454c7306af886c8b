package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/segurosandina/backoffice/internal/clock"
	invoicedomain "github.com/segurosandina/backoffice/internal/invoice/domain"
	paymentdomain "github.com/segurosandina/backoffice/internal/payment/domain"
	"github.com/segurosandina/backoffice/pkg/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// overpaymentTolerance absorbs one-cent rounding differences between
// bank statements and invoice totals.
var overpaymentTolerance = decimal.NewFromFloat(0.01)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        paymentdomain.Repository
	InvoiceRepo invoicedomain.Repository
	InvoiceSvc  invoicedomain.Service
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        paymentdomain.Repository
	invoiceRepo invoicedomain.Repository
	invoiceSvc  invoicedomain.Service
}

func New(p Params) paymentdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("payment.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		invoiceRepo: p.InvoiceRepo,
		invoiceSvc:  p.InvoiceSvc,
	}
}

func (s *Service) Record(ctx context.Context, req paymentdomain.RecordRequest) (*paymentdomain.Payment, error) {
	ve := validation.Errors{}
	if !req.Amount.IsPositive() {
		ve.Add("amount", "must be greater than zero")
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	if _, err := s.invoiceRepo.FindByID(ctx, s.db, req.InvoiceID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	paidAt := req.PaidAt
	if paidAt.IsZero() {
		paidAt = now
	}
	payment := &paymentdomain.Payment{
		ID:        s.genID.Generate(),
		InvoiceID: req.InvoiceID,
		Amount:    req.Amount,
		PaidAt:    paidAt,
		Status:    paymentdomain.StatusPending,
		Reference: req.Reference,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, s.db, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *Service) Approve(ctx context.Context, paymentID snowflake.ID) (*paymentdomain.Payment, error) {
	var payment *paymentdomain.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		payment, err = s.repo.FindByIDForUpdate(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if payment.Status == paymentdomain.StatusApproved {
			return nil
		}

		// Locking the invoice row serializes concurrent approvals
		// against the same invoice; the balance below is read inside
		// the same transaction as the status write.
		invoice, err := s.invoiceRepo.FindByIDForUpdate(ctx, tx, payment.InvoiceID)
		if err != nil {
			return err
		}
		approvedSum, err := s.invoiceRepo.ApprovedPaymentsSum(ctx, tx, invoice.ID)
		if err != nil {
			return err
		}
		if approvedSum.Add(payment.Amount).GreaterThan(invoice.Total.Add(overpaymentTolerance)) {
			return &paymentdomain.OverpaymentError{
				InvoiceID:    invoice.ID,
				InvoiceTotal: invoice.Total,
				Approved:     approvedSum,
				Attempted:    payment.Amount,
			}
		}

		payment.Status = paymentdomain.StatusApproved
		payment.UpdatedAt = s.clock.Now()
		return s.repo.Update(ctx, tx, payment)
	})
	if err != nil {
		return nil, err
	}

	s.recomputeInvoice(ctx, payment.InvoiceID)
	return payment, nil
}

func (s *Service) Reject(ctx context.Context, paymentID snowflake.ID) (*paymentdomain.Payment, error) {
	var payment *paymentdomain.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		payment, err = s.repo.FindByIDForUpdate(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if payment.Status == paymentdomain.StatusRejected {
			return nil
		}
		payment.Status = paymentdomain.StatusRejected
		payment.UpdatedAt = s.clock.Now()
		return s.repo.Update(ctx, tx, payment)
	})
	if err != nil {
		return nil, err
	}

	s.recomputeInvoice(ctx, payment.InvoiceID)
	return payment, nil
}

func (s *Service) Remove(ctx context.Context, paymentID snowflake.ID) error {
	payment, err := s.repo.FindByID(ctx, s.db, paymentID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, s.db, paymentID); err != nil {
		return err
	}
	s.recomputeInvoice(ctx, payment.InvoiceID)
	return nil
}

// recomputeInvoice refreshes the invoice after a payment change. A
// failure here leaves a stale status until the periodic recompute;
// the payment write itself already committed.
func (s *Service) recomputeInvoice(ctx context.Context, invoiceID snowflake.ID) {
	if _, err := s.invoiceSvc.Recompute(ctx, invoiceID); err != nil {
		s.log.Warn("invoice recompute after payment change failed",
			zap.String("invoice_id", invoiceID.String()), zap.Error(err))
	}
}
