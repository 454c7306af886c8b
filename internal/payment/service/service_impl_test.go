package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/segurosandina/backoffice/internal/clock"
	invoicedomain "github.com/segurosandina/backoffice/internal/invoice/domain"
	invoicerepo "github.com/segurosandina/backoffice/internal/invoice/repository"
	invoicesvc "github.com/segurosandina/backoffice/internal/invoice/service"
	paymentdomain "github.com/segurosandina/backoffice/internal/payment/domain"
	paymentrepo "github.com/segurosandina/backoffice/internal/payment/repository"
	policyrepo "github.com/segurosandina/backoffice/internal/policy/repository"
	taxdomain "github.com/segurosandina/backoffice/internal/taxconfig/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type ratesStub struct {
	rates taxdomain.Rates
}

func (r *ratesStub) Rates(ctx context.Context) (taxdomain.Rates, error) { return r.rates, nil }

func (r *ratesStub) Decimal(ctx context.Context, key string) (decimal.Decimal, error) {
	return decimal.Zero, errors.New("not implemented")
}

func (r *ratesStub) Int(ctx context.Context, key string) (int, error) {
	return 0, errors.New("not implemented")
}

func (r *ratesStub) EmissionFees(ctx context.Context) (taxdomain.EmissionFeeTable, error) {
	return nil, errors.New("not implemented")
}

func (r *ratesStub) Set(ctx context.Context, key string, value any) error {
	return errors.New("not implemented")
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testRates() taxdomain.Rates {
	return taxdomain.Rates{
		SuperintendencyRate: dec("0.035"),
		AgriculturalRate:    dec("0.005"),
		VATRate:             dec("0.15"),
		EmissionFees: taxdomain.EmissionFeeTable{
			{UpperBound: nil, Fee: dec("9.00")},
		},
		EarlyPaymentDiscountRate: dec("0.05"),
		EarlyPaymentWindowDays:   20,
	}
}

type fixture struct {
	db         *gorm.DB
	node       *snowflake.Node
	clock      *clock.FakeClock
	payments   paymentdomain.Service
	invoices   invoicedomain.Service
	invoiceRep invoicedomain.Repository
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&invoicedomain.Invoice{}, &paymentdomain.Payment{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	fake := clock.NewFakeClock(time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC))
	taxes := &ratesStub{rates: testRates()}
	log := zap.NewNop()

	invRepo := invoicerepo.Provide()
	invSvc := invoicesvc.New(invoicesvc.Params{
		DB:         db,
		Log:        log,
		GenID:      node,
		Clock:      fake,
		Repo:       invRepo,
		PolicyRepo: policyrepo.Provide(),
		Taxes:      taxes,
	})
	paySvc := New(Params{
		DB:          db,
		Log:         log,
		GenID:       node,
		Clock:       fake,
		Repo:        paymentrepo.Provide(),
		InvoiceRepo: invRepo,
		InvoiceSvc:  invSvc,
	})

	return &fixture{
		db:         db,
		node:       node,
		clock:      fake,
		payments:   paySvc,
		invoices:   invSvc,
		invoiceRep: invRepo,
	}
}

// plainInvoice stores an invoice whose total equals its subtotal, with
// an issue date far enough back that no discount window is open.
func (f *fixture) plainInvoice(t *testing.T, total string) *invoicedomain.Invoice {
	t.Helper()
	now := f.clock.Now()
	invoice := &invoicedomain.Invoice{
		ID:        f.node.Generate(),
		PolicyID:  f.node.Generate(),
		Number:    fmt.Sprintf("INV-%d", f.node.Generate()),
		IssueDate: now.AddDate(0, -3, 0),
		DueDate:   now.AddDate(0, 1, 0),
		Subtotal:  dec(total),
		Total:     dec(total),
		Status:    invoicedomain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := f.invoiceRep.Create(context.Background(), f.db, invoice); err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	return invoice
}

func (f *fixture) record(t *testing.T, invoiceID snowflake.ID, amount string, paidAt time.Time) *paymentdomain.Payment {
	t.Helper()
	payment, err := f.payments.Record(context.Background(), paymentdomain.RecordRequest{
		InvoiceID: invoiceID,
		Amount:    dec(amount),
		PaidAt:    paidAt,
	})
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	return payment
}

func TestApproveRejectsOverpayment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	invoice := f.plainInvoice(t, "1000")

	full := f.record(t, invoice.ID, "1000", f.clock.Now())
	if _, err := f.payments.Approve(ctx, full.ID); err != nil {
		t.Fatalf("approve full payment: %v", err)
	}

	extra := f.record(t, invoice.ID, "0.50", f.clock.Now())
	_, err := f.payments.Approve(ctx, extra.ID)
	var overpayment *paymentdomain.OverpaymentError
	if !errors.As(err, &overpayment) {
		t.Fatalf("expected OverpaymentError, got %v", err)
	}
	if !overpayment.Approved.Equal(dec("1000")) {
		t.Fatalf("reported approved total = %s, want 1000", overpayment.Approved)
	}

	sum, err := f.invoiceRep.ApprovedPaymentsSum(ctx, f.db, invoice.ID)
	if err != nil {
		t.Fatalf("approved sum: %v", err)
	}
	if !sum.Equal(dec("1000")) {
		t.Fatalf("paid total = %s, want 1000", sum)
	}

	stored, err := f.payments.Reject(ctx, extra.ID)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if stored.Status != paymentdomain.StatusRejected {
		t.Fatalf("status = %s, want rejected", stored.Status)
	}
}

func TestApproveDerivesInvoiceStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	invoice := f.plainInvoice(t, "1000")

	partial := f.record(t, invoice.ID, "400", f.clock.Now())
	if _, err := f.payments.Approve(ctx, partial.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	fresh, err := f.invoices.Get(ctx, invoice.ID)
	if err != nil {
		t.Fatalf("get invoice: %v", err)
	}
	if fresh.Status != invoicedomain.StatusPartial {
		t.Fatalf("status = %s, want partial", fresh.Status)
	}

	rest := f.record(t, invoice.ID, "600", f.clock.Now())
	if _, err := f.payments.Approve(ctx, rest.ID); err != nil {
		t.Fatalf("approve rest: %v", err)
	}
	fresh, err = f.invoices.Get(ctx, invoice.ID)
	if err != nil {
		t.Fatalf("get invoice: %v", err)
	}
	if fresh.Status != invoicedomain.StatusPaid {
		t.Fatalf("status = %s, want paid", fresh.Status)
	}
}

func TestApproveIsIdempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	invoice := f.plainInvoice(t, "1000")

	payment := f.record(t, invoice.ID, "1000", f.clock.Now())
	if _, err := f.payments.Approve(ctx, payment.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	// Second approval of the same payment must not trip the
	// overpayment check against its own amount.
	if _, err := f.payments.Approve(ctx, payment.ID); err != nil {
		t.Fatalf("re-approve: %v", err)
	}

	sum, err := f.invoiceRep.ApprovedPaymentsSum(ctx, f.db, invoice.ID)
	if err != nil {
		t.Fatalf("approved sum: %v", err)
	}
	if !sum.Equal(dec("1000")) {
		t.Fatalf("paid total = %s, want 1000", sum)
	}
}

func TestEarlyPaymentDiscountApplied(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	now := f.clock.Now()
	invoice := &invoicedomain.Invoice{
		ID:        f.node.Generate(),
		PolicyID:  f.node.Generate(),
		Number:    "INV-DISCOUNT",
		IssueDate: now,
		DueDate:   now.AddDate(0, 2, 0),
		Subtotal:  dec("1000"),
		Total:     dec("1000"),
		Status:    invoicedomain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := f.invoiceRep.Create(ctx, f.db, invoice); err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	payment := f.record(t, invoice.ID, "950", now.AddDate(0, 0, 10))
	if _, err := f.payments.Approve(ctx, payment.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	fresh, err := f.invoices.Get(ctx, invoice.ID)
	if err != nil {
		t.Fatalf("get invoice: %v", err)
	}
	if !fresh.EarlyPaymentDiscount.Equal(dec("50")) {
		t.Fatalf("discount = %s, want 50", fresh.EarlyPaymentDiscount)
	}
	if !fresh.Total.Equal(dec("950")) {
		t.Fatalf("total = %s, want 950", fresh.Total)
	}
	if fresh.Status != invoicedomain.StatusPaid {
		t.Fatalf("status = %s, want paid", fresh.Status)
	}
}

func TestRemoveTriggersRecompute(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	invoice := f.plainInvoice(t, "1000")

	payment := f.record(t, invoice.ID, "1000", f.clock.Now())
	if _, err := f.payments.Approve(ctx, payment.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := f.payments.Remove(ctx, payment.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	fresh, err := f.invoices.Get(ctx, invoice.ID)
	if err != nil {
		t.Fatalf("get invoice: %v", err)
	}
	if fresh.Status != invoicedomain.StatusPending {
		t.Fatalf("status = %s, want pending", fresh.Status)
	}
}
