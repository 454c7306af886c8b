package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/segurosandina/backoffice/internal/clock"
	policydomain "github.com/segurosandina/backoffice/internal/policy/domain"
	policyrepo "github.com/segurosandina/backoffice/internal/policy/repository"
	taxdomain "github.com/segurosandina/backoffice/internal/taxconfig/domain"
	"github.com/segurosandina/backoffice/pkg/validation"
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

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func testRates() taxdomain.Rates {
	return taxdomain.Rates{
		SuperintendencyRate: dec("0.035"),
		AgriculturalRate:    dec("0.005"),
		VATRate:             dec("0.15"),
		EmissionFees: taxdomain.EmissionFeeTable{
			{UpperBound: decPtr("250"), Fee: dec("0.50")},
			{UpperBound: nil, Fee: dec("9.00")},
		},
		PolicyExpiryAlertDays: 30,
	}
}

type fixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	clock    *clock.FakeClock
	svc      policydomain.Service
	taxes    *ratesStub
	insurer  *policydomain.Insurer
	broker   *policydomain.Broker
	outsider *policydomain.Broker
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&policydomain.Insurer{},
		&policydomain.Broker{},
		&policydomain.Policy{},
		&policydomain.PolicyLineItem{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// The protected delete inspects these even when empty.
	db.Exec("CREATE TABLE IF NOT EXISTS invoices (id INTEGER PRIMARY KEY, policy_id INTEGER)")
	db.Exec("CREATE TABLE IF NOT EXISTS claims (id INTEGER PRIMARY KEY, policy_id INTEGER)")

	node, err := snowflake.NewNode(4)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	fake := clock.NewFakeClock(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))
	repo := policyrepo.Provide()
	taxes := &ratesStub{rates: testRates()}

	ctx := context.Background()
	insurer := &policydomain.Insurer{ID: node.Generate(), Name: "Aseguradora Andina"}
	other := &policydomain.Insurer{ID: node.Generate(), Name: "Competidora"}
	for _, ins := range []*policydomain.Insurer{insurer, other} {
		if err := repo.CreateInsurer(ctx, db, ins); err != nil {
			t.Fatalf("create insurer: %v", err)
		}
	}
	broker := &policydomain.Broker{ID: node.Generate(), InsurerID: insurer.ID, Name: "Corredora Sur"}
	outsider := &policydomain.Broker{ID: node.Generate(), InsurerID: other.ID, Name: "Corredora Norte"}
	for _, b := range []*policydomain.Broker{broker, outsider} {
		if err := repo.CreateBroker(ctx, db, b); err != nil {
			t.Fatalf("create broker: %v", err)
		}
	}

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  repo,
		Taxes: taxes,
	})

	return &fixture{
		db: db, node: node, clock: fake, svc: svc, taxes: taxes,
		insurer: insurer, broker: broker, outsider: outsider,
	}
}

func (f *fixture) createRequest() policydomain.CreateRequest {
	return policydomain.CreateRequest{
		Number:     "POL-3001",
		InsurerID:  f.insurer.ID,
		BrokerID:   f.broker.ID,
		StartDate:  time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC),
		InsuredSum: dec("100000"),
		NetPremium: dec("1000"),
		LineItems: []policydomain.LineItemInput{
			{CoverageSubtype: "fire", InsuredSum: dec("100000"), Rate: dec("1")},
		},
	}
}

func TestCreateComputesLineItemCascade(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	policy, err := f.svc.Create(ctx, f.createRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, items, err := f.svc.Get(ctx, policy.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("line items = %d, want 1", len(items))
	}
	item := items[0]
	// premium = 100000 × 1/100 = 1000; contributions 35 + 5; fee 9;
	// tax base 1049; vat 157.35.
	if !item.Premium.Equal(dec("1000")) {
		t.Fatalf("premium = %s, want 1000", item.Premium)
	}
	if !item.TaxBase.Equal(dec("1049")) {
		t.Fatalf("tax base = %s, want 1049", item.TaxBase)
	}
	if !item.VAT.Equal(dec("157.35")) {
		t.Fatalf("vat = %s, want 157.35", item.VAT)
	}
	if !policy.TotalPremium.Equal(item.TotalInvoiced) {
		t.Fatalf("total premium = %s, want %s", policy.TotalPremium, item.TotalInvoiced)
	}
}

func TestCreateRejectsForeignBroker(t *testing.T) {
	f := setup(t)

	req := f.createRequest()
	req.BrokerID = f.outsider.ID
	_, err := f.svc.Create(context.Background(), req)
	if ve, ok := validation.AsErrors(err); !ok || ve["broker_id"] == "" {
		t.Fatalf("expected broker_id validation error, got %v", err)
	}
}

func TestCreateRejectsOverlappingNumber(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, f.createRequest()); err != nil {
		t.Fatalf("first create: %v", err)
	}

	// Same number, same insurer, overlapping window.
	dup := f.createRequest()
	dup.StartDate = time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	dup.EndDate = time.Date(2026, time.May, 31, 0, 0, 0, 0, time.UTC)
	_, err := f.svc.Create(ctx, dup)
	if ve, ok := validation.AsErrors(err); !ok || ve["number"] == "" {
		t.Fatalf("expected number validation error, got %v", err)
	}

	// Same number after the first expired: allowed (renewal).
	renewal := f.createRequest()
	renewal.StartDate = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	renewal.EndDate = time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC)
	if _, err := f.svc.Create(ctx, renewal); err != nil {
		t.Fatalf("renewal create: %v", err)
	}
}

func TestRecalculatePicksUpNewRates(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	policy, err := f.svc.Create(ctx, f.createRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Operator doubles the VAT rate; recalculation must re-derive
	// every stored cascade column.
	f.taxes.rates.VATRate = dec("0.30")
	if _, err := f.svc.Recalculate(ctx, policy.ID); err != nil {
		t.Fatalf("recalculate: %v", err)
	}

	_, items, err := f.svc.Get(ctx, policy.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !items[0].VAT.Equal(dec("314.70")) {
		t.Fatalf("vat = %s, want 314.70", items[0].VAT)
	}
}

func TestDeleteProtectedByLineItems(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	policy, err := f.svc.Create(ctx, f.createRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	err = f.svc.Delete(ctx, policy.ID)
	if !errors.Is(err, policydomain.ErrPolicyInUse) {
		t.Fatalf("expected ErrPolicyInUse, got %v", err)
	}

	// A policy without children deletes cleanly.
	bare := f.createRequest()
	bare.Number = "POL-3002"
	bare.LineItems = nil
	barePolicy, err := f.svc.Create(ctx, bare)
	if err != nil {
		t.Fatalf("create bare: %v", err)
	}
	if err := f.svc.Delete(ctx, barePolicy.ID); err != nil {
		t.Fatalf("delete bare: %v", err)
	}
}

func TestRefreshStatuses(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	policy, err := f.svc.Create(ctx, f.createRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if policy.Status != policydomain.StatusActive {
		t.Fatalf("status = %s, want active", policy.Status)
	}

	// Jump past the coverage end.
	f.clock.Set(time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC))
	updated, err := f.svc.RefreshStatuses(ctx)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if updated != 1 {
		t.Fatalf("updated = %d, want 1", updated)
	}

	fresh, _, err := f.svc.Get(ctx, policy.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fresh.Status != policydomain.StatusExpired {
		t.Fatalf("status = %s, want expired", fresh.Status)
	}

	// Idempotent: a second run changes nothing.
	updated, err = f.svc.RefreshStatuses(ctx)
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if updated != 0 {
		t.Fatalf("second refresh updated = %d, want 0", updated)
	}
}
