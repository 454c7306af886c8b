package alert

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	claimdomain "github.com/segurosandina/backoffice/internal/claim/domain"
	claimrepo "github.com/segurosandina/backoffice/internal/claim/repository"
	"github.com/segurosandina/backoffice/internal/clock"
	policydomain "github.com/segurosandina/backoffice/internal/policy/domain"
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

type notifierSpy struct {
	sent []string
}

func (n *notifierSpy) Send(ctx context.Context, recipients []string, subject, body string) error {
	n.sent = append(n.sent, subject)
	return nil
}

type fixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	clock    *clock.FakeClock
	svc      *Service
	notifier *notifierSpy
	repo     claimdomain.Repository
	policy   *policydomain.Policy
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(&policydomain.Insurer{}, &policydomain.Broker{}, &policydomain.Policy{}, &claimdomain.Claim{})
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(2)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	fake := clock.NewFakeClock(time.Date(2025, time.June, 12, 9, 0, 0, 0, time.UTC))
	spy := &notifierSpy{}
	pRepo := policyrepo.Provide()
	cRepo := claimrepo.Provide()

	ctx := context.Background()
	insurer := &policydomain.Insurer{ID: node.Generate(), Name: "Aseguradora Andina"}
	if err := pRepo.CreateInsurer(ctx, db, insurer); err != nil {
		t.Fatalf("create insurer: %v", err)
	}
	broker := &policydomain.Broker{ID: node.Generate(), InsurerID: insurer.ID, Name: "Corredora Sur", Email: "broker@example.com"}
	if err := pRepo.CreateBroker(ctx, db, broker); err != nil {
		t.Fatalf("create broker: %v", err)
	}
	policy := &policydomain.Policy{
		ID:        node.Generate(),
		Number:    "POL-2001",
		InsurerID: insurer.ID,
		BrokerID:  broker.ID,
		StartDate: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC),
		Status:    policydomain.StatusActive,
	}
	if err := pRepo.CreatePolicy(ctx, db, policy); err != nil {
		t.Fatalf("create policy: %v", err)
	}

	svc := New(Params{
		DB:         db,
		Log:        zap.NewNop(),
		Clock:      fake,
		ClaimRepo:  cRepo,
		PolicyRepo: pRepo,
		Taxes: &ratesStub{rates: taxdomain.Rates{
			ClaimDocsAlertDays:       30,
			InsurerResponseAlertDays: 8,
		}},
		Notifier: spy,
	})

	return &fixture{db: db, node: node, clock: fake, svc: svc, notifier: spy, repo: cRepo, policy: policy}
}

func (f *fixture) pendingLiquidation(t *testing.T, due time.Time) *claimdomain.Claim {
	t.Helper()
	sent := due.AddDate(0, 0, -3)
	claim := &claimdomain.Claim{
		ID:                f.node.Generate(),
		Number:            fmt.Sprintf("CLM-%d", f.node.Generate()),
		PolicyID:          f.policy.ID,
		ClaimType:         "theft",
		LossDate:          time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC),
		EstimatedLoss:     decimal.NewFromInt(5000),
		State:             claimdomain.StatePendingLiquidation,
		RegisteredAt:      sent.AddDate(0, 0, -10),
		LiquidationSentAt: &sent,
		LiquidationDueAt:  &due,
	}
	if err := f.repo.Create(context.Background(), f.db, claim); err != nil {
		t.Fatalf("create claim: %v", err)
	}
	return claim
}

func TestDeadlineScanFlagsAndNotifiesOnce(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	overdue := f.pendingLiquidation(t, f.clock.Now().Add(-time.Hour))
	notYet := f.pendingLiquidation(t, f.clock.Now().Add(24*time.Hour))

	flagged, err := f.svc.ScanLiquidationDeadlines(ctx)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if flagged != 1 {
		t.Fatalf("flagged = %d, want 1", flagged)
	}
	if len(f.notifier.sent) != 1 {
		t.Fatalf("notifications = %d, want 1", len(f.notifier.sent))
	}

	stored, err := f.repo.FindByID(ctx, f.db, overdue.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.State != claimdomain.StateDeadlineExceeded {
		t.Fatalf("state = %s, want deadline_exceeded", stored.State)
	}
	if !stored.DeadlineNotified {
		t.Fatal("notify-once flag not set")
	}

	untouched, err := f.repo.FindByID(ctx, f.db, notYet.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if untouched.State != claimdomain.StatePendingLiquidation {
		t.Fatalf("future-due claim moved to %s", untouched.State)
	}

	// Second run: nothing left to flag, no duplicate alert.
	flagged, err = f.svc.ScanLiquidationDeadlines(ctx)
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if flagged != 0 {
		t.Fatalf("second scan flagged = %d, want 0", flagged)
	}
	if len(f.notifier.sent) != 1 {
		t.Fatalf("notifications after second scan = %d, want 1", len(f.notifier.sent))
	}
}

func TestResponseAlertScan(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// Broker notified 40 days ago, threshold 30: alert.
	notifiedAt := f.clock.Now().AddDate(0, 0, -40)
	stale := &claimdomain.Claim{
		ID:               f.node.Generate(),
		Number:           fmt.Sprintf("CLM-%d", f.node.Generate()),
		PolicyID:         f.policy.ID,
		ClaimType:        "fire",
		LossDate:         notifiedAt.AddDate(0, 0, -1),
		EstimatedLoss:    decimal.NewFromInt(2000),
		State:            claimdomain.StateBrokerNotified,
		RegisteredAt:     notifiedAt,
		BrokerNotifiedAt: &notifiedAt,
	}
	if err := f.repo.Create(ctx, f.db, stale); err != nil {
		t.Fatalf("create claim: %v", err)
	}

	// Submitted yesterday, threshold 8 days: quiet.
	submittedAt := f.clock.Now().AddDate(0, 0, -1)
	recent := &claimdomain.Claim{
		ID:                 f.node.Generate(),
		Number:             fmt.Sprintf("CLM-%d", f.node.Generate()),
		PolicyID:           f.policy.ID,
		ClaimType:          "fire",
		LossDate:           submittedAt.AddDate(0, 0, -5),
		EstimatedLoss:      decimal.NewFromInt(2000),
		State:              claimdomain.StateInsurerSubmitted,
		RegisteredAt:       submittedAt.AddDate(0, 0, -5),
		InsurerSubmittedAt: &submittedAt,
	}
	if err := f.repo.Create(ctx, f.db, recent); err != nil {
		t.Fatalf("create claim: %v", err)
	}

	sent, err := f.svc.ScanResponseAlerts(ctx)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if sent != 1 {
		t.Fatalf("alerts sent = %d, want 1", sent)
	}
}
