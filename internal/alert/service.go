// Package alert implements the periodic claim scans: flagging expired
// liquidation deadlines and chasing silent brokers and insurers.
package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	claimdomain "github.com/segurosandina/backoffice/internal/claim/domain"
	"github.com/segurosandina/backoffice/internal/clock"
	"github.com/segurosandina/backoffice/internal/notification"
	policydomain "github.com/segurosandina/backoffice/internal/policy/domain"
	taxdomain "github.com/segurosandina/backoffice/internal/taxconfig/domain"
	"github.com/segurosandina/backoffice/pkg/calendar"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	ClaimRepo  claimdomain.Repository
	PolicyRepo policydomain.Repository
	Taxes      taxdomain.Provider
	Notifier   notification.Notifier
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	claimRepo  claimdomain.Repository
	policyRepo policydomain.Repository
	taxes      taxdomain.Provider
	notifier   notification.Notifier
}

func New(p Params) *Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("alert.service"),
		clock:      p.Clock,
		claimRepo:  p.ClaimRepo,
		policyRepo: p.PolicyRepo,
		taxes:      p.Taxes,
		notifier:   p.Notifier,
	}
}

// ScanLiquidationDeadlines moves overdue pending liquidations to
// deadline_exceeded and sends the alert once per claim. Idempotent: a
// claim already flagged is never picked up again.
func (s *Service) ScanLiquidationDeadlines(ctx context.Context) (int, error) {
	now := s.clock.Now()
	due, err := s.claimRepo.ListPendingLiquidationDue(ctx, s.db, now)
	if err != nil {
		return 0, err
	}

	flagged := 0
	for i := range due {
		var notify bool
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			claim, err := s.claimRepo.FindByIDForUpdate(ctx, tx, due[i].ID)
			if err != nil {
				return err
			}
			if err := claim.MarkDeadlineExceeded(now); err != nil {
				// Raced with a liquidation or a concurrent scan.
				return nil
			}
			notify = !claim.DeadlineNotified
			claim.DeadlineNotified = true
			claim.UpdatedAt = now
			due[i] = *claim
			return s.claimRepo.Update(ctx, tx, claim)
		})
		if err != nil {
			s.log.Error("deadline scan item failed",
				zap.String("claim_id", due[i].ID.String()), zap.Error(err))
			continue
		}
		if notify {
			s.sendDeadlineAlert(ctx, &due[i])
			flagged++
		}
	}
	return flagged, nil
}

func (s *Service) sendDeadlineAlert(ctx context.Context, claim *claimdomain.Claim) {
	recipients := s.brokerRecipients(ctx, claim.PolicyID)
	subject := fmt.Sprintf("Claim %s liquidation deadline exceeded", claim.Number)
	body := fmt.Sprintf("The liquidation sent on %s was due by %s and has not been registered.",
		formatTime(claim.LiquidationSentAt), formatTime(claim.LiquidationDueAt))
	if err := s.notifier.Send(ctx, recipients, subject, body); err != nil {
		s.log.Warn("deadline alert delivery failed",
			zap.String("claim_id", claim.ID.String()), zap.Error(err))
	}
}

// ScanResponseAlerts chases brokers who have not acknowledged a
// notification and insurers who have not produced a receipt within the
// configured thresholds.
func (s *Service) ScanResponseAlerts(ctx context.Context) (int, error) {
	rates, err := s.taxes.Rates(ctx)
	if err != nil {
		return 0, err
	}
	now := s.clock.Now()
	sent := 0

	notified, err := s.claimRepo.ListInState(ctx, s.db, claimdomain.StateBrokerNotified)
	if err != nil {
		return sent, err
	}
	for i := range notified {
		if !notified[i].RequiresBrokerAlert(now, rates.ClaimDocsAlertDays) {
			continue
		}
		waiting := calendar.BusinessDaysBetween(*notified[i].BrokerNotifiedAt, now)
		subject := fmt.Sprintf("Claim %s awaiting broker response", notified[i].Number)
		body := fmt.Sprintf("No broker response for %d business days.", waiting)
		if err := s.notifier.Send(ctx, s.brokerRecipients(ctx, notified[i].PolicyID), subject, body); err != nil {
			s.log.Warn("broker alert delivery failed",
				zap.String("claim_id", notified[i].ID.String()), zap.Error(err))
			continue
		}
		sent++
	}

	submitted, err := s.claimRepo.ListInState(ctx, s.db, claimdomain.StateInsurerSubmitted)
	if err != nil {
		return sent, err
	}
	for i := range submitted {
		if !submitted[i].RequiresInsurerResponseAlert(now, rates.InsurerResponseAlertDays) {
			continue
		}
		waiting := calendar.BusinessDaysBetween(*submitted[i].InsurerSubmittedAt, now)
		subject := fmt.Sprintf("Claim %s awaiting insurer receipt", submitted[i].Number)
		body := fmt.Sprintf("No insurer receipt for %d business days.", waiting)
		if err := s.notifier.Send(ctx, s.brokerRecipients(ctx, submitted[i].PolicyID), subject, body); err != nil {
			s.log.Warn("insurer alert delivery failed",
				zap.String("claim_id", submitted[i].ID.String()), zap.Error(err))
			continue
		}
		sent++
	}
	return sent, nil
}

func (s *Service) brokerRecipients(ctx context.Context, policyID snowflake.ID) []string {
	policy, err := s.policyRepo.FindPolicy(ctx, s.db, policyID)
	if err != nil {
		return nil
	}
	broker, err := s.policyRepo.FindBroker(ctx, s.db, policy.BrokerID)
	if err != nil || broker.Email == "" {
		return nil
	}
	return []string{broker.Email}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "unknown"
	}
	return t.Format("2006-01-02 15:04")
}

var Module = fx.Module("alert.service",
	fx.Provide(New),
)
