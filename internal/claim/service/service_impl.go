package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	assetdomain "github.com/segurosandina/backoffice/internal/asset/domain"
	claimdomain "github.com/segurosandina/backoffice/internal/claim/domain"
	"github.com/segurosandina/backoffice/internal/clock"
	"github.com/segurosandina/backoffice/internal/indemnity"
	"github.com/segurosandina/backoffice/internal/notification"
	obsmetrics "github.com/segurosandina/backoffice/internal/observability/metrics"
	policydomain "github.com/segurosandina/backoffice/internal/policy/domain"
	taxdomain "github.com/segurosandina/backoffice/internal/taxconfig/domain"
	"github.com/segurosandina/backoffice/pkg/calendar"
	"github.com/segurosandina/backoffice/pkg/validation"
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
	Repo       claimdomain.Repository
	PolicyRepo policydomain.Repository
	AssetRepo  assetdomain.Repository
	Taxes      taxdomain.Provider
	Notifier   notification.Notifier
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       claimdomain.Repository
	policyRepo policydomain.Repository
	assetRepo  assetdomain.Repository
	taxes      taxdomain.Provider
	notifier   notification.Notifier
	metrics    *obsmetrics.Metrics
}

func New(p Params) claimdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("claim.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		policyRepo: p.PolicyRepo,
		assetRepo:  p.AssetRepo,
		taxes:      p.Taxes,
		notifier:   p.Notifier,
		metrics:    p.Metrics,
	}
}

func (s *Service) Register(ctx context.Context, req claimdomain.RegisterRequest) (*claimdomain.Claim, error) {
	now := s.clock.Now()

	ve := validation.Errors{}
	if strings.TrimSpace(req.ClaimType) == "" {
		ve.Add("claim_type", "required")
	}
	if !req.EstimatedLoss.IsPositive() {
		ve.Add("estimated_loss", "must be greater than zero")
	}
	if req.LossDate.IsZero() {
		ve.Add("loss_date", "required")
	} else if req.LossDate.After(now) {
		ve.Add("loss_date", "must not be in the future")
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	policyID := req.PolicyID
	if req.AssetID != nil {
		asset, err := s.assetRepo.FindByID(ctx, s.db, *req.AssetID)
		if err != nil {
			return nil, err
		}
		if policyID == 0 {
			policyID = asset.PolicyID
		} else if policyID != asset.PolicyID {
			ve.Add("asset_id", "asset belongs to a different policy")
			return nil, ve
		}
	}
	if policyID == 0 {
		ve.Add("policy_id", "a policy or an insured asset is required")
		return nil, ve
	}

	policy, err := s.policyRepo.FindPolicy(ctx, s.db, policyID)
	if err != nil {
		return nil, err
	}
	if !policy.Covers(req.LossDate) {
		ve.Add("loss_date", "outside the policy coverage window")
		return nil, ve
	}

	id := s.genID.Generate()
	claim := &claimdomain.Claim{
		ID:            id,
		Number:        fmt.Sprintf("CLM-%s-%d", now.Format("20060102"), id),
		PolicyID:      policyID,
		AssetID:       req.AssetID,
		ClaimType:     strings.TrimSpace(req.ClaimType),
		LossDate:      req.LossDate,
		EstimatedLoss: req.EstimatedLoss,
		Description:   req.Description,
		State:         claimdomain.StateRegistered,
		RegisteredAt:  now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, s.db, claim); err != nil {
		return nil, err
	}

	s.log.Info("claim registered",
		zap.String("claim_id", claim.ID.String()),
		zap.String("number", claim.Number),
		zap.String("policy_id", policyID.String()))
	return claim, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*claimdomain.Claim, error) {
	return s.repo.FindByID(ctx, s.db, id)
}

// apply runs one transition inside a transaction against a locked
// fresh read, so concurrent calls on the same claim serialize and the
// loser fails its state check instead of double-applying.
func (s *Service) apply(ctx context.Context, id snowflake.ID, mutate func(claim *claimdomain.Claim, now time.Time) error) (*claimdomain.Claim, error) {
	var claim *claimdomain.Claim
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		claim, err = s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		from := claim.State
		now := s.clock.Now()
		if err := mutate(claim, now); err != nil {
			var invalid *claimdomain.InvalidTransitionError
			if errors.As(err, &invalid) && s.metrics != nil {
				s.metrics.IncTransitionDenied(invalid.Attempted, string(invalid.Current))
			}
			return err
		}

		claim.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, claim); err != nil {
			return err
		}
		if s.metrics != nil {
			s.metrics.IncClaimTransition(string(from), string(claim.State))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

func (s *Service) NotifyBroker(ctx context.Context, id snowflake.ID) (*claimdomain.Claim, error) {
	claim, err := s.apply(ctx, id, func(c *claimdomain.Claim, now time.Time) error {
		return c.NotifyBroker(now)
	})
	if err != nil {
		return nil, err
	}
	s.notifyBroker(ctx, claim)
	return claim, nil
}

// notifyBroker emails the policy's broker after the transition has
// committed. Delivery failure never rolls back the state change.
func (s *Service) notifyBroker(ctx context.Context, claim *claimdomain.Claim) {
	policy, err := s.policyRepo.FindPolicy(ctx, s.db, claim.PolicyID)
	if err != nil {
		s.log.Warn("broker lookup for notification failed", zap.Error(err))
		return
	}
	broker, err := s.policyRepo.FindBroker(ctx, s.db, policy.BrokerID)
	if err != nil || broker.Email == "" {
		s.log.Warn("broker has no notification address",
			zap.String("claim_id", claim.ID.String()))
		return
	}
	subject := fmt.Sprintf("Claim %s registered against policy %s", claim.Number, policy.Number)
	body := fmt.Sprintf("Loss of %s reported on %s. Please acknowledge.",
		claim.EstimatedLoss.StringFixed(2), claim.LossDate.Format("2006-01-02"))
	if err := s.notifier.Send(ctx, []string{broker.Email}, subject, body); err != nil {
		s.log.Warn("broker notification failed", zap.Error(err))
	}
}

func (s *Service) RecordBrokerResponse(ctx context.Context, id snowflake.ID, origin string) (*claimdomain.Claim, error) {
	return s.apply(ctx, id, func(c *claimdomain.Claim, now time.Time) error {
		return c.RecordBrokerResponse(origin, now)
	})
}

func (s *Service) SubmitToInsurer(ctx context.Context, id snowflake.ID) (*claimdomain.Claim, error) {
	return s.apply(ctx, id, func(c *claimdomain.Claim, now time.Time) error {
		return c.SubmitToInsurer(now)
	})
}

func (s *Service) RecordReceipt(ctx context.Context, id snowflake.ID, origin string, figures claimdomain.ReceiptFigures) (*claimdomain.Claim, error) {
	return s.apply(ctx, id, func(c *claimdomain.Claim, now time.Time) error {
		return c.RecordReceipt(origin, figures, now)
	})
}

func (s *Service) OpenDispute(ctx context.Context, id snowflake.ID, reason string) (*claimdomain.Claim, error) {
	return s.apply(ctx, id, func(c *claimdomain.Claim, now time.Time) error {
		return c.OpenDispute(reason, now)
	})
}

func (s *Service) ResolveDispute(ctx context.Context, id snowflake.ID, resolution string) (*claimdomain.Claim, error) {
	return s.apply(ctx, id, func(c *claimdomain.Claim, now time.Time) error {
		return c.ResolveDispute(resolution, now)
	})
}

func (s *Service) SignReceipt(ctx context.Context, id snowflake.ID) (*claimdomain.Claim, error) {
	return s.apply(ctx, id, func(c *claimdomain.Claim, now time.Time) error {
		return c.SignReceipt(now)
	})
}

// SendToLiquidation stamps the payout deadline from a fresh rates
// snapshot: now plus the configured business hours, weekends skipped.
func (s *Service) SendToLiquidation(ctx context.Context, id snowflake.ID) (*claimdomain.Claim, error) {
	rates, err := s.taxes.Rates(ctx)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, id, func(c *claimdomain.Claim, now time.Time) error {
		due := calendar.AddBusinessHours(now, rates.LiquidationDeadlineHours)
		return c.SendToLiquidation(now, due)
	})
}

func (s *Service) RegisterLiquidation(ctx context.Context, id snowflake.ID, info claimdomain.LiquidationInfo) (*claimdomain.Claim, error) {
	if !info.Amount.IsPositive() {
		ve := validation.Errors{}
		ve.Add("amount", "must be greater than zero")
		return nil, ve
	}
	return s.apply(ctx, id, func(c *claimdomain.Claim, now time.Time) error {
		return c.RegisterLiquidation(info, now)
	})
}

func (s *Service) Close(ctx context.Context, id snowflake.ID) (*claimdomain.Claim, error) {
	return s.apply(ctx, id, func(c *claimdomain.Claim, now time.Time) error {
		return c.Close(now)
	})
}

func (s *Service) Reject(ctx context.Context, id snowflake.ID, reason string) (*claimdomain.Claim, error) {
	return s.apply(ctx, id, func(c *claimdomain.Claim, now time.Time) error {
		return c.Reject(reason, now)
	})
}

// Detail recomputes the settlement math from the policy's current
// deductible terms and the asset's current values on every call.
func (s *Service) Detail(ctx context.Context, id snowflake.ID) (*claimdomain.Detail, error) {
	claim, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	policy, err := s.policyRepo.FindPolicy(ctx, s.db, claim.PolicyID)
	if err != nil {
		return nil, err
	}

	deductible := claim.Deductible
	if deductible.IsZero() {
		deductible = indemnity.ApplicableDeductible(indemnity.DeductibleTerms{
			Fixed:   policy.DeductibleFixed,
			Percent: policy.DeductiblePercent,
			Floor:   policy.DeductibleFloor,
		}, claim.EstimatedLoss)
	}
	indemnifiable := indemnity.IndemnifiableAmount(claim.EstimatedLoss, deductible, claim.Depreciation)

	under := indemnity.ApplyUnderinsurance(indemnifiable, nil, nil)
	if claim.AssetID != nil {
		asset, err := s.assetRepo.FindByID(ctx, s.db, *claim.AssetID)
		if err != nil {
			return nil, err
		}
		under = indemnity.ApplyUnderinsurance(indemnifiable, asset.InsuredValue, asset.ReplacementValue())
	}

	return &claimdomain.Detail{
		Claim:          claim,
		Deductible:     deductible,
		Indemnifiable:  indemnifiable,
		Underinsurance: under,
	}, nil
}
