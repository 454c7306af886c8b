package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/segurosandina/backoffice/internal/cascade"
	"github.com/segurosandina/backoffice/internal/clock"
	policydomain "github.com/segurosandina/backoffice/internal/policy/domain"
	taxdomain "github.com/segurosandina/backoffice/internal/taxconfig/domain"
	"github.com/segurosandina/backoffice/pkg/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var oneHundred = decimal.NewFromInt(100)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  policydomain.Repository
	Taxes taxdomain.Provider
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  policydomain.Repository
	taxes taxdomain.Provider
}

func New(p Params) policydomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("policy.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
		taxes: p.Taxes,
	}
}

func (s *Service) Create(ctx context.Context, req policydomain.CreateRequest) (*policydomain.Policy, error) {
	req.Number = strings.TrimSpace(req.Number)
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	broker, err := s.repo.FindBroker(ctx, s.db, req.BrokerID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.FindInsurer(ctx, s.db, req.InsurerID); err != nil {
		return nil, err
	}
	if broker.InsurerID != req.InsurerID {
		ve := validation.Errors{}
		ve.Add("broker_id", "broker is not accredited with this insurer")
		return nil, ve
	}

	overlapping, err := s.repo.CountOverlapping(ctx, s.db, req.Number, req.InsurerID, req.StartDate, req.EndDate, 0)
	if err != nil {
		return nil, err
	}
	if overlapping > 0 {
		ve := validation.Errors{}
		ve.Add("number", "another policy with this number overlaps the coverage window")
		return nil, ve
	}

	rates, err := s.taxes.Rates(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	policy := &policydomain.Policy{
		ID:                s.genID.Generate(),
		Number:            req.Number,
		InsurerID:         req.InsurerID,
		BrokerID:          req.BrokerID,
		CoverageGroup:     req.CoverageGroup,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		InsuredSum:        req.InsuredSum,
		NetPremium:        req.NetPremium,
		DeductibleFixed:   req.DeductibleFixed,
		DeductiblePercent: req.DeductiblePercent,
		DeductibleFloor:   req.DeductibleFloor,
		LargeTaxpayer:     req.LargeTaxpayer,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	policy.Status = policy.StatusAt(now, rates.PolicyExpiryAlertDays)

	items, total, err := s.buildLineItems(policy, req.LineItems, rates, now)
	if err != nil {
		return nil, err
	}
	policy.TotalPremium = total

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.CreatePolicy(ctx, tx, policy); err != nil {
			return err
		}
		return s.repo.CreateLineItems(ctx, tx, items)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("policy created",
		zap.String("policy_id", policy.ID.String()),
		zap.String("number", policy.Number),
		zap.Int("line_items", len(items)))
	return policy, nil
}

func validateCreate(req policydomain.CreateRequest) error {
	ve := validation.Errors{}
	if req.Number == "" {
		ve.Add("number", "required")
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		ve.Add("dates", "start and end dates are required")
	} else if !req.EndDate.After(req.StartDate) {
		ve.Add("end_date", "must be after the start date")
	}
	if !req.NetPremium.IsPositive() {
		ve.Add("net_premium", "must be greater than zero")
	}
	if req.InsuredSum.IsNegative() {
		ve.Add("insured_sum", "must not be negative")
	}
	if req.DeductiblePercent.IsNegative() || req.DeductiblePercent.GreaterThan(oneHundred) {
		ve.Add("deductible_percent", "must be between 0 and 100")
	}
	for _, item := range req.LineItems {
		if strings.TrimSpace(item.CoverageSubtype) == "" {
			ve.Add("line_items", "coverage subtype is required")
		}
		if item.Premium.IsNegative() || item.Rate.IsNegative() {
			ve.Add("line_items", "premium and rate must not be negative")
		}
	}
	return ve.OrNil()
}

// buildLineItems runs the cascade for each coverage entry. The policy's
// total premium is the sum of the line totals, or the cascade total of
// the net premium when no breakdown is given.
func (s *Service) buildLineItems(policy *policydomain.Policy, inputs []policydomain.LineItemInput, rates taxdomain.Rates, now time.Time) ([]policydomain.PolicyLineItem, decimal.Decimal, error) {
	if len(inputs) == 0 {
		result, err := cascade.Compute(policy.NetPremium, policy.LargeTaxpayer, rates)
		if err != nil {
			return nil, decimal.Zero, err
		}
		return nil, result.TotalInvoiced, nil
	}

	items := make([]policydomain.PolicyLineItem, 0, len(inputs))
	total := decimal.Zero
	for _, in := range inputs {
		premium := in.Premium
		if premium.IsZero() && in.Rate.IsPositive() {
			premium = cascade.PremiumFromRate(in.InsuredSum, in.Rate)
		}
		result, err := cascade.Compute(premium, policy.LargeTaxpayer, rates)
		if err != nil {
			return nil, decimal.Zero, err
		}
		items = append(items, lineItemFromResult(policydomain.PolicyLineItem{
			ID:              s.genID.Generate(),
			PolicyID:        policy.ID,
			CoverageSubtype: strings.TrimSpace(in.CoverageSubtype),
			InsuredSum:      in.InsuredSum,
			Rate:            in.Rate,
			CreatedAt:       now,
			UpdatedAt:       now,
		}, result))
		total = total.Add(result.TotalInvoiced)
	}
	return items, total, nil
}

func lineItemFromResult(item policydomain.PolicyLineItem, r cascade.Result) policydomain.PolicyLineItem {
	item.Premium = r.Premium
	item.SuperintendencyContribution = r.SuperintendencyContribution
	item.AgriculturalContribution = r.AgriculturalContribution
	item.EmissionFee = r.EmissionFee
	item.TaxBase = r.TaxBase
	item.VAT = r.VAT
	item.TotalInvoiced = r.TotalInvoiced
	item.PremiumWithholding = r.PremiumWithholding
	item.VATWithholding = r.VATWithholding
	item.Payable = r.Payable
	return item
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*policydomain.Policy, []policydomain.PolicyLineItem, error) {
	policy, err := s.repo.FindPolicy(ctx, s.db, id)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.repo.FindLineItems(ctx, s.db, id)
	if err != nil {
		return nil, nil, err
	}
	return policy, items, nil
}

func (s *Service) Recalculate(ctx context.Context, policyID snowflake.ID) (*policydomain.Policy, error) {
	rates, err := s.taxes.Rates(ctx)
	if err != nil {
		return nil, err
	}

	var policy *policydomain.Policy
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		policy, err = s.repo.FindPolicy(ctx, tx, policyID)
		if err != nil {
			return err
		}
		items, err := s.repo.FindLineItems(ctx, tx, policyID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		total := decimal.Zero
		for i := range items {
			premium := items[i].Premium
			if items[i].Rate.IsPositive() {
				premium = cascade.PremiumFromRate(items[i].InsuredSum, items[i].Rate)
			}
			result, err := cascade.Compute(premium, policy.LargeTaxpayer, rates)
			if err != nil {
				return err
			}
			items[i] = lineItemFromResult(items[i], result)
			items[i].UpdatedAt = now
			if err := s.repo.UpdateLineItem(ctx, tx, &items[i]); err != nil {
				return err
			}
			total = total.Add(result.TotalInvoiced)
		}

		if len(items) > 0 {
			policy.TotalPremium = total
		}
		policy.UpdatedAt = now
		return s.repo.UpdatePolicy(ctx, tx, policy)
	})
	if err != nil {
		return nil, err
	}
	return policy, nil
}

func (s *Service) Cancel(ctx context.Context, policyID snowflake.ID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		policy, err := s.repo.FindPolicy(ctx, tx, policyID)
		if err != nil {
			return err
		}
		if policy.CancelledAt != nil {
			return nil
		}
		now := s.clock.Now()
		policy.CancelledAt = &now
		policy.Status = policydomain.StatusCancelled
		policy.UpdatedAt = now
		return s.repo.UpdatePolicy(ctx, tx, policy)
	})
}

// Delete removes a policy only when nothing references it. Line items,
// invoices and claims all protect against deletion.
func (s *Service) Delete(ctx context.Context, policyID snowflake.ID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.repo.FindPolicy(ctx, tx, policyID); err != nil {
			return err
		}
		lineItems, err := s.repo.CountLineItems(ctx, tx, policyID)
		if err != nil {
			return err
		}
		if lineItems > 0 {
			return policydomain.ErrPolicyInUse
		}
		for _, table := range []string{"invoices", "claims"} {
			var count int64
			if err := tx.WithContext(ctx).Table(table).Where("policy_id = ?", policyID).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return policydomain.ErrPolicyInUse
			}
		}
		return s.repo.DeletePolicy(ctx, tx, policyID)
	})
}

func (s *Service) RefreshStatuses(ctx context.Context) (int, error) {
	rates, err := s.taxes.Rates(ctx)
	if err != nil {
		return 0, err
	}
	policies, err := s.repo.ListPolicies(ctx, s.db)
	if err != nil {
		return 0, err
	}

	now := s.clock.Now()
	updated := 0
	for i := range policies {
		derived := policies[i].StatusAt(now, rates.PolicyExpiryAlertDays)
		if derived == policies[i].Status {
			continue
		}
		policies[i].Status = derived
		policies[i].UpdatedAt = now
		if err := s.repo.UpdatePolicy(ctx, s.db, &policies[i]); err != nil {
			s.log.Error("policy status refresh failed",
				zap.String("policy_id", policies[i].ID.String()), zap.Error(err))
			continue
		}
		updated++
	}
	return updated, nil
}
