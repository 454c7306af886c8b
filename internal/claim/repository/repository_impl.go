package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/segurosandina/backoffice/internal/claim/domain"
	"github.com/segurosandina/backoffice/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, conn *gorm.DB, claim *domain.Claim) error {
	return conn.WithContext(ctx).Create(claim).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Claim, error) {
	return r.find(ctx, conn, id)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Claim, error) {
	return r.find(ctx, db.LockForUpdate(conn), id)
}

func (r *repo) find(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Claim, error) {
	var claim domain.Claim
	err := conn.WithContext(ctx).First(&claim, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

func (r *repo) Update(ctx context.Context, conn *gorm.DB, claim *domain.Claim) error {
	return conn.WithContext(ctx).Save(claim).Error
}

func (r *repo) ListPendingLiquidationDue(ctx context.Context, conn *gorm.DB, cutoff time.Time) ([]domain.Claim, error) {
	var claims []domain.Claim
	err := conn.WithContext(ctx).
		Where("state = ? AND liquidation_due_at IS NOT NULL AND liquidation_due_at <= ?",
			domain.StatePendingLiquidation, cutoff).
		Order("liquidation_due_at").
		Find(&claims).Error
	return claims, err
}

func (r *repo) ListInState(ctx context.Context, conn *gorm.DB, state domain.State) ([]domain.Claim, error) {
	var claims []domain.Claim
	err := conn.WithContext(ctx).
		Where("state = ?", state).
		Order("id").
		Find(&claims).Error
	return claims, err
}
