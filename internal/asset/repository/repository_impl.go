package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/segurosandina/backoffice/internal/asset/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, asset *domain.InsuredAsset) error {
	return db.WithContext(ctx).Create(asset).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.InsuredAsset, error) {
	var asset domain.InsuredAsset
	err := db.WithContext(ctx).First(&asset, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *repo) FindByPolicy(ctx context.Context, db *gorm.DB, policyID snowflake.ID) ([]domain.InsuredAsset, error) {
	var assets []domain.InsuredAsset
	err := db.WithContext(ctx).
		Where("policy_id = ?", policyID).
		Order("id").
		Find(&assets).Error
	return assets, err
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, asset *domain.InsuredAsset) error {
	return db.WithContext(ctx).Save(asset).Error
}
