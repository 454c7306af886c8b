package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/segurosandina/backoffice/internal/policy/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) CreatePolicy(ctx context.Context, db *gorm.DB, policy *domain.Policy) error {
	return db.WithContext(ctx).Create(policy).Error
}

func (r *repo) FindPolicy(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Policy, error) {
	var policy domain.Policy
	err := db.WithContext(ctx).First(&policy, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &policy, nil
}

func (r *repo) UpdatePolicy(ctx context.Context, db *gorm.DB, policy *domain.Policy) error {
	return db.WithContext(ctx).Save(policy).Error
}

func (r *repo) DeletePolicy(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Policy{}).Error
}

func (r *repo) ListPolicies(ctx context.Context, db *gorm.DB) ([]domain.Policy, error) {
	var policies []domain.Policy
	err := db.WithContext(ctx).Order("id").Find(&policies).Error
	return policies, err
}

func (r *repo) CountOverlapping(ctx context.Context, db *gorm.DB, number string, insurerID snowflake.ID, start, end time.Time, excludeID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Policy{}).
		Where("number = ? AND insurer_id = ?", number, insurerID).
		Where("start_date <= ? AND end_date >= ?", end, start).
		Where("id <> ?", excludeID).
		Count(&count).Error
	return count, err
}

func (r *repo) CreateLineItems(ctx context.Context, db *gorm.DB, items []domain.PolicyLineItem) error {
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&items).Error
}

func (r *repo) FindLineItems(ctx context.Context, db *gorm.DB, policyID snowflake.ID) ([]domain.PolicyLineItem, error) {
	var items []domain.PolicyLineItem
	err := db.WithContext(ctx).
		Where("policy_id = ?", policyID).
		Order("id").
		Find(&items).Error
	return items, err
}

func (r *repo) UpdateLineItem(ctx context.Context, db *gorm.DB, item *domain.PolicyLineItem) error {
	return db.WithContext(ctx).Save(item).Error
}

func (r *repo) CountLineItems(ctx context.Context, db *gorm.DB, policyID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.PolicyLineItem{}).
		Where("policy_id = ?", policyID).
		Count(&count).Error
	return count, err
}

func (r *repo) FindInsurer(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Insurer, error) {
	var insurer domain.Insurer
	err := db.WithContext(ctx).First(&insurer, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrInsurerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &insurer, nil
}

func (r *repo) CreateInsurer(ctx context.Context, db *gorm.DB, insurer *domain.Insurer) error {
	return db.WithContext(ctx).Create(insurer).Error
}

func (r *repo) FindBroker(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Broker, error) {
	var broker domain.Broker
	err := db.WithContext(ctx).First(&broker, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrBrokerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &broker, nil
}

func (r *repo) CreateBroker(ctx context.Context, db *gorm.DB, broker *domain.Broker) error {
	return db.WithContext(ctx).Create(broker).Error
}
