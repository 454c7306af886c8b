package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Get(ctx context.Context, db *gorm.DB, key string) (*SystemConfig, error)
	Upsert(ctx context.Context, db *gorm.DB, cfg *SystemConfig) error
}
