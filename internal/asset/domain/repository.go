package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, asset *InsuredAsset) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*InsuredAsset, error)
	FindByPolicy(ctx context.Context, db *gorm.DB, policyID snowflake.ID) ([]InsuredAsset, error)
	Update(ctx context.Context, db *gorm.DB, asset *InsuredAsset) error
}
