package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, claim *Claim) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Claim, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Claim, error)
	Update(ctx context.Context, db *gorm.DB, claim *Claim) error

	// ListPendingLiquidationDue returns claims still pending
	// liquidation whose deadline is at or before cutoff.
	ListPendingLiquidationDue(ctx context.Context, db *gorm.DB, cutoff time.Time) ([]Claim, error)

	ListInState(ctx context.Context, db *gorm.DB, state State) ([]Claim, error)
}
