package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	CreatePolicy(ctx context.Context, db *gorm.DB, policy *Policy) error
	FindPolicy(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Policy, error)
	UpdatePolicy(ctx context.Context, db *gorm.DB, policy *Policy) error
	DeletePolicy(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	ListPolicies(ctx context.Context, db *gorm.DB) ([]Policy, error)

	// CountOverlapping reports policies sharing number and insurer whose
	// coverage window intersects [start, end], excluding excludeID.
	CountOverlapping(ctx context.Context, db *gorm.DB, number string, insurerID snowflake.ID, start, end time.Time, excludeID snowflake.ID) (int64, error)

	CreateLineItems(ctx context.Context, db *gorm.DB, items []PolicyLineItem) error
	FindLineItems(ctx context.Context, db *gorm.DB, policyID snowflake.ID) ([]PolicyLineItem, error)
	UpdateLineItem(ctx context.Context, db *gorm.DB, item *PolicyLineItem) error
	CountLineItems(ctx context.Context, db *gorm.DB, policyID snowflake.ID) (int64, error)

	FindInsurer(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Insurer, error)
	CreateInsurer(ctx context.Context, db *gorm.DB, insurer *Insurer) error
	FindBroker(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Broker, error)
	CreateBroker(ctx context.Context, db *gorm.DB, broker *Broker) error
}
