// Package domain defines document references. The engine never stores
// raw bytes; binaries live in an external blob store and only the
// reference and content hash are kept here.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Reference points at one stored document for an entity.
type Reference struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	EntityKind string       `gorm:"type:text;not null;index:idx_document_entity"`
	EntityID   snowflake.ID `gorm:"not null;index:idx_document_entity"`
	Name       string       `gorm:"type:text;not null"`
	StoreKey   string       `gorm:"type:text;not null;uniqueIndex"`
	SHA256     string       `gorm:"type:text;not null"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Reference) TableName() string { return "document_references" }

// Store registers and lists document references. Uploading the bytes
// themselves happens out of band against the blob store named by
// StoreKey.
type Store interface {
	Attach(ctx context.Context, db *gorm.DB, entityKind string, entityID snowflake.ID, name string, content []byte) (*Reference, error)
	ListByEntity(ctx context.Context, db *gorm.DB, entityKind string, entityID snowflake.ID) ([]Reference, error)
}
