package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/segurosandina/backoffice/internal/document/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	GenID *snowflake.Node
}

type store struct {
	genID *snowflake.Node
}

func New(p Params) domain.Store {
	return &store{genID: p.GenID}
}

func (s *store) Attach(ctx context.Context, db *gorm.DB, entityKind string, entityID snowflake.ID, name string, content []byte) (*domain.Reference, error) {
	sum := sha256.Sum256(content)
	ref := &domain.Reference{
		ID:         s.genID.Generate(),
		EntityKind: entityKind,
		EntityID:   entityID,
		Name:       name,
		StoreKey:   uuid.NewString(),
		SHA256:     hex.EncodeToString(sum[:]),
	}
	if err := db.WithContext(ctx).Create(ref).Error; err != nil {
		return nil, err
	}
	return ref, nil
}

func (s *store) ListByEntity(ctx context.Context, db *gorm.DB, entityKind string, entityID snowflake.ID) ([]domain.Reference, error) {
	var refs []domain.Reference
	err := db.WithContext(ctx).
		Where("entity_kind = ? AND entity_id = ?", entityKind, entityID).
		Order("id").
		Find(&refs).Error
	return refs, err
}
