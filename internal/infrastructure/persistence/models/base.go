package models

import (
	"time"

	"github.com/catalogo/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateModel holds the columns every aggregate root table shares:
// identity, audit timestamps and the optimistic-lock version.
type AggregateModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Version   int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func aggregateModelFrom(root shared.BaseAggregateRoot) AggregateModel {
	return AggregateModel{
		ID:        root.ID,
		Version:   root.Version,
		CreatedAt: root.CreatedAt,
		UpdatedAt: root.UpdatedAt,
	}
}
