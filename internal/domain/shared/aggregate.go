package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity holds the identity and audit timestamps of a stored entity.
// A nil ID marks an entity that has not been stored yet.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity returns an entity with a fresh ID, stamped now.
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// IsTransient reports whether the entity still lacks an identity.
func (e *BaseEntity) IsTransient() bool { return e.ID == uuid.Nil }

// Stamp fills the identity and timestamps that are still unset.
// Existing values are kept, so restored entities pass through unchanged.
func (e *BaseEntity) Stamp(now time.Time) {
	if e.IsTransient() {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = now
	}
}

// BaseAggregateRoot adds the optimistic-concurrency version to BaseEntity.
// A new aggregate is at version 0 and every stored update advances it by one.
type BaseAggregateRoot struct {
	BaseEntity
	Version int
}

// NewBaseAggregateRoot returns a fresh aggregate at version 0.
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity()}
}

// GetVersion returns the version the aggregate was loaded or written at.
func (a *BaseAggregateRoot) GetVersion() int { return a.Version }

// IncrementVersion moves the aggregate to its next version.
func (a *BaseAggregateRoot) IncrementVersion() { a.Version++ }
