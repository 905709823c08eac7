package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/hostel/backend/internal/domain/shared"
)

// BaseModel holds the identity and timestamp columns every billing table carries
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func baseModelOf(e shared.BaseEntity) BaseModel {
	return BaseModel{ID: e.ID, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt}
}

func (m *BaseModel) entity() shared.BaseEntity {
	return shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

func (m *BaseModel) setEntity(e shared.BaseEntity) { *m = baseModelOf(e) }

// TenantModel is a tenant-owned row that is never updated concurrently,
// such as a transaction or a receipt.
type TenantModel struct {
	BaseModel
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TenantAggregateModel is a tenant-owned aggregate row. Version counts the
// aggregate's recorded state changes.
type TenantAggregateModel struct {
	BaseModel
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	Version  int       `gorm:"not null;default:1"`
}

func (m *TenantAggregateModel) setAggregate(root shared.TenantAggregateRoot) {
	m.setEntity(root.BaseEntity)
	m.TenantID, m.Version = root.TenantID, root.Version
}

func (m *TenantAggregateModel) aggregate() shared.TenantAggregateRoot {
	var root shared.TenantAggregateRoot
	root.BaseEntity = m.entity()
	root.Version = m.Version
	root.TenantID = m.TenantID
	return root
}
