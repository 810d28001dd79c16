package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmabill/backend/internal/domain/shared"
	"github.com/pharmabill/backend/internal/domain/tenant"
)

// TenantModel is the persistence model for a store profile
type TenantModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(100);not null"`
	Address   string    `gorm:"type:varchar(200);not null"`
	Phone     string    `gorm:"type:varchar(15);not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts the persistence model to a domain Store
func (m *TenantModel) ToDomain() *tenant.Store {
	return &tenant.Store{
		BaseEntity: shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Name:       m.Name,
		Address:    m.Address,
		Phone:      m.Phone,
	}
}

// TenantModelFromDomain converts a domain Store to its persistence model
func TenantModelFromDomain(s *tenant.Store) *TenantModel {
	return &TenantModel{
		ID:        s.ID,
		Name:      s.Name,
		Address:   s.Address,
		Phone:     s.Phone,
		CreatedAt: s.CreatedAt.UTC(),
		UpdatedAt: s.UpdatedAt.UTC(),
	}
}
