// Package tenant holds the display profile of a store. The tenant ID itself
// comes from verified token claims; this package only describes how the
// store presents itself on dashboards and printed bills.
package tenant

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pharmabill/backend/internal/domain/shared"
)

const (
	maxStoreNameLength    = 100
	maxStoreAddressLength = 200
)

var phonePattern = regexp.MustCompile(`^[0-9]{10,15}$`)

// Store is the display metadata of one tenant. Its ID is the tenant ID.
type Store struct {
	shared.BaseEntity
	Name    string
	Address string
	Phone   string
}

// StoreInput carries the editable profile fields
type StoreInput struct {
	Name    string
	Address string
	Phone   string
}

// NewStore validates the input and creates the profile for tenantID
func NewStore(tenantID uuid.UUID, in StoreInput, now time.Time) (*Store, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Tenant is required")
	}
	s := &Store{BaseEntity: shared.NewBaseEntity(now)}
	s.ID = tenantID
	s.set(in)
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Update replaces the profile fields. The store is unchanged on error.
func (s *Store) Update(in StoreInput, now time.Time) error {
	next := *s
	next.set(in)
	if err := next.validate(); err != nil {
		return err
	}
	*s = next
	s.Touch(now)
	return nil
}

func (s *Store) set(in StoreInput) {
	s.Name = strings.TrimSpace(in.Name)
	s.Address = strings.TrimSpace(in.Address)
	s.Phone = strings.TrimSpace(in.Phone)
}

func (s *Store) validate() error {
	if s.Name == "" {
		return shared.NewDomainError("INVALID_INPUT", "Store name is required")
	}
	if len(s.Name) > maxStoreNameLength {
		return shared.NewDomainError("INVALID_INPUT", "Store name cannot exceed 100 characters")
	}
	if s.Address == "" {
		return shared.NewDomainError("INVALID_INPUT", "Store address is required")
	}
	if len(s.Address) > maxStoreAddressLength {
		return shared.NewDomainError("INVALID_INPUT", "Store address cannot exceed 200 characters")
	}
	if !phonePattern.MatchString(s.Phone) {
		return shared.NewDomainError("INVALID_INPUT", "Phone must be 10 to 15 digits")
	}
	return nil
}

// Repository stores one profile per tenant
type Repository interface {
	// FindByTenant returns NOT_FOUND until the store has saved a profile
	FindByTenant(ctx context.Context, tenantID uuid.UUID) (*Store, error)

	// Save inserts or replaces the tenant's profile
	Save(ctx context.Context, store *Store) error
}
