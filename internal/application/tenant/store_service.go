package tenant

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pharmabill/backend/internal/domain/shared"
	"github.com/pharmabill/backend/internal/domain/tenant"
)

// StoreRequest is the editable store profile
type StoreRequest struct {
	Name    string
	Address string
	Phone   string
}

// StoreResponse is the store profile as returned by the API
type StoreResponse struct {
	TenantID  uuid.UUID `json:"tenant_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToStoreResponse converts a domain Store
func ToStoreResponse(s *tenant.Store) StoreResponse {
	return StoreResponse{
		TenantID:  s.ID,
		Name:      s.Name,
		Address:   s.Address,
		Phone:     s.Phone,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// StoreService reads and edits the calling tenant's store profile
type StoreService struct {
	repo tenant.Repository
	now  func() time.Time
}

// NewStoreService creates a new StoreService
func NewStoreService(repo tenant.Repository) *StoreService {
	return &StoreService{repo: repo, now: time.Now}
}

// SetClock replaces the clock used for timestamps
func (s *StoreService) SetClock(now func() time.Time) {
	s.now = now
}

// Get returns the profile, or NOT_FOUND before one has been saved
func (s *StoreService) Get(ctx context.Context, tenantID uuid.UUID) (*StoreResponse, error) {
	store, err := s.repo.FindByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	resp := ToStoreResponse(store)
	return &resp, nil
}

// Put creates the profile on first use and replaces it afterwards
func (s *StoreService) Put(ctx context.Context, tenantID uuid.UUID, req StoreRequest) (*StoreResponse, error) {
	in := tenant.StoreInput{Name: req.Name, Address: req.Address, Phone: req.Phone}
	now := s.now()

	store, err := s.repo.FindByTenant(ctx, tenantID)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		if store, err = tenant.NewStore(tenantID, in, now); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if err := store.Update(in, now); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Save(ctx, store); err != nil {
		return nil, err
	}
	resp := ToStoreResponse(store)
	return &resp, nil
}
