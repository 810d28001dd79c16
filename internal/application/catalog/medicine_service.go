package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pharmabill/backend/internal/domain/catalog"
	"github.com/pharmabill/backend/internal/domain/shared"
)

// SearchLimit caps quick-search results at the billing counter
const SearchLimit = 20

// MedicineService handles manual catalog management. None of these
// operations take part in a billing transaction.
type MedicineService struct {
	repo catalog.MedicineRepository
	now  func() time.Time
}

// NewMedicineService creates a new MedicineService
func NewMedicineService(repo catalog.MedicineRepository) *MedicineService {
	return &MedicineService{repo: repo, now: time.Now}
}

// SetClock replaces the clock used for expiry views
func (s *MedicineService) SetClock(now func() time.Time) {
	s.now = now
}

// Create registers a new medicine batch
func (s *MedicineService) Create(ctx context.Context, tenantID uuid.UUID, req CreateMedicineRequest) (*MedicineResponse, error) {
	now := s.now()
	m, err := catalog.NewMedicine(tenantID, catalog.MedicineInput{
		Name:            req.Name,
		BatchNo:         req.BatchNo,
		Category:        catalog.Category(req.Category),
		Quantity:        req.Quantity,
		Price:           req.Price,
		MRP:             req.MRP,
		DiscountPercent: req.DiscountPercent,
		ExpiryDate:      req.ExpiryDate,
		LowStockAlert:   req.LowStockAlert,
		Supplier:        req.Supplier,
		Description:     req.Description,
	}, now)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByBatchNo(ctx, tenantID, m.BatchNo, nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A medicine with batch number "+m.BatchNo+" already exists")
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	resp := ToMedicineResponse(m, now)
	return &resp, nil
}

// GetByID retrieves a medicine by ID
func (s *MedicineService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*MedicineResponse, error) {
	m, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToMedicineResponse(m, s.now())
	return &resp, nil
}

// Update applies a partial update, checking batch uniqueness and the
// optimistic version
func (s *MedicineService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateMedicineRequest) (*MedicineResponse, error) {
	m, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if req.Version != nil && *req.Version != m.Version {
		return nil, shared.ErrConcurrencyConflict
	}

	now := s.now()
	if err := m.Apply(req.toPatch(), now); err != nil {
		return nil, err
	}

	if req.BatchNo != nil {
		exists, err := s.repo.ExistsByBatchNo(ctx, tenantID, m.BatchNo, &m.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "A medicine with batch number "+m.BatchNo+" already exists")
		}
	}

	if err := s.repo.SaveWithLock(ctx, m); err != nil {
		return nil, err
	}

	resp := ToMedicineResponse(m, now)
	return &resp, nil
}

// Restock adds received units to a medicine
func (s *MedicineService) Restock(ctx context.Context, tenantID, id uuid.UUID, qty int) (*MedicineResponse, error) {
	m, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := m.Restock(qty, now); err != nil {
		return nil, err
	}
	if err := s.repo.SaveWithLock(ctx, m); err != nil {
		return nil, err
	}
	resp := ToMedicineResponse(m, now)
	return &resp, nil
}

// Delete soft-deletes a medicine. Past bills keep their frozen copy.
func (s *MedicineService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.repo.DeleteForTenant(ctx, tenantID, id)
}

// List retrieves a filtered page of medicines
func (s *MedicineService) List(ctx context.Context, tenantID uuid.UUID, filter MedicineListFilter) (shared.Paginated[MedicineResponse], error) {
	var empty shared.Paginated[MedicineResponse]

	category := catalog.Category(filter.Category)
	if category != "" && !category.IsValid() {
		return empty, shared.NewDomainError("INVALID_INPUT", "Unknown category: "+filter.Category)
	}
	status := catalog.StockStatus(filter.StockStatus)
	if status != "" && !status.IsValid() {
		return empty, shared.NewDomainError("INVALID_INPUT", "Unknown stock status: "+filter.StockStatus)
	}

	base := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
	}.Normalize()

	found, total, err := s.repo.FindAllForTenant(ctx, tenantID, catalog.MedicineFilter{
		Filter:      base,
		Category:    category,
		StockStatus: status,
	})
	if err != nil {
		return empty, err
	}
	return shared.NewPaginated(ToMedicineResponses(found, s.now()), total, base.Page, base.PageSize), nil
}

// Search finds sellable medicines for the billing counter
func (s *MedicineService) Search(ctx context.Context, tenantID uuid.UUID, query string) ([]MedicineResponse, error) {
	if query == "" {
		return []MedicineResponse{}, nil
	}
	now := s.now()
	found, err := s.repo.Search(ctx, tenantID, query, catalog.CalendarDate(now), SearchLimit)
	if err != nil {
		return nil, err
	}
	return ToMedicineResponses(found, now), nil
}

// ExpiryList returns expired medicines and those expiring within the warning window
func (s *MedicineService) ExpiryList(ctx context.Context, tenantID uuid.UUID) (*ExpiryListResponse, error) {
	now := s.now()
	horizon := catalog.CalendarDate(now).AddDate(0, 0, catalog.ExpiringSoonDays)
	found, err := s.repo.FindExpiringBefore(ctx, tenantID, horizon)
	if err != nil {
		return nil, err
	}

	resp := &ExpiryListResponse{
		Expired:      []MedicineResponse{},
		ExpiringSoon: []MedicineResponse{},
	}
	for i := range found {
		m := &found[i]
		if m.IsExpired(now) {
			resp.Expired = append(resp.Expired, ToMedicineResponse(m, now))
		} else {
			resp.ExpiringSoon = append(resp.ExpiringSoon, ToMedicineResponse(m, now))
		}
	}
	return resp, nil
}

// LowStock lists medicines at or below their alert threshold
func (s *MedicineService) LowStock(ctx context.Context, tenantID uuid.UUID) ([]MedicineResponse, error) {
	found, err := s.repo.FindLowStock(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return ToMedicineResponses(found, s.now()), nil
}

// OutOfStock lists medicines with no units left
func (s *MedicineService) OutOfStock(ctx context.Context, tenantID uuid.UUID) ([]MedicineResponse, error) {
	found, err := s.repo.FindOutOfStock(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return ToMedicineResponses(found, s.now()), nil
}

// Categories lists the categories in use by the tenant
func (s *MedicineService) Categories(ctx context.Context, tenantID uuid.UUID) ([]string, error) {
	found, err := s.repo.DistinctCategories(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(found))
	for i, c := range found {
		out[i] = string(c)
	}
	return out, nil
}

// BulkUpdate applies each update independently and reports per-item outcomes
func (s *MedicineService) BulkUpdate(ctx context.Context, tenantID uuid.UUID, items []BulkUpdateItem) (*BulkUpdateResult, error) {
	if len(items) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "No medicines to update")
	}

	result := &BulkUpdateResult{Updated: []uuid.UUID{}, Failed: []BulkUpdateFailure{}}
	for _, item := range items {
		if _, err := s.Update(ctx, tenantID, item.ID, item.UpdateMedicineRequest); err != nil {
			failure := BulkUpdateFailure{ID: item.ID, Error: err.Error()}
			var de *shared.DomainError
			if errors.As(err, &de) {
				failure.Code = de.Code
			}
			result.Failed = append(result.Failed, failure)
			continue
		}
		result.Updated = append(result.Updated, item.ID)
	}
	return result, nil
}
