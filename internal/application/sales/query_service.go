package sales

import (
	"context"

	"github.com/google/uuid"
	"github.com/pharmabill/backend/internal/domain/sales"
	"github.com/pharmabill/backend/internal/domain/shared"
)

// QueryService exposes committed bills read-only
type QueryService struct {
	saleRepo sales.SaleRepository
}

// NewQueryService creates a new QueryService
func NewQueryService(saleRepo sales.SaleRepository) *QueryService {
	return &QueryService{saleRepo: saleRepo}
}

// GetByID retrieves a bill by ID
func (s *QueryService) GetByID(ctx context.Context, tenantID, saleID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByIDForTenant(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}
	if !sale.BelongsTo(tenantID) {
		return nil, shared.NewDomainError("NOT_FOUND", "Bill not found")
	}
	resp := ToSaleResponse(sale)
	return &resp, nil
}

// GetByBillNumber retrieves a bill by its number
func (s *QueryService) GetByBillNumber(ctx context.Context, tenantID uuid.UUID, billNumber string) (*SaleResponse, error) {
	if _, err := sales.ParseBillNumber(billNumber); err != nil {
		return nil, err
	}
	sale, err := s.saleRepo.FindByBillNumber(ctx, tenantID, billNumber)
	if err != nil {
		return nil, err
	}
	if !sale.BelongsTo(tenantID) {
		return nil, shared.NewDomainError("NOT_FOUND", "Bill not found")
	}
	resp := ToSaleResponse(sale)
	return &resp, nil
}

// List retrieves a page of bills, newest first by default
func (s *QueryService) List(ctx context.Context, tenantID uuid.UUID, filter SaleListFilter) (shared.Paginated[SaleListItemResponse], error) {
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return shared.Paginated[SaleListItemResponse]{}, shared.NewDomainError("INVALID_INPUT", "End date is before start date")
	}

	base := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
	}.Normalize()

	found, total, err := s.saleRepo.FindAllForTenant(ctx, tenantID, sales.SaleFilter{
		Filter:       base,
		From:         filter.StartDate,
		To:           filter.EndDate,
		CustomerName: filter.Search,
	})
	if err != nil {
		return shared.Paginated[SaleListItemResponse]{}, err
	}

	items := make([]SaleListItemResponse, len(found))
	for i := range found {
		items[i] = ToSaleListItemResponse(&found[i])
	}
	return shared.NewPaginated(items, total, base.Page, base.PageSize), nil
}
