package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	catalogapp "github.com/pharmabill/backend/internal/application/catalog"
	"github.com/pharmabill/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MedicineHandler serves catalog management endpoints
type MedicineHandler struct {
	BaseHandler
	medicineService *catalogapp.MedicineService
}

// NewMedicineHandler creates a new MedicineHandler
func NewMedicineHandler(medicineService *catalogapp.MedicineService) *MedicineHandler {
	return &MedicineHandler{medicineService: medicineService}
}

// CreateMedicineRequest is the body of POST /medicines
type CreateMedicineRequest struct {
	Name          string          `json:"name" binding:"required,min=1,max=200"`
	BatchNo       string          `json:"batch_no" binding:"required,min=1,max=50"`
	Category      string          `json:"category" binding:"required,category"`
	Quantity      int             `json:"quantity" binding:"min=0"`
	Price         decimal.Decimal `json:"price"`
	MRP           decimal.Decimal `json:"mrp"`
	Discount      decimal.Decimal `json:"discount"`
	ExpiryDate    string          `json:"expiry_date" binding:"required"`
	LowStockAlert *int            `json:"low_stock_alert" binding:"omitempty,min=0"`
	Supplier      string          `json:"supplier" binding:"max=200"`
	Description   string          `json:"description" binding:"max=1000"`
}

// UpdateMedicineRequest is a partial update. Version, when sent, must match
// the stored version.
type UpdateMedicineRequest struct {
	Name          *string          `json:"name" binding:"omitempty,min=1,max=200"`
	BatchNo       *string          `json:"batch_no" binding:"omitempty,min=1,max=50"`
	Category      *string          `json:"category" binding:"omitempty,category"`
	Quantity      *int             `json:"quantity" binding:"omitempty,min=0"`
	Price         *decimal.Decimal `json:"price"`
	MRP           *decimal.Decimal `json:"mrp"`
	Discount      *decimal.Decimal `json:"discount"`
	ExpiryDate    *string          `json:"expiry_date"`
	LowStockAlert *int             `json:"low_stock_alert" binding:"omitempty,min=0"`
	Supplier      *string          `json:"supplier" binding:"omitempty,max=200"`
	Description   *string          `json:"description" binding:"omitempty,max=1000"`
	Version       *int             `json:"version" binding:"omitempty,min=1"`
}

// RestockRequest adds received units
type RestockRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// BulkUpdateRequest applies independent partial updates
type BulkUpdateRequest struct {
	Items []BulkUpdateItemRequest `json:"items" binding:"required,min=1,max=100,dive"`
}

// BulkUpdateItemRequest is one entry of a bulk update
type BulkUpdateItemRequest struct {
	ID string `json:"id" binding:"required,uuid"`
	UpdateMedicineRequest
}

// MedicineListQuery holds the query parameters of GET /medicines
type MedicineListQuery struct {
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy     string `form:"order_by" binding:"omitempty,max=50"`
	OrderDir    string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search      string `form:"search" binding:"omitempty,max=100"`
	Category    string `form:"category" binding:"omitempty,category"`
	StockStatus string `form:"stock_status" binding:"omitempty,oneof=inStock lowStock outOfStock"`
}

func parseExpiry(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, shared.NewDomainError("INVALID_INPUT", "expiry_date must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

func (r UpdateMedicineRequest) toApp() (catalogapp.UpdateMedicineRequest, error) {
	out := catalogapp.UpdateMedicineRequest{
		Name:            r.Name,
		BatchNo:         r.BatchNo,
		Category:        r.Category,
		Quantity:        r.Quantity,
		Price:           r.Price,
		MRP:             r.MRP,
		DiscountPercent: r.Discount,
		LowStockAlert:   r.LowStockAlert,
		Supplier:        r.Supplier,
		Description:     r.Description,
		Version:         r.Version,
	}
	if r.ExpiryDate != nil {
		t, err := parseExpiry(*r.ExpiryDate)
		if err != nil {
			return out, err
		}
		out.ExpiryDate = &t
	}
	return out, nil
}

// Create registers a medicine batch
func (h *MedicineHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantFrom(c)
	if !ok {
		return
	}
	var req CreateMedicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	expiry, err := parseExpiry(req.ExpiryDate)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	m, err := h.medicineService.Create(c.Request.Context(), tenantID, catalogapp.CreateMedicineRequest{
		Name:            req.Name,
		BatchNo:         req.BatchNo,
		Category:        req.Category,
		Quantity:        req.Quantity,
		Price:           req.Price,
		MRP:             req.MRP,
		DiscountPercent: req.Discount,
		ExpiryDate:      expiry,
		LowStockAlert:   req.LowStockAlert,
		Supplier:        req.Supplier,
		Description:     req.Description,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, m)
}

// GetByID returns one medicine
func (h *MedicineHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenantFrom(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	m, err := h.medicineService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, m)
}

// Update applies a partial update
func (h *MedicineHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenantFrom(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req UpdateMedicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	appReq, err := req.toApp()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	m, err := h.medicineService.Update(c.Request.Context(), tenantID, id, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, m)
}

// Restock adds received units to a medicine
func (h *MedicineHandler) Restock(c *gin.Context) {
	tenantID, ok := h.tenantFrom(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	m, err := h.medicineService.Restock(c.Request.Context(), tenantID, id, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, m)
}

// Delete removes a medicine from the catalog. Bills that sold it are kept.
func (h *MedicineHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenantFrom(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.medicineService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// List returns a filtered page of medicines
func (h *MedicineHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantFrom(c)
	if !ok {
		return
	}
	var q MedicineListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.medicineService.List(c.Request.Context(), tenantID, catalogapp.MedicineListFilter{
		Search:      q.Search,
		Category:    q.Category,
		StockStatus: q.StockStatus,
		Page:        q.Page,
		PageSize:    q.PageSize,
		OrderBy:     q.OrderBy,
		OrderDir:    q.OrderDir,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Search finds sellable medicines for the billing counter
func (h *MedicineHandler) Search(c *gin.Context) {
	tenantID, ok := h.tenantFrom(c)
	if !ok {
		return
	}
	q := c.Query("q")
	if len(q) > 100 {
		h.BadRequest(c, "Search term is too long")
		return
	}
	found, err := h.medicineService.Search(c.Request.Context(), tenantID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, found)
}

// ExpiryList returns expired and soon-to-expire medicines
func (h *MedicineHandler) ExpiryList(c *gin.Context) {
	tenantID, ok := h.tenantFrom(c)
	if !ok {
		return
	}
	resp, err := h.medicineService.ExpiryList(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// LowStock lists medicines at or below their alert threshold
func (h *MedicineHandler) LowStock(c *gin.Context) {
	tenantID, ok := h.tenantFrom(c)
	if !ok {
		return
	}
	found, err := h.medicineService.LowStock(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, found)
}

// OutOfStock lists medicines with no units left
func (h *MedicineHandler) OutOfStock(c *gin.Context) {
	tenantID, ok := h.tenantFrom(c)
	if !ok {
		return
	}
	found, err := h.medicineService.OutOfStock(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, found)
}

// Categories lists the categories in use
func (h *MedicineHandler) Categories(c *gin.Context) {
	tenantID, ok := h.tenantFrom(c)
	if !ok {
		return
	}
	found, err := h.medicineService.Categories(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, found)
}

// BulkUpdate applies each update on its own and reports which failed
func (h *MedicineHandler) BulkUpdate(c *gin.Context) {
	tenantID, ok := h.tenantFrom(c)
	if !ok {
		return
	}
	var req BulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	items := make([]catalogapp.BulkUpdateItem, len(req.Items))
	for i, it := range req.Items {
		appReq, err := it.toApp()
		if err != nil {
			h.HandleError(c, err)
			return
		}
		items[i] = catalogapp.BulkUpdateItem{ID: uuid.MustParse(it.ID), UpdateMedicineRequest: appReq}
	}

	result, err := h.medicineService.BulkUpdate(c.Request.Context(), tenantID, items)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
