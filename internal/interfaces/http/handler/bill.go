package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	salesapp "github.com/pharmabill/backend/internal/application/sales"
	"github.com/pharmabill/backend/internal/domain/sales"
	"github.com/pharmabill/backend/internal/interfaces/http/dto"
	"github.com/pharmabill/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
)

// BillHandler serves the point-of-sale bill endpoints
type BillHandler struct {
	BaseHandler
	coordinator *salesapp.Coordinator
	queries     *salesapp.QueryService
}

// NewBillHandler creates a new BillHandler
func NewBillHandler(coordinator *salesapp.Coordinator, queries *salesapp.QueryService) *BillHandler {
	return &BillHandler{
		coordinator: coordinator,
		queries:     queries,
	}
}

// CreateBillRequest is the body of POST /bills
type CreateBillRequest struct {
	CustomerName   string            `json:"customer_name" binding:"required,max=200"`
	CustomerMobile string            `json:"customer_mobile" binding:"omitempty,max=20"`
	CustomerEmail  string            `json:"customer_email" binding:"omitempty,email,max=200"`
	Items          []BillItemRequest `json:"items" binding:"required,min=1,max=200,dive"`
	Discount       decimal.Decimal   `json:"discount"`
	Tax            decimal.Decimal   `json:"tax"`
	PaymentMethod  string            `json:"payment_method" binding:"omitempty,payment_method"`
	PaymentStatus  string            `json:"payment_status" binding:"omitempty,payment_status"`
}

// BillItemRequest is one requested line. Discount, when present, overrides
// the catalog discount percentage for this line.
type BillItemRequest struct {
	MedicineID string           `json:"medicine_id" binding:"required,uuid"`
	Quantity   int              `json:"quantity" binding:"required,min=1"`
	Discount   *decimal.Decimal `json:"discount"`
}

// Create commits a bill atomically: stock is checked and decremented, the
// bill is priced and numbered, and either all of it is stored or none.
// Replays under an Idempotency-Key are handled by middleware.
func (h *BillHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantFrom(c)
	if !ok {
		return
	}

	var req CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	items := make([]salesapp.SaleItemInput, len(req.Items))
	for i, it := range req.Items {
		medicineID, err := uuid.Parse(it.MedicineID)
		if err != nil {
			h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, fmt.Sprintf("items[%d].medicine_id must be a valid UUID", i))
			return
		}
		items[i] = salesapp.SaleItemInput{
			MedicineID:      medicineID,
			Quantity:        it.Quantity,
			DiscountPercent: it.Discount,
		}
	}
	// A token without a parsable subject still bills; the cashier is just unrecorded.
	cashierID, _ := uuid.Parse(middleware.GetJWTUserID(c))

	bill, err := h.coordinator.CreateSale(c.Request.Context(), tenantID, salesapp.CreateSaleRequest{
		CustomerName:   req.CustomerName,
		CustomerMobile: req.CustomerMobile,
		CustomerEmail:  req.CustomerEmail,
		Items:          items,
		Discount:       req.Discount,
		Tax:            req.Tax,
		PaymentMethod:  sales.PaymentMethod(req.PaymentMethod),
		PaymentStatus:  sales.PaymentStatus(req.PaymentStatus),
		CashierID:      cashierID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, bill)
}

// BillListQuery holds the query parameters of GET /bills
type BillListQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,max=50"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search   string `form:"search" binding:"omitempty,max=100"`
}

// List returns a page of bills. start_date and end_date are calendar days,
// both inclusive.
func (h *BillHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantFrom(c)
	if !ok {
		return
	}

	var q BillListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	start, err := parseDate(c, "start_date")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	end, err := parseDate(c, "end_date")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if end != nil {
		// through the last instant of the day
		last := end.AddDate(0, 0, 1).Add(-1)
		end = &last
	}

	page, err := h.queries.List(c.Request.Context(), tenantID, salesapp.SaleListFilter{
		Search:    q.Search,
		StartDate: start,
		EndDate:   end,
		Page:      q.Page,
		PageSize:  q.PageSize,
		OrderBy:   q.OrderBy,
		OrderDir:  q.OrderDir,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetByID returns one bill with its frozen lines
func (h *BillHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenantFrom(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	bill, err := h.queries.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bill)
}

// GetByNumber looks a bill up by its printed number
func (h *BillHandler) GetByNumber(c *gin.Context) {
	tenantID, ok := h.tenantFrom(c)
	if !ok {
		return
	}

	bill, err := h.queries.GetByBillNumber(c.Request.Context(), tenantID, c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bill)
}
