package handler

import (
	"github.com/gin-gonic/gin"
	tenantapp "github.com/pharmabill/backend/internal/application/tenant"
)

// StoreHandler serves the tenant's store profile
type StoreHandler struct {
	BaseHandler
	storeService *tenantapp.StoreService
}

// NewStoreHandler creates a new StoreHandler
func NewStoreHandler(storeService *tenantapp.StoreService) *StoreHandler {
	return &StoreHandler{storeService: storeService}
}

// StoreRequest is the body of PUT /store
type StoreRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=100"`
	Address string `json:"address" binding:"required,min=1,max=200"`
	Phone   string `json:"phone" binding:"required,numeric,min=10,max=15"`
}

// Get returns the store profile
func (h *StoreHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantFrom(c)
	if !ok {
		return
	}
	resp, err := h.storeService.Get(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Put creates or replaces the store profile
func (h *StoreHandler) Put(c *gin.Context) {
	tenantID, ok := h.tenantFrom(c)
	if !ok {
		return
	}
	var req StoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.storeService.Put(c.Request.Context(), tenantID, tenantapp.StoreRequest{
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
