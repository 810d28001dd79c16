package handler

import (
	"github.com/gin-gonic/gin"
	reportapp "github.com/pharmabill/backend/internal/application/report"
	"github.com/pharmabill/backend/internal/domain/shared"
)

// ReportHandler serves the read-only dashboard and report endpoints
type ReportHandler struct {
	BaseHandler
	reportService *reportapp.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *reportapp.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// Dashboard returns the headline counters
func (h *ReportHandler) Dashboard(c *gin.Context) {
	tenantID, ok := h.tenantFrom(c)
	if !ok {
		return
	}
	resp, err := h.reportService.Dashboard(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Sales buckets revenue between start_date and end_date by group_by
// (day, week or month)
func (h *ReportHandler) Sales(c *gin.Context) {
	tenantID, ok := h.tenantFrom(c)
	if !ok {
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
	if start == nil || end == nil {
		h.HandleError(c, shared.NewDomainError("INVALID_INPUT", "start_date and end_date are required"))
		return
	}

	resp, err := h.reportService.SalesReport(c.Request.Context(), tenantID, *start, *end, c.DefaultQuery("group_by", "day"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SalesStats returns daily sales and top sellers for period days (7, 30 or 90)
func (h *ReportHandler) SalesStats(c *gin.Context) {
	tenantID, ok := h.tenantFrom(c)
	if !ok {
		return
	}
	days, err := queryInt(c, "period", 7)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	resp, err := h.reportService.SalesStats(c.Request.Context(), tenantID, days)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Inventory values stock per category
func (h *ReportHandler) Inventory(c *gin.Context) {
	tenantID, ok := h.tenantFrom(c)
	if !ok {
		return
	}
	resp, err := h.reportService.InventoryReport(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Expiry groups expired and expiring stock by month
func (h *ReportHandler) Expiry(c *gin.Context) {
	tenantID, ok := h.tenantFrom(c)
	if !ok {
		return
	}
	resp, err := h.reportService.ExpiryReport(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
