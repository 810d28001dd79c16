package router

import (
	"github.com/gin-gonic/gin"
	"github.com/pharmabill/backend/internal/interfaces/http/handler"
)

// Handlers groups the HTTP handlers mounted by Routes
type Handlers struct {
	Bill     *handler.BillHandler
	Medicine *handler.MedicineHandler
	Report   *handler.ReportHandler
	Store    *handler.StoreHandler
	System   *handler.SystemHandler
}

// Routes builds the resource groups of the billing API. billWrite wraps
// only POST /bills, which is where Idempotency-Key handling applies.
func Routes(h Handlers, billWrite ...gin.HandlerFunc) []RouteRegistrar {
	medicines := NewDomainGroup("medicines", "/medicines").
		GET("", h.Medicine.List).
		POST("", h.Medicine.Create).
		GET("/search", h.Medicine.Search).
		GET("/expiry", h.Medicine.ExpiryList).
		GET("/low-stock", h.Medicine.LowStock).
		GET("/out-of-stock", h.Medicine.OutOfStock).
		GET("/categories", h.Medicine.Categories).
		PUT("/bulk", h.Medicine.BulkUpdate).
		GET("/:id", h.Medicine.GetByID).
		PUT("/:id", h.Medicine.Update).
		DELETE("/:id", h.Medicine.Delete).
		POST("/:id/restock", h.Medicine.Restock)

	createBill := append(append([]gin.HandlerFunc{}, billWrite...), h.Bill.Create)
	bills := NewDomainGroup("bills", "/bills").
		GET("", h.Bill.List).
		POST("", createBill...).
		GET("/number/:number", h.Bill.GetByNumber).
		GET("/:id", h.Bill.GetByID)

	reports := NewDomainGroup("reports", "/reports").
		GET("/dashboard", h.Report.Dashboard).
		GET("/sales", h.Report.Sales).
		GET("/sales-stats", h.Report.SalesStats).
		GET("/inventory", h.Report.Inventory).
		GET("/expiry", h.Report.Expiry)

	store := NewDomainGroup("store", "/store").
		GET("", h.Store.Get).
		PUT("", h.Store.Put)

	return []RouteRegistrar{medicines, bills, reports, store}
}

// RegisterHealthRoutes mounts the unauthenticated health endpoints on the engine
func RegisterHealthRoutes(engine *gin.Engine, system *handler.SystemHandler) {
	engine.GET("/health", system.Health)
	engine.GET("/ready", system.Ready)
	engine.GET("/api/v1/health", system.Health)
}
