package v1

import (
	"net/http"

	"shiprate-backend/internal/delivery/http/middleware"
)

// RegisterRoutes mounts the shipping API on mux.
func RegisterRoutes(mux *http.ServeMux, shipping *ShippingHandler, reference *ReferenceHandler, admin *AdminShippingHandler) {
	// Public
	mux.HandleFunc("POST /api/v1/shipping/calculate", shipping.Calculate)
	mux.HandleFunc("POST /api/v1/shipping/calculate/bulk", shipping.CalculateBulk)
	mux.HandleFunc("GET /api/v1/shipping/options", shipping.GetOptions)
	mux.HandleFunc("GET /api/v1/shipping/config", reference.GetConfig)

	// Admin
	mux.Handle("GET /api/v1/admin/shipping/history", middleware.RequireAdmin(admin.ListHistory))
	mux.Handle("POST /api/v1/admin/shipping/history/export", middleware.RequireAdmin(admin.ExportHistory))
	mux.Handle("GET /api/v1/admin/shipping/zones/conflicts", middleware.RequireAdmin(admin.ZoneConflicts))
	mux.Handle("POST /api/v1/admin/shipping/cache/flush", middleware.RequireAdmin(admin.FlushCache))
}
