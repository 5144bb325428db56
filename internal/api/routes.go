package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
		Metrics(),
		Session(h.sessions, h.cookie.Name, h.logger),
	)
	authed := Chain(chain, RequireAuth())
	admin := Chain(chain, RequireAdmin())

	// Statuses
	mux.Handle("GET /api/statuses", chain(http.HandlerFunc(h.ListStatuses)))
	mux.Handle("GET /api/admin/statuses", admin(http.HandlerFunc(h.ListAllStatuses)))
	mux.Handle("POST /api/admin/statuses", admin(http.HandlerFunc(h.CreateStatus)))
	mux.Handle("PATCH /api/admin/statuses/{id}", admin(http.HandlerFunc(h.UpdateStatus)))
	mux.Handle("DELETE /api/admin/statuses/{id}", admin(http.HandlerFunc(h.DeactivateStatus)))

	// Applications
	mux.Handle("POST /api/applications/{id}/status", chain(http.HandlerFunc(h.ChangeApplicationStatus)))
	mux.Handle("PATCH /api/applications/{id}/assign", chain(http.HandlerFunc(h.AssignApplication)))
	mux.Handle("PATCH /api/applications/{id}/technical-curator", chain(http.HandlerFunc(h.AssignTechnicalCurator)))
	mux.Handle("GET /api/applications/{id}/logs", chain(http.HandlerFunc(h.ListApplicationLogs)))
	mux.Handle("GET /api/applications/{id}/status-history", chain(http.HandlerFunc(h.ListApplicationHistory)))

	// Work orders
	mux.Handle("PATCH /api/work-orders/{id}/status", chain(http.HandlerFunc(h.ChangeWorkOrderStatus)))
	mux.Handle("POST /api/work-orders/{id}/complete", authed(http.HandlerFunc(h.CompleteWorkOrder)))
	mux.Handle("GET /api/work-orders/{id}/history", chain(http.HandlerFunc(h.ListWorkOrderHistory)))

	// Auth
	mux.Handle("POST /api/auth/login", chain(http.HandlerFunc(h.Login)))
	mux.Handle("POST /api/auth/logout", chain(http.HandlerFunc(h.Logout)))
	mux.Handle("GET /api/auth/session", authed(http.HandlerFunc(h.CurrentSession)))
}
