package api

import (
	"net/http"

	"github.com/shaiso/zakaz/internal/catalog"
)

// ListStatuses возвращает активные статусы заявок.
// GET /api/statuses
func (h *Handler) ListStatuses(w http.ResponseWriter, r *http.Request) {
	defs, err := h.catalog.ListActive(r.Context())
	if HandleError(w, h.logger, err) {
		return
	}
	Success(w, StatusesResponse{Statuses: defs})
}

// ListAllStatuses возвращает все статусы, включая неактивные.
// GET /api/admin/statuses
func (h *Handler) ListAllStatuses(w http.ResponseWriter, r *http.Request) {
	defs, err := h.catalog.ListAll(r.Context())
	if HandleError(w, h.logger, err) {
		return
	}
	Success(w, StatusesResponse{Statuses: defs})
}

// CreateStatus добавляет статус в каталог.
// POST /api/admin/statuses
func (h *Handler) CreateStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !decode(r, &req) {
		BadRequest(w, "Invalid request body")
		return
	}

	in := catalog.CreateInput{
		Description: req.description(),
		SortOrder:   req.SortOrder,
		IsActive:    req.IsActive,
	}
	if req.Code != nil {
		in.Code = *req.Code
	}
	if l := req.label(); l != nil {
		in.Label = *l
	}

	def, err := h.catalog.Create(r.Context(), in)
	if HandleError(w, h.logger, err) {
		return
	}
	Success(w, StatusResponse{Status: def})
}

// UpdateStatus частично обновляет статус.
// PATCH /api/admin/statuses/{id}
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		BadRequest(w, "Invalid status id")
		return
	}

	var req StatusRequest
	if !decode(r, &req) {
		BadRequest(w, "Invalid request body")
		return
	}

	def, err := h.catalog.Update(r.Context(), id, catalog.UpdateInput{
		Code:        req.Code,
		Label:       req.label(),
		Description: req.description(),
		SortOrder:   req.SortOrder,
		IsActive:    req.IsActive,
	})
	if HandleError(w, h.logger, err) {
		return
	}
	Success(w, StatusResponse{Status: def})
}

// DeactivateStatus деактивирует статус. Запись не удаляется.
// DELETE /api/admin/statuses/{id}
func (h *Handler) DeactivateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		BadRequest(w, "Invalid status id")
		return
	}

	def, err := h.catalog.Deactivate(r.Context(), id)
	if HandleError(w, h.logger, err) {
		return
	}
	Success(w, StatusResponse{Status: def})
}
