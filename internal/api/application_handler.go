package api

import (
	"context"
	"net/http"

	"github.com/shaiso/zakaz/internal/domain"
	"github.com/shaiso/zakaz/internal/transition"
)

// ChangeApplicationStatus меняет статус заявки.
// POST /api/applications/{id}/status
func (h *Handler) ChangeApplicationStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		BadRequest(w, "Invalid application id")
		return
	}

	var req ChangeApplicationStatusRequest
	if !decode(r, &req) {
		BadRequest(w, "Invalid request body")
		return
	}
	by, ok := actor(r, req.ChangedBy)
	if !ok {
		BadRequest(w, "Invalid changed_by")
		return
	}

	app, err := h.applications.ChangeStatus(r.Context(), transition.StatusChange{
		ApplicationID: id,
		NewStatus:     req.NewStatus,
		Comment:       req.Comment,
		Actor:         by,
	})
	if HandleError(w, h.logger, err) {
		return
	}

	Success(w, ApplicationResponse{Application: app, Message: "Status updated successfully"})
}

// AssignApplication назначает ответственного или снимает назначение.
// PATCH /api/applications/{id}/assign
func (h *Handler) AssignApplication(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if !decode(r, &req) {
		BadRequest(w, "Invalid request body")
		return
	}
	h.assign(w, r, req.AssignedTo, req.ChangedBy, h.applications.Assign,
		"User assigned successfully", "Assignment removed successfully")
}

// AssignTechnicalCurator назначает технического куратора или снимает назначение.
// PATCH /api/applications/{id}/technical-curator
func (h *Handler) AssignTechnicalCurator(w http.ResponseWriter, r *http.Request) {
	var req TechnicalCuratorRequest
	if !decode(r, &req) {
		BadRequest(w, "Invalid request body")
		return
	}
	h.assign(w, r, req.TechnicalCuratorID, req.ChangedBy, h.applications.AssignTechnicalCurator,
		"Technical curator assigned successfully", "Technical curator removed successfully")
}

type assignFunc func(ctx context.Context, req transition.Assignment) (*domain.Application, error)

func (h *Handler) assign(w http.ResponseWriter, r *http.Request, target, changedBy *string, fn assignFunc, assignedMsg, removedMsg string) {
	id, ok := pathID(r)
	if !ok {
		BadRequest(w, "Invalid application id")
		return
	}
	userID, ok := optionalUUID(target)
	if !ok {
		BadRequest(w, "Invalid user id")
		return
	}
	by, ok := actor(r, changedBy)
	if !ok {
		BadRequest(w, "Invalid changed_by")
		return
	}

	app, err := fn(r.Context(), transition.Assignment{ApplicationID: id, UserID: userID, Actor: by})
	if HandleError(w, h.logger, err) {
		return
	}

	msg := assignedMsg
	if userID == nil {
		msg = removedMsg
	}
	Success(w, ApplicationResponse{Application: app, Message: msg})
}

// ListApplicationLogs возвращает журнал аудита заявки, новые записи первыми.
// GET /api/applications/{id}/logs
func (h *Handler) ListApplicationLogs(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		BadRequest(w, "Invalid application id")
		return
	}

	logs, err := h.store.Audit().ListByEntity(r.Context(), domain.EntityApplication, id.String())
	if HandleError(w, h.logger, err) {
		return
	}
	if logs == nil {
		logs = []domain.AuditLogEntry{}
	}
	Success(w, LogsResponse{Logs: logs})
}

// ListApplicationHistory возвращает историю статусов заявки.
// GET /api/applications/{id}/status-history
func (h *Handler) ListApplicationHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		BadRequest(w, "Invalid application id")
		return
	}

	history, err := h.applications.History(r.Context(), id)
	if HandleError(w, h.logger, err) {
		return
	}
	Success(w, HistoryResponse{History: history})
}
