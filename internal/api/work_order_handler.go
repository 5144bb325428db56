package api

import (
	"net/http"

	"github.com/shaiso/zakaz/internal/auth"
	"github.com/shaiso/zakaz/internal/transition"
)

// ChangeWorkOrderStatus меняет статус наряда.
// PATCH /api/work-orders/{id}/status
func (h *Handler) ChangeWorkOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		BadRequest(w, "Invalid work order id")
		return
	}

	var req ChangeWorkOrderStatusRequest
	if !decode(r, &req) {
		BadRequest(w, "Invalid request body")
		return
	}
	by, ok := actor(r, req.UserID)
	if !ok {
		BadRequest(w, "Invalid user_id")
		return
	}

	wo, err := h.workOrders.ChangeStatus(r.Context(), transition.WorkOrderStatusChange{
		WorkOrderID: id,
		Status:      req.Status,
		Comment:     req.Comment,
		Actor:       by,
	})
	if HandleError(w, h.logger, err) {
		return
	}

	Success(w, WorkOrderResponse{WorkOrder: wo, Message: "Status changed to " + req.Status})
}

// CompleteWorkOrder отмечает наряд выполненным от имени пользователя сессии.
// POST /api/work-orders/{id}/complete
func (h *Handler) CompleteWorkOrder(w http.ResponseWriter, r *http.Request) {
	who, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		Unauthorized(w)
		return
	}

	id, ok := pathID(r)
	if !ok {
		BadRequest(w, "Invalid work order id")
		return
	}

	var req CompleteWorkOrderRequest
	if !decode(r, &req) {
		BadRequest(w, "Invalid request body")
		return
	}

	wo, err := h.workOrders.Complete(r.Context(), transition.Completion{
		WorkOrderID: id,
		ResultNotes: req.ResultNotes,
		ActualEndAt: req.ActualEndAt,
		Who:         who,
	})
	if HandleError(w, h.logger, err) {
		return
	}

	Success(w, WorkOrderResponse{WorkOrder: wo})
}

// ListWorkOrderHistory возвращает историю статусов наряда и сведения о создании.
// GET /api/work-orders/{id}/history
func (h *Handler) ListWorkOrderHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		BadRequest(w, "Invalid work order id")
		return
	}

	history, err := h.workOrders.History(r.Context(), id)
	if HandleError(w, h.logger, err) {
		return
	}
	Success(w, history)
}
