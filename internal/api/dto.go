package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/zakaz/internal/domain"
	"github.com/shaiso/zakaz/internal/transition"
)

// Status DTOs

// StatusRequest — создание или частичное обновление статуса каталога.
// Название принимается в label или name_ru, описание — в description или description_ru.
type StatusRequest struct {
	Code          *string `json:"code"`
	Label         *string `json:"label"`
	NameRu        *string `json:"name_ru"`
	Description   *string `json:"description"`
	DescriptionRu *string `json:"description_ru"`
	SortOrder     *int    `json:"sort_order"`
	IsActive      *bool   `json:"is_active"`
}

func (r StatusRequest) label() *string {
	if r.NameRu != nil {
		return r.NameRu
	}
	return r.Label
}

func (r StatusRequest) description() *string {
	if r.DescriptionRu != nil {
		return r.DescriptionRu
	}
	return r.Description
}

// StatusesResponse — список статусов.
type StatusesResponse struct {
	Statuses []domain.StatusDefinition `json:"statuses"`
}

// StatusResponse — один статус.
type StatusResponse struct {
	Status *domain.StatusDefinition `json:"status"`
}

// Application DTOs

// ChangeApplicationStatusRequest — смена статуса заявки.
type ChangeApplicationStatusRequest struct {
	NewStatus string  `json:"new_status"`
	Comment   string  `json:"comment"`
	ChangedBy *string `json:"changed_by"`
}

// AssignRequest — назначение ответственного. Пустая строка или null снимает назначение.
type AssignRequest struct {
	AssignedTo *string `json:"assigned_to"`
	ChangedBy  *string `json:"changed_by"`
}

// TechnicalCuratorRequest — назначение технического куратора.
type TechnicalCuratorRequest struct {
	TechnicalCuratorID *string `json:"technical_curator_id"`
	ChangedBy          *string `json:"changed_by"`
}

// ApplicationResponse — заявка после изменения.
type ApplicationResponse struct {
	Application *domain.Application `json:"application"`
	Message     string              `json:"message"`
}

// LogsResponse — журнал аудита сущности.
type LogsResponse struct {
	Logs []domain.AuditLogEntry `json:"logs"`
}

// HistoryResponse — история статусов заявки.
type HistoryResponse struct {
	History []transition.HistoryEntry `json:"history"`
}

// Work order DTOs

// ChangeWorkOrderStatusRequest — смена статуса наряда.
type ChangeWorkOrderStatusRequest struct {
	Status  string  `json:"status"`
	Comment string  `json:"comment"`
	UserID  *string `json:"user_id"`
}

// CompleteWorkOrderRequest — отметка о выполнении наряда.
type CompleteWorkOrderRequest struct {
	ResultNotes *string    `json:"result_notes"`
	ActualEndAt *time.Time `json:"actual_end_at"`
}

// WorkOrderResponse — наряд после изменения.
type WorkOrderResponse struct {
	WorkOrder *domain.WorkOrder `json:"work_order"`
	Message   string            `json:"message,omitempty"`
}

// Auth DTOs

// LoginRequest — вход по email и паролю.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionUser — пользователь в ответах /auth.
type SessionUser struct {
	ID       uuid.UUID   `json:"id"`
	Email    string      `json:"email"`
	FullName string      `json:"full_name"`
	Role     domain.Role `json:"role"`
}

// SessionResponse — ответ с пользователем сессии.
type SessionResponse struct {
	User    SessionUser `json:"user"`
	Message string      `json:"message,omitempty"`
}

// MessageResponse — ответ с сообщением.
type MessageResponse struct {
	Message string `json:"message"`
}
