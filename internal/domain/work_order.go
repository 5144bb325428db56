package domain

import (
	"time"

	"github.com/google/uuid"
)

// WorkOrderType — тип наряда.
type WorkOrderType string

const (
	// WorkOrderTypeSurvey — выезд на осмотр и расчёт.
	WorkOrderTypeSurvey WorkOrderType = "survey"

	// WorkOrderTypeInstallation — монтаж.
	WorkOrderTypeInstallation WorkOrderType = "installation"
)

// Label возвращает русское название типа наряда.
func (t WorkOrderType) Label() string {
	if t == WorkOrderTypeSurvey {
		return "Осмотр и расчёт"
	}
	return "Монтаж"
}

// WorkOrder — наряд на выездные работы по заявке.
type WorkOrder struct {
	// ID — уникальный идентификатор наряда.
	ID uuid.UUID `json:"id"`

	// WorkOrderNumber — номер наряда для людей.
	WorkOrderNumber int64 `json:"work_order_number"`

	// ApplicationID — заявка, к которой относится наряд.
	ApplicationID uuid.UUID `json:"application_id"`

	Type   WorkOrderType   `json:"type"`
	Status WorkOrderStatus `json:"status"`

	ScheduledDate     *time.Time `json:"scheduled_date"`
	ScheduledTime     *string    `json:"scheduled_time"`
	EstimatedDuration *string    `json:"estimated_duration"`

	// ActualStartAt — фактическое начало работ.
	// Проставляется автоматически при первом переходе в in_progress.
	ActualStartAt *time.Time `json:"actual_start_at"`

	// ActualEndAt — фактическое окончание работ.
	// Проставляется автоматически при первом переходе в completed.
	ActualEndAt *time.Time `json:"actual_end_at"`

	ResultNotes *string `json:"result_notes"`

	// Executors — пользователи, назначенные исполнителями.
	Executors []uuid.UUID `json:"executors"`

	CreatedBy *uuid.UUID `json:"created_by"`
	UpdatedBy *uuid.UUID `json:"updated_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ApplyStatus переводит наряд в статус next.
//
// Вход в in_progress проставляет ActualStartAt, вход в completed проставляет
// ActualEndAt. Уже заполненные значения не перезаписываются.
func (w *WorkOrder) ApplyStatus(next WorkOrderStatus, actor *uuid.UUID, now time.Time) {
	w.Status = next
	w.UpdatedBy = actor
	w.UpdatedAt = now

	switch next {
	case WorkOrderStatusInProgress:
		if w.ActualStartAt == nil {
			w.ActualStartAt = &now
		}
	case WorkOrderStatusCompleted:
		if w.ActualEndAt == nil {
			w.ActualEndAt = &now
		}
	}
}

// HasExecutor возвращает true, если пользователь входит в число исполнителей.
func (w *WorkOrder) HasExecutor(userID uuid.UUID) bool {
	for _, id := range w.Executors {
		if id == userID {
			return true
		}
	}
	return false
}

// CanBeCompletedBy проверяет право отметить наряд выполненным:
// администратор, автор наряда или один из исполнителей.
func (w *WorkOrder) CanBeCompletedBy(who Identity) bool {
	if who.IsAdmin() {
		return true
	}
	if w.CreatedBy != nil && *w.CreatedBy == who.UserID {
		return true
	}
	return w.HasExecutor(who.UserID)
}
