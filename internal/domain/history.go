package domain

import (
	"time"

	"github.com/google/uuid"
)

// HistoryEntity — тип сущности, для которой ведётся история статусов.
// У каждого типа своя таблица истории.
type HistoryEntity string

const (
	// HistoryApplication — zakaz_application_status_history.
	HistoryApplication HistoryEntity = "application"

	// HistoryWorkOrder — zakaz_work_order_status_history.
	HistoryWorkOrder HistoryEntity = "work_order"
)

// StatusHistoryRecord — неизменяемая запись об одном переходе статуса.
//
// Создаётся только движком переходов, никогда не обновляется и не удаляется.
// OldStatus == nil означает создание сущности.
type StatusHistoryRecord struct {
	ID        uuid.UUID  `json:"id"`
	EntityID  uuid.UUID  `json:"entity_id"`
	OldStatus *string    `json:"old_status"`
	NewStatus string     `json:"new_status"`
	ChangedBy *uuid.UUID `json:"changed_by"`
	Comment   *string    `json:"comment"`
	ChangedAt time.Time  `json:"changed_at"`

	// ChangedByUser — автор изменения (заполняется при чтении).
	ChangedByUser *UserRef `json:"user,omitempty"`
}

// NewStatusHistoryRecord создаёт запись истории для перехода old → next.
func NewStatusHistoryRecord(entityID uuid.UUID, old *string, next string, changedBy *uuid.UUID, comment string, at time.Time) StatusHistoryRecord {
	rec := StatusHistoryRecord{
		ID:        uuid.New(),
		EntityID:  entityID,
		OldStatus: old,
		NewStatus: next,
		ChangedBy: changedBy,
		ChangedAt: at,
	}
	if comment != "" {
		rec.Comment = &comment
	}
	return rec
}
