package transition

import (
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/zakaz/internal/domain"
)

// HistoryEntry — запись истории с названиями статусов для отображения.
type HistoryEntry struct {
	domain.StatusHistoryRecord

	OldStatusLabel *string `json:"old_status_label"`
	NewStatusLabel string  `json:"new_status_label"`
}

// CreatedInfo — сведения о создании наряда.
type CreatedInfo struct {
	CreatedAt     time.Time       `json:"created_at"`
	CreatedBy     *uuid.UUID      `json:"created_by"`
	CreatedByUser *domain.UserRef `json:"created_by_user"`
}

// WorkOrderHistory — история статусов наряда.
// Created == nil, если наряд не найден.
type WorkOrderHistory struct {
	History []HistoryEntry `json:"history"`
	Created *CreatedInfo   `json:"created"`
}

func withLabels(records []domain.StatusHistoryRecord, label func(code string) string) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(records))
	for _, rec := range records {
		entry := HistoryEntry{
			StatusHistoryRecord: rec,
			NewStatusLabel:      label(rec.NewStatus),
		}
		if rec.OldStatus != nil {
			l := label(*rec.OldStatus)
			entry.OldStatusLabel = &l
		}
		out = append(out, entry)
	}
	return out
}

// workOrderLabel — название фиксированного статуса наряда или сам код.
func workOrderLabel(code string) string {
	if s, ok := domain.ParseWorkOrderStatus(code); ok {
		return s.Label()
	}
	return code
}
