package domain

import (
	"time"

	"github.com/google/uuid"
)

// CatalogStatus — код статуса заявки.
//
// Набор допустимых кодов не зашит в код: он хранится в каталоге статусов
// (zakaz_application_statuses) и редактируется администратором. Проверка
// кода выполняется в момент перехода, а не внешним ключом.
type CatalogStatus string

// String возвращает код статуса.
func (s CatalogStatus) String() string {
	return string(s)
}

// StatusDefinition — запись каталога статусов заявок.
//
// Записи никогда не удаляются физически: DELETE переводит запись в
// is_active=false, чтобы история переходов продолжала ссылаться на код.
type StatusDefinition struct {
	// ID — идентификатор записи каталога.
	ID uuid.UUID `json:"id"`

	// Code — уникальный код статуса (сравнение с учётом регистра).
	Code CatalogStatus `json:"code"`

	// Label — отображаемое название на русском.
	Label string `json:"label"`

	// Description — необязательное описание.
	Description *string `json:"description"`

	// SortOrder — позиция в канонической последовательности (для прогресс-бара).
	// Порядок рекомендательный, переходы им не ограничиваются.
	SortOrder int `json:"sort_order"`

	// IsActive — можно ли выбрать статус при переходе.
	IsActive bool `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WorkOrderStatus — статус наряда.
//
// В отличие от статусов заявок, это закрытый набор значений:
//
//	draft → assigned → in_progress → completed
//	  └────────┴────────────┴──→ cancelled
//
// Порядок соблюдается интерфейсом, сервер проверяет только допустимость
// значения и то, что статус действительно меняется.
type WorkOrderStatus string

const (
	// WorkOrderStatusDraft — черновик, наряд ещё не выдан.
	WorkOrderStatusDraft WorkOrderStatus = "draft"

	// WorkOrderStatusAssigned — наряд выдан исполнителям.
	WorkOrderStatusAssigned WorkOrderStatus = "assigned"

	// WorkOrderStatusInProgress — работы начаты.
	WorkOrderStatusInProgress WorkOrderStatus = "in_progress"

	// WorkOrderStatusCompleted — наряд выполнен.
	WorkOrderStatusCompleted WorkOrderStatus = "completed"

	// WorkOrderStatusCancelled — наряд отменён.
	WorkOrderStatusCancelled WorkOrderStatus = "cancelled"
)

var workOrderStatusLabels = map[WorkOrderStatus]string{
	WorkOrderStatusDraft:      "Черновик",
	WorkOrderStatusAssigned:   "Выдан",
	WorkOrderStatusInProgress: "В работе",
	WorkOrderStatusCompleted:  "Выполнен",
	WorkOrderStatusCancelled:  "Отменён",
}

// WorkOrderStatuses возвращает все статусы наряда в порядке жизненного цикла.
func WorkOrderStatuses() []WorkOrderStatus {
	return []WorkOrderStatus{
		WorkOrderStatusDraft,
		WorkOrderStatusAssigned,
		WorkOrderStatusInProgress,
		WorkOrderStatusCompleted,
		WorkOrderStatusCancelled,
	}
}

// ParseWorkOrderStatus парсит строку в WorkOrderStatus.
// Второе значение false, если строка не является статусом наряда.
func ParseWorkOrderStatus(s string) (WorkOrderStatus, bool) {
	status := WorkOrderStatus(s)
	if !status.IsValid() {
		return "", false
	}
	return status, true
}

// String возвращает строковое представление WorkOrderStatus.
func (s WorkOrderStatus) String() string {
	return string(s)
}

// IsValid возвращает true для одного из пяти известных статусов.
func (s WorkOrderStatus) IsValid() bool {
	_, ok := workOrderStatusLabels[s]
	return ok
}

// Label возвращает русское название статуса или сам код для неизвестного значения.
func (s WorkOrderStatus) Label() string {
	if label, ok := workOrderStatusLabels[s]; ok {
		return label
	}
	return string(s)
}
