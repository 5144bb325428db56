package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActionType — вид действия в журнале аудита.
type ActionType string

const (
	ActionCreate       ActionType = "create"
	ActionUpdate       ActionType = "update"
	ActionDelete       ActionType = "delete"
	ActionStatusChange ActionType = "status_change"
	ActionAssign       ActionType = "assign"
	ActionUnassign     ActionType = "unassign"
	ActionOther        ActionType = "other"
)

// EntityType — тип сущности, к которой относится запись аудита.
type EntityType string

const (
	EntityApplication EntityType = "application"
	EntityWorkOrder   EntityType = "work_order"
	EntityStatus      EntityType = "status"
	EntityUser        EntityType = "user"
	EntityOther       EntityType = "other"
)

// AuditLogEntry — запись журнала аудита.
//
// Description уже содержит готовый текст с русскими названиями, чтобы
// журнал читался без обращения к каталогам. Записи только добавляются.
type AuditLogEntry struct {
	ID          uuid.UUID      `json:"id"`
	ActionType  ActionType     `json:"action_type"`
	EntityType  EntityType     `json:"entity_type"`
	EntityID    *string        `json:"entity_id"`
	Description string         `json:"description"`
	UserID      *uuid.UUID     `json:"user_id"`
	UserName    *string        `json:"user_name"`
	UserEmail   *string        `json:"user_email"`
	OldValues   map[string]any `json:"old_values"`
	NewValues   map[string]any `json:"new_values"`
	IPAddress   *string        `json:"ip_address"`
	UserAgent   *string        `json:"user_agent"`
	CreatedAt   time.Time      `json:"created_at"`
}
