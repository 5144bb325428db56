package domain

import (
	"time"

	"github.com/google/uuid"
)

// Application — заявка клиента на подключение или услугу.
//
// Статус заявки берётся из каталога статусов (см. CatalogStatus).
// Поля AssignedTo и TechnicalCuratorID — необязательные ссылки на
// пользователей, их можно снять независимо от статуса.
type Application struct {
	// ID — уникальный идентификатор заявки.
	ID uuid.UUID `json:"id"`

	// ApplicationNumber — последовательный номер для людей (№1001).
	ApplicationNumber int64 `json:"application_number"`

	// Status — текущий код статуса из каталога.
	Status CatalogStatus `json:"status"`

	CustomerType     string  `json:"customer_type"`
	CustomerFullName string  `json:"customer_fullname"`
	CustomerPhone    string  `json:"customer_phone"`
	StreetAndHouse   *string `json:"street_and_house"`
	AddressDetails   *string `json:"address_details"`
	Urgency          string  `json:"urgency"`
	ServiceType      string  `json:"service_type"`
	ClientComment    *string `json:"client_comment"`

	// AssignedTo — ответственный сотрудник.
	AssignedTo *uuid.UUID `json:"assigned_to"`

	// TechnicalCuratorID — технический куратор заявки.
	TechnicalCuratorID *uuid.UUID `json:"technical_curator_id"`

	CreatedBy *uuid.UUID `json:"created_by"`
	UpdatedBy *uuid.UUID `json:"updated_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// AssignedUser — данные ответственного (заполняется при чтении).
	AssignedUser *UserRef `json:"assigned_user,omitempty"`

	// TechnicalCuratorUser — данные технического куратора (заполняется при чтении).
	TechnicalCuratorUser *UserRef `json:"technical_curator_user,omitempty"`
}

// AssigneeField — поле заявки, хранящее ссылку на пользователя.
type AssigneeField string

const (
	// AssigneeFieldAssignedTo — ответственный сотрудник.
	AssigneeFieldAssignedTo AssigneeField = "assigned_to"

	// AssigneeFieldTechnicalCurator — технический куратор.
	AssigneeFieldTechnicalCurator AssigneeField = "technical_curator_id"
)

// Current возвращает текущее значение поля для заявки.
func (f AssigneeField) Current(app *Application) *uuid.UUID {
	switch f {
	case AssigneeFieldTechnicalCurator:
		return app.TechnicalCuratorID
	default:
		return app.AssignedTo
	}
}
