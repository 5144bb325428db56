package transition

import (
	"fmt"

	"github.com/shaiso/zakaz/internal/domain"
)

const unknownUser = "Неизвестно"

// describeStatusChange — описание смены статуса заявки для журнала.
func describeStatusChange(oldLabel, newLabel, comment string) string {
	s := fmt.Sprintf(`Изменен статус заявки с "%s" на "%s"`, oldLabel, newLabel)
	if comment != "" {
		s += ": " + comment
	}
	return s
}

// assigneeNouns — формы названия роли в описаниях назначения.
type assigneeNouns struct {
	title      string // "Ответственный"
	nominative string // "ответственный"
	genitive   string // "ответственного"
}

func nounsFor(field domain.AssigneeField) assigneeNouns {
	if field == domain.AssigneeFieldTechnicalCurator {
		return assigneeNouns{title: "Технический куратор", nominative: "технический куратор", genitive: "технического куратора"}
	}
	return assigneeNouns{title: "Ответственный", nominative: "ответственный", genitive: "ответственного"}
}

// describeAssignment — описание назначения или снятия для журнала.
//
// hadOld — было ли поле заполнено до изменения; oldName может быть nil,
// если прежнего пользователя не удалось найти.
func describeAssignment(field domain.AssigneeField, hadOld bool, oldName, newName *string) string {
	n := nounsFor(field)

	if newName != nil {
		if hadOld {
			old := unknownUser
			if oldName != nil {
				old = *oldName
			}
			return fmt.Sprintf(`%s изменен с "%s" на "%s"`, n.title, old, *newName)
		}
		return fmt.Sprintf("Назначен %s: %s", n.nominative, *newName)
	}

	if oldName != nil {
		return fmt.Sprintf("Снято назначение %s: %s", n.genitive, *oldName)
	}
	return "Снято назначение " + n.genitive
}

// describeWorkOrderChange — описание смены статуса наряда для журнала.
func describeWorkOrderChange(wo *domain.WorkOrder, old, next domain.WorkOrderStatus) string {
	return fmt.Sprintf("Наряд №%d (%s): %s → %s", wo.WorkOrderNumber, wo.Type.Label(), old.Label(), next.Label())
}
