package transition

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/zakaz/internal/audit"
	"github.com/shaiso/zakaz/internal/domain"
	"github.com/shaiso/zakaz/internal/mq"
	"github.com/shaiso/zakaz/internal/store"
	"github.com/shaiso/zakaz/internal/telemetry"
)

// completedComment — комментарий истории, если отчёт не заполнен.
const completedComment = "Наряд выполнен"

// WorkOrderEngine меняет статусы нарядов.
type WorkOrderEngine struct {
	base
}

// NewWorkOrderEngine создаёт WorkOrderEngine.
func NewWorkOrderEngine(cfg Config) *WorkOrderEngine {
	return &WorkOrderEngine{base: newBase(cfg, "work-order-engine")}
}

// WorkOrderStatusChange — запрос на смену статуса наряда.
type WorkOrderStatusChange struct {
	WorkOrderID uuid.UUID
	Status      string
	Comment     string
	Actor       *uuid.UUID
}

// ChangeStatus переводит наряд в новый статус.
//
// Переход в текущий статус отклоняется с ErrNoOp. Порядок статусов не
// проверяется, из завершённого наряда можно вернуться в любой статус.
func (e *WorkOrderEngine) ChangeStatus(ctx context.Context, req WorkOrderStatusChange) (*domain.WorkOrder, error) {
	by, err := e.storedActor(ctx, req.Actor)
	if err != nil {
		return nil, err
	}

	var (
		wo  *domain.WorkOrder
		old domain.WorkOrderStatus
		now = e.now()
	)

	err = e.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		wo, err = getWorkOrder(ctx, tx, req.WorkOrderID)
		if err != nil {
			return err
		}

		next, ok := domain.ParseWorkOrderStatus(req.Status)
		if !ok {
			return invalidWorkOrderStatus()
		}
		if next == wo.Status {
			return newError(ErrNoOp, "Status is already "+req.Status)
		}

		old = wo.Status
		wo.ApplyStatus(next, by, now)
		if err := tx.WorkOrders().Update(ctx, wo); err != nil {
			return fmt.Errorf("update work order: %w", err)
		}

		oldCode := string(old)
		e.appendHistory(ctx, tx, domain.HistoryWorkOrder,
			domain.NewStatusHistoryRecord(wo.ID, &oldCode, string(next), by, req.Comment, now))
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.afterTransition(ctx, wo, old, req.Actor, now)
	return e.reload(ctx, wo.ID)
}

// Completion — отметка об исполнении наряда.
type Completion struct {
	WorkOrderID uuid.UUID
	ResultNotes *string

	// ActualEndAt — фактическое окончание; nil оставляет прежнее значение
	// или, если его нет, текущее время.
	ActualEndAt *time.Time

	// Who — пользователь сессии.
	Who domain.Identity
}

// Complete отмечает наряд выполненным.
//
// Доступно администратору, автору наряда и его исполнителям. Для уже
// выполненного наряда обновляются только отчёт и время окончания, запись
// в историю не добавляется.
func (e *WorkOrderEngine) Complete(ctx context.Context, req Completion) (*domain.WorkOrder, error) {
	actor := req.Who.UserID
	by, err := e.storedActor(ctx, &actor)
	if err != nil {
		return nil, err
	}

	var (
		wo        *domain.WorkOrder
		old       domain.WorkOrderStatus
		now       = e.now()
		notes     = trimmed(req.ResultNotes)
		completed = domain.WorkOrderStatusCompleted
	)

	err = e.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		wo, err = getWorkOrder(ctx, tx, req.WorkOrderID)
		if err != nil {
			return err
		}
		if !wo.CanBeCompletedBy(req.Who) {
			return errPermissionDenied
		}

		old = wo.Status
		wo.ResultNotes = notes
		if req.ActualEndAt != nil {
			end := req.ActualEndAt.UTC()
			wo.ActualEndAt = &end
		}
		wo.ApplyStatus(completed, by, now)

		if err := tx.WorkOrders().Update(ctx, wo); err != nil {
			return fmt.Errorf("complete work order: %w", err)
		}

		if old != completed {
			comment := completedComment
			if notes != nil {
				comment = *notes
			}
			oldCode := string(old)
			e.appendHistory(ctx, tx, domain.HistoryWorkOrder,
				domain.NewStatusHistoryRecord(wo.ID, &oldCode, string(completed), by, comment, now))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if old != completed {
		e.afterTransition(ctx, wo, old, &actor, now)
	} else {
		e.record(ctx, &actor, audit.Entry{
			Action:      domain.ActionUpdate,
			EntityType:  domain.EntityWorkOrder,
			EntityID:    wo.ID.String(),
			Description: fmt.Sprintf("Наряд №%d (%s): обновлён отчёт о выполнении", wo.WorkOrderNumber, wo.Type.Label()),
			NewValues:   map[string]any{"result_notes": wo.ResultNotes, "actual_end_at": wo.ActualEndAt},
		})
	}
	return e.reload(ctx, wo.ID)
}

// History возвращает историю статусов наряда и сведения о его создании.
func (e *WorkOrderEngine) History(ctx context.Context, workOrderID uuid.UUID) (*WorkOrderHistory, error) {
	records, err := e.store.History().List(ctx, domain.HistoryWorkOrder, workOrderID)
	if err != nil {
		return nil, fmt.Errorf("list work order history: %w", err)
	}
	out := &WorkOrderHistory{History: withLabels(records, workOrderLabel)}

	wo, err := e.store.WorkOrders().Get(ctx, workOrderID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return out, nil
	case err != nil:
		return nil, fmt.Errorf("get work order: %w", err)
	}

	out.Created = &CreatedInfo{CreatedAt: wo.CreatedAt, CreatedBy: wo.CreatedBy}
	if wo.CreatedBy != nil {
		if u, err := e.store.Users().Get(ctx, *wo.CreatedBy); err == nil {
			out.Created.CreatedByUser = u.Ref()
		}
	}
	return out, nil
}

// afterTransition пишет аудит и событие о принятом переходе.
func (e *WorkOrderEngine) afterTransition(ctx context.Context, wo *domain.WorkOrder, old domain.WorkOrderStatus, actor *uuid.UUID, at time.Time) {
	telemetry.WithWorkOrderID(e.logger, wo.ID.String()).Info("work order status changed",
		"old_status", old,
		"new_status", wo.Status,
	)

	e.record(ctx, actor, audit.Entry{
		Action:      domain.ActionStatusChange,
		EntityType:  domain.EntityWorkOrder,
		EntityID:    wo.ID.String(),
		Description: describeWorkOrderChange(wo, old, wo.Status),
		OldValues:   map[string]any{"status": string(old)},
		NewValues:   map[string]any{"status": string(wo.Status)},
	})

	oldCode := string(old)
	e.publish(ctx, mq.StatusChangedPayload{
		EntityType: domain.HistoryWorkOrder,
		EntityID:   wo.ID,
		OldStatus:  &oldCode,
		NewStatus:  string(wo.Status),
		ChangedBy:  actor,
		ChangedAt:  at,
	})
}

func (e *WorkOrderEngine) reload(ctx context.Context, id uuid.UUID) (*domain.WorkOrder, error) {
	wo, err := e.store.WorkOrders().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload work order: %w", err)
	}
	return wo, nil
}

func getWorkOrder(ctx context.Context, tx store.Tx, id uuid.UUID) (*domain.WorkOrder, error) {
	wo, err := tx.WorkOrders().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errWorkOrderNotFound
		}
		return nil, fmt.Errorf("get work order: %w", err)
	}
	return wo, nil
}

func invalidWorkOrderStatus() *Error {
	codes := make([]string, 0, 5)
	for _, s := range domain.WorkOrderStatuses() {
		codes = append(codes, string(s))
	}
	return newError(ErrInvalidStatus, "Invalid status. Must be one of: "+strings.Join(codes, ", "))
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
