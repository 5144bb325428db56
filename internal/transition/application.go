package transition

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shaiso/zakaz/internal/audit"
	"github.com/shaiso/zakaz/internal/domain"
	"github.com/shaiso/zakaz/internal/mq"
	"github.com/shaiso/zakaz/internal/store"
	"github.com/shaiso/zakaz/internal/telemetry"
)

// ApplicationEngine меняет статус и назначения заявок.
type ApplicationEngine struct {
	base
}

// NewApplicationEngine создаёт ApplicationEngine.
func NewApplicationEngine(cfg Config) *ApplicationEngine {
	return &ApplicationEngine{base: newBase(cfg, "application-engine")}
}

// StatusChange — запрос на смену статуса заявки.
type StatusChange struct {
	ApplicationID uuid.UUID
	NewStatus     string
	Comment       string

	// Actor — автор изменения, nil для анонимного вызова.
	Actor *uuid.UUID
}

// ChangeStatus переводит заявку в статус NewStatus.
//
// Допустим любой активный код каталога, включая текущий: граф переходов
// не проверяется. Возвращает обновлённую заявку с данными ответственного
// и куратора.
func (e *ApplicationEngine) ChangeStatus(ctx context.Context, req StatusChange) (*domain.Application, error) {
	if req.NewStatus == "" {
		return nil, errStatusRequired
	}
	logger := telemetry.WithApplicationID(e.logger, req.ApplicationID.String())

	by, err := e.storedActor(ctx, req.Actor)
	if err != nil {
		return nil, err
	}

	var oldStatus domain.CatalogStatus
	next := domain.CatalogStatus(req.NewStatus)
	now := e.now()

	err = e.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		app, err := tx.Applications().Get(ctx, req.ApplicationID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return errApplicationNotFound
			}
			return fmt.Errorf("get application: %w", err)
		}

		_, ok, err := e.catalog.Active(ctx, req.NewStatus)
		if err != nil {
			return err
		}
		if !ok {
			return errInvalidAppStatus
		}

		oldStatus = app.Status
		if err := tx.Applications().UpdateStatus(ctx, app.ID, next, by, now); err != nil {
			return fmt.Errorf("update application status: %w", err)
		}

		old := string(oldStatus)
		e.appendHistory(ctx, tx, domain.HistoryApplication,
			domain.NewStatusHistoryRecord(app.ID, &old, req.NewStatus, by, req.Comment, now))
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("application status changed", "old_status", oldStatus, "new_status", next)

	e.record(ctx, req.Actor, audit.Entry{
		Action:     domain.ActionStatusChange,
		EntityType: domain.EntityApplication,
		EntityID:   req.ApplicationID.String(),
		Description: describeStatusChange(
			e.catalog.ResolveLabel(ctx, string(oldStatus)),
			e.catalog.ResolveLabel(ctx, req.NewStatus),
			req.Comment,
		),
		OldValues: map[string]any{"status": string(oldStatus)},
		NewValues: map[string]any{"status": req.NewStatus},
	})

	old := string(oldStatus)
	e.publish(ctx, mq.StatusChangedPayload{
		EntityType: domain.HistoryApplication,
		EntityID:   req.ApplicationID,
		OldStatus:  &old,
		NewStatus:  req.NewStatus,
		ChangedBy:  req.Actor,
		ChangedAt:  now,
	})

	return e.reload(ctx, req.ApplicationID)
}

// Assignment — запрос на назначение пользователя на заявку.
type Assignment struct {
	ApplicationID uuid.UUID

	// UserID — назначаемый пользователь, nil снимает назначение.
	UserID *uuid.UUID

	Actor *uuid.UUID
}

// Assign назначает ответственного сотрудника или снимает назначение.
func (e *ApplicationEngine) Assign(ctx context.Context, req Assignment) (*domain.Application, error) {
	return e.assign(ctx, domain.AssigneeFieldAssignedTo, req)
}

// AssignTechnicalCurator назначает технического куратора или снимает назначение.
func (e *ApplicationEngine) AssignTechnicalCurator(ctx context.Context, req Assignment) (*domain.Application, error) {
	return e.assign(ctx, domain.AssigneeFieldTechnicalCurator, req)
}

func (e *ApplicationEngine) assign(ctx context.Context, field domain.AssigneeField, req Assignment) (*domain.Application, error) {
	var newName *string
	if req.UserID != nil {
		u, err := e.store.Users().Get(ctx, *req.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, errUserNotFound
			}
			return nil, fmt.Errorf("get user: %w", err)
		}
		newName = &u.FullName
	}
	by, err := e.storedActor(ctx, req.Actor)
	if err != nil {
		return nil, err
	}

	var previous *uuid.UUID
	err = e.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		app, err := tx.Applications().Get(ctx, req.ApplicationID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return errApplicationNotFound
			}
			return fmt.Errorf("get application: %w", err)
		}
		previous = field.Current(app)

		if err := tx.Applications().UpdateAssignee(ctx, app.ID, field, req.UserID, by, e.now()); err != nil {
			return fmt.Errorf("update %s: %w", field, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	telemetry.WithApplicationID(e.logger, req.ApplicationID.String()).Info("application assignee changed",
		"field", field,
		"user_id", req.UserID,
	)

	entry := audit.Entry{
		Action:      domain.ActionAssign,
		EntityType:  domain.EntityApplication,
		EntityID:    req.ApplicationID.String(),
		Description: describeAssignment(field, previous != nil, e.userName(ctx, previous), newName),
	}
	if req.UserID == nil {
		entry.Action = domain.ActionUnassign
	}
	if previous != nil {
		entry.OldValues = map[string]any{string(field): previous.String()}
	}
	if req.UserID != nil {
		entry.NewValues = map[string]any{string(field): req.UserID.String()}
	}
	e.record(ctx, req.Actor, entry)

	return e.reload(ctx, req.ApplicationID)
}

// History возвращает историю статусов заявки с названиями статусов.
func (e *ApplicationEngine) History(ctx context.Context, applicationID uuid.UUID) ([]HistoryEntry, error) {
	records, err := e.store.History().List(ctx, domain.HistoryApplication, applicationID)
	if err != nil {
		return nil, fmt.Errorf("list application history: %w", err)
	}

	labels, err := e.catalog.Labels(ctx)
	if err != nil {
		e.logger.Warn("failed to load status labels", "error", err)
		labels = nil
	}
	return withLabels(records, func(code string) string {
		if l, ok := labels[code]; ok {
			return l
		}
		return code
	}), nil
}

func (e *ApplicationEngine) reload(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	app, err := e.store.Applications().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload application: %w", err)
	}
	return app, nil
}
