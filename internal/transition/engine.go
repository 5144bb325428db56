package transition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/zakaz/internal/audit"
	"github.com/shaiso/zakaz/internal/catalog"
	"github.com/shaiso/zakaz/internal/domain"
	"github.com/shaiso/zakaz/internal/mq"
	"github.com/shaiso/zakaz/internal/store"
	"github.com/shaiso/zakaz/internal/telemetry"
)

// EventPublisher публикует события о принятых переходах.
// Реализация: *mq.Publisher.
type EventPublisher interface {
	PublishStatusChanged(ctx context.Context, payload mq.StatusChangedPayload) error
}

// Config — зависимости движков.
type Config struct {
	Store   store.Store
	Catalog *catalog.Catalog
	Audit   *audit.Recorder

	// Events — необязательный издатель событий.
	Events EventPublisher

	Logger *slog.Logger
}

// base — общая часть движков.
type base struct {
	store   store.Store
	catalog *catalog.Catalog
	audit   *audit.Recorder
	events  EventPublisher
	logger  *slog.Logger
	now     func() time.Time
}

func newBase(cfg Config, component string) base {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return base{
		store:   cfg.Store,
		catalog: cfg.Catalog,
		audit:   cfg.Audit,
		events:  cfg.Events,
		logger:  logger.With("component", component),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// appendHistory добавляет запись истории внутри транзакции.
// Ошибка только логируется: изменение статуса остаётся в силе.
func (b *base) appendHistory(ctx context.Context, tx store.Tx, entity domain.HistoryEntity, rec domain.StatusHistoryRecord) {
	if err := tx.History().Append(ctx, entity, &rec); err != nil {
		telemetry.HistoryWriteFailures.Inc()
		b.logger.Error("failed to write status history",
			"entity", entity,
			"entity_id", rec.EntityID,
			"old_status", rec.OldStatus,
			"new_status", rec.NewStatus,
			"error", err,
		)
	}
}

// publish отправляет событие о переходе. Ошибки только логируются.
func (b *base) publish(ctx context.Context, payload mq.StatusChangedPayload) {
	telemetry.StatusTransitions.WithLabelValues(string(payload.EntityType), payload.NewStatus).Inc()

	if b.events == nil {
		return
	}
	if err := b.events.PublishStatusChanged(context.WithoutCancel(ctx), payload); err != nil {
		b.logger.Warn("failed to publish status change event",
			"entity", payload.EntityType,
			"entity_id", payload.EntityID,
			"error", err,
		)
	}
}

// storedActor возвращает автора для колонок updated_by и changed_by.
// Неизвестный пользователь записывается как nil: переход выполняется,
// а исходный id остаётся в журнале аудита и в событии.
func (b *base) storedActor(ctx context.Context, actor *uuid.UUID) (*uuid.UUID, error) {
	if actor == nil {
		return nil, nil
	}
	if _, err := b.store.Users().Get(ctx, *actor); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			b.logger.Warn("unknown actor, storing change as anonymous", "user_id", actor)
			return nil, nil
		}
		return nil, fmt.Errorf("get actor: %w", err)
	}
	return actor, nil
}

// record пишет запись аудита от имени actor.
func (b *base) record(ctx context.Context, actor *uuid.UUID, e audit.Entry) {
	e.Actor = b.audit.ResolveActor(ctx, actor)
	b.audit.Record(ctx, e)
}

// userName возвращает имя пользователя или nil, если его не удалось найти.
func (b *base) userName(ctx context.Context, id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	u, err := b.store.Users().Get(ctx, *id)
	if err != nil {
		return nil
	}
	return &u.FullName
}
