// Package audit ведёт журнал аудита: человекочитаемые записи о каждом
// изменяющем действии со снимками значений до и после.
//
// Запись в журнал — best-effort: Record никогда не возвращает ошибку и
// вызывается после того, как основная запись уже зафиксирована. Если
// вставка не удалась и настроен RabbitMQ, запись уходит в очередь
// audit.retry, откуда её повторно сохраняет zakaz-audit-worker.
package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/zakaz/internal/domain"
	"github.com/shaiso/zakaz/internal/store"
	"github.com/shaiso/zakaz/internal/telemetry"
)

// RetryPublisher отправляет несохранённую запись на повтор.
type RetryPublisher interface {
	PublishAuditRetry(ctx context.Context, entry *domain.AuditLogEntry) error
}

// Actor — автор действия для журнала.
// Пустые поля означают анонимное действие или неудачный поиск пользователя.
type Actor struct {
	UserID *uuid.UUID
	Name   *string
	Email  *string
}

// Entry — описание действия для записи в журнал.
type Entry struct {
	Action      domain.ActionType
	EntityType  domain.EntityType
	EntityID    string
	Description string
	Actor       Actor
	OldValues   map[string]any
	NewValues   map[string]any
}

// Config — зависимости Recorder.
type Config struct {
	Audit store.AuditRepository
	Users store.UserRepository

	// Retry — необязательный издатель очереди повтора.
	Retry RetryPublisher

	Logger *slog.Logger
}

// Recorder записывает действия в журнал аудита.
type Recorder struct {
	audit  store.AuditRepository
	users  store.UserRepository
	retry  RetryPublisher
	logger *slog.Logger
	now    func() time.Time
}

// NewRecorder создаёт Recorder.
func NewRecorder(cfg Config) *Recorder {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		audit:  cfg.Audit,
		users:  cfg.Users,
		retry:  cfg.Retry,
		logger: logger.With("component", "audit"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Record сохраняет запись в журнал. Ошибки только логируются.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	// Отмена запроса после основной записи не должна терять аудит
	ctx = context.WithoutCancel(ctx)
	entry := r.build(ctx, e)

	err := r.audit.Insert(ctx, entry)
	if err == nil {
		return
	}

	telemetry.AuditWriteFailures.Inc()
	r.logger.Error("failed to write audit log",
		"action", e.Action,
		"entity_type", e.EntityType,
		"entity_id", e.EntityID,
		"error", err,
	)

	if r.retry == nil {
		return
	}
	if err := r.retry.PublishAuditRetry(ctx, entry); err != nil {
		r.logger.Error("failed to enqueue audit retry",
			"audit_id", entry.ID,
			"error", err,
		)
		return
	}
	r.logger.Info("audit entry queued for retry", "audit_id", entry.ID)
}

func (r *Recorder) build(ctx context.Context, e Entry) *domain.AuditLogEntry {
	meta := MetaFromContext(ctx)
	entry := &domain.AuditLogEntry{
		ID:          uuid.New(),
		ActionType:  e.Action,
		EntityType:  e.EntityType,
		Description: e.Description,
		UserID:      e.Actor.UserID,
		UserName:    e.Actor.Name,
		UserEmail:   e.Actor.Email,
		OldValues:   e.OldValues,
		NewValues:   e.NewValues,
		IPAddress:   optional(meta.IPAddress),
		UserAgent:   optional(meta.UserAgent),
		CreatedAt:   r.now(),
	}
	if e.EntityID != "" {
		entry.EntityID = &e.EntityID
	}
	return entry
}

// ResolveActor ищет пользователя для записи в журнал.
// Без userID или при неудачном поиске имя и email остаются пустыми.
func (r *Recorder) ResolveActor(ctx context.Context, userID *uuid.UUID) Actor {
	if userID == nil {
		return Actor{}
	}

	actor := Actor{UserID: userID}
	u, err := r.users.Get(ctx, *userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			r.logger.Warn("failed to resolve audit actor", "user_id", userID, "error", err)
		}
		return actor
	}
	actor.Name = &u.FullName
	actor.Email = &u.Email
	return actor
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
