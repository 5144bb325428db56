package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shaiso/zakaz/internal/domain"
	"github.com/shaiso/zakaz/internal/mq"
	"github.com/shaiso/zakaz/internal/store"
	"github.com/shaiso/zakaz/internal/telemetry"
)

// Replayer повторно сохраняет записи аудита из очереди audit.retry.
type Replayer struct {
	audit  store.AuditRepository
	logger *slog.Logger
}

// NewReplayer создаёт Replayer.
func NewReplayer(repo store.AuditRepository, logger *slog.Logger) *Replayer {
	return &Replayer{audit: repo, logger: logger.With("component", "audit-replay")}
}

// Handle — обработчик mq.Consumer.
// Ошибка вставки возвращает сообщение в очередь, неразборчивая запись
// уходит в DLQ. Запись, уже сохранённая ранее (тот же ID), считается
// успешно обработанной.
func (r *Replayer) Handle(ctx context.Context, d *mq.Delivery) error {
	if d.Message.Type != mq.MessageTypeAuditRetry {
		r.logger.Warn("unexpected message type, dropping", "type", d.Message.Type, "message_id", d.Message.ID)
		return nil
	}

	entry, err := mq.ParsePayload[domain.AuditLogEntry](&d.Message)
	if err != nil {
		return mq.Permanent(fmt.Errorf("parse audit entry: %w", err))
	}

	err = r.audit.Insert(ctx, &entry)
	switch {
	case err == nil:
		telemetry.AuditReplayed.Inc()
		r.logger.Info("audit entry replayed", "audit_id", entry.ID, "entity_type", entry.EntityType)
		return nil
	case errors.Is(err, store.ErrAlreadyExists):
		r.logger.Debug("audit entry already stored", "audit_id", entry.ID)
		return nil
	default:
		return fmt.Errorf("insert audit entry %s: %w", entry.ID, err)
	}
}
