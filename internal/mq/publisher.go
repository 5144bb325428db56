package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shaiso/zakaz/internal/domain"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeAuditRetry              MessageType = "audit.retry"
	MessageTypeApplicationStatusChange MessageType = "application.status_changed"
	MessageTypeWorkOrderStatusChange   MessageType = "work_order.status_changed"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage создаёт сообщение с новым ID.
func NewMessage(msgType MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// StatusChangedPayload — событие о принятом переходе статуса.
type StatusChangedPayload struct {
	EntityType domain.HistoryEntity `json:"entity_type"`
	EntityID   uuid.UUID            `json:"entity_id"`
	OldStatus  *string              `json:"old_status"`
	NewStatus  string               `json:"new_status"`
	ChangedBy  *uuid.UUID           `json:"changed_by"`
	ChangedAt  time.Time            `json:"changed_at"`
}

// Publish публикует сообщение и ждёт подтверждения брокера.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = p.conn.Publish(ctx, exchange, routingKey, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Type:         string(msg.Type),
		Timestamp:    msg.Timestamp,
		AppId:        p.conn.name,
		Body:         body,
	})
	if err != nil {
		return err
	}

	p.logger.Debug("published message",
		"exchange", exchange,
		"routing_key", routingKey,
		"message_id", msg.ID,
		"type", msg.Type,
	)
	return nil
}

// PublishAuditRetry отправляет запись аудита, которую не удалось
// сохранить синхронно. Потребитель: zakaz-audit-worker.
func (p *Publisher) PublishAuditRetry(ctx context.Context, entry *domain.AuditLogEntry) error {
	return p.Publish(ctx, ExchangeAudit, RoutingKeyAuditRetry, NewMessage(MessageTypeAuditRetry, entry))
}

// PublishStatusChanged публикует событие о переходе статуса заявки или наряда.
func (p *Publisher) PublishStatusChanged(ctx context.Context, payload StatusChangedPayload) error {
	msgType, key := statusChangeRoute(payload.EntityType)
	return p.Publish(ctx, ExchangeEvents, key, NewMessage(msgType, payload))
}

// statusChangeRoute возвращает тип сообщения и routing key для сущности.
func statusChangeRoute(entity domain.HistoryEntity) (MessageType, RoutingKey) {
	if entity == domain.HistoryWorkOrder {
		return MessageTypeWorkOrderStatusChange, RoutingKeyWorkOrderStatusChange
	}
	return MessageTypeApplicationStatusChange, RoutingKeyApplicationStatusChange
}
