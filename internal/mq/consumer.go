package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shaiso/zakaz/internal/telemetry"
)

// Handler обрабатывает одно сообщение.
// nil — ack; ошибка — возврат в очередь; Permanent(err) — сразу в DLQ.
type Handler func(ctx context.Context, msg *Delivery) error

// Delivery — разобранное сообщение и исходная доставка.
type Delivery struct {
	Message Message
	Raw     amqp.Delivery
}

// Attempt возвращает номер попытки доставки, начиная с 1.
// Quorum-очередь ведёт счётчик в заголовке x-delivery-count.
func (d *Delivery) Attempt() int {
	switch n := d.Raw.Headers["x-delivery-count"].(type) {
	case int64:
		return int(n) + 1
	case int32:
		return int(n) + 1
	case int:
		return n + 1
	}
	if d.Raw.Redelivered {
		return 2
	}
	return 1
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent помечает ошибку как неисправимую: сообщение уходит в DLQ без повторов.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent сообщает, помечена ли ошибка через Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// ConsumerConfig — параметры Consumer.
type ConsumerConfig struct {
	Queue Queue
	// Tag — тег потребителя (пустой сгенерирует брокер).
	Tag     string
	Handler Handler
	// Prefetch — сколько неподтверждённых сообщений держать (default: 1).
	Prefetch int
}

// Consumer читает очередь и передаёт сообщения Handler.
// После разрыва соединения подписка восстанавливается автоматически.
type Consumer struct {
	conn   *Connection
	logger *slog.Logger
	cfg    ConsumerConfig

	cancel context.CancelFunc
}

// NewConsumer создаёт Consumer.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}
	return &Consumer{
		conn:   conn,
		logger: logger.With("queue", cfg.Queue),
		cfg:    cfg,
	}
}

// Start блокируется до отмены ctx или Stop и возвращает ctx.Err().
func (c *Consumer) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	for {
		deliveries, err := c.subscribe()
		if err != nil {
			c.logger.Error("failed to subscribe", "error", err)
		} else {
			c.logger.Info("consumer started")
			c.drain(ctx, deliveries)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.logger.Warn("subscription lost, waiting for reconnect")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.conn.ReconnectNotify():
		}
	}
}

// Stop останавливает Start.
func (c *Consumer) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Consumer) subscribe() (<-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil {
		return nil, ErrNoChannel
	}
	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}
	// Ручной ack: сообщение подтверждается только после обработки.
	deliveries, err := ch.Consume(string(c.cfg.Queue), c.cfg.Tag, false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", c.cfg.Queue, err)
	}
	return deliveries, nil
}

// drain обрабатывает сообщения, пока канал доставки открыт.
func (c *Consumer) drain(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-deliveries:
			if !ok {
				return
			}
			c.handleDelivery(ctx, raw)
		}
	}
}

// handleDelivery обрабатывает и подтверждает одно сообщение.
func (c *Consumer) handleDelivery(ctx context.Context, raw amqp.Delivery) {
	d := &Delivery{Raw: raw}
	if err := json.Unmarshal(raw.Body, &d.Message); err != nil {
		c.logger.Error("malformed message, dead-lettering",
			"error", err,
			"message_id", raw.MessageId,
		)
		c.settle("dead_letter", raw.Nack(false, false))
		return
	}

	log := c.logger.With("message_id", d.Message.ID, "type", d.Message.Type, "attempt", d.Attempt())
	log.Debug("received message")

	err := c.cfg.Handler(ctx, d)
	switch {
	case err == nil:
		c.settle("ack", raw.Ack(false))
	case IsPermanent(err):
		log.Error("message rejected, dead-lettering", "error", err)
		c.settle("dead_letter", raw.Nack(false, false))
	default:
		// После auditDeliveryLimit попыток quorum-очередь сама уводит сообщение в DLQ.
		log.Error("handler failed, requeueing", "error", err)
		c.settle("requeue", raw.Nack(false, true))
	}
}

func (c *Consumer) settle(result string, err error) {
	telemetry.MQDeliveries.WithLabelValues(string(c.cfg.Queue), result).Inc()
	if err != nil {
		// Канал мог закрыться во время обработки; брокер доставит сообщение снова.
		c.logger.Warn("failed to settle delivery", "result", result, "error", err)
	}
}

// ParsePayload декодирует Payload сообщения в T.
func ParsePayload[T any](msg *Message) (T, error) {
	var out T

	// После json.Unmarshal в Message payload лежит как map[string]any.
	data, err := json.Marshal(msg.Payload)
	if err != nil {
		return out, fmt.Errorf("marshal payload: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("unmarshal payload: %w", err)
	}
	return out, nil
}
