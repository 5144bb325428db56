package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeAudit  Exchange = "zakaz.audit"
	ExchangeEvents Exchange = "zakaz.events"
	ExchangeDLQ    Exchange = "zakaz.dlq"
)

// Queues — имена очередей.
const (
	QueueAuditRetry Queue = "audit.retry"
	QueueDLQAudit   Queue = "dlq.audit"
)

// Routing keys.
const (
	RoutingKeyAuditRetry              RoutingKey = "retry"
	RoutingKeyApplicationStatusChange RoutingKey = "application.status_changed"
	RoutingKeyWorkOrderStatusChange   RoutingKey = "work_order.status_changed"
	RoutingKeyDLQAudit                RoutingKey = "audit"
)

// auditDeliveryLimit — сколько раз запись аудита доставляется повторно
// до ухода в DLQ.
const auditDeliveryLimit = 10

func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		// 1. Создаём exchanges
		if err := declareExchanges(ch); err != nil {
			return err
		}

		// 2. Создаём queues
		if err := declareQueues(ch); err != nil {
			return err
		}

		// 3. Привязываем queues к exchanges
		return bindQueues(ch)
	})
}

// declareExchanges создаёт обменники.
func declareExchanges(ch *amqp.Channel) error {
	exchanges := []struct {
		name Exchange
		kind string
	}{
		{ExchangeAudit, amqp.ExchangeDirect},
		// События статусов — topic: подписчики выбирают сущности по шаблону
		{ExchangeEvents, amqp.ExchangeTopic},
		{ExchangeDLQ, amqp.ExchangeDirect},
	}

	for _, ex := range exchanges {
		err := ch.ExchangeDeclare(
			string(ex.name), // name
			ex.kind,         // type
			true,            // durable
			false,           // auto-deleted
			false,           // internal
			false,           // no-wait
			nil,             // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	return nil
}

// declareQueues создаёт очереди.
func declareQueues(ch *amqp.Channel) error {
	queues := []struct {
		name Queue
		args amqp.Table
	}{
		// audit.retry — quorum-очередь с лимитом доставок и DLQ
		{QueueAuditRetry, amqp.Table{
			amqp.QueueTypeArg:           amqp.QueueTypeQuorum,
			"x-delivery-limit":          auditDeliveryLimit,
			"x-dead-letter-exchange":    string(ExchangeDLQ),
			"x-dead-letter-routing-key": string(RoutingKeyDLQAudit),
		}},

		// dlq.audit — записи, которые не удалось сохранить
		{QueueDLQAudit, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	return nil
}

// bindQueues привязывает очереди к обменникам.
func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueueAuditRetry, RoutingKeyAuditRetry, ExchangeAudit},
		{QueueDLQAudit, RoutingKeyDLQAudit, ExchangeDLQ},
	}

	for _, b := range bindings {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Zakaz RabbitMQ Topology:

    zakaz.audit (direct)
    └── audit.retry [routing: retry] (quorum, delivery-limit 10)
            Consumer: zakaz-audit-worker
            DLQ: dlq.audit

    zakaz.events (topic)
    ├── application.status_changed
    └── work_order.status_changed
            Consumers: внешние подписчики со своими очередями

    zakaz.dlq (direct)
    └── dlq.audit [routing: audit]
            Manual processing
  `
}
