// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений в очереди
//   - consumer.go   — потребление сообщений из очередей
//
// Типы сообщений:
//   - audit.retry                — запись аудита, не сохранённая синхронно
//   - application.status_changed — переход статуса заявки
//   - work_order.status_changed  — переход статуса наряда
//
// Exchanges:
//   - zakaz.audit  — повтор записи аудита
//   - zakaz.events — доменные события
//   - zakaz.dlq    — dead letter queue
//
// RabbitMQ необязателен: без него записи аудита при сбое только логируются,
// а события не публикуются.
package mq
