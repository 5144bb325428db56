// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go             — Handler с DI (хранилище, каталог, движки, сессии)
//   - routes.go              — регистрация маршрутов
//   - middleware.go          — middleware (recovery, logging, metrics, сессия)
//   - response.go            — JSON-ответы и отображение ошибок в HTTP-коды
//   - dto.go                 — тела запросов и ответов
//   - status_handler.go      — каталог статусов (/statuses, /admin/statuses)
//   - application_handler.go — статус, назначения, журнал и история заявок
//   - work_order_handler.go  — статус, выполнение и история нарядов
//   - auth_handler.go        — вход, выход, текущая сессия
//
// Ошибки возвращаются как {"error": "...", "details": "..."}.
package api
