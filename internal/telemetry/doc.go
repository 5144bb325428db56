// Package telemetry настраивает логирование и метрики сервисов zakaz.
//
//   - logging.go — slog: уровень и формат из LOG_LEVEL/LOG_FORMAT, логгер
//     в контексте запроса, атрибуты application_id/work_order_id/user_id,
//     маскировка паролей и токенов сессий
//   - metrics.go — Prometheus-счётчики (promauto), отдаются на /metrics
//     каждого бинарника
package telemetry
