package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogLevel читает уровень из LOG_LEVEL: DEBUG, INFO, WARN, ERROR
// (регистр не важен). По умолчанию INFO.
func LogLevel() slog.Level {
	switch strings.ToUpper(os.Getenv("LOG_LEVEL")) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger инициализирует глобальный логгер.
//
// Формат вывода определяется переменной LOG_FORMAT:
//   - "json" (по умолчанию) — JSON формат для production
//   - "text" — человекочитаемый формат для разработки
//
// service добавляется к каждой записи.
func SetupLogger(service string) *slog.Logger {
	logger := slog.New(NewHandler(os.Stdout)).With("service", service)
	slog.SetDefault(logger)

	return logger
}

// NewHandler создаёт slog.Handler с уровнем и форматом из окружения.
// Значения секретных атрибутов (см. redactedKeys) заменяются на "[REDACTED]".
func NewHandler(w io.Writer) slog.Handler {
	level := LogLevel()
	opts := &slog.HandlerOptions{
		Level:       level,
		AddSource:   level == slog.LevelDebug,
		ReplaceAttr: redact,
	}

	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// redactedKeys — атрибуты, которые не должны попадать в логи.
var redactedKeys = map[string]bool{
	"password":      true,
	"password_hash": true,
	"session_token": true,
	"token":         true,
	"cookie":        true,
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if redactedKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, "[REDACTED]")
	}
	return a
}

type loggerKey struct{}

// WithLogger добавляет логгер в контекст.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext извлекает логгер из контекста.
// Если логгер не найден, возвращает глобальный.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithApplicationID возвращает логгер с добавленным application_id.
func WithApplicationID(logger *slog.Logger, id string) *slog.Logger {
	return logger.With("application_id", id)
}

// WithWorkOrderID возвращает логгер с добавленным work_order_id.
func WithWorkOrderID(logger *slog.Logger, id string) *slog.Logger {
	return logger.With("work_order_id", id)
}

// WithUserID возвращает логгер с добавленным user_id.
func WithUserID(logger *slog.Logger, id string) *slog.Logger {
	return logger.With("user_id", id)
}
