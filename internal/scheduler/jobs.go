package scheduler

import (
	"context"
	"log/slog"
)

// SessionPurger удаляет истёкшие сессии.
type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// SessionPurgeJob — задача удаления истёкших сессий.
func SessionPurgeJob(cron string, sessions SessionPurger, logger *slog.Logger) Job {
	return Job{
		Name: "session_purge",
		Cron: cron,
		Run: func(ctx context.Context) error {
			n, err := sessions.PurgeExpired(ctx)
			if err != nil {
				return err
			}
			if n > 0 && logger != nil {
				logger.Info("expired sessions purged", "count", n)
			}
			return nil
		},
	}
}
