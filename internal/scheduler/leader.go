package scheduler

import (
	"context"
	"time"
)

// Locker выдаёт блокировку лидера. Реализация: *repo.AdvisoryLock.
type Locker interface {
	// TryLock не ждёт: false без ошибки значит, что лидер уже есть.
	TryLock(ctx context.Context) (Lease, bool, error)
}

// Lease — удерживаемая блокировка лидера.
type Lease interface {
	// Check возвращает ошибку, если блокировка больше не удерживается.
	Check(ctx context.Context) error
	Release()
}

// RunAsLeader раз в interval пытается стать лидером и, пока держит
// блокировку, вызывает Tick. Блокируется до отмены ctx.
func (s *Scheduler) RunAsLeader(ctx context.Context, interval time.Duration, locker Locker) {
	tk := time.NewTicker(interval)
	defer tk.Stop()
	s.runAsLeader(ctx, tk.C, locker)
}

func (s *Scheduler) runAsLeader(ctx context.Context, ticks <-chan time.Time, locker Locker) {
	var lease Lease
	defer func() {
		if lease != nil {
			lease.Release()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticks:
			if lease != nil {
				if err := lease.Check(ctx); err != nil {
					s.logger.Warn("lost scheduler leadership", "error", err)
					lease.Release()
					lease = nil
					continue
				}
			}

			if lease == nil {
				l, ok, err := locker.TryLock(ctx)
				if err != nil {
					s.logger.Error("leader lock failed", "error", err)
					continue
				}
				if !ok {
					continue
				}
				lease = l
				s.logger.Info("acquired scheduler leadership")
			}

			s.Tick(ctx, now)
		}
	}
}
