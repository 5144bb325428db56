// Package scheduler запускает служебные задачи по cron-расписанию.
//
// Задача описывается именем, cron-выражением и функцией Run.
// Scheduler.Tick запускает задачи, время которых наступило,
// и вычисляет для них следующее срабатывание.
//
// Использование:
//
//	sched, err := scheduler.New(scheduler.Config{
//	    Jobs:   []scheduler.Job{scheduler.SessionPurgeJob(cfg.SessionPurgeCron, sessions, logger)},
//	    Logger: logger,
//	})
//
//	// Вызывается каждый тик (обычно раз в несколько секунд)
//	sched.Tick(ctx, time.Now())
//
// Leader Election:
//
// RunAsLeader вызывает Tick только пока Locker выдаёт блокировку. Перед
// каждым тиком лидер проверяет Lease.Check; потерянная блокировка
// освобождается, и процесс снова пытается её взять. В zakaz-scheduler
// Locker реализован через pg_try_advisory_lock (repo.AdvisoryLock).
package scheduler
