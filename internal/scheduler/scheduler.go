package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/zakaz/internal/telemetry"
)

// Job — служебная задача.
type Job struct {
	Name string
	Cron string
	Run  func(ctx context.Context) error
}

// Scheduler — планировщик служебных задач.
type Scheduler struct {
	jobs   []*entry
	logger *slog.Logger
}

type entry struct {
	job     Job
	nextDue time.Time
}

// Config — конфигурация Scheduler.
type Config struct {
	Jobs   []Job
	Logger *slog.Logger
	// Start — точка отсчёта для первого срабатывания (default: time.Now()).
	Start time.Time
}

// New создаёт Scheduler. Некорректное cron-выражение любой задачи — ошибка.
func New(cfg Config) (*Scheduler, error) {
	start := cfg.Start
	if start.IsZero() {
		start = time.Now()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Scheduler{logger: logger}
	for _, job := range cfg.Jobs {
		if job.Name == "" || job.Run == nil {
			return nil, errors.New("job must have name and run func")
		}
		next, err := NextAfter(job.Cron, start)
		if err != nil {
			return nil, fmt.Errorf("job %s: %w", job.Name, err)
		}
		s.jobs = append(s.jobs, &entry{job: job, nextDue: next})
	}
	return s, nil
}

// NextDue возвращает время ближайшего срабатывания задачи.
func (s *Scheduler) NextDue(name string) (time.Time, bool) {
	for _, e := range s.jobs {
		if e.job.Name == name {
			return e.nextDue, true
		}
	}
	return time.Time{}, false
}

// Tick запускает задачи с nextDue <= now и возвращает число запущенных.
//
// Ошибка одной задачи не блокирует остальные. Пропущенные срабатывания
// не догоняются: следующее время считается от now.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) int {
	var ran int
	for _, e := range s.jobs {
		if now.Before(e.nextDue) {
			continue
		}

		s.run(ctx, e.job)
		ran++

		next, err := NextAfter(e.job.Cron, now)
		if err != nil {
			// Выражение проверено в New.
			s.logger.Error("failed to calculate next due", "job", e.job.Name, "error", err)
			continue
		}
		e.nextDue = next
	}

	if ran > 0 {
		s.logger.Debug("scheduler tick completed", "jobs_run", ran)
	}
	return ran
}

func (s *Scheduler) run(ctx context.Context, job Job) {
	started := time.Now()
	err := job.Run(ctx)
	if err != nil {
		telemetry.SchedulerJobRuns.WithLabelValues(job.Name, "error").Inc()
		s.logger.Error("scheduler job failed",
			"job", job.Name,
			"error", err,
		)
		return
	}

	telemetry.SchedulerJobRuns.WithLabelValues(job.Name, "ok").Inc()
	s.logger.Info("scheduler job completed",
		"job", job.Name,
		"duration", time.Since(started),
	)
}
