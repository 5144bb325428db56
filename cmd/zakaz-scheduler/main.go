// Zakaz Scheduler — служебные задачи по расписанию.
//
// Лидер выбирается через pg_try_advisory_lock: задачи выполняет только
// процесс, удерживающий блокировку, и он проверяет её перед каждым тиком.
// Сейчас задача одна: удаление
// истёкших сессий по SESSION_PURGE_CRON.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/zakaz/internal/auth"
	"github.com/shaiso/zakaz/internal/config"
	"github.com/shaiso/zakaz/internal/repo"
	"github.com/shaiso/zakaz/internal/scheduler"
	"github.com/shaiso/zakaz/internal/telemetry"
)

const schedLockKey int64 = 424242

func main() {
	logger := telemetry.SetupLogger("zakaz-scheduler")
	if err := run(logger); err != nil {
		logger.Error("zakaz-scheduler failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Store != config.StorePostgres {
		return fmt.Errorf("scheduler requires STORE=postgres, got %q", cfg.Store)
	}
	logger.Info("starting zakaz-scheduler", "session_purge_cron", cfg.SessionPurgeCron)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := repo.NewPool(ctx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	logger.Info("database connected")

	st := repo.NewStore(pool)
	sessions := auth.NewSessions(auth.Config{Users: st.Users(), Sessions: st.Sessions(), Logger: logger})

	sched, err := scheduler.New(scheduler.Config{
		Jobs:   []scheduler.Job{scheduler.SessionPurgeJob(cfg.SessionPurgeCron, sessions, logger)},
		Logger: logger,
	})
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              ":" + cfg.SchedPort,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	sched.RunAsLeader(ctx, time.Second, leaderLock{lock: repo.NewAdvisoryLock(pool, schedLockKey)})

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("zakaz-scheduler stopped")
	return nil
}

// leaderLock приводит repo.AdvisoryLock к scheduler.Locker.
type leaderLock struct {
	lock *repo.AdvisoryLock
}

func (l leaderLock) TryLock(ctx context.Context) (scheduler.Lease, bool, error) {
	lease, ok, err := l.lock.TryLock(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	return lease, true, nil
}
