// Zakaz API — HTTP API смены статусов заявок и нарядов.
//
// Хранилище выбирается переменной STORE (postgres или memory).
// Если RabbitMQ доступен, несохранённые записи аудита уходят в очередь
// audit.retry, а смены статусов публикуются в zakaz.events.
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
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/zakaz/internal/api"
	"github.com/shaiso/zakaz/internal/audit"
	"github.com/shaiso/zakaz/internal/auth"
	"github.com/shaiso/zakaz/internal/catalog"
	"github.com/shaiso/zakaz/internal/config"
	"github.com/shaiso/zakaz/internal/domain"
	"github.com/shaiso/zakaz/internal/mq"
	"github.com/shaiso/zakaz/internal/repo"
	"github.com/shaiso/zakaz/internal/store"
	"github.com/shaiso/zakaz/internal/store/memstore"
	"github.com/shaiso/zakaz/internal/telemetry"
	"github.com/shaiso/zakaz/internal/transition"
)

var startTime = time.Now()

func main() {
	logger := telemetry.SetupLogger("zakaz-api")
	if err := run(logger); err != nil {
		logger.Error("zakaz-api failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Info("starting zakaz-api", "store", cfg.Store, "env_file", cfg.EnvFileLoaded)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// RabbitMQ необязателен: без него аудит и события только логируются.
	var publisher *mq.Publisher
	mqURL := cfg.RabbitMQURL
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}
	mqConn, err := mq.NewConnection(mqURL, "zakaz-api", logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, audit retry and events disabled", "error", err)
	} else {
		defer mqConn.Close()
		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
		publisher = mq.NewPublisher(mqConn, logger)
		logger.Info("RabbitMQ connected")
	}

	auditCfg := audit.Config{Audit: st.Audit(), Users: st.Users(), Logger: logger}
	engineCfg := transition.Config{
		Store:   st,
		Catalog: catalog.New(st.Statuses()),
		Logger:  logger,
	}
	if publisher != nil {
		auditCfg.Retry = publisher
		engineCfg.Events = publisher
	}
	engineCfg.Audit = audit.NewRecorder(auditCfg)

	sessions := auth.NewSessions(auth.Config{
		Users:    st.Users(),
		Sessions: st.Sessions(),
		TTL:      cfg.SessionTTL,
		Logger:   logger,
	})
	if cfg.BootstrapAdminEmail != "" {
		created, err := sessions.BootstrapAdmin(ctx, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword, cfg.BootstrapAdminName)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		if created {
			logger.Info("bootstrap admin created", "email", cfg.BootstrapAdminEmail)
		}
	}

	handler := api.NewHandler(api.Config{
		Store:        st,
		Catalog:      engineCfg.Catalog,
		Applications: transition.NewApplicationEngine(engineCfg),
		WorkOrders:   transition.NewWorkOrderEngine(engineCfg),
		Sessions:     sessions,
		Cookie:       api.CookieConfig{Name: cfg.SessionCookie, Secure: cfg.CookieSecure},
		Logger:       logger,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime).Round(time.Second))
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	handler.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("stopped")
	return nil
}

// openStore открывает хранилище по STORE. Память засевается каталогом статусов по умолчанию.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, func(), error) {
	if cfg.Store == config.StoreMemory {
		s := memstore.New()
		s.SeedStatuses(domain.DefaultStatusDefinitions())
		logger.Warn("using in-memory store, data is not persisted")
		return s, func() {}, nil
	}

	pool, err := repo.NewPool(ctx, cfg.DBURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("connected to database")

	if cfg.Migrate {
		if err := repo.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migrations applied")
	}
	return repo.NewStore(pool), pool.Close, nil
}
