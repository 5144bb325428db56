package api

import (
	"log/slog"

	"github.com/shaiso/zakaz/internal/auth"
	"github.com/shaiso/zakaz/internal/catalog"
	"github.com/shaiso/zakaz/internal/store"
	"github.com/shaiso/zakaz/internal/transition"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	store        store.Store
	catalog      *catalog.Catalog
	applications *transition.ApplicationEngine
	workOrders   *transition.WorkOrderEngine
	sessions     *auth.Sessions
	cookie       CookieConfig
	logger       *slog.Logger
}

// CookieConfig — параметры cookie сессии.
type CookieConfig struct {
	Name   string
	Secure bool
}

// Config — конфигурация для создания Handler.
type Config struct {
	Store        store.Store
	Catalog      *catalog.Catalog
	Applications *transition.ApplicationEngine
	WorkOrders   *transition.WorkOrderEngine
	Sessions     *auth.Sessions
	Cookie       CookieConfig
	Logger       *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cookie := cfg.Cookie
	if cookie.Name == "" {
		cookie.Name = "zakaz_session"
	}
	return &Handler{
		store:        cfg.Store,
		catalog:      cfg.Catalog,
		applications: cfg.Applications,
		workOrders:   cfg.WorkOrders,
		sessions:     cfg.Sessions,
		cookie:       cookie,
		logger:       logger,
	}
}
