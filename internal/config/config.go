// Package config читает настройки сервисов из окружения.
//
// Перед чтением переменных загружается файл .env (если он есть);
// уже заданные переменные окружения файлом не перезаписываются.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// StoreKind — тип хранилища.
type StoreKind string

const (
	StorePostgres StoreKind = "postgres"
	StoreMemory   StoreKind = "memory"
)

// Config — настройки всех бинарников zakaz.
type Config struct {
	DBURL       string
	RabbitMQURL string
	Store       StoreKind
	Migrate     bool

	APIPort    string
	WorkerPort string
	SchedPort  string

	SessionCookie string
	SessionTTL    time.Duration
	CookieSecure  bool

	SessionPurgeCron string

	// Начальный администратор (создаётся, если задан email и его ещё нет).
	BootstrapAdminEmail    string
	BootstrapAdminPassword string
	BootstrapAdminName     string

	// EnvFileLoaded — был ли прочитан .env.
	EnvFileLoaded bool
}

// Load загружает .env и читает конфигурацию из окружения.
func Load() (*Config, error) {
	loaded := godotenv.Load() == nil
	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	cfg.EnvFileLoaded = loaded
	return cfg, nil
}

// FromEnv читает конфигурацию только из переменных окружения.
func FromEnv() (*Config, error) {
	cfg := &Config{
		DBURL:                  os.Getenv("DB_URL"),
		RabbitMQURL:            os.Getenv("RABBITMQ_URL"),
		Store:                  StoreKind(getEnv("STORE", string(StorePostgres))),
		APIPort:                getEnv("API_PORT", "8080"),
		WorkerPort:             getEnv("WORKER_PORT", "8082"),
		SchedPort:              getEnv("SCHED_PORT", "8083"),
		SessionCookie:          getEnv("SESSION_COOKIE", "zakaz_session"),
		SessionPurgeCron:       getEnv("SESSION_PURGE_CRON", "*/15 * * * *"),
		BootstrapAdminEmail:    os.Getenv("BOOTSTRAP_ADMIN_EMAIL"),
		BootstrapAdminPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
		BootstrapAdminName:     getEnv("BOOTSTRAP_ADMIN_NAME", "Администратор"),
	}

	switch cfg.Store {
	case StorePostgres, StoreMemory:
	default:
		return nil, fmt.Errorf("STORE: unknown store %q (want postgres or memory)", cfg.Store)
	}

	var err error
	if cfg.Migrate, err = getBool("MIGRATE", false); err != nil {
		return nil, err
	}
	if cfg.CookieSecure, err = getBool("COOKIE_SECURE", false); err != nil {
		return nil, err
	}

	cfg.SessionTTL = 7 * 24 * time.Hour
	if v := os.Getenv("SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("SESSION_TTL: %w", err)
		}
		if ttl <= 0 {
			return nil, fmt.Errorf("SESSION_TTL must be positive, got %s", ttl)
		}
		cfg.SessionTTL = ttl
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
