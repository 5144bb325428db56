// Package auth — сессии пользователей и проверка паролей.
//
// Сессия — непрозрачный токен в cookie, хранящийся в zakaz_sessions.
// Resolve превращает токен в domain.Identity активного пользователя.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/zakaz/internal/audit"
	"github.com/shaiso/zakaz/internal/domain"
	"github.com/shaiso/zakaz/internal/store"
)

// DefaultSessionTTL — срок жизни сессии по умолчанию.
const DefaultSessionTTL = 7 * 24 * time.Hour

// Config — зависимости Sessions.
type Config struct {
	Users    store.UserRepository
	Sessions store.SessionRepository

	// TTL — срок жизни новой сессии (по умолчанию 7 дней).
	TTL time.Duration

	Logger *slog.Logger
}

// Sessions управляет входом, выходом и проверкой сессий.
type Sessions struct {
	users    store.UserRepository
	sessions store.SessionRepository
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewSessions создаёт Sessions.
func NewSessions(cfg Config) *Sessions {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Sessions{
		users:    cfg.Users,
		sessions: cfg.Sessions,
		ttl:      ttl,
		logger:   logger.With("component", "auth"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// TTL возвращает срок жизни сессии.
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

// LoginResult — результат успешного входа.
type LoginResult struct {
	Token   string
	User    *domain.User
	Session *domain.Session
}

// Login проверяет email и пароль и открывает новую сессию.
// Отключённый пользователь не может войти.
func (s *Sessions) Login(ctx context.Context, email, password string, meta audit.RequestMeta) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !u.Active || !VerifyPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if IsLegacyHash(u.PasswordHash) {
		s.logger.Warn("user signed in with legacy password hash", "user_id", u.ID)
	}

	now := s.now()
	sess := &domain.Session{
		ID:           uuid.New(),
		UserID:       u.ID,
		Token:        uuid.NewString(),
		IPAddress:    optional(meta.IPAddress),
		UserAgent:    optional(meta.UserAgent),
		ExpiresAt:    now.Add(s.ttl),
		LastActivity: now,
		CreatedAt:    now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("user signed in", "user_id", u.ID, "session_id", sess.ID)
	return &LoginResult{Token: sess.Token, User: u, Session: sess}, nil
}

// Resolve возвращает пользователя сессии.
//
// Истёкшая сессия удаляется. last_activity обновляется при каждом
// успешном вызове.
func (s *Sessions) Resolve(ctx context.Context, token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, ErrUnauthenticated
	}

	sess, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Identity{}, ErrUnauthenticated
		}
		return domain.Identity{}, fmt.Errorf("get session: %w", err)
	}

	now := s.now()
	if sess.IsExpired(now) {
		if err := s.sessions.Delete(ctx, sess.ID); err != nil {
			s.logger.Warn("failed to delete expired session", "session_id", sess.ID, "error", err)
		}
		return domain.Identity{}, ErrUnauthenticated
	}

	if err := s.sessions.Touch(ctx, sess.ID, now); err != nil {
		s.logger.Warn("failed to update session activity", "session_id", sess.ID, "error", err)
	}

	u, err := s.users.Get(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Identity{}, ErrUnauthenticated
		}
		return domain.Identity{}, fmt.Errorf("get session user: %w", err)
	}
	if !u.Active {
		return domain.Identity{}, ErrUnauthenticated
	}

	return domain.Identity{UserID: u.ID, Role: u.Role, Email: u.Email, FullName: u.FullName}, nil
}

// Logout закрывает сессию. Неизвестный токен не считается ошибкой.
func (s *Sessions) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.DeleteByToken(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpired удаляет все истёкшие сессии и возвращает их количество.
func (s *Sessions) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	return n, nil
}

// BootstrapAdmin создаёт администратора, если пользователя с таким email
// ещё нет. Возвращает true, если пользователь создан.
func (s *Sessions) BootstrapAdmin(ctx context.Context, email, password, fullName string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}

	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("get user: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}
	now := s.now()
	u := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		FullName:     fullName,
		Role:         domain.RoleAdmin,
		Active:       true,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return false, nil
		}
		return false, fmt.Errorf("create admin: %w", err)
	}

	s.logger.Info("bootstrap admin created", "user_id", u.ID, "email", email)
	return true, nil
}

type identityKey struct{}

// WithIdentity сохраняет пользователя сессии в контексте.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext возвращает пользователя сессии, если он есть.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(domain.Identity)
	return id, ok
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
