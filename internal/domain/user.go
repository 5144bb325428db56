package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role — роль пользователя.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleManager   Role = "manager"
	RoleEngineer  Role = "engineer"
	RoleInstaller Role = "installer"
	RoleSupply    Role = "supply"
)

// User — сотрудник провайдера.
type User struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Phone    *string   `json:"phone"`
	Role     Role      `json:"role"`
	Active   bool      `json:"active"`

	// PasswordHash — bcrypt или устаревший sha256 hex.
	PasswordHash string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ref возвращает краткое представление пользователя для вложения в ответы.
func (u *User) Ref() *UserRef {
	return &UserRef{ID: u.ID, FullName: u.FullName, Email: u.Email, Role: u.Role}
}

// UserRef — краткие данные пользователя, присоединяемые к сущностям.
type UserRef struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email,omitempty"`
	Role     Role      `json:"role,omitempty"`
}

// Identity — результат проверки сессии: кто выполняет запрос.
type Identity struct {
	UserID   uuid.UUID `json:"id"`
	Role     Role      `json:"role"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
}

// IsAdmin возвращает true для администратора.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Session — сессия пользователя (cookie zakaz_session).
type Session struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Token        string    `json:"-"`
	IPAddress    *string   `json:"ip_address"`
	UserAgent    *string   `json:"user_agent"`
	ExpiresAt    time.Time `json:"expires_at"`
	LastActivity time.Time `json:"last_activity"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsExpired возвращает true, если срок сессии истёк к моменту now.
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
