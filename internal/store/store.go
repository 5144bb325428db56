// Package store описывает типизированные репозитории и единицу работы,
// через которые ядро обращается к хранилищу.
//
// Реализации:
//   - repo — PostgreSQL (pgx)
//   - memstore — память процесса, для тестов и режима STORE=memory
//
// Ядро (catalog, transition, audit, auth) никогда не строит запросы само,
// только вызывает методы этих интерфейсов.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/zakaz/internal/domain"
)

// StatusRepository — каталог статусов заявок.
type StatusRepository interface {
	// ListActive возвращает активные статусы по возрастанию sort_order.
	ListActive(ctx context.Context) ([]domain.StatusDefinition, error)

	// ListAll возвращает все статусы, включая деактивированные.
	ListAll(ctx context.Context) ([]domain.StatusDefinition, error)

	Get(ctx context.Context, id uuid.UUID) (*domain.StatusDefinition, error)

	// GetByCode ищет статус по коду независимо от активности.
	GetByCode(ctx context.Context, code string) (*domain.StatusDefinition, error)

	// Create возвращает ErrAlreadyExists, если код уже занят.
	Create(ctx context.Context, def *domain.StatusDefinition) error

	// Update сохраняет все поля записи. ErrAlreadyExists — код занят другой записью.
	Update(ctx context.Context, def *domain.StatusDefinition) error
}

// ApplicationRepository — заявки.
type ApplicationRepository interface {
	// Get возвращает заявку с присоединёнными данными ответственного и куратора.
	Get(ctx context.Context, id uuid.UUID) (*domain.Application, error)

	// UpdateStatus одной записью меняет status, updated_by и updated_at.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.CatalogStatus, updatedBy *uuid.UUID, at time.Time) error

	// UpdateAssignee меняет поле field (nil снимает назначение).
	UpdateAssignee(ctx context.Context, id uuid.UUID, field domain.AssigneeField, userID, updatedBy *uuid.UUID, at time.Time) error
}

// WorkOrderRepository — наряды.
type WorkOrderRepository interface {
	// Get возвращает наряд вместе со списком исполнителей.
	Get(ctx context.Context, id uuid.UUID) (*domain.WorkOrder, error)

	// Update сохраняет статус, фактические времена, результат и updated_*.
	Update(ctx context.Context, wo *domain.WorkOrder) error
}

// StatusHistoryRepository — история статусов. Только добавление и чтение.
type StatusHistoryRepository interface {
	Append(ctx context.Context, entity domain.HistoryEntity, rec *domain.StatusHistoryRecord) error

	// List возвращает историю сущности по возрастанию changed_at вместе с авторами.
	List(ctx context.Context, entity domain.HistoryEntity, entityID uuid.UUID) ([]domain.StatusHistoryRecord, error)
}

// AuditRepository — журнал аудита. Только добавление и чтение.
type AuditRepository interface {
	// Insert возвращает ErrAlreadyExists для уже сохранённого ID.
	Insert(ctx context.Context, entry *domain.AuditLogEntry) error

	// ListByEntity возвращает записи сущности, новые первыми.
	ListByEntity(ctx context.Context, entityType domain.EntityType, entityID string) ([]domain.AuditLogEntry, error)
}

// UserRepository — пользователи.
type UserRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}

// SessionRepository — сессии пользователей.
type SessionRepository interface {
	Create(ctx context.Context, s *domain.Session) error
	GetByToken(ctx context.Context, token string) (*domain.Session, error)
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByToken(ctx context.Context, token string) error

	// DeleteExpired удаляет сессии с expires_at <= now и возвращает их количество.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Tx — репозитории, доступные внутри транзакции.
type Tx interface {
	Applications() ApplicationRepository
	WorkOrders() WorkOrderRepository
	History() StatusHistoryRepository
}

// UnitOfWork выполняет fn в одной транзакции.
// Ошибка из fn откатывает все изменения, сделанные через tx.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Store — полный набор репозиториев хранилища.
type Store interface {
	UnitOfWork

	Statuses() StatusRepository
	Applications() ApplicationRepository
	WorkOrders() WorkOrderRepository
	History() StatusHistoryRepository
	Audit() AuditRepository
	Users() UserRepository
	Sessions() SessionRepository
}
