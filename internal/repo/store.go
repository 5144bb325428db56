package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/zakaz/internal/store"
)

// DBTX — общее подмножество *pgxpool.Pool и pgx.Tx.
// Репозитории работают с ним и одинаково используются внутри и вне транзакции.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store — реализация store.Store поверх PostgreSQL.
type Store struct {
	pool *pgxpool.Pool

	statuses     *StatusRepo
	applications *ApplicationRepo
	workOrders   *WorkOrderRepo
	history      *HistoryRepo
	audit        *AuditRepo
	users        *UserRepo
	sessions     *SessionRepo
}

var _ store.Store = (*Store)(nil)

// NewStore создаёт Store на пуле соединений.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:         pool,
		statuses:     NewStatusRepo(pool),
		applications: NewApplicationRepo(pool),
		workOrders:   NewWorkOrderRepo(pool),
		history:      NewHistoryRepo(pool),
		audit:        NewAuditRepo(pool),
		users:        NewUserRepo(pool),
		sessions:     NewSessionRepo(pool),
	}
}

func (s *Store) Statuses() store.StatusRepository          { return s.statuses }
func (s *Store) Applications() store.ApplicationRepository { return s.applications }
func (s *Store) WorkOrders() store.WorkOrderRepository     { return s.workOrders }
func (s *Store) History() store.StatusHistoryRepository    { return s.history }
func (s *Store) Audit() store.AuditRepository              { return s.audit }
func (s *Store) Users() store.UserRepository               { return s.users }
func (s *Store) Sessions() store.SessionRepository         { return s.sessions }

// WithinTx выполняет fn в транзакции. Коммит только при nil из fn.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, txScope{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// txScope — репозитории, привязанные к открытой транзакции.
type txScope struct {
	tx pgx.Tx
}

func (t txScope) Applications() store.ApplicationRepository { return NewApplicationRepo(t.tx) }
func (t txScope) WorkOrders() store.WorkOrderRepository     { return NewWorkOrderRepo(t.tx) }
func (t txScope) History() store.StatusHistoryRepository    { return NewHistoryRepo(t.tx) }

// --- Helpers ---

// nullUUID возвращает nil для пустого UUID.
func nullUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return id
}
