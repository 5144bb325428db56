// Package memstore — реализация store.Store в памяти процесса.
//
// Используется в unit-тестах и в режиме STORE=memory. Транзакции
// сериализуются: WithinTx снимает снимок заявок, нарядов и истории и
// восстанавливает его, если fn вернула ошибку.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/zakaz/internal/domain"
	"github.com/shaiso/zakaz/internal/store"
)

// Store — хранилище в памяти.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	statuses   map[uuid.UUID]domain.StatusDefinition
	apps       map[uuid.UUID]domain.Application
	workOrders map[uuid.UUID]domain.WorkOrder
	history    map[domain.HistoryEntity][]domain.StatusHistoryRecord
	audit      []domain.AuditLogEntry
	users      map[uuid.UUID]domain.User
	sessions   map[uuid.UUID]domain.Session

	historyErr error
	auditErr   error
}

var _ store.Store = (*Store)(nil)

// New создаёт пустое хранилище.
func New() *Store {
	return &Store{
		statuses:   make(map[uuid.UUID]domain.StatusDefinition),
		apps:       make(map[uuid.UUID]domain.Application),
		workOrders: make(map[uuid.UUID]domain.WorkOrder),
		history:    make(map[domain.HistoryEntity][]domain.StatusHistoryRecord),
		users:      make(map[uuid.UUID]domain.User),
		sessions:   make(map[uuid.UUID]domain.Session),
	}
}

// --- Наполнение ---

// SeedStatuses добавляет определения статусов в каталог.
func (s *Store) SeedStatuses(defs []domain.StatusDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, d := range defs {
		if d.ID == uuid.Nil {
			d.ID = uuid.New()
		}
		if d.CreatedAt.IsZero() {
			d.CreatedAt, d.UpdatedAt = now, now
		}
		s.statuses[d.ID] = d
	}
}

// PutApplication добавляет или заменяет заявку.
func (s *Store) PutApplication(app domain.Application) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app.AssignedUser, app.TechnicalCuratorUser = nil, nil
	s.apps[app.ID] = app
}

// PutWorkOrder добавляет или заменяет наряд.
func (s *Store) PutWorkOrder(wo domain.WorkOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wo.Executors = slices.Clone(wo.Executors)
	s.workOrders[wo.ID] = wo
}

// PutUser добавляет или заменяет пользователя.
func (s *Store) PutUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// FailHistoryAppends заставляет Append истории возвращать err (nil отключает).
func (s *Store) FailHistoryAppends(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.historyErr = err
}

// FailAuditInserts заставляет Insert аудита возвращать err (nil отключает).
func (s *Store) FailAuditInserts(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditErr = err
}

// --- store.Store ---

func (s *Store) Statuses() store.StatusRepository          { return statusRepo{s} }
func (s *Store) Applications() store.ApplicationRepository { return appRepo{s} }
func (s *Store) WorkOrders() store.WorkOrderRepository     { return workOrderRepo{s} }
func (s *Store) History() store.StatusHistoryRepository    { return historyRepo{s} }
func (s *Store) Audit() store.AuditRepository              { return auditRepo{s} }
func (s *Store) Users() store.UserRepository               { return userRepo{s} }
func (s *Store) Sessions() store.SessionRepository         { return sessionRepo{s} }

// WithinTx выполняет fn, откатывая заявки, наряды и историю при ошибке.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	apps := cloneMap(s.apps)
	workOrders := cloneMap(s.workOrders)
	history := make(map[domain.HistoryEntity][]domain.StatusHistoryRecord, len(s.history))
	for k, v := range s.history {
		history[k] = slices.Clone(v)
	}
	s.mu.RUnlock()

	if err := fn(ctx, s); err != nil {
		s.mu.Lock()
		s.apps, s.workOrders, s.history = apps, workOrders, history
		s.mu.Unlock()
		return err
	}
	return nil
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// userRefLocked возвращает краткие данные пользователя. Вызывать под s.mu.
func (s *Store) userRefLocked(id *uuid.UUID) *domain.UserRef {
	if id == nil {
		return nil
	}
	u, ok := s.users[*id]
	if !ok {
		return nil
	}
	return u.Ref()
}

// checkUsersLocked проверяет ссылки на пользователей, как внешние ключи
// в PostgreSQL. Вызывать под s.mu.
func (s *Store) checkUsersLocked(ids ...*uuid.UUID) error {
	for _, id := range ids {
		if id == nil {
			continue
		}
		if _, ok := s.users[*id]; !ok {
			return fmt.Errorf("user %s: %w", id, store.ErrUnknownUser)
		}
	}
	return nil
}

// --- Статусы ---

type statusRepo struct{ s *Store }

func (r statusRepo) ListActive(ctx context.Context) ([]domain.StatusDefinition, error) {
	return r.list(true), nil
}

func (r statusRepo) ListAll(ctx context.Context) ([]domain.StatusDefinition, error) {
	return r.list(false), nil
}

func (r statusRepo) list(activeOnly bool) []domain.StatusDefinition {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	defs := make([]domain.StatusDefinition, 0, len(r.s.statuses))
	for _, d := range r.s.statuses {
		if activeOnly && !d.IsActive {
			continue
		}
		defs = append(defs, d)
	}
	sort.Slice(defs, func(i, j int) bool {
		if defs[i].SortOrder != defs[j].SortOrder {
			return defs[i].SortOrder < defs[j].SortOrder
		}
		return defs[i].Code < defs[j].Code
	})
	return defs
}

func (r statusRepo) Get(ctx context.Context, id uuid.UUID) (*domain.StatusDefinition, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.statuses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &d, nil
}

func (r statusRepo) GetByCode(ctx context.Context, code string) (*domain.StatusDefinition, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, d := range r.s.statuses {
		if string(d.Code) == code {
			return &d, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r statusRepo) Create(ctx context.Context, def *domain.StatusDefinition) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.statuses {
		if d.Code == def.Code {
			return store.ErrAlreadyExists
		}
	}
	r.s.statuses[def.ID] = *def
	return nil
}

func (r statusRepo) Update(ctx context.Context, def *domain.StatusDefinition) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.statuses[def.ID]; !ok {
		return store.ErrNotFound
	}
	for id, d := range r.s.statuses {
		if id != def.ID && d.Code == def.Code {
			return store.ErrAlreadyExists
		}
	}
	r.s.statuses[def.ID] = *def
	return nil
}

// --- Заявки ---

type appRepo struct{ s *Store }

func (r appRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	app, ok := r.s.apps[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	app.AssignedUser = r.s.userRefLocked(app.AssignedTo)
	app.TechnicalCuratorUser = r.s.userRefLocked(app.TechnicalCuratorID)
	return &app, nil
}

func (r appRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.CatalogStatus, updatedBy *uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	app, ok := r.s.apps[id]
	if !ok {
		return store.ErrNotFound
	}
	if err := r.s.checkUsersLocked(updatedBy); err != nil {
		return err
	}
	app.Status = status
	app.UpdatedBy = updatedBy
	app.UpdatedAt = at
	r.s.apps[id] = app
	return nil
}

func (r appRepo) UpdateAssignee(ctx context.Context, id uuid.UUID, field domain.AssigneeField, userID, updatedBy *uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	app, ok := r.s.apps[id]
	if !ok {
		return store.ErrNotFound
	}
	if err := r.s.checkUsersLocked(userID, updatedBy); err != nil {
		return err
	}
	switch field {
	case domain.AssigneeFieldTechnicalCurator:
		app.TechnicalCuratorID = userID
	default:
		app.AssignedTo = userID
	}
	app.UpdatedBy = updatedBy
	app.UpdatedAt = at
	r.s.apps[id] = app
	return nil
}

// --- Наряды ---

type workOrderRepo struct{ s *Store }

func (r workOrderRepo) Get(ctx context.Context, id uuid.UUID) (*domain.WorkOrder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	wo, ok := r.s.workOrders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	wo.Executors = slices.Clone(wo.Executors)
	return &wo, nil
}

func (r workOrderRepo) Update(ctx context.Context, wo *domain.WorkOrder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.workOrders[wo.ID]
	if !ok {
		return store.ErrNotFound
	}
	if err := r.s.checkUsersLocked(wo.UpdatedBy); err != nil {
		return err
	}
	cur.Status = wo.Status
	cur.ActualStartAt = wo.ActualStartAt
	cur.ActualEndAt = wo.ActualEndAt
	cur.ResultNotes = wo.ResultNotes
	cur.UpdatedBy = wo.UpdatedBy
	cur.UpdatedAt = wo.UpdatedAt
	r.s.workOrders[wo.ID] = cur
	return nil
}

// --- История ---

type historyRepo struct{ s *Store }

func (r historyRepo) Append(ctx context.Context, entity domain.HistoryEntity, rec *domain.StatusHistoryRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.historyErr != nil {
		return r.s.historyErr
	}
	if err := r.s.checkUsersLocked(rec.ChangedBy); err != nil {
		return err
	}
	row := *rec
	row.ChangedByUser = nil
	r.s.history[entity] = append(r.s.history[entity], row)
	return nil
}

func (r historyRepo) List(ctx context.Context, entity domain.HistoryEntity, entityID uuid.UUID) ([]domain.StatusHistoryRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []domain.StatusHistoryRecord
	for _, rec := range r.s.history[entity] {
		if rec.EntityID != entityID {
			continue
		}
		rec.ChangedByUser = r.s.userRefLocked(rec.ChangedBy)
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ChangedAt.Before(out[j].ChangedAt)
	})
	return out, nil
}

// --- Аудит ---

type auditRepo struct{ s *Store }

func (r auditRepo) Insert(ctx context.Context, entry *domain.AuditLogEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.auditErr != nil {
		return r.s.auditErr
	}
	for _, e := range r.s.audit {
		if e.ID == entry.ID {
			return store.ErrAlreadyExists
		}
	}
	r.s.audit = append(r.s.audit, *entry)
	return nil
}

func (r auditRepo) ListByEntity(ctx context.Context, entityType domain.EntityType, entityID string) ([]domain.AuditLogEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []domain.AuditLogEntry
	for i := len(r.s.audit) - 1; i >= 0; i-- {
		e := r.s.audit[i]
		if e.EntityType == entityType && e.EntityID != nil && *e.EntityID == entityID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// --- Пользователи ---

type userRepo struct{ s *Store }

func (r userRepo) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r userRepo) Create(ctx context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return store.ErrAlreadyExists
		}
	}
	r.s.users[u.ID] = *u
	return nil
}

// --- Сессии ---

type sessionRepo struct{ s *Store }

func (r sessionRepo) Create(ctx context.Context, sess *domain.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sessions[sess.ID] = *sess
	return nil
}

func (r sessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, sess := range r.s.sessions {
		if sess.Token == token {
			return &sess, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r sessionRepo) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[id]
	if !ok {
		return store.ErrNotFound
	}
	sess.LastActivity = at
	r.s.sessions[id] = sess
	return nil
}

func (r sessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.sessions, id)
	return nil
}

func (r sessionRepo) DeleteByToken(ctx context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, sess := range r.s.sessions {
		if sess.Token == token {
			delete(r.s.sessions, id)
		}
	}
	return nil
}

func (r sessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, sess := range r.s.sessions {
		if sess.IsExpired(now) {
			delete(r.s.sessions, id)
			n++
		}
	}
	return n, nil
}
