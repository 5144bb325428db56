package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/zakaz/internal/domain"
	"github.com/shaiso/zakaz/internal/store"
)

func TestStore_WithinTx_RollbackOnError(t *testing.T) {
	s := New()
	appID := uuid.New()
	s.PutApplication(domain.Application{ID: appID, Status: "new"})

	boom := errors.New("boom")
	err := s.WithinTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		if err := tx.Applications().UpdateStatus(ctx, appID, "estimation", nil, time.Now()); err != nil {
			return err
		}
		rec := domain.NewStatusHistoryRecord(appID, nil, "estimation", nil, "", time.Now())
		if err := tx.History().Append(ctx, domain.HistoryApplication, &rec); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	app, err := s.Applications().Get(context.Background(), appID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if app.Status != "new" {
		t.Errorf("status should be rolled back to new, got %s", app.Status)
	}

	hist, _ := s.History().List(context.Background(), domain.HistoryApplication, appID)
	if len(hist) != 0 {
		t.Errorf("history should be rolled back, got %d rows", len(hist))
	}
}

func TestStore_WithinTx_Commit(t *testing.T) {
	s := New()
	appID := uuid.New()
	s.PutApplication(domain.Application{ID: appID, Status: "new"})

	err := s.WithinTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.Applications().UpdateStatus(ctx, appID, "contract", nil, time.Now())
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	app, _ := s.Applications().Get(context.Background(), appID)
	if app.Status != "contract" {
		t.Errorf("expected contract, got %s", app.Status)
	}
}

func TestStore_UnknownUserReferences(t *testing.T) {
	s := New()
	ctx := context.Background()
	appID := uuid.New()
	woID := uuid.New()
	ghost := uuid.New()
	s.PutApplication(domain.Application{ID: appID, Status: "new"})
	s.PutWorkOrder(domain.WorkOrder{ID: woID, Status: domain.WorkOrderStatusDraft})

	if err := s.Applications().UpdateStatus(ctx, appID, "estimation", &ghost, time.Now()); !errors.Is(err, store.ErrUnknownUser) {
		t.Errorf("update status: expected ErrUnknownUser, got %v", err)
	}
	if err := s.Applications().UpdateAssignee(ctx, appID, domain.AssigneeFieldAssignedTo, &ghost, nil, time.Now()); !errors.Is(err, store.ErrUnknownUser) {
		t.Errorf("update assignee: expected ErrUnknownUser, got %v", err)
	}
	if err := s.WorkOrders().Update(ctx, &domain.WorkOrder{ID: woID, Status: domain.WorkOrderStatusAssigned, UpdatedBy: &ghost}); !errors.Is(err, store.ErrUnknownUser) {
		t.Errorf("update work order: expected ErrUnknownUser, got %v", err)
	}
	rec := domain.NewStatusHistoryRecord(appID, nil, "estimation", &ghost, "", time.Now())
	if err := s.History().Append(ctx, domain.HistoryApplication, &rec); !errors.Is(err, store.ErrUnknownUser) {
		t.Errorf("append history: expected ErrUnknownUser, got %v", err)
	}

	app, _ := s.Applications().Get(ctx, appID)
	if app.Status != "new" || app.AssignedTo != nil {
		t.Errorf("application changed: %+v", app)
	}

	s.PutUser(domain.User{ID: ghost, FullName: "Пётр"})
	if err := s.Applications().UpdateStatus(ctx, appID, "estimation", &ghost, time.Now()); err != nil {
		t.Errorf("known user: %v", err)
	}
}

func TestStatusRepo_UniqueCode(t *testing.T) {
	s := New()
	ctx := context.Background()

	first := &domain.StatusDefinition{ID: uuid.New(), Code: "new", Label: "Новая", IsActive: true}
	if err := s.Statuses().Create(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}

	dup := &domain.StatusDefinition{ID: uuid.New(), Code: "new", Label: "Дубль"}
	if err := s.Statuses().Create(ctx, dup); !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}

	// Регистр учитывается: "New" — другой код
	other := &domain.StatusDefinition{ID: uuid.New(), Code: "New", Label: "Другая"}
	if err := s.Statuses().Create(ctx, other); err != nil {
		t.Errorf("case-different code should be accepted, got %v", err)
	}

	other.Code = "new"
	if err := s.Statuses().Update(ctx, other); !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("update to taken code: expected ErrAlreadyExists, got %v", err)
	}
}

func TestStatusRepo_ListActiveOrdering(t *testing.T) {
	s := New()
	s.SeedStatuses([]domain.StatusDefinition{
		{Code: "c", SortOrder: 3, IsActive: true},
		{Code: "a", SortOrder: 1, IsActive: true},
		{Code: "off", SortOrder: 0, IsActive: false},
		{Code: "b", SortOrder: 2, IsActive: true},
	})

	defs, err := s.Statuses().ListActive(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(defs) != 3 {
		t.Fatalf("expected 3 active, got %d", len(defs))
	}
	for i, want := range []domain.CatalogStatus{"a", "b", "c"} {
		if defs[i].Code != want {
			t.Errorf("defs[%d] = %s, want %s", i, defs[i].Code, want)
		}
	}

	all, _ := s.Statuses().ListAll(context.Background())
	if len(all) != 4 {
		t.Errorf("expected 4 total, got %d", len(all))
	}
}

func TestAuditRepo_NewestFirst(t *testing.T) {
	s := New()
	ctx := context.Background()
	id := uuid.New().String()
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	for i, desc := range []string{"first", "second", "third"} {
		entry := &domain.AuditLogEntry{
			ID:          uuid.New(),
			EntityType:  domain.EntityApplication,
			EntityID:    &id,
			Description: desc,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.Audit().Insert(ctx, entry); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	logs, _ := s.Audit().ListByEntity(ctx, domain.EntityApplication, id)
	if len(logs) != 3 {
		t.Fatalf("expected 3 logs, got %d", len(logs))
	}
	if logs[0].Description != "third" || logs[2].Description != "first" {
		t.Errorf("wrong order: %s, %s, %s", logs[0].Description, logs[1].Description, logs[2].Description)
	}
}

func TestSessionRepo_DeleteExpired(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()

	_ = s.Sessions().Create(ctx, &domain.Session{ID: uuid.New(), Token: "old", ExpiresAt: now.Add(-time.Hour)})
	_ = s.Sessions().Create(ctx, &domain.Session{ID: uuid.New(), Token: "fresh", ExpiresAt: now.Add(time.Hour)})

	n, err := s.Sessions().DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 deleted, got %d", n)
	}
	if _, err := s.Sessions().GetByToken(ctx, "fresh"); err != nil {
		t.Errorf("fresh session should survive: %v", err)
	}
	if _, err := s.Sessions().GetByToken(ctx, "old"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("old session should be gone, got %v", err)
	}
}
