package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/shaiso/zakaz/internal/domain"
	"github.com/shaiso/zakaz/internal/store"
	"github.com/shaiso/zakaz/internal/store/memstore"
)

func newCatalog(t *testing.T) (*Catalog, *memstore.Store) {
	t.Helper()
	s := memstore.New()
	s.SeedStatuses(domain.DefaultStatusDefinitions())
	return New(s.Statuses()), s
}

func ptr[T any](v T) *T { return &v }

func TestCatalog_ListActive(t *testing.T) {
	c, _ := newCatalog(t)

	defs, err := c.ListActive(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) != 10 {
		t.Fatalf("expected 10 statuses, got %d", len(defs))
	}
	if defs[0].Code != "new" || defs[9].Code != "no_tech" {
		t.Errorf("wrong order: first=%s last=%s", defs[0].Code, defs[9].Code)
	}
}

func TestCatalog_ResolveLabel(t *testing.T) {
	c, _ := newCatalog(t)
	ctx := context.Background()

	if got := c.ResolveLabel(ctx, "estimation"); got != "Расчёт" {
		t.Errorf("ResolveLabel(estimation) = %s, want Расчёт", got)
	}

	// Неизвестный код возвращается как есть
	if got := c.ResolveLabel(ctx, "mystery"); got != "mystery" {
		t.Errorf("ResolveLabel(mystery) = %s, want mystery", got)
	}

	if _, ok, err := c.Label(ctx, "mystery"); ok || err != nil {
		t.Errorf("Label(mystery) should be absent without error, got ok=%v err=%v", ok, err)
	}
}

func TestCatalog_ResolveLabel_StoreFailure(t *testing.T) {
	c := New(failingRepo{})
	if got := c.ResolveLabel(context.Background(), "new"); got != "new" {
		t.Errorf("expected raw code fallback, got %s", got)
	}
}

func TestCatalog_Create(t *testing.T) {
	c, _ := newCatalog(t)
	ctx := context.Background()

	def, err := c.Create(ctx, CreateInput{Code: "paused", Label: "Пауза"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if def.SortOrder != 0 || !def.IsActive {
		t.Errorf("defaults not applied: sort=%d active=%v", def.SortOrder, def.IsActive)
	}

	if _, err := c.Create(ctx, CreateInput{Code: "paused", Label: "Дубль"}); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate code: expected ErrConflict, got %v", err)
	}

	if _, err := c.Create(ctx, CreateInput{Code: "", Label: "Без кода"}); !errors.Is(err, ErrValidation) {
		t.Errorf("missing code: expected ErrValidation, got %v", err)
	}
	if _, err := c.Create(ctx, CreateInput{Code: "nolabel"}); !errors.Is(err, ErrValidation) {
		t.Errorf("missing label: expected ErrValidation, got %v", err)
	}
}

func TestCatalog_Update(t *testing.T) {
	c, _ := newCatalog(t)
	ctx := context.Background()

	def, _ := c.Create(ctx, CreateInput{Code: "paused", Label: "Пауза", Description: ptr("временно")})

	updated, err := c.Update(ctx, def.ID, UpdateInput{Label: ptr("На паузе"), SortOrder: ptr(42), Description: ptr("")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Label != "На паузе" || updated.SortOrder != 42 {
		t.Errorf("fields not updated: %+v", updated)
	}
	if updated.Description != nil {
		t.Errorf("empty description should clear it, got %q", *updated.Description)
	}
	if updated.Code != "paused" {
		t.Errorf("code should be untouched, got %s", updated.Code)
	}

	// Смена кода на уже занятый
	if _, err := c.Update(ctx, def.ID, UpdateInput{Code: ptr("new")}); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestCatalog_Deactivate(t *testing.T) {
	c, s := newCatalog(t)
	ctx := context.Background()

	def, _, _ := c.Lookup(ctx, "thinking")
	if _, err := c.Deactivate(ctx, def.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	if _, ok, _ := c.Active(ctx, "thinking"); ok {
		t.Error("deactivated status should not be active")
	}

	// Название деактивированного статуса по-прежнему доступно
	if got := c.ResolveLabel(ctx, "thinking"); got != "Думает" {
		t.Errorf("ResolveLabel after deactivation = %s, want Думает", got)
	}

	defs, _ := c.ListActive(ctx)
	for _, d := range defs {
		if d.Code == "thinking" {
			t.Error("deactivated status should not be listed as active")
		}
	}

	all, _ := s.Statuses().ListAll(ctx)
	if len(all) != 10 {
		t.Errorf("deactivation must not delete, got %d rows", len(all))
	}
}

func TestCatalog_NotFound(t *testing.T) {
	c, _ := newCatalog(t)
	def, _ := c.Create(context.Background(), CreateInput{Code: "x", Label: "X"})
	other := def.ID
	other[0] ^= 0xff

	if _, err := c.Deactivate(context.Background(), other); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// failingRepo — репозиторий, всегда возвращающий ошибку хранилища.
type failingRepo struct {
	store.StatusRepository
}

func (failingRepo) GetByCode(context.Context, string) (*domain.StatusDefinition, error) {
	return nil, errors.New("connection refused")
}
