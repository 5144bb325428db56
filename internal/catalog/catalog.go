// Package catalog — каталог статусов заявок.
//
// Каталог задаёт допустимые коды статусов, их русские названия и порядок
// для прогресс-бара. Администратор может добавлять, менять и
// деактивировать статусы; физически записи не удаляются.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/zakaz/internal/domain"
	"github.com/shaiso/zakaz/internal/store"
)

// Catalog — сервис каталога статусов.
type Catalog struct {
	repo store.StatusRepository
	now  func() time.Time
}

// New создаёт каталог поверх репозитория статусов.
func New(repo store.StatusRepository) *Catalog {
	return &Catalog{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// ListActive возвращает активные статусы по возрастанию sort_order.
func (c *Catalog) ListActive(ctx context.Context) ([]domain.StatusDefinition, error) {
	defs, err := c.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active statuses: %w", err)
	}
	return defs, nil
}

// ListAll возвращает все статусы, включая деактивированные.
func (c *Catalog) ListAll(ctx context.Context) ([]domain.StatusDefinition, error) {
	defs, err := c.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	return defs, nil
}

// Get возвращает статус по ID.
func (c *Catalog) Get(ctx context.Context, id uuid.UUID) (*domain.StatusDefinition, error) {
	def, err := c.repo.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}
	return def, nil
}

// Lookup ищет статус по коду среди всех записей, включая неактивные.
// ok == false, если такого кода в каталоге нет.
func (c *Catalog) Lookup(ctx context.Context, code string) (def *domain.StatusDefinition, ok bool, err error) {
	def, err = c.repo.GetByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup status %q: %w", code, err)
	}
	return def, true, nil
}

// Active возвращает определение, только если код существует и активен.
func (c *Catalog) Active(ctx context.Context, code string) (*domain.StatusDefinition, bool, error) {
	def, ok, err := c.Lookup(ctx, code)
	if err != nil || !ok || !def.IsActive {
		return nil, false, err
	}
	return def, true, nil
}

// Label возвращает название статуса, если код есть в каталоге.
// Деактивированные статусы сохраняют своё последнее название.
func (c *Catalog) Label(ctx context.Context, code string) (string, bool, error) {
	def, ok, err := c.Lookup(ctx, code)
	if err != nil || !ok {
		return "", false, err
	}
	return def.Label, true, nil
}

// ResolveLabel возвращает название статуса или сам код, если название
// получить не удалось (кода нет в каталоге или хранилище недоступно).
func (c *Catalog) ResolveLabel(ctx context.Context, code string) string {
	label, ok, err := c.Label(ctx, code)
	if err != nil || !ok {
		return code
	}
	return label
}

// Labels возвращает названия всех статусов каталога по коду.
func (c *Catalog) Labels(ctx context.Context) (map[string]string, error) {
	defs, err := c.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	labels := make(map[string]string, len(defs))
	for _, d := range defs {
		labels[string(d.Code)] = d.Label
	}
	return labels, nil
}

// CreateInput — параметры нового статуса.
type CreateInput struct {
	Code        string
	Label       string
	Description *string
	SortOrder   *int
	IsActive    *bool
}

// Create добавляет статус. Код уникален с учётом регистра.
// По умолчанию sort_order = 0, is_active = true.
func (c *Catalog) Create(ctx context.Context, in CreateInput) (*domain.StatusDefinition, error) {
	code := strings.TrimSpace(in.Code)
	label := strings.TrimSpace(in.Label)
	if code == "" || label == "" {
		return nil, ErrValidation
	}

	now := c.now()
	def := &domain.StatusDefinition{
		ID:          uuid.New(),
		Code:        domain.CatalogStatus(code),
		Label:       label,
		Description: emptyToNil(in.Description),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.SortOrder != nil {
		def.SortOrder = *in.SortOrder
	}
	if in.IsActive != nil {
		def.IsActive = *in.IsActive
	}

	if err := c.repo.Create(ctx, def); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create status: %w", err)
	}
	return def, nil
}

// UpdateInput — частичное обновление статуса. nil означает «не менять».
// Пустая строка в Description очищает описание.
type UpdateInput struct {
	Code        *string
	Label       *string
	Description *string
	SortOrder   *int
	IsActive    *bool
}

// Update частично обновляет статус.
func (c *Catalog) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*domain.StatusDefinition, error) {
	def, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Code != nil {
		code := strings.TrimSpace(*in.Code)
		if code == "" {
			return nil, ErrValidation
		}
		def.Code = domain.CatalogStatus(code)
	}
	if in.Label != nil {
		label := strings.TrimSpace(*in.Label)
		if label == "" {
			return nil, ErrValidation
		}
		def.Label = label
	}
	if in.Description != nil {
		def.Description = emptyToNil(in.Description)
	}
	if in.SortOrder != nil {
		def.SortOrder = *in.SortOrder
	}
	if in.IsActive != nil {
		def.IsActive = *in.IsActive
	}
	def.UpdatedAt = c.now()

	return def, c.save(ctx, def)
}

// Deactivate переводит статус в is_active=false.
// Заявки с этим статусом и история переходов не меняются.
func (c *Catalog) Deactivate(ctx context.Context, id uuid.UUID) (*domain.StatusDefinition, error) {
	def, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	def.IsActive = false
	def.UpdatedAt = c.now()
	return def, c.save(ctx, def)
}

func (c *Catalog) save(ctx context.Context, def *domain.StatusDefinition) error {
	err := c.repo.Update(ctx, def)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrAlreadyExists):
		return ErrConflict
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	default:
		return fmt.Errorf("update status: %w", err)
	}
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
