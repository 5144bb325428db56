package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shaiso/zakaz/internal/domain"
)

// StatusRepo — репозиторий каталога статусов заявок.
type StatusRepo struct {
	db DBTX
}

// NewStatusRepo создаёт новый StatusRepo.
func NewStatusRepo(db DBTX) *StatusRepo {
	return &StatusRepo{db: db}
}

const statusColumns = `id, code, name_ru, description_ru, sort_order, is_active, created_at, updated_at`

// ListActive возвращает активные статусы по порядку.
func (r *StatusRepo) ListActive(ctx context.Context) ([]domain.StatusDefinition, error) {
	query := `
		SELECT ` + statusColumns + `
		FROM zakaz_application_statuses
		WHERE is_active = true
		ORDER BY sort_order ASC, code ASC
	`
	return r.list(ctx, query)
}

// ListAll возвращает все статусы, включая неактивные.
func (r *StatusRepo) ListAll(ctx context.Context) ([]domain.StatusDefinition, error) {
	query := `
		SELECT ` + statusColumns + `
		FROM zakaz_application_statuses
		ORDER BY sort_order ASC, code ASC
	`
	return r.list(ctx, query)
}

func (r *StatusRepo) list(ctx context.Context, query string) ([]domain.StatusDefinition, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	defer rows.Close()

	defs := make([]domain.StatusDefinition, 0)
	for rows.Next() {
		def, err := scanStatus(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, *def)
	}
	return defs, rows.Err()
}

// Get возвращает статус по ID.
func (r *StatusRepo) Get(ctx context.Context, id uuid.UUID) (*domain.StatusDefinition, error) {
	query := `SELECT ` + statusColumns + ` FROM zakaz_application_statuses WHERE id = $1`
	return scanStatus(r.db.QueryRow(ctx, query, id))
}

// GetByCode возвращает статус по коду (активный или нет).
func (r *StatusRepo) GetByCode(ctx context.Context, code string) (*domain.StatusDefinition, error) {
	query := `SELECT ` + statusColumns + ` FROM zakaz_application_statuses WHERE code = $1`
	return scanStatus(r.db.QueryRow(ctx, query, code))
}

// Create добавляет статус в каталог.
func (r *StatusRepo) Create(ctx context.Context, def *domain.StatusDefinition) error {
	query := `
		INSERT INTO zakaz_application_statuses
			(id, code, name_ru, description_ru, sort_order, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		def.ID,
		def.Code,
		def.Label,
		def.Description,
		def.SortOrder,
		def.IsActive,
		def.CreatedAt,
		def.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert status: %w", err)
	}
	return nil
}

// Update сохраняет изменения статуса.
func (r *StatusRepo) Update(ctx context.Context, def *domain.StatusDefinition) error {
	query := `
		UPDATE zakaz_application_statuses
		SET code = $2, name_ru = $3, description_ru = $4, sort_order = $5, is_active = $6, updated_at = $7
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query,
		def.ID,
		def.Code,
		def.Label,
		def.Description,
		def.SortOrder,
		def.IsActive,
		def.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanStatus сканирует одну строку в StatusDefinition.
func scanStatus(row pgx.Row) (*domain.StatusDefinition, error) {
	var def domain.StatusDefinition
	err := row.Scan(
		&def.ID,
		&def.Code,
		&def.Label,
		&def.Description,
		&def.SortOrder,
		&def.IsActive,
		&def.CreatedAt,
		&def.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan status: %w", err)
	}
	return &def, nil
}
