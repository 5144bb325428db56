package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shaiso/zakaz/internal/domain"
)

// WorkOrderRepo — репозиторий нарядов.
type WorkOrderRepo struct {
	db DBTX
}

// NewWorkOrderRepo создаёт новый WorkOrderRepo.
func NewWorkOrderRepo(db DBTX) *WorkOrderRepo {
	return &WorkOrderRepo{db: db}
}

// Get возвращает наряд по ID вместе с исполнителями.
func (r *WorkOrderRepo) Get(ctx context.Context, id uuid.UUID) (*domain.WorkOrder, error) {
	query := `
		SELECT id, work_order_number, application_id, type, status,
		       scheduled_date, scheduled_time::text, estimated_duration::text,
		       actual_start_at, actual_end_at, result_notes,
		       created_by, updated_by, created_at, updated_at
		FROM zakaz_work_orders
		WHERE id = $1
	`
	var wo domain.WorkOrder
	err := r.db.QueryRow(ctx, query, id).Scan(
		&wo.ID,
		&wo.WorkOrderNumber,
		&wo.ApplicationID,
		&wo.Type,
		&wo.Status,
		&wo.ScheduledDate,
		&wo.ScheduledTime,
		&wo.EstimatedDuration,
		&wo.ActualStartAt,
		&wo.ActualEndAt,
		&wo.ResultNotes,
		&wo.CreatedBy,
		&wo.UpdatedBy,
		&wo.CreatedAt,
		&wo.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan work order: %w", err)
	}

	executors, err := r.listExecutors(ctx, id)
	if err != nil {
		return nil, err
	}
	wo.Executors = executors
	return &wo, nil
}

func (r *WorkOrderRepo) listExecutors(ctx context.Context, workOrderID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT user_id
		FROM zakaz_work_order_executors
		WHERE work_order_id = $1
		ORDER BY is_lead DESC, user_id
	`
	rows, err := r.db.Query(ctx, query, workOrderID)
	if err != nil {
		return nil, fmt.Errorf("list executors: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan executor: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Update сохраняет статус, фактические времена и результат.
func (r *WorkOrderRepo) Update(ctx context.Context, wo *domain.WorkOrder) error {
	query := `
		UPDATE zakaz_work_orders
		SET status = $2, actual_start_at = $3, actual_end_at = $4, result_notes = $5,
		    updated_by = $6, updated_at = $7
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query,
		wo.ID,
		wo.Status,
		wo.ActualStartAt,
		wo.ActualEndAt,
		wo.ResultNotes,
		nullUUID(wo.UpdatedBy),
		wo.UpdatedAt,
	)
	if err != nil {
		return userRefError("update work order", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
