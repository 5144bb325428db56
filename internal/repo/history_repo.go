package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shaiso/zakaz/internal/domain"
)

// HistoryRepo — репозиторий истории статусов заявок и нарядов.
type HistoryRepo struct {
	db DBTX
}

// NewHistoryRepo создаёт новый HistoryRepo.
func NewHistoryRepo(db DBTX) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// historyTable возвращает таблицу и колонку ссылки для типа сущности.
func historyTable(entity domain.HistoryEntity) (table, column string, err error) {
	switch entity {
	case domain.HistoryApplication:
		return "zakaz_application_status_history", "application_id", nil
	case domain.HistoryWorkOrder:
		return "zakaz_work_order_status_history", "work_order_id", nil
	default:
		return "", "", fmt.Errorf("unknown history entity %q", entity)
	}
}

// Append добавляет запись истории.
//
// Вставка идёт в отдельной точке сохранения: ошибка вставки не переводит
// внешнюю транзакцию в состояние aborted, и обновление статуса можно
// зафиксировать без записи истории.
func (r *HistoryRepo) Append(ctx context.Context, entity domain.HistoryEntity, rec *domain.StatusHistoryRecord) error {
	table, column, err := historyTable(entity)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, %s, old_status, new_status, changed_by, comment, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, table, column)

	sp, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin history savepoint: %w", err)
	}
	defer func() { _ = sp.Rollback(ctx) }()

	_, err = sp.Exec(ctx, query,
		rec.ID,
		rec.EntityID,
		rec.OldStatus,
		rec.NewStatus,
		nullUUID(rec.ChangedBy),
		rec.Comment,
		rec.ChangedAt,
	)
	if err != nil {
		return userRefError("insert "+table, err)
	}
	return sp.Commit(ctx)
}

// List возвращает историю сущности по возрастанию времени вместе с авторами.
func (r *HistoryRepo) List(ctx context.Context, entity domain.HistoryEntity, entityID uuid.UUID) ([]domain.StatusHistoryRecord, error) {
	table, column, err := historyTable(entity)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT h.id, h.%[2]s, h.old_status, h.new_status, h.changed_by, h.comment, h.changed_at,
		       u.full_name, u.email, u.role
		FROM %[1]s h
		LEFT JOIN zakaz_users u ON u.id = h.changed_by
		WHERE h.%[2]s = $1
		ORDER BY h.changed_at ASC
	`, table, column)

	rows, err := r.db.Query(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	records := make([]domain.StatusHistoryRecord, 0)
	for rows.Next() {
		var rec domain.StatusHistoryRecord
		var name, email, role *string
		if err := rows.Scan(
			&rec.ID,
			&rec.EntityID,
			&rec.OldStatus,
			&rec.NewStatus,
			&rec.ChangedBy,
			&rec.Comment,
			&rec.ChangedAt,
			&name, &email, &role,
		); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		rec.ChangedByUser = joinedUser(rec.ChangedBy, name, email, role)
		records = append(records, rec)
	}
	return records, rows.Err()
}
