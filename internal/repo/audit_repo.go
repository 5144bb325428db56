package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shaiso/zakaz/internal/domain"
)

// AuditRepo — репозиторий журнала аудита.
type AuditRepo struct {
	db DBTX
}

// NewAuditRepo создаёт новый AuditRepo.
func NewAuditRepo(db DBTX) *AuditRepo {
	return &AuditRepo{db: db}
}

// Insert добавляет запись в журнал.
// Повторная вставка записи с тем же ID возвращает ErrAlreadyExists.
func (r *AuditRepo) Insert(ctx context.Context, e *domain.AuditLogEntry) error {
	oldJSON, err := marshalValues(e.OldValues)
	if err != nil {
		return fmt.Errorf("marshal old_values: %w", err)
	}
	newJSON, err := marshalValues(e.NewValues)
	if err != nil {
		return fmt.Errorf("marshal new_values: %w", err)
	}

	query := `
		INSERT INTO zakaz_audit_log
			(id, user_id, user_email, user_name, action_type, entity_type, entity_id,
			 description, old_values, new_values, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = r.db.Exec(ctx, query,
		e.ID,
		nullUUID(e.UserID),
		e.UserEmail,
		e.UserName,
		e.ActionType,
		e.EntityType,
		e.EntityID,
		e.Description,
		oldJSON,
		newJSON,
		e.IPAddress,
		e.UserAgent,
		e.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// ListByEntity возвращает записи сущности, новые первыми.
func (r *AuditRepo) ListByEntity(ctx context.Context, entityType domain.EntityType, entityID string) ([]domain.AuditLogEntry, error) {
	query := `
		SELECT id, user_id, user_email, user_name, action_type, entity_type, entity_id,
		       description, old_values, new_values, ip_address, user_agent, created_at
		FROM zakaz_audit_log
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("list audit log: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.AuditLogEntry, 0)
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func scanAuditEntry(rows pgx.Rows) (*domain.AuditLogEntry, error) {
	var e domain.AuditLogEntry
	var oldJSON, newJSON []byte

	err := rows.Scan(
		&e.ID,
		&e.UserID,
		&e.UserEmail,
		&e.UserName,
		&e.ActionType,
		&e.EntityType,
		&e.EntityID,
		&e.Description,
		&oldJSON,
		&newJSON,
		&e.IPAddress,
		&e.UserAgent,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan audit log: %w", err)
	}

	if oldJSON != nil {
		if err := json.Unmarshal(oldJSON, &e.OldValues); err != nil {
			return nil, fmt.Errorf("unmarshal old_values: %w", err)
		}
	}
	if newJSON != nil {
		if err := json.Unmarshal(newJSON, &e.NewValues); err != nil {
			return nil, fmt.Errorf("unmarshal new_values: %w", err)
		}
	}
	return &e, nil
}

// marshalValues возвращает nil для пустого снимка (NULL в БД).
func marshalValues(v map[string]any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
