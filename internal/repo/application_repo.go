package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shaiso/zakaz/internal/domain"
)

// ApplicationRepo — репозиторий заявок.
type ApplicationRepo struct {
	db DBTX
}

// NewApplicationRepo создаёт новый ApplicationRepo.
func NewApplicationRepo(db DBTX) *ApplicationRepo {
	return &ApplicationRepo{db: db}
}

// Get возвращает заявку по ID вместе с ответственным и куратором.
func (r *ApplicationRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	query := `
		SELECT a.id, a.application_number, a.status, a.customer_type, a.customer_fullname,
		       a.customer_phone, a.street_and_house, a.address_details, a.urgency,
		       a.service_type, a.client_comment, a.assigned_to, a.technical_curator_id,
		       a.created_by, a.updated_by, a.created_at, a.updated_at,
		       au.full_name, au.email, au.role,
		       tc.full_name, tc.email, tc.role
		FROM zakaz_applications a
		LEFT JOIN zakaz_users au ON au.id = a.assigned_to
		LEFT JOIN zakaz_users tc ON tc.id = a.technical_curator_id
		WHERE a.id = $1
	`
	var app domain.Application
	var assignedName, assignedEmail, assignedRole *string
	var curatorName, curatorEmail, curatorRole *string

	err := r.db.QueryRow(ctx, query, id).Scan(
		&app.ID,
		&app.ApplicationNumber,
		&app.Status,
		&app.CustomerType,
		&app.CustomerFullName,
		&app.CustomerPhone,
		&app.StreetAndHouse,
		&app.AddressDetails,
		&app.Urgency,
		&app.ServiceType,
		&app.ClientComment,
		&app.AssignedTo,
		&app.TechnicalCuratorID,
		&app.CreatedBy,
		&app.UpdatedBy,
		&app.CreatedAt,
		&app.UpdatedAt,
		&assignedName, &assignedEmail, &assignedRole,
		&curatorName, &curatorEmail, &curatorRole,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan application: %w", err)
	}

	app.AssignedUser = joinedUser(app.AssignedTo, assignedName, assignedEmail, assignedRole)
	app.TechnicalCuratorUser = joinedUser(app.TechnicalCuratorID, curatorName, curatorEmail, curatorRole)
	return &app, nil
}

// UpdateStatus меняет статус заявки.
func (r *ApplicationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.CatalogStatus, updatedBy *uuid.UUID, at time.Time) error {
	query := `
		UPDATE zakaz_applications
		SET status = $2, updated_by = $3, updated_at = $4
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query, id, status, nullUUID(updatedBy), at)
	if err != nil {
		return userRefError("update application status", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAssignee меняет ответственного или технического куратора.
func (r *ApplicationRepo) UpdateAssignee(ctx context.Context, id uuid.UUID, field domain.AssigneeField, userID, updatedBy *uuid.UUID, at time.Time) error {
	var query string
	switch field {
	case domain.AssigneeFieldAssignedTo:
		query = `UPDATE zakaz_applications SET assigned_to = $2, updated_by = $3, updated_at = $4 WHERE id = $1`
	case domain.AssigneeFieldTechnicalCurator:
		query = `UPDATE zakaz_applications SET technical_curator_id = $2, updated_by = $3, updated_at = $4 WHERE id = $1`
	default:
		return fmt.Errorf("unknown assignee field %q", field)
	}

	result, err := r.db.Exec(ctx, query, id, nullUUID(userID), nullUUID(updatedBy), at)
	if err != nil {
		return userRefError("update application "+string(field), err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// joinedUser собирает UserRef из колонок LEFT JOIN.
func joinedUser(id *uuid.UUID, name, email, role *string) *domain.UserRef {
	if id == nil || name == nil {
		return nil
	}
	ref := &domain.UserRef{ID: *id, FullName: *name}
	if email != nil {
		ref.Email = *email
	}
	if role != nil {
		ref.Role = domain.Role(*role)
	}
	return ref
}
