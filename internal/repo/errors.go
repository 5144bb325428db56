package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shaiso/zakaz/internal/store"
)

// Общие ошибки репозиториев. Совпадают с ошибками store, чтобы
// вызывающий код проверял их через errors.Is независимо от реализации.
var (
	// ErrNotFound — запись не найдена в БД.
	ErrNotFound = store.ErrNotFound

	// ErrAlreadyExists — запись уже существует (конфликт уникальности).
	ErrAlreadyExists = store.ErrAlreadyExists

	// ErrUnknownUser — внешний ключ на zakaz_users не найден.
	ErrUnknownUser = store.ErrUnknownUser
)

// Коды ошибок PostgreSQL.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func isUniqueViolation(err error) bool {
	return hasCode(err, uniqueViolation)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// userRefColumns — колонки со ссылкой на zakaz_users. Имена ограничений
// PostgreSQL строит по схеме <таблица>_<колонка>_fkey.
var userRefColumns = []string{"updated_by", "changed_by", "created_by", "assigned_to", "technical_curator_id"}

func isUserForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != foreignKeyViolation {
		return false
	}
	for _, col := range userRefColumns {
		if strings.HasSuffix(pgErr.ConstraintName, "_"+col+"_fkey") {
			return true
		}
	}
	return false
}

// userRefError оборачивает ссылку на несуществующего пользователя в ErrUnknownUser.
func userRefError(op string, err error) error {
	if isUserForeignKeyViolation(err) {
		return fmt.Errorf("%s: %w", op, ErrUnknownUser)
	}
	return fmt.Errorf("%s: %w", op, err)
}
