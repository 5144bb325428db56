package transition

import "errors"

// Категории ошибок движков. Проверяются через errors.Is.
var (
	// ErrNotFound — заявка, наряд или пользователь не найдены.
	ErrNotFound = errors.New("not found")

	// ErrInvalidStatus — статус не входит в допустимый набор.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrNoOp — наряд уже находится в запрошенном статусе.
	ErrNoOp = errors.New("status unchanged")

	// ErrPermissionDenied — у пользователя нет прав на действие.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrValidation — не заполнено обязательное поле.
	ErrValidation = errors.New("validation failed")
)

// Error — ошибка с текстом для пользователя.
// Kind — одна из категорий выше.
type Error struct {
	Kind    error
	Message string
}

// Error реализует интерфейс error.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap возвращает категорию ошибки.
func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var (
	errApplicationNotFound = newError(ErrNotFound, "Application not found")
	errWorkOrderNotFound   = newError(ErrNotFound, "Work order not found")
	errUserNotFound        = newError(ErrNotFound, "User not found")
	errStatusRequired      = newError(ErrValidation, "new_status is required")
	errInvalidAppStatus    = newError(ErrInvalidStatus, "Invalid status value")
	errPermissionDenied    = newError(ErrPermissionDenied, "Permission denied")
)
