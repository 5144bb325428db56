package catalog

import "errors"

// Ошибки каталога. Текст ошибок показывается пользователю как есть.
var (
	// ErrNotFound — статус с таким ID не найден.
	ErrNotFound = errors.New("Status not found")

	// ErrConflict — статус с таким кодом уже существует.
	ErrConflict = errors.New("Status with this code already exists")

	// ErrValidation — не заполнены обязательные поля.
	ErrValidation = errors.New("Missing required fields")
)
