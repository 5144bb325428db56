package auth

import "errors"

// Ошибки аутентификации. Текст показывается пользователю.
var (
	// ErrUnauthenticated — нет сессии, она истекла или пользователь отключён.
	ErrUnauthenticated = errors.New("Unauthorized")

	// ErrInvalidCredentials — неверный email или пароль.
	ErrInvalidCredentials = errors.New("Неверный email или пароль")

	// ErrMissingCredentials — email или пароль не переданы.
	ErrMissingCredentials = errors.New("Email и пароль обязательны")
)
