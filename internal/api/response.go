package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shaiso/zakaz/internal/auth"
	"github.com/shaiso/zakaz/internal/catalog"
	"github.com/shaiso/zakaz/internal/store"
	"github.com/shaiso/zakaz/internal/transition"
)

// ErrorResponse — структура ответа с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`

	// Details — текст исходной ошибки хранилища для диагностики.
	Details string `json:"details,omitempty"`
}

// JSON отправляет JSON ответ.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Success отправляет ответ 200.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	JSON(w, status, ErrorResponse{Error: message, Details: details})
}

// BadRequest отправляет ошибку 400.
func BadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, message, "")
}

// Unauthorized отправляет ошибку 401.
func Unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, auth.ErrUnauthenticated.Error(), "")
}

// InternalError отправляет ошибку 500 с текстом исходной ошибки в details.
func InternalError(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Error("internal error", "error", err)
	details := ""
	if err != nil {
		details = err.Error()
	}
	writeError(w, http.StatusInternalServerError, "Internal server error", details)
}

// HandleError преобразует ошибку в HTTP ответ.
// Возвращает false, если err == nil.
func HandleError(w http.ResponseWriter, logger *slog.Logger, err error) bool {
	if err == nil {
		return false
	}

	// Пользователь удалён между проверкой автора и записью.
	if errors.Is(err, store.ErrUnknownUser) {
		writeError(w, http.StatusBadRequest, "Unknown user", "")
		return true
	}

	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		InternalError(w, logger, err)
		return true
	}

	writeError(w, status, err.Error(), "")
	return true
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, transition.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, transition.ErrInvalidStatus),
		errors.Is(err, transition.ErrNoOp),
		errors.Is(err, transition.ErrValidation),
		errors.Is(err, catalog.ErrConflict),
		errors.Is(err, catalog.ErrValidation),
		errors.Is(err, auth.ErrMissingCredentials):
		return http.StatusBadRequest

	case errors.Is(err, auth.ErrUnauthenticated),
		errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized

	case errors.Is(err, transition.ErrPermissionDenied):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
