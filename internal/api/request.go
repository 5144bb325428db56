package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shaiso/zakaz/internal/auth"
)

// decode читает JSON тело. Пустое тело допустимо.
func decode(r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	return err == nil || errors.Is(err, io.EOF)
}

// pathID разбирает {id} из пути.
func pathID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	return id, err == nil
}

// optionalUUID разбирает необязательный UUID: nil и "" дают nil.
func optionalUUID(s *string) (*uuid.UUID, bool) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, true
	}
	id, err := uuid.Parse(strings.TrimSpace(*s))
	if err != nil {
		return nil, false
	}
	return &id, true
}

// actor возвращает автора действия: значение из тела, если оно передано,
// иначе пользователя сессии.
func actor(r *http.Request, fromBody *string) (*uuid.UUID, bool) {
	id, ok := optionalUUID(fromBody)
	if !ok {
		return nil, false
	}
	if id != nil {
		return id, true
	}
	if who, ok := auth.IdentityFromContext(r.Context()); ok {
		return &who.UserID, true
	}
	return nil, true
}
