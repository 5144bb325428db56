package api

import (
	"net/http"
	"time"

	"github.com/shaiso/zakaz/internal/audit"
	"github.com/shaiso/zakaz/internal/auth"
)

// Login проверяет email и пароль и устанавливает cookie сессии.
// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(r, &req) {
		BadRequest(w, "Invalid request body")
		return
	}

	res, err := h.sessions.Login(r.Context(), req.Email, req.Password, audit.MetaFromContext(r.Context()))
	if HandleError(w, h.logger, err) {
		return
	}

	http.SetCookie(w, h.sessionCookie(res.Token, int(h.sessions.TTL()/time.Second)))
	Success(w, SessionResponse{
		User: SessionUser{
			ID:       res.User.ID,
			Email:    res.User.Email,
			FullName: res.User.FullName,
			Role:     res.User.Role,
		},
		Message: "Вход выполнен успешно",
	})
}

// Logout закрывает сессию и удаляет cookie.
// POST /api/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(h.cookie.Name); err == nil {
		if err := h.sessions.Logout(r.Context(), c.Value); HandleError(w, h.logger, err) {
			return
		}
	}

	http.SetCookie(w, h.sessionCookie("", -1))
	Success(w, MessageResponse{Message: "Выход выполнен успешно"})
}

// CurrentSession возвращает пользователя текущей сессии.
// GET /api/auth/session
func (h *Handler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	who, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		Unauthorized(w)
		return
	}
	Success(w, SessionResponse{User: SessionUser{
		ID:       who.UserID,
		Email:    who.Email,
		FullName: who.FullName,
		Role:     who.Role,
	}})
}

func (h *Handler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
