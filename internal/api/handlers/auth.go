// auth.go — вход и выход администратора.
package handlers

import (
	"errors"
	"net/http"

	"github.com/bigkaa/goartstore/archive/internal/api/middleware"
	"github.com/bigkaa/goartstore/archive/internal/api/openapi"
	"github.com/bigkaa/goartstore/archive/internal/auth"
)

// Login — POST /api/v1/auth/login.
// Неудача входа — не ошибка API: ответ {authorized: false, message}.
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req openapi.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, token, err := h.gate.Login(req.Password)
	switch {
	case errors.Is(err, auth.ErrNotConfigured):
		writeJSON(w, http.StatusInternalServerError, openapi.LoginResponse{
			Message: h.msg.T(r.Context(), "auth.not_configured"),
		})
		return
	case errors.Is(err, auth.ErrInvalidPassword):
		writeJSON(w, http.StatusUnauthorized, openapi.LoginResponse{
			Message: h.msg.T(r.Context(), "auth.invalid_password"),
		})
		return
	case err != nil:
		h.serviceError(w, r, "login", err)
		return
	}

	h.gate.SetSessionCookie(w, token, sess)
	writeJSON(w, http.StatusOK, openapi.LoginResponse{
		Authorized: true,
		Message:    h.msg.T(r.Context(), "auth.login_success"),
		ExpiresAt:  &sess.ExpiresAt,
	})
}

// Logout — POST /api/v1/auth/logout.
// Токен без состояния: удаляется только cookie.
func (h *APIHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.gate.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, openapi.MessageResponse{Message: h.msg.T(r.Context(), "auth.logout")})
}

// GetSession — GET /api/v1/auth/session.
func (h *APIHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	if sess == nil {
		writeJSON(w, http.StatusOK, openapi.SessionState{})
		return
	}
	writeJSON(w, http.StatusOK, openapi.SessionState{Authorized: true, ExpiresAt: &sess.ExpiresAt})
}
