package http

import (
	"net/http"
	"time"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/httputil"
)

// AuthHandler handles sign-in, sign-out and the profile.
type AuthHandler struct {
	base
}

func newAuthHandler(b base) *AuthHandler {
	return &AuthHandler{base: b}
}

// LoginRequest is the JSON request body for signing in.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// sessionResponse never carries the tokens; they stay on the server.
type sessionResponse struct {
	SessionID string       `json:"session_id"`
	User      *domain.User `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	sess, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.cookies.set(w, sess)
	w.Header().Set(SessionHeader, sess.ID)
	httputil.WriteData(w, http.StatusOK, sessionResponse{
		SessionID: sess.ID,
		User:      sess.User,
		ExpiresAt: sess.ExpiresAt,
	})
}

// Logout handles POST /api/v1/auth/logout. Signing out without a session
// succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context(), sessionFromContext(r.Context())); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.cookies.expire(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.sessions.Me(r.Context(), sessionFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, user)
}

// UpdateMe handles PATCH /api/v1/auth/me
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req domain.ProfileUpdate
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.sessions.UpdateProfile(r.Context(), sessionFromContext(r.Context()), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, user)
}
