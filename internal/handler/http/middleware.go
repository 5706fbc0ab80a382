package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/service"
	apperrors "github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/errors"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/httputil"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/middleware"
)

const (
	SessionCookie = "florist_session"
	SessionHeader = "X-Session-ID"
	CartHeader    = "X-Cart-ID"
)

type contextKey string

const stateKey contextKey = "request_state"

// requestState is the caller as resolved from the session cookie or header
// and the guest cart header.
type requestState struct {
	session *domain.Session
	cartID  string
}

func (s requestState) principal(sessions *service.SessionService) service.Principal {
	buyerID := s.session.BuyerID()
	return service.Principal{
		OwnerID: domain.OwnerID(buyerID, s.cartID),
		BuyerID: buyerID,
		Tokens:  sessions.Tokens(s.session),
	}
}

func stateFrom(ctx context.Context) requestState {
	s, _ := ctx.Value(stateKey).(requestState)
	return s
}

// sessionFromContext returns the resolved session, nil for anonymous callers.
func sessionFromContext(ctx context.Context) *domain.Session {
	return stateFrom(ctx).session
}

// resolveSession loads the caller's session and guest cart id into the
// request context and publishes the identity for RequireUser, RequireRole
// and the request logger. An unknown or expired session id is anonymous.
func resolveSession(sessions *service.SessionService, cookies cookieConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			var state requestState

			if raw := r.Header.Get(CartHeader); raw != "" {
				id, ok := httputil.ParseUUID(w, raw)
				if !ok {
					return
				}
				state.cartID = id.String()
			}

			id, fromCookie := sessionID(r)
			if id != "" {
				sess, err := sessions.Get(ctx, id)
				if err != nil {
					logger.ErrorContext(ctx, "session lookup failed",
						slog.String("error", err.Error()),
					)
					httputil.WriteError(w, r, apperrors.ServiceUnavailable("sessions are unavailable, please try again"), logger)
					return
				}
				if sess == nil && fromCookie {
					cookies.expire(w)
				}
				state.session = sess
			}

			if sess := state.session; sess != nil {
				identity := middleware.Identity{SessionID: sess.ID, UserID: sess.BuyerID()}
				if sess.User != nil {
					identity.Role = sess.User.Role
				}
				ctx = middleware.WithIdentity(ctx, identity)
			}
			ctx = context.WithValue(ctx, stateKey, state)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionID reads the session id, preferring the header over the cookie.
func sessionID(r *http.Request) (id string, fromCookie bool) {
	if h := strings.TrimSpace(r.Header.Get(SessionHeader)); h != "" {
		return h, false
	}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}

type cookieConfig struct {
	secure bool
}

func (c cookieConfig) set(w http.ResponseWriter, sess *domain.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c cookieConfig) expire(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "UNSUPPORTED_MEDIA_TYPE", Message: "Content-Type must be application/json"},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
