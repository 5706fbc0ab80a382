package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/service"
	apperrors "github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/errors"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/httputil"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/validator"
)

// base carries what every handler needs to resolve the caller and report
// errors.
type base struct {
	sessions *service.SessionService
	cookies  cookieConfig
	logger   *slog.Logger
}

// principal returns who the request acts for.
func (b *base) principal(r *http.Request) service.Principal {
	return stateFrom(r.Context()).principal(b.sessions)
}

// writeError writes err in the error envelope. A terminal auth error also
// expires the session cookie, since the session is gone by then.
func (b *base) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, apperrors.ErrSessionExpired) {
		b.cookies.expire(w)
	}
	httputil.WriteError(w, r, err, b.logger)
}

// decode reads a JSON body into dst and validates it. It writes the error
// response itself and reports whether the handler may continue.
func (b *base) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return false
	}
	if err := validator.Validate(dst); err != nil {
		httputil.WriteValidationError(w, err)
		return false
	}
	return true
}

// queryFloat parses an optional float query parameter.
func queryFloat(r *http.Request, key string) (float64, bool) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}
