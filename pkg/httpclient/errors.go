package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/errors"
)

// ErrorBody covers the error payload shapes the marketplace API returns:
// {"detail": "text"}, {"detail": [{"loc": [...], "msg": "text"}]} and
// {"error": {"code": "...", "message": "..."}}.
type ErrorBody struct {
	Detail json.RawMessage `json:"detail"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// FieldIssue is one entry of a structured validation detail list.
type FieldIssue struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// Flatten joins the body into a single human-readable message. The second
// return value is the upstream error code when the body carried one.
func (b ErrorBody) Flatten() (message, code string) {
	if b.Error != nil {
		return b.Error.Message, b.Error.Code
	}
	if len(b.Detail) == 0 || string(b.Detail) == "null" {
		return "", ""
	}

	var text string
	if json.Unmarshal(b.Detail, &text) == nil {
		return text, ""
	}

	var issues []FieldIssue
	if json.Unmarshal(b.Detail, &issues) == nil {
		parts := make([]string, 0, len(issues))
		for _, is := range issues {
			if field := lastLoc(is.Loc); field != "" {
				parts = append(parts, field+": "+is.Msg)
				continue
			}
			parts = append(parts, is.Msg)
		}
		return strings.Join(parts, "; "), ""
	}

	return string(b.Detail), ""
}

// lastLoc returns the innermost location element, skipping the "body" or
// "query" prefix the API puts first.
func lastLoc(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	switch v := loc[len(loc)-1].(type) {
	case string:
		if v == "body" || v == "query" || v == "path" {
			return ""
		}
		return v
	case float64:
		return fmt.Sprintf("%d", int(v))
	default:
		return ""
	}
}

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into an AppError carrying one flattened message. Server errors (5xx)
// become SERVICE_UNAVAILABLE so the caller can ask the user to retry.
//
// The caller should only invoke this when resp.StatusCode indicates an error.
// The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusInternalServerError {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
		return Unavailable(serviceName, fmt.Errorf("status %d", resp.StatusCode))
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB limit
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	var body ErrorBody
	message, code := "", ""
	if json.Unmarshal(bodyBytes, &body) == nil {
		message, code = body.Flatten()
	}
	if message == "" {
		message = strings.ToLower(http.StatusText(resp.StatusCode))
	}
	if message == "" {
		message = fmt.Sprintf("%s returned status %d", serviceName, resp.StatusCode)
	}

	return mapStatus(resp.StatusCode, code, message)
}

// Unavailable builds the error reported for network failures, 5xx answers and
// an open circuit breaker.
func Unavailable(serviceName string, cause error) error {
	appErr := apperrors.ServiceUnavailable(serviceName + " is unavailable, please try again")
	if cause != nil {
		appErr.Err = fmt.Errorf("%w: %w", apperrors.ErrServiceUnavail, cause)
	}
	return appErr
}

func mapStatus(status int, code, message string) error {
	var appErr *apperrors.AppError
	switch status {
	case http.StatusNotFound:
		appErr = &apperrors.AppError{Code: "NOT_FOUND", Message: message, Status: status, Err: apperrors.ErrNotFound}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		appErr = apperrors.InvalidInput(message)
	case http.StatusConflict:
		appErr = apperrors.Conflict(message)
	case http.StatusUnauthorized:
		appErr = apperrors.Unauthorized(message)
	case http.StatusForbidden:
		appErr = apperrors.Forbidden(message)
	default:
		appErr = &apperrors.AppError{Code: "UPSTREAM_ERROR", Message: message, Status: status}
	}
	if code != "" {
		appErr.Code = code
	}
	return appErr
}

