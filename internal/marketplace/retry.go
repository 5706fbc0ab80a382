package marketplace

import "net/http"

// AuthRetryPolicy decides when a response triggers a token refresh followed
// by a retry of the original request.
type AuthRetryPolicy struct {
	// MaxRetries bounds how many times one request is retried after a refresh.
	MaxRetries int
	// TriggerStatus is the response status that starts a refresh.
	TriggerStatus int
}

// DefaultAuthRetryPolicy refreshes once on 401 and retries once.
var DefaultAuthRetryPolicy = AuthRetryPolicy{MaxRetries: 1, TriggerStatus: http.StatusUnauthorized}

// Triggered reports whether status is the policy's trigger.
func (p AuthRetryPolicy) Triggered(status int) bool {
	return status == p.TriggerStatus
}

// ShouldRefresh reports whether a response with status on the given attempt
// (0 for the original request) should cause a refresh and retry.
func (p AuthRetryPolicy) ShouldRefresh(status, attempt int) bool {
	return p.Triggered(status) && attempt < p.MaxRetries
}
