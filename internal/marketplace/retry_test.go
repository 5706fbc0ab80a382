package marketplace

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthRetryPolicy_Default(t *testing.T) {
	assert.Equal(t, AuthRetryPolicy{MaxRetries: 1, TriggerStatus: http.StatusUnauthorized}, DefaultAuthRetryPolicy)
}

func TestAuthRetryPolicy_ShouldRefresh(t *testing.T) {
	p := DefaultAuthRetryPolicy
	tests := []struct {
		status  int
		attempt int
		want    bool
	}{
		{http.StatusUnauthorized, 0, true},
		{http.StatusUnauthorized, 1, false},
		{http.StatusUnauthorized, 5, false},
		{http.StatusForbidden, 0, false},
		{http.StatusOK, 0, false},
		{http.StatusInternalServerError, 0, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.ShouldRefresh(tt.status, tt.attempt), "status %d attempt %d", tt.status, tt.attempt)
	}
}

func TestAuthRetryPolicy_ZeroRetriesNeverRefreshes(t *testing.T) {
	p := AuthRetryPolicy{MaxRetries: 0, TriggerStatus: http.StatusUnauthorized}
	assert.True(t, p.Triggered(http.StatusUnauthorized))
	assert.False(t, p.ShouldRefresh(http.StatusUnauthorized, 0))
}
