package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheControl_PublicForAnonymous(t *testing.T) {
	rec := httptest.NewRecorder()
	CacheControl(30)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/offers", nil))

	assert.Equal(t, "public, max-age=30", rec.Header().Get("Cache-Control"))
}

func TestCacheControl_PrivateForSignedIn(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/offers", nil).
		WithContext(WithIdentity(context.Background(), Identity{UserID: "buyer-1"}))
	CacheControl(30)(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, "private, max-age=30", rec.Header().Get("Cache-Control"))
}

func TestCacheControl_SkipsNonGet(t *testing.T) {
	rec := httptest.NewRecorder()
	CacheControl(30)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/offers", nil))

	assert.Empty(t, rec.Header().Get("Cache-Control"))
}

func TestNoStore(t *testing.T) {
	rec := httptest.NewRecorder()
	NoStore(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}
