package httpclient

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newCall builds a request the way the marketplace client does.
func newCall(t *testing.T, method, url, body string) *http.Request {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, r)
	require.NoError(t, err)
	req.Header.Set("Accept", "application/json")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func retrying(maxRetries int) *Client {
	return New(Config{
		Timeout:         5 * time.Second,
		MaxRetries:      maxRetries,
		RetryWaitMin:    time.Millisecond,
		RetryWaitMax:    5 * time.Millisecond,
		MaxConnsPerHost: 4,
	})
}

func TestDefaultConfig_NoTransportRetries(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Zero(t, cfg.MaxRetries)
	assert.Equal(t, 64, cfg.MaxConnsPerHost)
}

func TestDo_OrderCreateSendsBodyOnce(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		assert.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"supplier_id":"s1","items":[{"offer_id":"o1","quantity":25}]}`, string(body))
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	resp, err := New(DefaultConfig()).Do(context.Background(),
		newCall(t, http.MethodPost, srv.URL+"/orders", `{"supplier_id":"s1","items":[{"offer_id":"o1","quantity":25}]}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode, "the caller decides what a 502 on order create means")
	assert.Equal(t, int32(1), attempts.Load())
}

func TestDo_RetriesOfferSearchThrough503(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"offers":[],"total":0}`))
	}))
	defer srv.Close()

	resp, err := retrying(3).Do(context.Background(), newCall(t, http.MethodGet, srv.URL+"/offers?q=rose", ""))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestDo_RetryRewindsSuggestionFilterBody(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(b))
		if len(bodies) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	const filter = `{"status":"pending","min_confidence":0.8}`
	resp, err := retrying(1).Do(context.Background(), newCall(t, http.MethodPost, srv.URL+"/suggestions/search", filter))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, []string{filter, filter}, bodies)
}

func TestDo_AnswersThatAreNotRetried(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"not implemented", http.StatusNotImplemented},
		{"unknown supplier", http.StatusNotFound},
		{"expired access token", http.StatusUnauthorized},
		{"offer sold out", http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				attempts.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			resp, err := retrying(3).Do(context.Background(), newCall(t, http.MethodGet, srv.URL+"/suppliers/s1", ""))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, int32(1), attempts.Load())
		})
	}
}

func TestDo_DeadlineStopsBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(Config{
		Timeout:         5 * time.Second,
		MaxRetries:      10,
		RetryWaitMin:    100 * time.Millisecond,
		RetryWaitMax:    500 * time.Millisecond,
		MaxConnsPerHost: 4,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Do(ctx, newCall(t, http.MethodGet, srv.URL+"/offers", ""))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDo_UnreachableMarketplace(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := New(DefaultConfig()).Do(context.Background(), newCall(t, http.MethodGet, addr+"/offers", ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 1 attempts")
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(nil))
	assert.False(t, isRetryableError(context.Canceled))
	assert.False(t, isRetryableError(errors.New("malformed url")))
	assert.True(t, isRetryableError(context.DeadlineExceeded))
	assert.True(t, isRetryableError(&net.OpError{Op: "dial", Err: errors.New("connection refused")}))
}

func TestAddJitter_StaysWithinQuarter(t *testing.T) {
	const base = time.Second
	seen := map[time.Duration]bool{}
	for range 100 {
		d := addJitter(base)
		assert.GreaterOrEqual(t, d, 750*time.Millisecond)
		assert.LessOrEqual(t, d, 1250*time.Millisecond)
		seen[d] = true
	}
	assert.Greater(t, len(seen), 1)
	assert.Zero(t, addJitter(0))
	assert.Zero(t, addJitter(-time.Second))
}
