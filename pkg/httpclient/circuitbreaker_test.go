package httpclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// upstream is a marketplace stand-in whose answer can be switched mid-test.
type upstream struct {
	srv    *httptest.Server
	status atomic.Int32
	hits   atomic.Int32
	gate   chan struct{}
}

func newUpstream(t *testing.T, status int, gate chan struct{}) *upstream {
	t.Helper()
	u := &upstream{gate: gate}
	u.status.Store(int32(status))
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)
		if u.gate != nil {
			select {
			case <-u.gate:
			case <-r.Context().Done():
				return
			}
		}
		w.WriteHeader(int(u.status.Load()))
		_, _ = w.Write([]byte(`{"offers":[]}`))
	}))
	t.Cleanup(u.srv.Close)
	return u
}

func breakerFor(name string) *CircuitBreakerClient {
	cfg := DefaultCircuitBreakerConfig(name)
	cfg.MinRequests = 3
	cfg.Timeout = 50 * time.Millisecond
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCircuitBreakerClient(New(DefaultConfig()), cfg, logger)
}

func searchOffers(t *testing.T, cb *CircuitBreakerClient, u *upstream) (*http.Response, error) {
	t.Helper()
	resp, err := cb.Do(context.Background(), newCall(t, http.MethodGet, u.srv.URL+"/offers?q=peony", ""))
	if resp != nil {
		t.Cleanup(func() { _ = resp.Body.Close() })
	}
	return resp, err
}

func TestDefaultCircuitBreakerConfig(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig("marketplace")
	assert.Equal(t, "marketplace", cfg.Name)
	assert.Equal(t, uint32(5), cfg.MinRequests)
	assert.Equal(t, 0.5, cfg.FailureRatio)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestCircuitBreaker_OutageOpensAndStopsCalling(t *testing.T) {
	u := newUpstream(t, http.StatusServiceUnavailable, nil)
	cb := breakerFor("marketplace-outage")

	for range 3 {
		_, err := searchOffers(t, cb, u)
		var se *ServerError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusServiceUnavailable, se.Status)
	}
	require.Equal(t, gobreaker.StateOpen, cb.State())
	assert.Equal(t, 2.0, testutil.ToFloat64(circuitBreakerState.WithLabelValues("marketplace-outage")))

	_, err := searchOffers(t, cb, u)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(3), u.hits.Load(), "an open breaker does not reach the marketplace")
}

func TestCircuitBreaker_RecoversAfterTimeout(t *testing.T) {
	u := newUpstream(t, http.StatusBadGateway, nil)
	cb := breakerFor("marketplace-recovery")
	for range 3 {
		_, _ = searchOffers(t, cb, u)
	}
	require.Equal(t, gobreaker.StateOpen, cb.State())

	u.status.Store(http.StatusOK)
	require.Eventually(t, func() bool {
		return cb.State() == gobreaker.StateHalfOpen
	}, time.Second, 10*time.Millisecond)

	resp, err := searchOffers(t, cb, u)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.Equal(t, 0.0, testutil.ToFloat64(circuitBreakerState.WithLabelValues("marketplace-recovery")))
}

func TestCircuitBreaker_ClientErrorsAreAnswers(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusNotFound, http.StatusConflict} {
		u := newUpstream(t, status, nil)
		cb := breakerFor("marketplace-4xx-" + http.StatusText(status))

		for range 5 {
			resp, err := searchOffers(t, cb, u)
			require.NoError(t, err)
			assert.Equal(t, status, resp.StatusCode)
		}
		assert.Equal(t, gobreaker.StateClosed, cb.State())
	}
}

func TestCircuitBreaker_BuyerNavigatingAwayDoesNotTrip(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	u := newUpstream(t, http.StatusOK, gate)
	cb := breakerFor("marketplace-canceled")

	for range 5 {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(5 * time.Millisecond)
			cancel()
		}()
		_, err := cb.Do(ctx, newCall(t, http.MethodGet, u.srv.URL+"/offers", ""))
		require.True(t, errors.Is(err, context.Canceled), "got %v", err)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_SlowMarketplaceCounts(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	u := newUpstream(t, http.StatusOK, gate)
	cb := breakerFor("marketplace-slow")

	for range 3 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		_, err := cb.Do(ctx, newCall(t, http.MethodGet, u.srv.URL+"/offers", ""))
		cancel()
		require.ErrorIs(t, err, context.DeadlineExceeded)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())
}

func TestServerError_Message(t *testing.T) {
	err := error(&ServerError{Status: http.StatusGatewayTimeout})
	assert.Equal(t, "server error 504", err.Error())
}
