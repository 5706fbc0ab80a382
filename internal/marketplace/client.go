// Package marketplace is the REST client for the marketplace API. Every call
// goes through one authenticated request path that applies AuthRetryPolicy.
package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
	apperrors "github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/errors"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/httpclient"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/logger"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/middleware"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/tracing"
)

const (
	serviceName = "marketplace"
	tracerName  = "github.com/Klimov-IS/Flowers-marketplace-sub000/internal/marketplace"
	maxBodySize = 4 << 20
)

// HTTPDoer is the interface for executing HTTP requests.
// Both httpclient.Client and httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client talks to the marketplace REST API.
type Client struct {
	baseURL string
	http    HTTPDoer
	policy  AuthRetryPolicy
	refresh *refresher
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithAuthRetryPolicy replaces DefaultAuthRetryPolicy.
func WithAuthRetryPolicy(p AuthRetryPolicy) Option {
	return func(c *Client) { c.policy = p }
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, doer HTTPDoer, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    doer,
		policy:  DefaultAuthRetryPolicy,
		refresh: newRefresher(),
		logger:  logger,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NewDefaultClient builds the standard transport stack: a pooled HTTP client
// without transport retries behind a circuit breaker.
func NewDefaultClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	cfg := httpclient.DefaultConfig()
	if timeout > 0 {
		cfg.Timeout = timeout
	}
	cfg.MaxRetries = 0
	breaker := httpclient.NewCircuitBreakerClient(
		httpclient.New(cfg),
		httpclient.DefaultCircuitBreakerConfig(serviceName),
		logger,
	)
	return NewClient(baseURL, breaker, logger)
}

// call describes one API request.
type call struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
	out    any
	// public calls skip the auth retry path; a 401 is an ordinary error.
	public bool
}

// do performs c with tokens. On the policy's trigger status it refreshes the
// token pair and retries, at most policy.MaxRetries times. When the session
// cannot be recovered tokens are cleared and SESSION_EXPIRED is returned.
//
// Concurrent calls on one session share a single refresh. A call whose 401
// raced with another call's refresh retries with the pair already stored, and
// a failure only clears the holder while the failing pair is still current.
func (c *Client) do(ctx context.Context, tokens Tokens, cl call) error {
	if tokens == nil {
		tokens = Anonymous
	}

	var payload []byte
	if cl.body != nil {
		var err error
		if payload, err = json.Marshal(cl.body); err != nil {
			return fmt.Errorf("encode %s request: %w", cl.op, err)
		}
	}

	for attempt := 0; ; attempt++ {
		pair := tokens.Current()
		resp, err := c.send(ctx, cl, payload, pair.AccessToken)
		if err != nil {
			return err
		}

		if cl.public || !c.policy.Triggered(resp.StatusCode) {
			return c.decode(resp, cl)
		}
		drain(resp)

		if pair.AccessToken == "" && pair.RefreshToken == "" {
			return apperrors.SignInRequired()
		}
		if !c.policy.ShouldRefresh(resp.StatusCode, attempt) {
			return c.expire(ctx, tokens, pair, cl.op, "rejected after refresh")
		}

		switch cur := tokens.Current(); {
		case cur.AccessToken == "" && cur.RefreshToken == "":
			return apperrors.SessionExpired()
		case cur.AccessToken != pair.AccessToken:
			continue
		}
		if pair.RefreshToken == "" {
			return c.expire(ctx, tokens, pair, cl.op, "no refresh token")
		}

		fresh, err := c.refresh.exchange(ctx, pair.RefreshToken, c.refreshCounted)
		if err != nil {
			c.logger.WarnContext(ctx, "token refresh failed",
				slog.String("operation", cl.op),
				slog.String("error", err.Error()),
			)
			if tokens.Current().RefreshToken != pair.RefreshToken {
				continue
			}
			return c.expire(ctx, tokens, pair, cl.op, "refresh failed")
		}
		if err := tokens.Update(ctx, fresh); err != nil {
			c.logger.WarnContext(ctx, "store refreshed tokens", slog.String("error", err.Error()))
		}
	}
}

func (c *Client) refreshCounted(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	pair, err := c.Refresh(ctx, refreshToken)
	if err != nil {
		tokenRefreshTotal.WithLabelValues("failed").Inc()
		return pair, err
	}
	tokenRefreshTotal.WithLabelValues("succeeded").Inc()
	return pair, nil
}

// expire clears tokens when failed is still the stored pair. A holder that
// another call has refreshed or cleared in the meantime is left alone.
func (c *Client) expire(ctx context.Context, tokens Tokens, failed domain.TokenPair, op, reason string) error {
	if cur := tokens.Current(); cur != failed {
		c.logger.InfoContext(ctx, "session changed by a concurrent call",
			slog.String("operation", op),
			slog.String("reason", reason),
		)
		return apperrors.SessionExpired()
	}
	if err := tokens.Clear(ctx); err != nil {
		c.logger.WarnContext(ctx, "clear expired session", slog.String("error", err.Error()))
	}
	c.logger.InfoContext(ctx, "session expired",
		slog.String("operation", op),
		slog.String("reason", reason),
	)
	return apperrors.SessionExpired()
}

// send issues one HTTP request. Transport failures, 5xx answers and an open
// breaker all come back as SERVICE_UNAVAILABLE; a canceled context comes back
// as the context error.
func (c *Client) send(ctx context.Context, cl call, payload []byte, accessToken string) (*http.Response, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "marketplace."+cl.op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", cl.method),
			attribute.String("url.path", cl.path),
		),
	)
	defer span.End()

	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	var body io.Reader = http.NoBody
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", cl.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.CorrelationHeader, id)
	}
	tracing.InjectHeaders(ctx, req.Header)

	start := time.Now()
	resp, err := c.http.Do(ctx, req)
	requestDuration.WithLabelValues(cl.op).Observe(time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if ctxErr := ctx.Err(); ctxErr != nil {
			requestsTotal.WithLabelValues(cl.op, "canceled").Inc()
			return nil, ctxErr
		}
		requestsTotal.WithLabelValues(cl.op, "unavailable").Inc()
		c.logger.WarnContext(ctx, "marketplace request failed",
			slog.String("operation", cl.op),
			slog.String("error", err.Error()),
		)
		return nil, httpclient.Unavailable(serviceName, err)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}
	requestsTotal.WithLabelValues(cl.op, strconv.Itoa(resp.StatusCode)).Inc()
	return resp, nil
}

func (c *Client) decode(resp *http.Response, cl call) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return httpclient.ParseResponseError(resp, serviceName)
	}
	defer drain(resp)

	if cl.out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(cl.out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode %s response: %w", cl.op, err)
	}
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
	_ = resp.Body.Close()
}

func pathID(prefix, id string, suffix ...string) string {
	p := prefix + "/" + url.PathEscape(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

func pageQuery(limit, offset int) url.Values {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	return q
}
