package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/event"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/marketplace"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/repository"
	redisrepo "github.com/Klimov-IS/Flowers-marketplace-sub000/internal/repository/redis"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/service"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/health"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/httpclient"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/middleware"
)

const guestCart = "7d5c3c1e-2f1a-4b8e-9a55-0c6f1f7b9e21"

// ============================================================================
// Scripted marketplace
// ============================================================================

type upstream struct {
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	hits     map[string]int
	bodies   map[string][]string
}

func newUpstream(t *testing.T) (*upstream, *httptest.Server) {
	t.Helper()
	u := &upstream{
		handlers: map[string]http.HandlerFunc{},
		hits:     map[string]int{},
		bodies:   map[string][]string{},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		body, _ := io.ReadAll(r.Body)

		u.mu.Lock()
		u.hits[key]++
		u.bodies[key] = append(u.bodies[key], string(body))
		h, ok := u.handlers[key]
		u.mu.Unlock()

		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return u, srv
}

func (u *upstream) on(key string, h http.HandlerFunc) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.handlers[key] = h
}

func (u *upstream) reply(key string, status int, v any) {
	u.on(key, func(w http.ResponseWriter, _ *http.Request) { writeUpstream(w, status, v) })
}

func (u *upstream) count(key string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[key]
}

func (u *upstream) lastBody(key string) string {
	u.mu.Lock()
	defer u.mu.Unlock()
	b := u.bodies[key]
	if len(b) == 0 {
		return ""
	}
	return b[len(b)-1]
}

func writeUpstream(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ============================================================================
// Fixture
// ============================================================================

type fixture struct {
	t       *testing.T
	api     *upstream
	redis   *miniredis.Miniredis
	journal *memJournal
	handler http.Handler
}

// memJournal is an in-memory checkout journal.
type memJournal struct {
	mu       sync.Mutex
	attempts []repository.CheckoutAttempt
}

func (j *memJournal) Begin(_ context.Context, a *repository.CheckoutAttempt) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	a.CreatedAt = time.Now()
	j.attempts = append(j.attempts, *a)
	return nil
}

func (j *memJournal) Finish(_ context.Context, id string, status repository.AttemptStatus, orderID, errMsg string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i := range j.attempts {
		if j.attempts[i].ID == id {
			now := time.Now()
			j.attempts[i].Status = status
			j.attempts[i].OrderID = orderID
			j.attempts[i].Error = errMsg
			j.attempts[i].FinishedAt = &now
		}
	}
	return nil
}

func (j *memJournal) ListByOwner(_ context.Context, ownerID string, limit int) ([]repository.CheckoutAttempt, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []repository.CheckoutAttempt
	for i := len(j.attempts) - 1; i >= 0 && len(out) < limit; i-- {
		if j.attempts[i].OwnerID == ownerID {
			out = append(out, j.attempts[i])
		}
	}
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := testLogger()

	api, srv := newUpstream(t)
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	cfg.Timeout = 2 * time.Second
	client := marketplace.NewClient(srv.URL, httpclient.New(cfg), logger)

	journal := &memJournal{}
	events := event.NewProducer(nil, logger)
	carts := service.NewCartService(redisrepo.NewCartRepository(rdb, time.Hour), events, logger)
	svcs := Services{
		Sessions:    service.NewSessionService(client, redisrepo.NewSessionRepository(rdb, time.Hour), logger, time.Hour),
		Carts:       carts,
		Checkout:    service.NewCheckoutService(carts, client, journal, events, logger),
		Catalog:     service.NewCatalogService(client, logger),
		Orders:      service.NewOrderService(client),
		Assortment:  service.NewAssortmentService(client, logger),
		Suggestions: service.NewSuggestionService(client, logger),
	}

	opts := Options{
		CORS:           middleware.DefaultCORSConfig(),
		CatalogMaxAge:  30,
		OperationCIDRs: []string{"127.0.0.0/8"},
	}
	return &fixture{
		t:       t,
		api:     api,
		redis:   mr,
		journal: journal,
		handler: NewRouter(svcs, health.NewHandler(), opts, logger),
	}
}

type reqOption func(*http.Request)

func withSession(id string) reqOption {
	return func(r *http.Request) { r.Header.Set(SessionHeader, id) }
}

func withCart(id string) reqOption {
	return func(r *http.Request) { r.Header.Set(CartHeader, id) }
}

func (f *fixture) do(method, path string, body any, opts ...reqOption) *httptest.ResponseRecorder {
	f.t.Helper()
	if body == nil {
		return f.doRaw(method, path, nil, "", opts...)
	}
	raw, err := json.Marshal(body)
	require.NoError(f.t, err)
	return f.doRaw(method, path, bytes.NewReader(raw), "application/json", opts...)
}

func (f *fixture) doRaw(method, path string, body io.Reader, contentType string, opts ...reqOption) *httptest.ResponseRecorder {
	f.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, o := range opts {
		o(req)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

// login scripts the marketplace for user and signs in, returning the
// session id.
func (f *fixture) login(user domain.User) string {
	f.t.Helper()
	f.api.reply("POST /auth/login", http.StatusOK, domain.TokenPair{AccessToken: "a1", RefreshToken: "r1"})
	f.api.reply("GET /auth/me", http.StatusOK, user)

	rec := f.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": user.Email, "password": "secret"})
	require.Equal(f.t, http.StatusOK, rec.Code, rec.Body.String())
	id := rec.Header().Get(SessionHeader)
	require.NotEmpty(f.t, id)
	return id
}

func buyer() domain.User {
	return domain.User{ID: "u1", Email: "anna@example.com", Name: "Anna", Role: domain.RoleBuyer}
}

func supplier() domain.User {
	sid := "s1"
	return domain.User{ID: "u2", Email: "rosa@example.com", Name: "Rosa", Role: domain.RoleSupplier, SupplierID: &sid}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
	Total int `json:"total"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Data, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error, rec.Body.String())
	return env.Error.Code
}

func intPtr(v int) *int { return &v }
