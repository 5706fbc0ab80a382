package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/marketplace"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/repository/file"
)

// env is a scripted marketplace plus a private data directory.
type env struct {
	t       *testing.T
	srv     *httptest.Server
	dataDir string

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	bodies   map[string][]string
	queries  map[string][]url.Values
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		t:        t,
		dataDir:  t.TempDir(),
		handlers: map[string]http.HandlerFunc{},
		bodies:   map[string][]string{},
		queries:  map[string][]url.Values{},
	}
	e.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		body, _ := io.ReadAll(r.Body)

		e.mu.Lock()
		e.bodies[key] = append(e.bodies[key], string(body))
		e.queries[key] = append(e.queries[key], r.URL.Query())
		h, ok := e.handlers[key]
		e.mu.Unlock()

		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(e.srv.Close)
	return e
}

func (e *env) reply(key string, status int, v any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[key] = func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
}

func (e *env) calls(key string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.bodies[key])
}

func (e *env) lastBody(key string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	b := e.bodies[key]
	require.NotEmpty(e.t, b, key)
	return b[len(b)-1]
}

func (e *env) lastQuery(key string) url.Values {
	e.mu.Lock()
	defer e.mu.Unlock()
	q := e.queries[key]
	require.NotEmpty(e.t, q, key)
	return q[len(q)-1]
}

type result struct {
	code   int
	stdout string
	stderr string
}

// exec runs florist against the scripted marketplace with stdin as input.
func (e *env) exec(stdin string, args ...string) result {
	e.t.Helper()
	var out, errOut bytes.Buffer
	args = append(args,
		"--config", filepath.Join(e.dataDir, "config.yaml"),
		"--api-url", e.srv.URL,
		"--data-dir", e.dataDir,
	)
	code := run(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return result{code: code, stdout: out.String(), stderr: errOut.String()}
}

func (e *env) ok(args ...string) string {
	e.t.Helper()
	res := e.exec("", args...)
	require.Equal(e.t, exitOK, res.code, "stderr: %s", res.stderr)
	return res.stdout
}

func (e *env) login(user domain.User) {
	e.t.Helper()
	e.reply("POST /auth/login", http.StatusOK, domain.TokenPair{AccessToken: "a1", RefreshToken: "r1"})
	e.reply("GET /auth/me", http.StatusOK, user)
	res := e.exec("secret\n", "login", "--email", user.Email)
	require.Equal(e.t, exitOK, res.code, "stderr: %s", res.stderr)
}

func (e *env) sessionPath() string { return filepath.Join(e.dataDir, file.SessionFile) }

func buyer() domain.User {
	return domain.User{ID: "u1", Email: "anna@example.com", Name: "Anna", Role: domain.RoleBuyer}
}

func supplierUser() domain.User {
	sid := "s1"
	return domain.User{ID: "u2", Email: "rosa@example.com", Name: "Rosa", Role: domain.RoleSupplier, SupplierID: &sid}
}

func intp(v int) *int { return &v }

func catalogPage() domain.OfferPage {
	return domain.OfferPage{
		Offers: []domain.Offer{
			{ID: "o1", SupplierID: "a", SupplierName: "Flora", Name: "Rose Freedom", Price: decimal.NewFromInt(120), PackSize: intp(25), Stock: intp(500)},
			{ID: "o2", SupplierID: "b", SupplierName: "Green", Name: "Eucalyptus", Price: decimal.RequireFromString("85.50")},
		},
		Total: 2,
		Limit: 100,
	}
}

// ============================================================================
// Auth
// ============================================================================

func TestLogin_ReadsPasswordFromStdinAndStoresSession(t *testing.T) {
	e := newEnv(t)
	e.reply("POST /auth/login", http.StatusOK, domain.TokenPair{AccessToken: "a1", RefreshToken: "r1"})
	e.reply("GET /auth/me", http.StatusOK, buyer())

	res := e.exec("secret\n", "login", "--email", "anna@example.com")

	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Signed in as Anna <anna@example.com> (buyer)")
	assert.JSONEq(t, `{"email":"anna@example.com","password":"secret"}`, e.lastBody("POST /auth/login"))
	assert.FileExists(t, e.sessionPath())

	out := e.ok("me")
	assert.Contains(t, out, "Anna <anna@example.com>")
}

func TestLogin_BadCredentials(t *testing.T) {
	e := newEnv(t)
	e.reply("POST /auth/login", http.StatusUnauthorized, map[string]string{"detail": "Invalid email or password"})

	res := e.exec("", "login", "--email", "anna@example.com", "--password", "wrong")

	assert.Equal(t, exitError, res.code)
	assert.Contains(t, res.stderr, "Invalid email or password")
	assert.NoFileExists(t, e.sessionPath())
}

func TestMe_SignedOut(t *testing.T) {
	e := newEnv(t)

	res := e.exec("", "me")

	assert.Equal(t, exitError, res.code)
	assert.True(t, strings.HasPrefix(res.stderr, "Error: "), res.stderr)
	assert.Zero(t, e.calls("GET /auth/me"))
}

func TestMeUpdate_SendsOnlyGivenFields(t *testing.T) {
	e := newEnv(t)
	e.login(buyer())
	updated := buyer()
	company := "Bloom LLC"
	updated.Company = &company
	e.reply("PATCH /auth/me", http.StatusOK, updated)

	out := e.ok("me", "update", "--company", "Bloom LLC")

	assert.JSONEq(t, `{"company":"Bloom LLC"}`, e.lastBody("PATCH /auth/me"))
	assert.Contains(t, out, "Company:  Bloom LLC")
}

func TestLogout_RemovesSession(t *testing.T) {
	e := newEnv(t)
	e.login(buyer())
	e.reply("POST /auth/logout", http.StatusNoContent, nil)

	out := e.ok("logout")

	assert.Contains(t, out, "Signed out.")
	assert.NoFileExists(t, e.sessionPath())
	assert.Contains(t, e.ok("logout"), "Not signed in.")
}

func TestExpiredRefreshSignsOut(t *testing.T) {
	e := newEnv(t)
	e.login(buyer())
	e.reply("GET /auth/me", http.StatusUnauthorized, map[string]string{"detail": "expired"})
	e.reply("POST /auth/refresh", http.StatusUnauthorized, map[string]string{"detail": "expired"})

	res := e.exec("", "me")

	assert.Equal(t, exitError, res.code)
	assert.Equal(t, 1, e.calls("POST /auth/refresh"))
	assert.NoFileExists(t, e.sessionPath())
}

// ============================================================================
// Catalog
// ============================================================================

func TestOffers_MapsFlagsToQuery(t *testing.T) {
	e := newEnv(t)
	e.reply("GET /offers", http.StatusOK, catalogPage())

	out := e.ok("offers", "-q", "rose", "--color", "red", "--color", "white", "--price-min", "10", "--length-max", "70", "--limit", "10", "--page", "3")

	q := e.lastQuery("GET /offers")
	assert.Equal(t, "rose", q.Get("q"))
	assert.Equal(t, []string{"red", "white"}, q["colors"])
	assert.Equal(t, "10", q.Get("price_min"))
	assert.Equal(t, "70", q.Get("length_max"))
	assert.Equal(t, "10", q.Get("limit"))
	assert.Equal(t, "20", q.Get("offset"))
	assert.Empty(t, q.Get("price_max"))
	assert.Empty(t, q.Get("length_min"))
	assert.Empty(t, q.Get("product_type"))

	assert.Contains(t, out, "Rose Freedom")
	assert.Contains(t, out, "85.50")
}

func TestOffers_InvalidFlagsNeverReachMarketplace(t *testing.T) {
	e := newEnv(t)

	for _, args := range [][]string{
		{"offers", "--price-min", "cheap"},
		{"offers", "--limit", "500"},
		{"offers", "--page", "0"},
	} {
		res := e.exec("", args...)
		assert.Equal(t, exitError, res.code, args)
	}
	assert.Zero(t, e.calls("GET /offers"))
}

// ============================================================================
// Cart and checkout
// ============================================================================

func TestCartAdd_DefaultsToPackSize(t *testing.T) {
	e := newEnv(t)
	e.reply("GET /offers", http.StatusOK, catalogPage())

	out := e.ok("cart", "add", "o1")
	assert.Contains(t, out, "Added 25 × Rose Freedom from Flora")

	e.ok("cart", "add", "o2")
	out = e.ok("cart", "add", "o2", "--qty", "4")
	assert.Contains(t, out, "Added 4 × Eucalyptus")

	out = e.ok("cart")
	assert.Contains(t, out, "Flora (a)")
	assert.Contains(t, out, "Green (b)")
	assert.Contains(t, out, "Subtotal: 3000.00")
	assert.Contains(t, out, "Subtotal: 427.50")
	assert.Contains(t, out, "Total: 3427.50 (30 items)")
}

func TestCartAdd_UnknownOffer(t *testing.T) {
	e := newEnv(t)
	e.reply("GET /offers", http.StatusOK, catalogPage())

	res := e.exec("", "cart", "add", "missing")

	assert.Equal(t, exitError, res.code)
	assert.Equal(t, 1, e.calls("GET /offers"))
	assert.Contains(t, e.ok("cart"), "Your cart is empty.")
}

func TestCartSetRemoveClear(t *testing.T) {
	e := newEnv(t)
	e.reply("GET /offers", http.StatusOK, catalogPage())
	e.ok("cart", "add", "o1")
	e.ok("cart", "add", "o2")

	out := e.ok("cart", "set", "a", "o1", "50")
	assert.Contains(t, out, "Subtotal: 6000.00")

	out = e.ok("cart", "remove", "b", "o2")
	assert.NotContains(t, out, "Green")

	out = e.ok("cart", "set", "a", "o1", "0")
	assert.Contains(t, out, "Total: 120.00 (1 items)")

	e.ok("cart", "add", "o2")
	assert.Contains(t, e.ok("cart", "clear"), "Cart cleared.")
	assert.Contains(t, e.ok("cart"), "Your cart is empty.")

	res := e.exec("", "cart", "set", "a", "o1", "lots")
	assert.Equal(t, exitError, res.code)
}

func TestCheckout_PlacesOrderAndKeepsOtherSuppliers(t *testing.T) {
	e := newEnv(t)
	e.reply("GET /offers", http.StatusOK, catalogPage())
	e.ok("cart", "add", "o1")
	e.ok("cart", "add", "o2")
	e.login(buyer())
	e.reply("POST /orders", http.StatusCreated, domain.Order{
		ID: "ord-1", BuyerID: "u1", SupplierID: "a", Status: domain.OrderStatusPending,
		TotalAmount: decimal.NewFromInt(3000), DeliveryAddress: "Lenina 1, Moscow",
	})

	out := e.ok("checkout", "a", "--address", "Lenina 1, Moscow", "--date", "2026-11-02")

	assert.Contains(t, out, "Order ord-1 placed")
	assert.Contains(t, out, "3000.00")

	var sent domain.CreateOrderRequest
	require.NoError(t, json.Unmarshal([]byte(e.lastBody("POST /orders")), &sent))
	assert.Equal(t, "u1", sent.BuyerID)
	assert.Equal(t, []domain.OrderItemRequest{{OfferID: "o1", Quantity: 25}}, sent.Items)
	require.NotNil(t, sent.DeliveryDate)
	assert.Equal(t, "2026-11-02", *sent.DeliveryDate)

	cart := e.ok("cart")
	assert.NotContains(t, cart, "Flora")
	assert.Contains(t, cart, "Green (b)")
}

func TestCheckout_FailureLeavesCart(t *testing.T) {
	e := newEnv(t)
	e.reply("GET /offers", http.StatusOK, catalogPage())
	e.ok("cart", "add", "o1")
	e.login(buyer())
	e.reply("POST /orders", http.StatusConflict, map[string]string{"detail": "Offer is no longer active"})

	res := e.exec("", "checkout", "a", "--address", "Lenina 1, Moscow")

	assert.Equal(t, exitError, res.code)
	assert.Equal(t, 1, e.calls("POST /orders"))
	assert.Contains(t, e.ok("cart"), "Flora (a)")
}

func TestCheckout_NothingFromSupplier(t *testing.T) {
	e := newEnv(t)
	e.login(buyer())

	out := e.ok("checkout", "zzz", "--address", "Lenina 1, Moscow")

	assert.Contains(t, out, "Nothing in the cart from supplier zzz.")
	assert.Zero(t, e.calls("POST /orders"))
}

func TestCheckout_ShortAddress(t *testing.T) {
	e := newEnv(t)
	e.reply("GET /offers", http.StatusOK, catalogPage())
	e.ok("cart", "add", "o1")
	e.login(buyer())

	res := e.exec("", "checkout", "a", "--address", "x")

	assert.Equal(t, exitError, res.code)
	assert.Contains(t, res.stderr, "delivery address")
	assert.Zero(t, e.calls("POST /orders"))
}

// ============================================================================
// Orders
// ============================================================================

func TestOrders_ListWithBadges(t *testing.T) {
	e := newEnv(t)
	e.login(buyer())
	e.reply("GET /orders", http.StatusOK, domain.OrderPage{
		Orders: []domain.Order{
			{ID: "ord-2", SupplierID: "a", Status: domain.OrderStatusRejected, TotalAmount: decimal.NewFromInt(100)},
			{ID: "ord-1", SupplierID: "b", Status: domain.OrderStatusConfirmed, TotalAmount: decimal.NewFromInt(250)},
		},
		Total: 2,
	})

	out := e.ok("orders", "--status", "rejected")

	assert.Equal(t, "u1", e.lastQuery("GET /orders").Get("buyer_id"))
	assert.Equal(t, "rejected", e.lastQuery("GET /orders").Get("status"))
	assert.Contains(t, out, "ord-2")
	assert.Contains(t, out, domain.BadgeFor(domain.OrderStatusRejected).Label)
	assert.Contains(t, out, domain.BadgeFor(domain.OrderStatusConfirmed).Label)
	assert.Contains(t, out, "2 of 2 orders")
}

func TestOrders_UnknownStatus(t *testing.T) {
	e := newEnv(t)
	e.login(buyer())

	res := e.exec("", "orders", "--status", "lost")

	assert.Equal(t, exitError, res.code)
	assert.Zero(t, e.calls("GET /orders"))
}

func TestOrders_Show(t *testing.T) {
	e := newEnv(t)
	e.login(buyer())
	reason := "Out of season"
	e.reply("GET /orders/ord-9", http.StatusOK, domain.Order{
		ID: "ord-9", BuyerID: "u1", SupplierID: "a", Status: domain.OrderStatusRejected,
		TotalAmount: decimal.NewFromInt(240), DeliveryAddress: "Lenina 1, Moscow", RejectionReason: &reason,
		Items: []domain.OrderItem{{OfferID: "o1", Name: "Rose Freedom", Quantity: 2, UnitPrice: decimal.NewFromInt(120), TotalPrice: decimal.NewFromInt(240)}},
	})

	out := e.ok("orders", "show", "ord-9")

	assert.Contains(t, out, "Rejected: Out of season")
	assert.Contains(t, out, "Rose Freedom")
	assert.Contains(t, out, "Total: 240.00")
}

// ============================================================================
// Seller
// ============================================================================

func supplierItems() marketplace.SupplierItemPage {
	p := func(s string) *decimal.Decimal { d := decimal.RequireFromString(s); return &d }
	return marketplace.SupplierItemPage{
		Items: []domain.SupplierItem{
			{ID: "i1", SupplierID: "s1", Name: "Rose Freedom", Color: "red", Status: "active", Variants: []domain.OfferCandidate{
				{ID: "v1", ItemID: "i1", LengthCM: intp(50), Price: p("90")},
				{ID: "v2", ItemID: "i1", LengthCM: intp(70), Price: p("120")},
			}},
			{ID: "i2", SupplierID: "s1", Name: "Tulip", Color: "white", Status: "active"},
		},
		Total: 2,
	}
}

func TestAssortment_ScopedToOwnSupplierAndSorted(t *testing.T) {
	e := newEnv(t)
	e.login(supplierUser())
	e.reply("GET /admin/supplier-items", http.StatusOK, supplierItems())

	out := e.ok("assortment", "--select", "color=red", "--sort", "-price", "--supplier", "other")

	assert.Equal(t, "s1", e.lastQuery("GET /admin/supplier-items").Get("supplier_id"))
	assert.NotContains(t, out, "Tulip")
	assert.Less(t, strings.Index(out, "v2"), strings.Index(out, "v1"))
	assert.Contains(t, out, "2 rows from 2 of 2 items")
}

func TestAssortment_BuyerIsForbidden(t *testing.T) {
	e := newEnv(t)
	e.login(buyer())

	res := e.exec("", "assortment")

	assert.Equal(t, exitError, res.code)
	assert.Contains(t, res.stderr, "not linked to a supplier")
	assert.Zero(t, e.calls("GET /admin/supplier-items"))
}

func TestAssortmentQuery_Errors(t *testing.T) {
	tests := []struct {
		name    string
		selects []string
		mins    []string
		sort    string
	}{
		{name: "select without value", selects: []string{"color"}},
		{name: "select on numeric", selects: []string{"price=10"}},
		{name: "min on text", mins: []string{"color=1"}},
		{name: "min not a number", mins: []string{"price=abc"}},
		{name: "unknown sort", sort: "weight"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := assortmentQuery("", tt.selects, tt.mins, nil, tt.sort)
			assert.Error(t, err)
		})
	}

	q, err := assortmentQuery("rose", []string{"color=red", "color=white"}, []string{"price=10"}, []string{"price=99.5"}, "-stock")
	require.NoError(t, err)
	assert.Equal(t, []string{"red", "white"}, q.Filter.Selects[domain.ColColor])
	rg := q.Filter.Ranges[domain.ColPrice]
	require.NotNil(t, rg.Min)
	require.NotNil(t, rg.Max)
	assert.Equal(t, "99.5", rg.Max.String())
	assert.Equal(t, domain.SortState{Column: domain.ColStock, Direction: domain.SortDesc}, q.Sort)
}

func TestAssortmentEdit_SendsNumbersAsNumbers(t *testing.T) {
	e := newEnv(t)
	e.login(supplierUser())
	price := decimal.RequireFromString("12.5")
	e.reply("PATCH /admin/offer-candidates/v1", http.StatusOK, domain.OfferCandidate{ID: "v1", ItemID: "i1", Price: &price})

	out := e.ok("assortment", "edit", "variant", "v1", "price", "12.5")

	assert.JSONEq(t, `{"price":12.5}`, e.lastBody("PATCH /admin/offer-candidates/v1"))
	assert.Contains(t, out, "Saved variant v1: price = ")
}

func TestAssortmentEdit_FailureShowsServerValue(t *testing.T) {
	e := newEnv(t)
	e.login(supplierUser())
	e.reply("PATCH /admin/supplier-items/i1", http.StatusUnprocessableEntity, map[string]string{"detail": "Name already used"})
	e.reply("GET /admin/supplier-items/i1", http.StatusOK, domain.SupplierItem{ID: "i1", Name: "Rose Freedom"})

	res := e.exec("", "assortment", "edit", "item", "i1", "name", "Rose")

	assert.Equal(t, exitError, res.code)
	assert.Contains(t, res.stdout, "Not saved")
	assert.Contains(t, res.stdout, `name = "Rose Freedom"`)
}

func TestAssortmentEdit_InvalidFieldNeverSent(t *testing.T) {
	e := newEnv(t)
	e.login(supplierUser())

	res := e.exec("", "assortment", "edit", "variant", "v1", "price", "cheap")

	assert.Equal(t, exitError, res.code)
	assert.Zero(t, e.calls("PATCH /admin/offer-candidates/v1"))
}

func TestEditValue(t *testing.T) {
	assert.Nil(t, editValue("null", false))
	assert.Equal(t, json.Number("12.5"), editValue("12.5", false))
	assert.Equal(t, "12.5", editValue("12.5", true))
	assert.Equal(t, "Rose", editValue("Rose", false))
}

func TestSuggestions_ListAndAcceptAbove(t *testing.T) {
	e := newEnv(t)
	e.login(supplierUser())
	e.reply("GET /admin/ai/suggestions", http.StatusOK, marketplace.SuggestionPage{
		Suggestions: []domain.Suggestion{
			{ID: "g1", TargetKind: domain.EditItem, TargetID: "i1", Field: "color", CurrentValue: "red", SuggestedValue: "burgundy", Confidence: 0.62, Status: domain.SuggestionPending},
			{ID: "g2", TargetKind: domain.EditItem, TargetID: "i2", Field: "color", CurrentValue: nil, SuggestedValue: "white", Confidence: 0.97, Status: domain.SuggestionPending},
		},
		Total: 2,
	})

	out := e.ok("suggestions")
	assert.Less(t, strings.Index(out, "g2"), strings.Index(out, "g1"))
	assert.Contains(t, out, "97%")
	assert.Equal(t, "s1", e.lastQuery("GET /admin/ai/suggestions").Get("supplier_id"))

	e.reply("PATCH /admin/ai/suggestions/g2/accept", http.StatusOK, domain.Suggestion{ID: "g2", Status: domain.SuggestionAccepted})

	out = e.ok("suggestions", "accept-above", "0.9")
	assert.Contains(t, out, "g2 accept: accepted")
	assert.Contains(t, out, "1 accepted, 0 failed")
	assert.Zero(t, e.calls("PATCH /admin/ai/suggestions/g1/accept"))
}

func TestSuggestions_RejectFailureIsReported(t *testing.T) {
	e := newEnv(t)
	e.login(supplierUser())
	e.reply("PATCH /admin/ai/suggestions/g1/reject", http.StatusConflict, map[string]string{"detail": "Suggestion already reviewed"})

	res := e.exec("", "suggestions", "reject", "g1", "--reason", "wrong color")

	assert.Equal(t, exitError, res.code)
	assert.Contains(t, res.stdout, "g1 reject failed")
	assert.Contains(t, e.lastBody("PATCH /admin/ai/suggestions/g1/reject"), "wrong color")
}

// ============================================================================
// Root
// ============================================================================

func TestConfigShow_AppliesFlags(t *testing.T) {
	e := newEnv(t)

	out := e.ok("config", "show", "--timeout", "3s")

	assert.Contains(t, out, "api_url: "+e.srv.URL)
	assert.Contains(t, out, "data_dir: "+e.dataDir)
	assert.Contains(t, out, "timeout: 3s")
}

func TestInvalidProfileFails(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(e.dataDir, "config.yaml"), []byte("api_ulr: x\n"), 0o600))

	res := e.exec("", "cart")

	assert.Equal(t, exitError, res.code)
	assert.Contains(t, res.stderr, "api_ulr")
}

func TestUnknownFlag(t *testing.T) {
	e := newEnv(t)

	res := e.exec("", "cart", "--bogus")

	assert.Equal(t, exitError, res.code)
	assert.Contains(t, res.stderr, "unknown flag: --bogus")
}

func TestExecute_PanicSignsOut(t *testing.T) {
	dir := t.TempDir()
	session := filepath.Join(dir, file.SessionFile)
	require.NoError(t, os.WriteFile(session, []byte(`{"id":"s"}`), 0o600))

	var out, errOut bytes.Buffer
	c := newCLI(strings.NewReader(""), &out, &errOut)
	c.sessionFile = session
	root := &cobra.Command{
		Use:           "florist",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          func(*cobra.Command, []string) error { panic("boom") },
	}
	root.SetArgs(nil)

	code := c.execute(context.Background(), root)

	assert.Equal(t, exitCrash, code)
	assert.NoFileExists(t, session)
	assert.Contains(t, errOut.String(), "signed you out")
	assert.NotContains(t, errOut.String(), "boom")
}
