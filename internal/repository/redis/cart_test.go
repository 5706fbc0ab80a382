package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/repository"
	apperrors "github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/errors"
)

func setupTestRedis(t *testing.T) (*goredis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func sampleCart() *domain.Cart {
	stock := 500
	return &domain.Cart{
		OwnerID: "buyer:u1",
		Version: 2,
		Suppliers: []domain.SupplierCartGroup{
			{
				SupplierID:   "s1",
				SupplierName: "Rosa Fresh",
				Items: []domain.CartLine{
					{OfferID: "o1", Name: "Rose Explorer 60cm", Price: decimal.RequireFromString("120.50"), Quantity: 50, Stock: &stock},
					{OfferID: "o2", Name: "Rose Freedom 50cm", Price: decimal.NewFromInt(85), Quantity: 30},
				},
			},
			{
				SupplierID:   "s2",
				SupplierName: "Tulip House",
				Items:        []domain.CartLine{{OfferID: "o3", Name: "Tulip", Price: decimal.NewFromInt(45), Quantity: 20}},
			},
		},
		UpdatedAt: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
	}
}

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

// ---------------------------------------------------------------------------
// Get
// ---------------------------------------------------------------------------

func TestCartRepository_SaveThenGet_RoundTrip(t *testing.T) {
	client, _ := setupTestRedis(t)
	repo := NewCartRepository(client, time.Hour)
	cart := sampleCart()

	require.NoError(t, repo.Save(context.Background(), cart))

	got, err := repo.Get(context.Background(), cart.OwnerID)
	require.NoError(t, err)
	if diff := cmp.Diff(cart, got, decimalEqual); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCartRepository_Get_NotFound(t *testing.T) {
	client, _ := setupTestRedis(t)
	repo := NewCartRepository(client, time.Hour)

	_, err := repo.Get(context.Background(), "guest:nobody")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestCartRepository_Get_Corrupt(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewCartRepository(client, time.Hour)
	require.NoError(t, mr.Set("cart:guest:x", "{not json"))

	_, err := repo.Get(context.Background(), "guest:x")
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrCorrupt)
}

func TestCartRepository_Get_ConnectionError(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewCartRepository(client, time.Hour)
	mr.Close()

	_, err := repo.Get(context.Background(), "guest:x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrCorrupt)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}

// ---------------------------------------------------------------------------
// Save
// ---------------------------------------------------------------------------

func TestCartRepository_Save_SetsTTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewCartRepository(client, 720*time.Hour)

	require.NoError(t, repo.Save(context.Background(), sampleCart()))

	assert.Equal(t, 720*time.Hour, mr.TTL("cart:buyer:u1"))

	raw, err := mr.Get("cart:buyer:u1")
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Contains(t, decoded, "suppliers")
}

func TestCartRepository_Save_ExpiresAfterTTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewCartRepository(client, time.Minute)
	require.NoError(t, repo.Save(context.Background(), sampleCart()))

	mr.FastForward(2 * time.Minute)

	_, err := repo.Get(context.Background(), "buyer:u1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestCartRepository_Delete(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewCartRepository(client, time.Hour)
	require.NoError(t, repo.Save(context.Background(), sampleCart()))

	require.NoError(t, repo.Delete(context.Background(), "buyer:u1"))
	assert.False(t, mr.Exists("cart:buyer:u1"))

	assert.NoError(t, repo.Delete(context.Background(), "buyer:u1"), "deleting twice is fine")
}
