package file

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
)

// CartRepository stores the device cart in cart.json. There is one cart per
// data directory; the owner passed to Get is stamped on the loaded cart.
type CartRepository struct {
	mu   sync.Mutex
	path string
}

func NewCartRepository(dataDir string) *CartRepository {
	return &CartRepository{path: filepath.Join(dataDir, CartFile)}
}

func (r *CartRepository) Get(_ context.Context, ownerID string) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var cart domain.Cart
	if err := readJSON(r.path, "cart", &cart); err != nil {
		return nil, err
	}
	cart.OwnerID = ownerID
	return &cart, nil
}

func (r *CartRepository) Save(_ context.Context, cart *domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return writeJSON(r.path, cart)
}

func (r *CartRepository) Delete(_ context.Context, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return removeFile(r.path)
}
