package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
)

// ErrCorrupt is returned when a stored value exists but cannot be decoded.
// Callers treat it as absent.
var ErrCorrupt = errors.New("stored value is corrupt")

// CartRepository defines the interface for cart persistence operations.
type CartRepository interface {
	// Get returns the cart for owner, a NOT_FOUND AppError when there is none,
	// or an error wrapping ErrCorrupt.
	Get(ctx context.Context, ownerID string) (*domain.Cart, error)

	// Save overwrites the owner's cart.
	Save(ctx context.Context, cart *domain.Cart) error

	// Delete removes the owner's cart. Deleting a missing cart is not an error.
	Delete(ctx context.Context, ownerID string) error
}

// SessionRepository persists signed-in sessions.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id string) error
}

// AttemptStatus is the state of a journaled checkout.
type AttemptStatus string

const (
	AttemptPending   AttemptStatus = "pending"
	AttemptSucceeded AttemptStatus = "succeeded"
	AttemptFailed    AttemptStatus = "failed"
)

// CheckoutAttempt is one row of the checkout journal.
type CheckoutAttempt struct {
	ID         string
	OwnerID    string
	BuyerID    string
	SupplierID string
	LineCount  int
	Status     AttemptStatus
	OrderID    string
	Error      string
	CreatedAt  time.Time
	FinishedAt *time.Time
}

// CheckoutJournal records checkout attempts.
type CheckoutJournal interface {
	Begin(ctx context.Context, attempt *CheckoutAttempt) error
	Finish(ctx context.Context, id string, status AttemptStatus, orderID, errMsg string) error
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]CheckoutAttempt, error)
}
