package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/repository"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/database"
	apperrors "github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/errors"
)

// DBTX is satisfied by *pgxpool.Pool and by pgxmock pools.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// CheckoutJournal implements repository.CheckoutJournal using PostgreSQL.
type CheckoutJournal struct {
	db  DBTX
	now func() time.Time
}

// NewCheckoutJournal creates a new PostgreSQL-backed checkout journal.
func NewCheckoutJournal(db DBTX) *CheckoutJournal {
	return &CheckoutJournal{db: db, now: func() time.Time { return time.Now().UTC() }}
}

const insertAttempt = `
		INSERT INTO checkout_attempts (
			id, owner_id, buyer_id, supplier_id, line_count, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

// Begin records a pending attempt.
func (j *CheckoutJournal) Begin(ctx context.Context, a *repository.CheckoutAttempt) (err error) {
	ctx, end := database.TraceQuery(ctx, "BeginCheckoutAttempt", insertAttempt)
	defer func() { end(err) }()

	if a.CreatedAt.IsZero() {
		a.CreatedAt = j.now()
	}
	if a.Status == "" {
		a.Status = repository.AttemptPending
	}

	_, err = j.db.Exec(ctx, insertAttempt,
		a.ID, a.OwnerID, a.BuyerID, a.SupplierID, a.LineCount, string(a.Status), a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert checkout attempt: %w", err)
	}
	return nil
}

const finishAttempt = `
		UPDATE checkout_attempts
		SET status = $2, order_id = $3, error = $4, finished_at = $5
		WHERE id = $1 AND status = 'pending'`

// Finish moves a pending attempt to its final status.
func (j *CheckoutJournal) Finish(ctx context.Context, id string, status repository.AttemptStatus, orderID, errMsg string) (err error) {
	ctx, end := database.TraceQuery(ctx, "FinishCheckoutAttempt", finishAttempt)
	defer func() { end(err) }()

	tag, err := j.db.Exec(ctx, finishAttempt, id, string(status), nullableString(orderID), nullableString(errMsg), j.now())
	if err != nil {
		return fmt.Errorf("update checkout attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("checkout attempt", id)
	}
	return nil
}

const listAttempts = `
		SELECT id, owner_id, buyer_id, supplier_id, line_count, status,
		       COALESCE(order_id, ''), COALESCE(error, ''), created_at, finished_at
		FROM checkout_attempts
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

// ListByOwner returns the most recent attempts of ownerID, newest first.
func (j *CheckoutJournal) ListByOwner(ctx context.Context, ownerID string, limit int) (_ []repository.CheckoutAttempt, err error) {
	ctx, end := database.TraceQuery(ctx, "ListCheckoutAttempts", listAttempts)
	defer func() { end(err) }()

	rows, err := j.db.Query(ctx, listAttempts, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query checkout attempts: %w", err)
	}
	defer rows.Close()

	var out []repository.CheckoutAttempt
	for rows.Next() {
		var (
			a      repository.CheckoutAttempt
			status string
		)
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.BuyerID, &a.SupplierID, &a.LineCount, &status,
			&a.OrderID, &a.Error, &a.CreatedAt, &a.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan checkout attempt: %w", err)
		}
		a.Status = repository.AttemptStatus(status)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkout attempts: %w", err)
	}
	return out, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
