package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/repository"
	apperrors "github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/errors"
)

const sessionKeyPrefix = "session:"

// SessionRepository stores sessions as JSON values that expire with the
// session itself.
type SessionRepository struct {
	client     redis.UniversalClient
	defaultTTL time.Duration
	now        func() time.Time
}

// NewSessionRepository creates a Redis session store. defaultTTL applies to
// sessions without an expiry.
func NewSessionRepository(client redis.UniversalClient, defaultTTL time.Duration) *SessionRepository {
	return &SessionRepository{client: client, defaultTTL: defaultTTL, now: time.Now}
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	data, err := r.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("session", id)
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: session: %v", repository.ErrCorrupt, err)
	}
	return &s, nil
}

// Save stores the session until its ExpiresAt. An already expired session is
// deleted instead.
func (r *SessionRepository) Save(ctx context.Context, s *domain.Session) error {
	ttl := r.defaultTTL
	if !s.ExpiresAt.IsZero() {
		ttl = s.ExpiresAt.Sub(r.now())
		if ttl <= 0 {
			return r.Delete(ctx, s.ID)
		}
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKeyPrefix+s.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}
