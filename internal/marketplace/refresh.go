package marketplace

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
)

// rotationGrace is how long the pair a refresh token was exchanged for is
// handed to late callers still presenting the old refresh token.
const rotationGrace = time.Minute

// refresher spends each refresh token once. Callers presenting the same
// refresh token share one POST /auth/refresh, and callers arriving within
// rotationGrace after it reuse its result.
type refresher struct {
	group  singleflight.Group
	mu     sync.Mutex
	recent map[string]rotation
	now    func() time.Time
}

type rotation struct {
	pair domain.TokenPair
	at   time.Time
}

func newRefresher() *refresher {
	return &refresher{recent: map[string]rotation{}, now: time.Now}
}

type refreshFunc func(ctx context.Context, refreshToken string) (domain.TokenPair, error)

// exchange returns the pair for refreshToken, calling fn at most once for
// concurrent callers. The network call is detached from ctx cancellation so
// one caller going away does not fail the others waiting on it.
func (r *refresher) exchange(ctx context.Context, refreshToken string, fn refreshFunc) (domain.TokenPair, error) {
	if pair, ok := r.lookup(refreshToken); ok {
		return pair, nil
	}
	v, err, _ := r.group.Do(refreshToken, func() (any, error) {
		if pair, ok := r.lookup(refreshToken); ok {
			return pair, nil
		}
		pair, err := fn(context.WithoutCancel(ctx), refreshToken)
		if err != nil {
			return domain.TokenPair{}, err
		}
		if pair.RefreshToken == "" {
			pair.RefreshToken = refreshToken
		}
		r.remember(refreshToken, pair)
		return pair, nil
	})
	if err != nil {
		return domain.TokenPair{}, err
	}
	return v.(domain.TokenPair), nil
}

func (r *refresher) lookup(refreshToken string) (domain.TokenPair, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rot, ok := r.recent[refreshToken]
	if !ok || r.now().Sub(rot.at) > rotationGrace {
		return domain.TokenPair{}, false
	}
	return rot.pair, true
}

func (r *refresher) remember(refreshToken string, pair domain.TokenPair) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for k, rot := range r.recent {
		if now.Sub(rot.at) > rotationGrace {
			delete(r.recent, k)
		}
	}
	r.recent[refreshToken] = rotation{pair: pair, at: now}
}
