package marketplace

import (
	"context"
	"sync"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
)

// Tokens is the credential holder a call authenticates with. The client
// reads the current pair before every attempt, stores a refreshed pair, and
// clears the holder when the session cannot be recovered.
type Tokens interface {
	Current() domain.TokenPair
	Update(ctx context.Context, pair domain.TokenPair) error
	Clear(ctx context.Context) error
}

// Anonymous is used for calls made without a session.
var Anonymous Tokens = anonymous{}

type anonymous struct{}

func (anonymous) Current() domain.TokenPair                      { return domain.TokenPair{} }
func (anonymous) Update(context.Context, domain.TokenPair) error { return nil }
func (anonymous) Clear(context.Context) error                    { return nil }

// StaticTokens holds a pair in memory. It is safe for concurrent use.
type StaticTokens struct {
	mu      sync.Mutex
	pair    domain.TokenPair
	cleared bool
}

// NewStaticTokens returns an in-memory holder for pair.
func NewStaticTokens(pair domain.TokenPair) *StaticTokens {
	return &StaticTokens{pair: pair}
}

func (s *StaticTokens) Current() domain.TokenPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pair
}

func (s *StaticTokens) Update(_ context.Context, pair domain.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = pair
	s.cleared = false
	return nil
}

func (s *StaticTokens) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = domain.TokenPair{}
	s.cleared = true
	return nil
}

// Cleared reports whether Clear was called since the last Update.
func (s *StaticTokens) Cleared() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleared
}
