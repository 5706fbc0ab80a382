package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/marketplace"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/repository"
	apperrors "github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/errors"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/validator"
)

// LoginInput holds sign-in credentials.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionService manages signed-in sessions.
type SessionService struct {
	api        AuthAPI
	repo       repository.SessionRepository
	logger     *slog.Logger
	defaultTTL time.Duration
	now        func() time.Time
}

// NewSessionService creates a session service. defaultTTL is used when the
// refresh token does not carry an expiry.
func NewSessionService(api AuthAPI, repo repository.SessionRepository, logger *slog.Logger, defaultTTL time.Duration) *SessionService {
	return &SessionService{
		api:        api,
		repo:       repo,
		logger:     logger,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Login signs in with the marketplace, loads the profile and stores a new
// session.
func (s *SessionService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.InvalidInput("email and password are required")
	}

	pair, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	tokens := marketplace.NewStaticTokens(pair)
	user, err := s.api.Me(ctx, tokens)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	now := s.now().UTC()
	sess := &domain.Session{
		ID:        uuid.New().String(),
		User:      user,
		CreatedAt: now,
	}
	sess.SetTokens(tokens.Current())
	sess.ExpiresAt = s.expiry(sess.RefreshToken, now)

	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.logger.InfoContext(ctx, "user signed in",
		slog.String("session_id", sess.ID),
		slog.String("user_id", user.ID),
		slog.String("role", user.Role),
	)
	return sess, nil
}

// Get returns the stored session, or nil when there is none. A stored value
// that cannot be read or has expired counts as no session.
func (s *SessionService) Get(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return nil, nil
	}

	sess, err := s.repo.Get(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrNotFound):
		return nil, nil
	case errors.Is(err, repository.ErrCorrupt):
		s.logger.WarnContext(ctx, "stored session is unreadable, treating as signed out",
			slog.String("session_id", id),
			slog.String("error", err.Error()),
		)
		_ = s.repo.Delete(ctx, id)
		return nil, nil
	default:
		return nil, fmt.Errorf("get session: %w", err)
	}

	if sess.Expired(s.now()) {
		_ = s.repo.Delete(ctx, id)
		return nil, nil
	}
	return sess, nil
}

// Tokens returns the credential holder for calls made on behalf of sess. A
// refreshed pair is written back to the store; clearing deletes the session.
func (s *SessionService) Tokens(sess *domain.Session) marketplace.Tokens {
	if sess == nil {
		return marketplace.Anonymous
	}
	return &sessionTokens{svc: s, sess: sess}
}

// Me refreshes the cached profile of sess from the marketplace.
func (s *SessionService) Me(ctx context.Context, sess *domain.Session) (*domain.User, error) {
	if sess == nil {
		return nil, apperrors.SignInRequired()
	}

	user, err := s.api.Me(ctx, s.Tokens(sess))
	if err != nil {
		return nil, err
	}
	s.cacheUser(ctx, sess, user)
	return user, nil
}

// UpdateProfile patches the signed-in user's profile.
func (s *SessionService) UpdateProfile(ctx context.Context, sess *domain.Session, upd domain.ProfileUpdate) (*domain.User, error) {
	if sess == nil {
		return nil, apperrors.SignInRequired()
	}
	if err := validator.Validate(upd); err != nil {
		return nil, err
	}

	user, err := s.api.UpdateMe(ctx, s.Tokens(sess), upd)
	if err != nil {
		return nil, err
	}
	s.cacheUser(ctx, sess, user)
	return user, nil
}

// Logout revokes the refresh token upstream when possible and always drops
// the local session.
func (s *SessionService) Logout(ctx context.Context, sess *domain.Session) error {
	if sess == nil {
		return nil
	}

	if err := s.api.Logout(ctx, marketplace.NewStaticTokens(sess.Tokens())); err != nil {
		s.logger.WarnContext(ctx, "marketplace logout failed",
			slog.String("session_id", sess.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.repo.Delete(ctx, sess.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	s.logger.InfoContext(ctx, "user signed out", slog.String("session_id", sess.ID))
	return nil
}

func (s *SessionService) cacheUser(ctx context.Context, sess *domain.Session, user *domain.User) {
	sess.User = user
	if err := s.repo.Save(ctx, sess); err != nil {
		s.logger.WarnContext(ctx, "cache profile in session",
			slog.String("session_id", sess.ID),
			slog.String("error", err.Error()),
		)
	}
}

// expiry derives the session expiry from the refresh token's exp claim. The
// token is not verified; the marketplace remains the authority on validity.
func (s *SessionService) expiry(refreshToken string, now time.Time) time.Time {
	if exp, ok := tokenExpiry(refreshToken); ok && exp.After(now) {
		return exp
	}
	return now.Add(s.defaultTTL)
}

func tokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time.UTC(), true
}

// sessionTokens binds a stored session to the marketplace client.
type sessionTokens struct {
	svc  *SessionService
	mu   sync.Mutex
	sess *domain.Session
}

func (t *sessionTokens) Current() domain.TokenPair {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sess.Tokens()
}

func (t *sessionTokens) Update(ctx context.Context, pair domain.TokenPair) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sess.SetTokens(pair)
	t.sess.ExpiresAt = t.svc.expiry(pair.RefreshToken, t.svc.now().UTC())
	if err := t.svc.repo.Save(ctx, t.sess); err != nil {
		return fmt.Errorf("save refreshed session: %w", err)
	}
	return nil
}

func (t *sessionTokens) Clear(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sess.SetTokens(domain.TokenPair{})
	t.sess.User = nil
	if err := t.svc.repo.Delete(ctx, t.sess.ID); err != nil {
		return fmt.Errorf("delete expired session: %w", err)
	}
	t.svc.logger.InfoContext(ctx, "session cleared after failed refresh", slog.String("session_id", t.sess.ID))
	return nil
}
