package marketplace

import (
	"context"
	"net/http"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (domain.TokenPair, error) {
	var pair domain.TokenPair
	err := c.do(ctx, Anonymous, call{
		op:     "login",
		method: http.MethodPost,
		path:   "/auth/login",
		body:   loginRequest{Email: email, Password: password},
		out:    &pair,
		public: true,
	})
	return pair, err
}

// Refresh exchanges a refresh token for a new pair. It never triggers the
// auth retry path itself.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	var pair domain.TokenPair
	err := c.do(ctx, Anonymous, call{
		op:     "refresh",
		method: http.MethodPost,
		path:   "/auth/refresh",
		body:   refreshRequest{RefreshToken: refreshToken},
		out:    &pair,
		public: true,
	})
	return pair, err
}

// Me returns the profile of the signed-in user.
func (c *Client) Me(ctx context.Context, tokens Tokens) (*domain.User, error) {
	var u domain.User
	if err := c.do(ctx, tokens, call{op: "get_me", method: http.MethodGet, path: "/auth/me", out: &u}); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateMe patches the profile of the signed-in user.
func (c *Client) UpdateMe(ctx context.Context, tokens Tokens, upd domain.ProfileUpdate) (*domain.User, error) {
	var u domain.User
	if err := c.do(ctx, tokens, call{op: "update_me", method: http.MethodPatch, path: "/auth/me", body: upd, out: &u}); err != nil {
		return nil, err
	}
	return &u, nil
}

// Logout revokes the refresh token server side.
func (c *Client) Logout(ctx context.Context, tokens Tokens) error {
	pair := tokens.Current()
	return c.do(ctx, tokens, call{
		op:     "logout",
		method: http.MethodPost,
		path:   "/auth/logout",
		body:   refreshRequest{RefreshToken: pair.RefreshToken},
		public: true,
	})
}
