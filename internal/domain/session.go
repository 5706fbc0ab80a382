package domain

import "time"

// Role values reported by /auth/me.
const (
	RoleBuyer    = "buyer"
	RoleSupplier = "supplier"
	RoleAdmin    = "admin"
)

type User struct {
	ID         string  `json:"id"`
	Email      string  `json:"email"`
	Name       string  `json:"name"`
	Role       string  `json:"role"`
	SupplierID *string `json:"supplier_id,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Company    *string `json:"company,omitempty"`
}

// TokenPair is what /auth/login and /auth/refresh return.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
}

// Session is a signed-in user together with their tokens.
type Session struct {
	ID           string    `json:"id"`
	User         *User     `json:"user,omitempty"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// BuyerID returns the signed-in user's ID, or "" when there is none.
func (s *Session) BuyerID() string {
	if s == nil || s.User == nil {
		return ""
	}
	return s.User.ID
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Tokens returns the session's token pair.
func (s *Session) Tokens() TokenPair {
	return TokenPair{AccessToken: s.AccessToken, RefreshToken: s.RefreshToken}
}

// SetTokens replaces the token pair.
func (s *Session) SetTokens(p TokenPair) {
	s.AccessToken = p.AccessToken
	s.RefreshToken = p.RefreshToken
}

// ProfileUpdate is the body of PATCH /auth/me. Nil fields are left alone.
type ProfileUpdate struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Company *string `json:"company,omitempty" validate:"omitempty,max=200"`
}

// OwnerID returns the cart owner for a signed-in user or a guest device.
func OwnerID(userID, cartID string) string {
	if userID != "" {
		return "buyer:" + userID
	}
	if cartID != "" {
		return "guest:" + cartID
	}
	return ""
}
