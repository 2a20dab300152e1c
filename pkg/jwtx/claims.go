package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token uses. A token minted for one use is never accepted for another.
const (
	UseSession = "session"
	UsePending = "pending"
)

// Claims are the registered claims plus the fields this service relies on.
type Claims struct {
	jwt.RegisteredClaims

	// Use separates session credentials from pending-verification handles.
	Use string `json:"use"`

	// Permission scopes, e.g. "profile:read".
	Scopes []string `json:"scopes,omitempty"`

	// Authentication methods reference: "oauth", "otp".
	AMR []string `json:"amr,omitempty"`

	Username string `json:"username,omitempty"`
}

// ClaimsParams collects the inputs to NewClaims.
type ClaimsParams struct {
	Use      string
	Subject  string
	Issuer   string
	Audience []string
	Scopes   []string
	AMR      []string
	Username string
	TTL      time.Duration
	Now      time.Time
}

// NewClaims stamps iat and nbf at p.Now, exp at p.Now+p.TTL and a fresh jti.
func NewClaims(p ClaimsParams) Claims {
	now := p.Now.UTC()
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.Issuer,
			Subject:   p.Subject,
			Audience:  jwt.ClaimStrings(p.Audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.TTL)),
			ID:        NewJTI(),
		},
		Use:      p.Use,
		Scopes:   p.Scopes,
		AMR:      p.AMR,
		Username: p.Username,
	}
}

// NewJTI returns a random v4 UUID for the jti claim.
func NewJTI() string {
	return uuid.NewString()
}
