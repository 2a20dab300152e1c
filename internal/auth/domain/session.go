package domain

import "time"

// SessionCredential is a signed bearer token and the facts embedded in it.
type SessionCredential struct {
	Token     string
	TokenID   string
	AccountID string
	Scopes    []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SessionClaims is what a validated credential asserts.
type SessionClaims struct {
	TokenID   string
	AccountID string
	Scopes    []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
