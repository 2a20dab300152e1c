package jwtx

import (
	"errors"
	"time"
)

// Verifier validates a token and returns its claims.
type Verifier interface {
	Verify(token string, opts VerifyOptions) (Claims, error)
}

// VerifyOptions are the expectations a token must meet.
type VerifyOptions struct {
	// Use is required; tokens minted for another use are rejected.
	Use string

	// Issuer must match claims.iss when set.
	Issuer string

	// Audience must intersect claims.aud when set.
	Audience []string

	// Now overrides the clock used for exp and nbf.
	Now func() time.Time
}

var (
	ErrMissingKID  = errors.New("jwtx: missing kid")
	ErrUnknownKID  = errors.New("jwtx: unknown kid")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrInvalidUse  = errors.New("jwtx: wrong token use")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrInvalid     = errors.New("jwtx: invalid token")
)
