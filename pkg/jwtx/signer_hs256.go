package jwtx

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

const minHS256SecretSize = 32

type HS256Signer struct {
	kid    string
	secret []byte
}

func newHS256Signer(kid string, secret []byte) (*HS256Signer, error) {
	if kid == "" {
		return nil, ErrMissingKID
	}
	if len(secret) < minHS256SecretSize {
		return nil, fmt.Errorf("jwtx: HS256 secret must be at least %d bytes, got %d", minHS256SecretSize, len(secret))
	}

	// Copy so later mutation by the caller cannot change the key.
	key := make([]byte, len(secret))
	copy(key, secret)
	return &HS256Signer{kid: kid, secret: key}, nil
}

func (s *HS256Signer) Alg() string    { return jwt.SigningMethodHS256.Alg() }
func (s *HS256Signer) KID() string    { return s.kid }
func (s *HS256Signer) VerifyKey() any { return s.secret }

func (s *HS256Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.secret)
}
