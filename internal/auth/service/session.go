package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/logiscore/authcore/internal/auth/domain"
	"github.com/logiscore/authcore/pkg/jwtx"
)

const DefaultSessionTTL = 30 * time.Minute

// DefaultScopes are granted to every session.
var DefaultScopes = []string{"profile:read"}

// SessionIssuer mints and validates session credentials. Keys is built
// once at startup and never mutated.
type SessionIssuer struct {
	Keys     *jwtx.KeyRing
	Issuer   string
	Audience []string
	TTL      time.Duration
	Scopes   []string
	Now      func() time.Time
}

// Issue signs a credential for account. amr records how the login was
// proven ("oauth", "otp").
func (s *SessionIssuer) Issue(account domain.Account, amr ...string) (domain.SessionCredential, error) {
	scopes := s.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	claims := jwtx.NewClaims(jwtx.ClaimsParams{
		Use:      jwtx.UseSession,
		Subject:  account.ID,
		Issuer:   s.Issuer,
		Audience: s.Audience,
		Scopes:   scopes,
		AMR:      amr,
		Username: account.Username,
		TTL:      s.ttl(),
		Now:      s.now(),
	})

	token, err := s.Keys.Sign(claims)
	if err != nil {
		return domain.SessionCredential{}, fmt.Errorf("sign session: %w", err)
	}

	return domain.SessionCredential{
		Token:     token,
		TokenID:   claims.ID,
		AccountID: account.ID,
		Scopes:    scopes,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Validate checks signature, structure, token use and expiry.
func (s *SessionIssuer) Validate(token string) (domain.SessionClaims, error) {
	claims, err := s.Keys.Verify(token, jwtx.VerifyOptions{
		Use:      jwtx.UseSession,
		Issuer:   s.Issuer,
		Audience: s.Audience,
		Now:      s.now,
	})
	switch {
	case errors.Is(err, jwtx.ErrExpired):
		return domain.SessionClaims{}, ErrCredentialExpired
	case err != nil:
		return domain.SessionClaims{}, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}

	return domain.SessionClaims{
		TokenID:   claims.ID,
		AccountID: claims.Subject,
		Scopes:    claims.Scopes,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// ExpiresIn is the credential lifetime in whole seconds, as reported to clients.
func (s *SessionIssuer) ExpiresIn() int {
	return int(s.ttl() / time.Second)
}

func (s *SessionIssuer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *SessionIssuer) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultSessionTTL
}
