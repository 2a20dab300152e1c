package service

import (
	"fmt"
	"time"

	"github.com/logiscore/authcore/internal/auth/domain"
	"github.com/logiscore/authcore/pkg/jwtx"
)

// PendingHandles signs the opaque handle a client holds between login and
// code submission. Handles carry only the account id; the code itself
// never leaves the store.
type PendingHandles struct {
	Keys   *jwtx.KeyRing
	Issuer string
	TTL    time.Duration
	Now    func() time.Time
}

func (p *PendingHandles) Issue(accountID string) (domain.PendingLogin, error) {
	claims := jwtx.NewClaims(jwtx.ClaimsParams{
		Use:     jwtx.UsePending,
		Subject: accountID,
		Issuer:  p.Issuer,
		AMR:     []string{"otp"},
		TTL:     p.ttl(),
		Now:     p.now(),
	})
	token, err := p.Keys.Sign(claims)
	if err != nil {
		return domain.PendingLogin{}, fmt.Errorf("sign pending handle: %w", err)
	}
	return domain.PendingLogin{
		Handle:    token,
		AccountID: accountID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Resolve returns the pending login a handle was issued for. Session
// credentials are rejected.
func (p *PendingHandles) Resolve(handle string) (domain.PendingLogin, error) {
	claims, err := p.Keys.Verify(handle, jwtx.VerifyOptions{
		Use:    jwtx.UsePending,
		Issuer: p.Issuer,
		Now:    p.now,
	})
	if err != nil {
		return domain.PendingLogin{}, fmt.Errorf("%w: %w", ErrInvalidHandle, err)
	}
	return domain.PendingLogin{
		Handle:    handle,
		AccountID: claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (p *PendingHandles) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *PendingHandles) ttl() time.Duration {
	if p.TTL > 0 {
		return p.TTL
	}
	return DefaultCodeTTL
}
