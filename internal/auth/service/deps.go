package service

import (
	"context"

	"github.com/logiscore/authcore/internal/auth/domain"
)

// IdentityProvider validates assertions for one provider.
type IdentityProvider interface {
	Name() string
	ValidateAssertion(ctx context.Context, raw string) (domain.Identity, error)
}

// AttemptLimiter budgets code submissions per account. Allow records the
// attempt and reports whether it is within the window.
type AttemptLimiter interface {
	Allow(ctx context.Context, accountID string) (bool, error)
	Reset(ctx context.Context, accountID string) error
}

// CodeNotifier delivers an issued code out of band.
type CodeNotifier interface {
	SendCode(ctx context.Context, account domain.Account, code domain.VerificationCode) error
}
