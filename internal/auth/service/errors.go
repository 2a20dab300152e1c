package service

import (
	"context"
	"errors"
)

var (
	// Identity.
	ErrInvalidAssertion    = errors.New("invalid_assertion")
	ErrProviderUnavailable = errors.New("provider_unavailable")
	ErrUnknownProvider     = errors.New("unknown_provider")

	// Verification.
	ErrInvalidHandle = errors.New("invalid_pending_handle")
	ErrInvalidCode   = errors.New("invalid_code")
	ErrRateLimited   = errors.New("rate_limited")

	// Sessions.
	ErrInvalidCredential = errors.New("invalid_credential")
	ErrCredentialExpired = errors.New("credential_expired")
	ErrAccountDisabled   = errors.New("account_disabled")

	// Infrastructure.
	ErrStoreUnavailable = errors.New("store_unavailable")
)

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrProviderUnavailable)
}

// storeErr tags a driver failure as transient. A caller cancellation is
// passed through untouched so it is never retried.
func storeErr(ctx context.Context, err error) error {
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return err
	}
	return errors.Join(ErrStoreUnavailable, err)
}
