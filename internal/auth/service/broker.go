package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/logiscore/authcore/internal/auth/domain"
	"github.com/logiscore/authcore/internal/auth/store"
	"github.com/logiscore/authcore/pkg/idx"
)

const DefaultProviderTimeout = 10 * time.Second

// IdentityBroker turns a provider assertion into a local account.
type IdentityBroker struct {
	Store     store.Store
	Providers map[string]IdentityProvider

	// RequireVerificationForNewAccounts creates new accounts as
	// pending_verification instead of active.
	RequireVerificationForNewAccounts bool

	ProviderTimeout time.Duration
	StoreTimeout    time.Duration
	Now             func() time.Time
}

// NewIdentityBroker registers providers by name with the default policy.
func NewIdentityBroker(st store.Store, providers ...IdentityProvider) *IdentityBroker {
	b := &IdentityBroker{
		Store:                             st,
		Providers:                         make(map[string]IdentityProvider, len(providers)),
		RequireVerificationForNewAccounts: true,
	}
	for _, p := range providers {
		b.Providers[p.Name()] = p
	}
	return b
}

// Resolve validates a and returns the linked account, creating it on first
// login. Profile fields are refreshed from the provider every time.
func (b *IdentityBroker) Resolve(ctx context.Context, a domain.Assertion) (domain.Account, domain.Identity, error) {
	ident, err := b.Validate(ctx, a)
	if err != nil {
		return domain.Account{}, domain.Identity{}, err
	}
	acct, err := b.Link(ctx, ident)
	if err != nil {
		return domain.Account{}, domain.Identity{}, err
	}
	return acct, ident, nil
}

// Validate hands the assertion to its provider. Assertions such as OAuth
// codes are single use, so a failed call must not be repeated.
func (b *IdentityBroker) Validate(ctx context.Context, a domain.Assertion) (domain.Identity, error) {
	provider, ok := b.Providers[strings.ToLower(a.Provider)]
	if !ok {
		return domain.Identity{}, fmt.Errorf("%w: %q", ErrUnknownProvider, a.Provider)
	}

	pctx, cancel := context.WithTimeout(ctx, b.providerTimeout())
	defer cancel()
	ident, err := provider.ValidateAssertion(pctx, a.Raw)
	if err != nil {
		return domain.Identity{}, err
	}
	if ident.Subject == "" {
		return domain.Identity{}, fmt.Errorf("%w: empty subject", ErrInvalidAssertion)
	}
	ident.Provider = provider.Name()
	return ident, nil
}

// Link finds or creates the account for a validated identity and refreshes
// its profile in one transaction. Running it again for the same identity
// returns the same account.
func (b *IdentityBroker) Link(ctx context.Context, ident domain.Identity) (domain.Account, error) {
	sctx, cancel := withStoreTimeout(ctx, b.StoreTimeout)
	defer cancel()

	var acct domain.Account
	err := b.Store.WithTx(sctx, func(tx store.Tx) error {
		var err error
		acct, err = b.findOrCreate(sctx, tx.Accounts(), ident)
		return err
	})
	if err != nil {
		if IsTransient(err) {
			return domain.Account{}, err
		}
		return domain.Account{}, storeErr(sctx, err)
	}
	return acct, nil
}

func (b *IdentityBroker) findOrCreate(ctx context.Context, accounts store.Accounts, ident domain.Identity) (domain.Account, error) {
	now := b.now()

	acct, err := accounts.GetAccountByExternalID(ctx, ident.Provider, ident.Subject)
	if err == nil {
		return b.refresh(ctx, accounts, acct, ident.Profile, now)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, storeErr(ctx, err)
	}

	status := domain.AccountActive
	if b.RequireVerificationForNewAccounts {
		status = domain.AccountPendingVerification
	}
	acct = domain.Account{
		ID:          idx.NewAt(now).String(),
		Provider:    ident.Provider,
		Subject:     ident.Subject,
		Email:       ident.Profile.Email,
		Username:    ident.Profile.Username,
		DisplayName: ident.Profile.DisplayName,
		AvatarURL:   ident.Profile.AvatarURL,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = accounts.CreateAccount(ctx, acct)
	switch {
	case err == nil:
		return acct, nil
	case errors.Is(err, store.ErrAlreadyExists):
		// A concurrent first login created it.
		acct, err = accounts.GetAccountByExternalID(ctx, ident.Provider, ident.Subject)
		if err != nil {
			return domain.Account{}, storeErr(ctx, err)
		}
		return b.refresh(ctx, accounts, acct, ident.Profile, now)
	default:
		return domain.Account{}, storeErr(ctx, err)
	}
}

func (b *IdentityBroker) refresh(ctx context.Context, accounts store.Accounts, acct domain.Account, p domain.Profile, now time.Time) (domain.Account, error) {
	if acct.Profile() == p {
		return acct, nil
	}
	if err := accounts.UpdateAccountProfile(ctx, acct.ID, p, now); err != nil {
		return domain.Account{}, storeErr(ctx, err)
	}
	acct.Email, acct.Username, acct.DisplayName, acct.AvatarURL = p.Email, p.Username, p.DisplayName, p.AvatarURL
	acct.UpdatedAt = now
	return acct, nil
}

func (b *IdentityBroker) now() time.Time {
	if b.Now != nil {
		return b.Now().UTC()
	}
	return time.Now().UTC()
}

func (b *IdentityBroker) providerTimeout() time.Duration {
	if b.ProviderTimeout > 0 {
		return b.ProviderTimeout
	}
	return DefaultProviderTimeout
}
