package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/logiscore/authcore/internal/auth/domain"
	"github.com/logiscore/authcore/internal/auth/store"
	"github.com/logiscore/authcore/pkg/slogx"
)

// LoginResult is where a login flow stopped. Credential is set when State
// is Authenticated and Pending when it is VerificationPending.
type LoginResult struct {
	State      domain.LoginState
	Account    domain.Account
	Credential *domain.SessionCredential
	Pending    *domain.PendingLogin
}

const DefaultDeliveryTimeout = 10 * time.Second

// AuthOrchestrator drives a login from assertion to session credential.
// Transient failures of idempotent steps (account lookup and linking, code
// issuance, activation) are retried per Retry. Assertion validation, code
// verification and attempt counting run once; their transient errors reach
// the caller as is.
type AuthOrchestrator struct {
	Broker          *IdentityBroker
	Verification    *VerificationService
	Sessions        *SessionIssuer
	Handles         *PendingHandles
	Limiter         AttemptLimiter
	Notifier        CodeNotifier
	Accounts        store.Accounts
	Retry           RetryPolicy
	DeliveryTimeout time.Duration
}

// BeginLogin validates an assertion and either authenticates directly or
// issues a code and returns a pending handle.
func (o *AuthOrchestrator) BeginLogin(ctx context.Context, a domain.Assertion) (LoginResult, error) {
	f := o.newFlow(ctx, domain.LoginStart)
	f.log = f.log.With(slog.String("provider", a.Provider))

	if err := f.resolveIdentity(a); err != nil {
		return f.reject(err)
	}
	if f.account.Status == domain.AccountDisabled {
		return f.reject(ErrAccountDisabled)
	}
	if f.needsStepUp() {
		if err := f.requireVerification(); err != nil {
			return f.reject(err)
		}
		return f.result(), nil
	}
	if err := f.authenticate("oauth"); err != nil {
		return f.reject(err)
	}
	return f.result(), nil
}

// SubmitCode checks a code against the account behind handle. A wrong,
// expired, replayed or superseded code yields ErrInvalidCode and leaves the
// flow in VerificationPending; an exhausted attempt budget rejects it.
func (o *AuthOrchestrator) SubmitCode(ctx context.Context, handle, code string) (LoginResult, error) {
	f := o.newFlow(ctx, domain.LoginVerificationPending)

	if err := f.resume(handle); err != nil {
		return f.reject(err)
	}
	if err := f.checkAttemptBudget(); err != nil {
		return f.reject(err)
	}

	outcome, err := o.Verification.Verify(ctx, f.account.ID, code)
	if err != nil {
		return f.reject(err)
	}
	if outcome != domain.VerifySuccess {
		f.codeRejected(outcome)
		return f.result(), ErrInvalidCode
	}

	if err := f.activate(); err != nil {
		return f.reject(err)
	}
	if err := f.authenticate("otp"); err != nil {
		return f.reject(err)
	}
	if err := o.Limiter.Reset(ctx, f.account.ID); err != nil {
		f.log.Warn("failed to reset attempt budget", slog.Any("error", err))
	}
	return f.result(), nil
}

// ResendCode issues a fresh code for handle, superseding the previous one.
// The attempt budget is not reset.
func (o *AuthOrchestrator) ResendCode(ctx context.Context, handle string) (LoginResult, error) {
	f := o.newFlow(ctx, domain.LoginVerificationPending)

	if err := f.resume(handle); err != nil {
		return f.reject(err)
	}
	if err := f.requireVerification(); err != nil {
		return f.reject(err)
	}
	return f.result(), nil
}

// ValidateSession checks a bearer credential and returns the account it
// was issued to. Disabled accounts are refused.
func (o *AuthOrchestrator) ValidateSession(ctx context.Context, token string) (domain.Account, error) {
	acct, _, err := o.AuthenticateSession(ctx, token)
	return acct, err
}

// AuthenticateSession is ValidateSession that also returns the claims.
func (o *AuthOrchestrator) AuthenticateSession(ctx context.Context, token string) (domain.Account, domain.SessionClaims, error) {
	claims, err := o.Sessions.Validate(token)
	if err != nil {
		return domain.Account{}, domain.SessionClaims{}, err
	}

	acct, err := o.loadAccount(ctx, claims.AccountID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domain.Account{}, domain.SessionClaims{}, fmt.Errorf("%w: unknown subject", ErrInvalidCredential)
	case err != nil:
		return domain.Account{}, domain.SessionClaims{}, err
	}
	if acct.Status != domain.AccountActive {
		return domain.Account{}, domain.SessionClaims{}, ErrAccountDisabled
	}
	return acct, claims, nil
}

func (o *AuthOrchestrator) loadAccount(ctx context.Context, id string) (domain.Account, error) {
	return withRetry(ctx, o.Retry, func() (domain.Account, error) {
		sctx, cancel := withStoreTimeout(ctx, o.Verification.StoreTimeout)
		defer cancel()
		acct, err := o.Accounts.GetAccountByID(sctx, id)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return acct, storeErr(sctx, err)
		}
		return acct, err
	})
}

// loginFlow is one pass through the state machine. Each method is a single
// transition and moves state only on success.
type loginFlow struct {
	o   *AuthOrchestrator
	ctx context.Context
	log *slog.Logger

	state      domain.LoginState
	account    domain.Account
	identity   domain.Identity
	credential *domain.SessionCredential
	pending    *domain.PendingLogin
}

var transitions = map[domain.LoginState][]domain.LoginState{
	domain.LoginStart:               {domain.LoginIdentityPending, domain.LoginRejected},
	domain.LoginIdentityPending:     {domain.LoginVerificationPending, domain.LoginAuthenticated, domain.LoginRejected},
	domain.LoginVerificationPending: {domain.LoginVerificationPending, domain.LoginAuthenticated, domain.LoginRejected},
}

func (o *AuthOrchestrator) newFlow(ctx context.Context, from domain.LoginState) *loginFlow {
	return &loginFlow{o: o, ctx: ctx, log: slogx.FromContext(ctx), state: from}
}

func (f *loginFlow) moveTo(to domain.LoginState) {
	if f.state.Terminal() {
		panic(fmt.Sprintf("login: transition %s -> %s out of terminal state", f.state, to))
	}
	for _, next := range transitions[f.state] {
		if next == to {
			f.state = to
			return
		}
	}
	panic(fmt.Sprintf("login: illegal transition %s -> %s", f.state, to))
}

// Start -> IdentityPending.
func (f *loginFlow) resolveIdentity(a domain.Assertion) error {
	f.moveTo(domain.LoginIdentityPending)

	ident, err := f.o.Broker.Validate(f.ctx, a)
	if err != nil {
		return err
	}
	acct, err := withRetry(f.ctx, f.o.Retry, func() (domain.Account, error) {
		return f.o.Broker.Link(f.ctx, ident)
	})
	if err != nil {
		return err
	}
	f.account, f.identity = acct, ident
	f.log = f.log.With(slog.String("account_id", f.account.ID))
	return nil
}

func (f *loginFlow) needsStepUp() bool {
	return f.identity.StepUp || f.account.Status == domain.AccountPendingVerification
}

// resume re-enters VerificationPending from a pending handle.
func (f *loginFlow) resume(handle string) error {
	p, err := f.o.Handles.Resolve(handle)
	if err != nil {
		return err
	}
	f.log = f.log.With(slog.String("account_id", p.AccountID))

	acct, err := f.o.loadAccount(f.ctx, p.AccountID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: unknown account", ErrInvalidHandle)
	case err != nil:
		return err
	}
	if acct.Status == domain.AccountDisabled {
		return ErrAccountDisabled
	}
	f.account = acct
	f.pending = &p
	return nil
}

// IdentityPending|VerificationPending -> VerificationPending. Issues a code,
// hands it to the notifier and mints a new handle. A delivery failure is
// logged; the issued code stands.
func (f *loginFlow) requireVerification() error {
	code, err := withRetry(f.ctx, f.o.Retry, func() (domain.VerificationCode, error) {
		return f.o.Verification.Issue(f.ctx, f.account.ID)
	})
	if err != nil {
		return err
	}

	if err := f.deliver(code); err != nil {
		f.log.Error("failed to deliver verification code", slog.Any("error", err))
	}

	p, err := f.o.Handles.Issue(f.account.ID)
	if err != nil {
		return err
	}
	f.pending = &p
	f.moveTo(domain.LoginVerificationPending)
	f.log.Info("verification code issued", slog.Time("expires_at", code.ExpiresAt))
	return nil
}

func (f *loginFlow) deliver(code domain.VerificationCode) error {
	d := f.o.DeliveryTimeout
	if d <= 0 {
		d = DefaultDeliveryTimeout
	}
	ctx, cancel := context.WithTimeout(f.ctx, d)
	defer cancel()
	return f.o.Notifier.SendCode(ctx, f.account, code)
}

// checkAttemptBudget records one attempt. Allow is not idempotent, so a
// failure is not retried.
func (f *loginFlow) checkAttemptBudget() error {
	ok, err := f.o.Limiter.Allow(f.ctx, f.account.ID)
	if err != nil {
		return storeErr(f.ctx, err)
	}
	if !ok {
		f.log.Warn("verification attempt budget exhausted")
		return ErrRateLimited
	}
	return nil
}

func (f *loginFlow) codeRejected(outcome domain.VerificationOutcome) {
	attrs := []any{slog.String("outcome", outcome.String())}
	if outcome == domain.VerifyAlreadyUsed {
		f.log.Warn("verification code replayed", attrs...)
		return
	}
	f.log.Info("verification code rejected", attrs...)
}

// activate flips a pending_verification account to active. Already active
// accounts are left alone.
func (f *loginFlow) activate() error {
	if f.account.Status != domain.AccountPendingVerification {
		return nil
	}
	now := f.o.Verification.now()
	err := retryDo(f.ctx, f.o.Retry, func() error {
		sctx, cancel := withStoreTimeout(f.ctx, f.o.Verification.StoreTimeout)
		defer cancel()
		_, err := f.o.Accounts.TransitionAccountStatus(sctx, f.account.ID,
			domain.AccountPendingVerification, domain.AccountActive, now)
		if err != nil {
			return storeErr(sctx, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	f.account.Status = domain.AccountActive
	f.account.UpdatedAt = now
	return nil
}

// IdentityPending|VerificationPending -> Authenticated.
func (f *loginFlow) authenticate(amr string) error {
	cred, err := f.o.Sessions.Issue(f.account, amr)
	if err != nil {
		return err
	}
	f.credential = &cred
	f.pending = nil
	f.moveTo(domain.LoginAuthenticated)
	f.log.Info("login authenticated", slog.String("amr", amr))
	return nil
}

// any -> Rejected.
func (f *loginFlow) reject(err error) (LoginResult, error) {
	f.moveTo(domain.LoginRejected)
	f.credential, f.pending = nil, nil
	f.log.Info("login rejected", slog.Any("error", err))
	return f.result(), err
}

func (f *loginFlow) result() LoginResult {
	return LoginResult{
		State:      f.state,
		Account:    f.account,
		Credential: f.credential,
		Pending:    f.pending,
	}
}
