package store

import (
	"context"
	"errors"
	"time"

	"github.com/logiscore/authcore/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface implemented by each driver. It
// hands out sub-repositories so transactional code gets the same surface.
type Store interface {
	Accounts() Accounts
	VerificationCodes() VerificationCodes
	VerificationAttempts() VerificationAttempts

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller must Commit or Rollback.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transaction-scoped Store. Nested transactions are not supported.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	GetAccountByID(ctx context.Context, id string) (domain.Account, error)

	// GetAccountByExternalID looks up the account linked to a provider identity.
	GetAccountByExternalID(ctx context.Context, provider, subject string) (domain.Account, error)

	// CreateAccount inserts a. ErrAlreadyExists when (provider, subject) is taken.
	CreateAccount(ctx context.Context, a domain.Account) error

	// UpdateAccountProfile overwrites the provider-sourced profile fields.
	UpdateAccountProfile(ctx context.Context, id string, p domain.Profile, now time.Time) error

	// TransitionAccountStatus moves an account from one status to another.
	// It reports false, without error, when the account is not in from.
	TransitionAccountStatus(ctx context.Context, id string, from, to domain.AccountStatus, now time.Time) (bool, error)
}

// VerificationCodes holds at most one code per account. Every method is a
// single statement and therefore atomic per account.
type VerificationCodes interface {
	// PutVerificationCode replaces any code the account has, consumed or not.
	PutVerificationCode(ctx context.Context, c domain.VerificationCode) error

	GetVerificationCode(ctx context.Context, accountID string) (domain.VerificationCode, error)

	// MarkVerificationCodeConsumed flips consumed for exactly the issuance
	// identified by (code, issuedAt) if it is still unconsumed. It reports
	// whether this call won; false means another caller consumed it first
	// or a newer code superseded it.
	MarkVerificationCodeConsumed(ctx context.Context, accountID, code string, issuedAt, now time.Time) (bool, error)

	// DeleteStaleVerificationCodes purges codes that expired, or were
	// consumed, before the cutoff.
	DeleteStaleVerificationCodes(ctx context.Context, before time.Time) (int64, error)
}

// VerificationAttempts is an append-only log of code submissions used for
// per-account rate limiting.
type VerificationAttempts interface {
	RecordVerificationAttempt(ctx context.Context, accountID string, at time.Time) error
	CountVerificationAttempts(ctx context.Context, accountID string, since time.Time) (int, error)
	DeleteVerificationAttempts(ctx context.Context, accountID string) error
	DeleteVerificationAttemptsBefore(ctx context.Context, before time.Time) (int64, error)
}
