package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/logiscore/authcore/internal/auth/domain"
	"github.com/logiscore/authcore/internal/auth/store"
)

const (
	DefaultCodeTTL      = 10 * time.Minute
	DefaultStoreTimeout = 3 * time.Second
)

// VerificationService issues and consumes verification codes. Store
// failures are returned as ErrStoreUnavailable and never retried here.
type VerificationService struct {
	Codes        store.VerificationCodes
	Generator    CodeGenerator
	TTL          time.Duration
	StoreTimeout time.Duration
	Now          func() time.Time
}

// Issue generates a code for accountID and persists it, superseding any
// code the account already had.
func (s *VerificationService) Issue(ctx context.Context, accountID string) (domain.VerificationCode, error) {
	value, err := s.Generator.Generate()
	if err != nil {
		return domain.VerificationCode{}, fmt.Errorf("generate code: %w", err)
	}

	now := s.now()
	rec := domain.VerificationCode{
		AccountID: accountID,
		Code:      value,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl()),
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.Codes.PutVerificationCode(ctx, rec); err != nil {
		return domain.VerificationCode{}, storeErr(ctx, err)
	}
	return rec, nil
}

// Verify checks submitted against the account's live code. Outcomes are
// decided in order: not found, already used, expired, mismatch, success.
// Only Success mutates state.
func (s *VerificationService) Verify(ctx context.Context, accountID, submitted string) (domain.VerificationOutcome, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := s.now()

	rec, err := s.Codes.GetVerificationCode(ctx, accountID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domain.VerifyNotFound, nil
	case err != nil:
		return 0, storeErr(ctx, err)
	}

	if rec.Consumed {
		return domain.VerifyAlreadyUsed, nil
	}
	if !now.Before(rec.ExpiresAt) {
		return domain.VerifyExpired, nil
	}
	if subtle.ConstantTimeCompare([]byte(submitted), []byte(rec.Code)) != 1 {
		return domain.VerifyMismatch, nil
	}

	won, err := s.Codes.MarkVerificationCodeConsumed(ctx, accountID, rec.Code, rec.IssuedAt, now)
	if err != nil {
		// The write may have committed before the driver failed.
		if s.consumedAt(ctx, rec, now) {
			return domain.VerifySuccess, nil
		}
		return 0, storeErr(ctx, err)
	}
	if won {
		return domain.VerifySuccess, nil
	}

	// Lost the compare-and-set. Either a concurrent verify consumed this
	// issuance or a new issuance replaced it.
	cur, err := s.Codes.GetVerificationCode(ctx, accountID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domain.VerifyNotFound, nil
	case err != nil:
		return 0, storeErr(ctx, err)
	case !cur.IssuedAt.Equal(rec.IssuedAt):
		return domain.VerifyNotFound, nil
	}
	return domain.VerifyAlreadyUsed, nil
}

// consumedAt reports whether rec's issuance is stored as consumed at now,
// the timestamp this call wrote. Stores keep millisecond precision.
func (s *VerificationService) consumedAt(ctx context.Context, rec domain.VerificationCode, now time.Time) bool {
	cur, err := s.Codes.GetVerificationCode(ctx, rec.AccountID)
	if err != nil {
		return false
	}
	return cur.Consumed && cur.ConsumedAt != nil &&
		cur.IssuedAt.Equal(rec.IssuedAt) &&
		cur.ConsumedAt.UnixMilli() == now.UnixMilli()
}

func (s *VerificationService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *VerificationService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultCodeTTL
}

func (s *VerificationService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return withStoreTimeout(ctx, s.StoreTimeout)
}

func withStoreTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultStoreTimeout
	}
	return context.WithTimeout(ctx, d)
}
