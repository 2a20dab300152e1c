package sqlite

import (
	"context"
	"time"

	"github.com/logiscore/authcore/internal/auth/store/drivers/sqlite/gen"
)

type verificationAttemptsRepo struct {
	q *gen.Queries
}

func (r *verificationAttemptsRepo) RecordVerificationAttempt(ctx context.Context, accountID string, at time.Time) error {
	return r.q.RecordVerificationAttempt(ctx, gen.RecordVerificationAttemptParams{
		AccountID:   accountID,
		AttemptedAt: toMillis(at),
	})
}

func (r *verificationAttemptsRepo) CountVerificationAttempts(ctx context.Context, accountID string, since time.Time) (int, error) {
	n, err := r.q.CountVerificationAttempts(ctx, gen.CountVerificationAttemptsParams{
		AccountID:   accountID,
		AttemptedAt: toMillis(since),
	})
	return int(n), err
}

func (r *verificationAttemptsRepo) DeleteVerificationAttempts(ctx context.Context, accountID string) error {
	return r.q.DeleteVerificationAttempts(ctx, accountID)
}

func (r *verificationAttemptsRepo) DeleteVerificationAttemptsBefore(ctx context.Context, before time.Time) (int64, error) {
	return r.q.DeleteVerificationAttemptsBefore(ctx, toMillis(before))
}
