package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/logiscore/authcore/internal/auth/domain"
	"github.com/logiscore/authcore/internal/auth/store/drivers/sqlite/gen"
)

type verificationCodesRepo struct {
	q *gen.Queries
}

func (r *verificationCodesRepo) PutVerificationCode(ctx context.Context, c domain.VerificationCode) error {
	return r.q.PutVerificationCode(ctx, gen.PutVerificationCodeParams{
		AccountID: c.AccountID,
		Code:      c.Code,
		IssuedAt:  toMillis(c.IssuedAt),
		ExpiresAt: toMillis(c.ExpiresAt),
	})
}

func (r *verificationCodesRepo) GetVerificationCode(ctx context.Context, accountID string) (domain.VerificationCode, error) {
	row, err := r.q.GetVerificationCode(ctx, accountID)
	if err != nil {
		return domain.VerificationCode{}, mapNotFound(err)
	}
	return mapVerificationCode(row), nil
}

func (r *verificationCodesRepo) MarkVerificationCodeConsumed(
	ctx context.Context,
	accountID, code string,
	issuedAt, now time.Time,
) (bool, error) {
	n, err := r.q.MarkVerificationCodeConsumed(ctx, gen.MarkVerificationCodeConsumedParams{
		ConsumedAt: sql.NullInt64{Int64: toMillis(now), Valid: true},
		AccountID:  accountID,
		Code:       code,
		IssuedAt:   toMillis(issuedAt),
	})
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *verificationCodesRepo) DeleteStaleVerificationCodes(ctx context.Context, before time.Time) (int64, error) {
	return r.q.DeleteStaleVerificationCodes(ctx, toMillis(before))
}
