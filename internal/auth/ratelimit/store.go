package ratelimit

import (
	"context"
	"fmt"

	"github.com/logiscore/authcore/internal/auth/service"
	"github.com/logiscore/authcore/internal/auth/store"
)

// StoreLimiter keeps attempts in the verification_attempts table. Used when
// no Redis is configured.
type StoreLimiter struct {
	attempts store.VerificationAttempts
	cfg      Config
}

func NewStoreLimiter(attempts store.VerificationAttempts, cfg Config) *StoreLimiter {
	return &StoreLimiter{attempts: attempts, cfg: cfg.withDefaults()}
}

func (l *StoreLimiter) Allow(ctx context.Context, accountID string) (bool, error) {
	now := l.cfg.Now()
	if err := l.attempts.RecordVerificationAttempt(ctx, accountID, now); err != nil {
		return false, fmt.Errorf("record attempt: %w", err)
	}
	n, err := l.attempts.CountVerificationAttempts(ctx, accountID, now.Add(-l.cfg.Window))
	if err != nil {
		return false, fmt.Errorf("count attempts: %w", err)
	}
	return n <= l.cfg.Limit, nil
}

func (l *StoreLimiter) Reset(ctx context.Context, accountID string) error {
	if err := l.attempts.DeleteVerificationAttempts(ctx, accountID); err != nil {
		return fmt.Errorf("reset attempts: %w", err)
	}
	return nil
}

var _ service.AttemptLimiter = (*StoreLimiter)(nil)
