package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/logiscore/authcore/internal/auth/domain"
	"github.com/logiscore/authcore/pkg/slogx"
)

func TestHousekeeping_Cleanup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)
	seedAccount(t, st, "old", domain.AccountPendingVerification)
	seedAccount(t, st, "fresh", domain.AccountPendingVerification)

	require.NoError(t, st.VerificationCodes().PutVerificationCode(ctx, domain.VerificationCode{
		AccountID: "old", Code: "111111", IssuedAt: t0, ExpiresAt: t0.Add(10 * time.Minute),
	}))
	require.NoError(t, st.VerificationCodes().PutVerificationCode(ctx, domain.VerificationCode{
		AccountID: "fresh", Code: "222222", IssuedAt: t0.Add(3 * time.Hour), ExpiresAt: t0.Add(3*time.Hour + 10*time.Minute),
	}))
	require.NoError(t, st.VerificationAttempts().RecordVerificationAttempt(ctx, "old", t0))
	require.NoError(t, st.VerificationAttempts().RecordVerificationAttempt(ctx, "fresh", t0.Add(3*time.Hour)))

	hk := NewHousekeepingService(st, slogx.Discard(), time.Hour)
	hk.AttemptRetention = time.Hour
	hk.Now = func() time.Time { return t0.Add(3 * time.Hour) }
	hk.Cleanup(ctx)

	_, err := st.VerificationCodes().GetVerificationCode(ctx, "old")
	require.Error(t, err)
	_, err = st.VerificationCodes().GetVerificationCode(ctx, "fresh")
	require.NoError(t, err)

	n, err := st.VerificationAttempts().CountVerificationAttempts(ctx, "old", t0.Add(-time.Hour))
	require.NoError(t, err)
	require.Zero(t, n)
	n, err = st.VerificationAttempts().CountVerificationAttempts(ctx, "fresh", t0)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestHousekeeping_StartStop(t *testing.T) {
	t.Parallel()
	hk := NewHousekeepingService(newTestStore(t), slogx.Discard(), 0)
	require.Equal(t, time.Hour, hk.Interval)
	hk.Start()
	hk.Stop()
}
