package sqlite_test

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/logiscore/authcore/internal/auth/domain"
	"github.com/logiscore/authcore/internal/auth/store"
	"github.com/logiscore/authcore/internal/auth/store/drivers/sqlite"
)

var t0 = time.UnixMilli(1_700_000_000_000).UTC()

func newMemoryStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newFileStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.NewStore("file:" + filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func seedAccount(t *testing.T, st store.Store, id string) domain.Account {
	t.Helper()
	a := domain.Account{
		ID:        id,
		Provider:  "email",
		Subject:   id + "@example.test",
		Email:     id + "@example.test",
		Status:    domain.AccountPendingVerification,
		CreatedAt: t0,
		UpdatedAt: t0,
	}
	require.NoError(t, st.Accounts().CreateAccount(t.Context(), a))
	return a
}

func code(accountID, value string, issued time.Time) domain.VerificationCode {
	return domain.VerificationCode{
		AccountID: accountID,
		Code:      value,
		IssuedAt:  issued,
		ExpiresAt: issued.Add(10 * time.Minute),
	}
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	st := newMemoryStore(t)
	require.NoError(t, st.ApplyMigrations())
	require.NoError(t, st.Ping(t.Context()))
}

func TestAccounts(t *testing.T) {
	st := newMemoryStore(t)
	ctx := t.Context()
	a := seedAccount(t, st, "acct-1")

	got, err := st.Accounts().GetAccountByExternalID(ctx, "email", a.Subject)
	require.NoError(t, err)
	require.Equal(t, a, got)

	_, err = st.Accounts().GetAccountByExternalID(ctx, "github", a.Subject)
	require.ErrorIs(t, err, store.ErrNotFound)

	dup := a
	dup.ID = "acct-2"
	require.ErrorIs(t, st.Accounts().CreateAccount(ctx, dup), store.ErrAlreadyExists)

	bogus := a
	bogus.ID = "acct-3"
	bogus.Subject = "other@example.test"
	bogus.Status = "bogus"
	require.Error(t, st.Accounts().CreateAccount(ctx, bogus))

	later := t0.Add(time.Minute)
	require.NoError(t, st.Accounts().UpdateAccountProfile(ctx, a.ID, domain.Profile{
		Email:       "new@example.test",
		Username:    "ada",
		DisplayName: "Ada",
		AvatarURL:   "https://avatars.example.test/ada",
	}, later))
	require.ErrorIs(t, st.Accounts().UpdateAccountProfile(ctx, "missing", domain.Profile{}, later), store.ErrNotFound)

	got, err = st.Accounts().GetAccountByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "ada", got.Username)
	require.Equal(t, later, got.UpdatedAt)
	require.Equal(t, t0, got.CreatedAt)
}

func TestTransitionAccountStatusIsConditional(t *testing.T) {
	st := newMemoryStore(t)
	ctx := t.Context()
	a := seedAccount(t, st, "acct-1")

	ok, err := st.Accounts().TransitionAccountStatus(ctx, a.ID, domain.AccountPendingVerification, domain.AccountActive, t0)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = st.Accounts().TransitionAccountStatus(ctx, a.ID, domain.AccountPendingVerification, domain.AccountActive, t0)
	require.NoError(t, err)
	require.False(t, ok)

	got, err := st.Accounts().GetAccountByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, domain.AccountActive, got.Status)
}

func TestVerificationCodePutReplacesAndResetsConsumed(t *testing.T) {
	st := newMemoryStore(t)
	ctx := t.Context()
	seedAccount(t, st, "acct-1")
	codes := st.VerificationCodes()

	_, err := codes.GetVerificationCode(ctx, "acct-1")
	require.ErrorIs(t, err, store.ErrNotFound)

	first := code("acct-1", "111111", t0)
	require.NoError(t, codes.PutVerificationCode(ctx, first))

	won, err := codes.MarkVerificationCodeConsumed(ctx, "acct-1", "111111", t0, t0.Add(time.Second))
	require.NoError(t, err)
	require.True(t, won)

	got, err := codes.GetVerificationCode(ctx, "acct-1")
	require.NoError(t, err)
	require.True(t, got.Consumed)
	require.NotNil(t, got.ConsumedAt)

	second := code("acct-1", "222222", t0.Add(time.Minute))
	require.NoError(t, codes.PutVerificationCode(ctx, second))

	got, err = codes.GetVerificationCode(ctx, "acct-1")
	require.NoError(t, err)
	require.Equal(t, second, got)
}

func TestMarkConsumedRejectsSupersededIssuance(t *testing.T) {
	st := newMemoryStore(t)
	ctx := t.Context()
	seedAccount(t, st, "acct-1")
	codes := st.VerificationCodes()

	require.NoError(t, codes.PutVerificationCode(ctx, code("acct-1", "111111", t0)))
	require.NoError(t, codes.PutVerificationCode(ctx, code("acct-1", "222222", t0.Add(time.Second))))

	// A verifier holding the first issuance must not consume the second.
	won, err := codes.MarkVerificationCodeConsumed(ctx, "acct-1", "111111", t0, t0.Add(2*time.Second))
	require.NoError(t, err)
	require.False(t, won)

	won, err = codes.MarkVerificationCodeConsumed(ctx, "acct-1", "222222", t0, t0.Add(2*time.Second))
	require.NoError(t, err)
	require.False(t, won, "issued_at must match too")

	won, err = codes.MarkVerificationCodeConsumed(ctx, "acct-1", "222222", t0.Add(time.Second), t0.Add(2*time.Second))
	require.NoError(t, err)
	require.True(t, won)
}

func TestMarkConsumedExactlyOnceUnderConcurrency(t *testing.T) {
	st := newFileStore(t)
	ctx := t.Context()
	seedAccount(t, st, "acct-1")
	require.NoError(t, st.VerificationCodes().PutVerificationCode(ctx, code("acct-1", "482913", t0)))

	const workers = 16
	var (
		wg    sync.WaitGroup
		wins  atomic.Int32
		start = make(chan struct{})
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			won, err := st.VerificationCodes().MarkVerificationCodeConsumed(ctx, "acct-1", "482913", t0, t0.Add(time.Second))
			if err == nil && won {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.EqualValues(t, 1, wins.Load())
}

func TestDeleteStaleVerificationCodes(t *testing.T) {
	st := newMemoryStore(t)
	ctx := t.Context()
	for _, id := range []string{"expired", "consumed", "live"} {
		seedAccount(t, st, id)
	}
	codes := st.VerificationCodes()

	require.NoError(t, codes.PutVerificationCode(ctx, code("expired", "111111", t0.Add(-time.Hour))))
	require.NoError(t, codes.PutVerificationCode(ctx, code("consumed", "222222", t0.Add(-5*time.Minute))))
	require.NoError(t, codes.PutVerificationCode(ctx, code("live", "333333", t0)))

	won, err := codes.MarkVerificationCodeConsumed(ctx, "consumed", "222222", t0.Add(-5*time.Minute), t0.Add(-4*time.Minute))
	require.NoError(t, err)
	require.True(t, won)

	n, err := codes.DeleteStaleVerificationCodes(ctx, t0)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	_, err = codes.GetVerificationCode(ctx, "live")
	require.NoError(t, err)
	_, err = codes.GetVerificationCode(ctx, "expired")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestVerificationAttempts(t *testing.T) {
	st := newMemoryStore(t)
	ctx := t.Context()
	attempts := st.VerificationAttempts()

	for i := range 4 {
		require.NoError(t, attempts.RecordVerificationAttempt(ctx, "acct-1", t0.Add(time.Duration(i)*time.Minute)))
	}
	require.NoError(t, attempts.RecordVerificationAttempt(ctx, "acct-2", t0))

	n, err := attempts.CountVerificationAttempts(ctx, "acct-1", t0.Add(2*time.Minute))
	require.NoError(t, err)
	require.Equal(t, 2, n)

	deleted, err := attempts.DeleteVerificationAttemptsBefore(ctx, t0.Add(time.Minute))
	require.NoError(t, err)
	require.EqualValues(t, 2, deleted)

	require.NoError(t, attempts.DeleteVerificationAttempts(ctx, "acct-1"))
	n, err = attempts.CountVerificationAttempts(ctx, "acct-1", t0.Add(-time.Hour))
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestWithTxRollsBack(t *testing.T) {
	st := newMemoryStore(t)
	ctx := t.Context()

	err := st.WithTx(ctx, func(tx store.Tx) error {
		seedAccount(t, tx, "acct-1")
		return store.ErrAlreadyExists
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	_, err = st.Accounts().GetAccountByID(ctx, "acct-1")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, st.WithTx(ctx, func(tx store.Tx) error {
		seedAccount(t, tx, "acct-1")
		return nil
	}))
	_, err = st.Accounts().GetAccountByID(ctx, "acct-1")
	require.NoError(t, err)
}
