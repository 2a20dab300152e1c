package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/logiscore/authcore/internal/auth/domain"
	"github.com/logiscore/authcore/internal/auth/store/drivers/sqlite"
	"github.com/logiscore/authcore/pkg/jwtx"
)

var t0 = time.Unix(1_700_000_000, 0).UTC()

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock { return &clock{now: t0} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t0.Add(d)
}

// seqCodes hands out codes in order, repeating the last.
type seqCodes struct {
	mu    sync.Mutex
	codes []string
}

func (g *seqCodes) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c := g.codes[0]
	if len(g.codes) > 1 {
		g.codes = g.codes[1:]
	}
	return c, nil
}

type stubProvider struct {
	name  string
	ident domain.Identity
	errs  []error
	calls int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) ValidateAssertion(_ context.Context, raw string) (domain.Identity, error) {
	p.calls++
	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		if err != nil {
			return domain.Identity{}, err
		}
	}
	ident := p.ident
	if ident.Subject == "" {
		ident.Subject = raw
	}
	return ident, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	sent  []domain.VerificationCode
	fails bool
}

func (n *recordingNotifier) SendCode(_ context.Context, _ domain.Account, c domain.VerificationCode) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, c)
	if n.fails {
		return context.DeadlineExceeded
	}
	return nil
}

func (n *recordingNotifier) last(t *testing.T) domain.VerificationCode {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.sent)
	return n.sent[len(n.sent)-1]
}

// countLimiter allows limit attempts per account until Reset.
type countLimiter struct {
	mu     sync.Mutex
	limit  int
	counts map[string]int
	resets int
}

func newCountLimiter(limit int) *countLimiter {
	return &countLimiter{limit: limit, counts: map[string]int{}}
}

func (l *countLimiter) Allow(_ context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts[id]++
	return l.counts[id] <= l.limit, nil
}

func (l *countLimiter) Reset(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.counts, id)
	l.resets++
	return nil
}

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newKeyRing(t *testing.T, kid, secret string) *jwtx.KeyRing {
	t.Helper()
	s, err := jwtx.NewSignerHS256(kid, []byte(secret))
	require.NoError(t, err)
	kr, err := jwtx.NewKeyRing(s)
	require.NoError(t, err)
	return kr
}

func seedAccount(t *testing.T, st *sqlite.Store, id string, status domain.AccountStatus) domain.Account {
	t.Helper()
	a := domain.Account{
		ID:        id,
		Provider:  "email",
		Subject:   id + "@example.com",
		Email:     id + "@example.com",
		Status:    status,
		CreatedAt: t0,
		UpdatedAt: t0,
	}
	require.NoError(t, st.Accounts().CreateAccount(context.Background(), a))
	return a
}

var fastRetry = RetryPolicy{MaxTries: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}

type harness struct {
	store    *sqlite.Store
	clock    *clock
	codes    *seqCodes
	email    *stubProvider
	github   *stubProvider
	notifier *recordingNotifier
	limiter  *countLimiter
	orch     *AuthOrchestrator
}

func newHarness(t *testing.T, codes ...string) *harness {
	t.Helper()
	if len(codes) == 0 {
		codes = []string{"482913"}
	}
	h := &harness{
		store:    newTestStore(t),
		clock:    newClock(),
		codes:    &seqCodes{codes: codes},
		email:    &stubProvider{name: "email", ident: domain.Identity{StepUp: true}},
		github:   &stubProvider{name: "github"},
		notifier: &recordingNotifier{},
		limiter:  newCountLimiter(5),
	}

	broker := NewIdentityBroker(h.store, h.email, h.github)
	broker.Now = h.clock.Now

	verification := &VerificationService{
		Codes:     h.store.VerificationCodes(),
		Generator: h.codes,
		TTL:       10 * time.Minute,
		Now:       h.clock.Now,
	}

	h.orch = &AuthOrchestrator{
		Broker:       broker,
		Verification: verification,
		Sessions: &SessionIssuer{
			Keys:   newKeyRing(t, "session-1", "session-secret-0123456789abcdef!!"),
			Issuer: "authcore",
			Now:    h.clock.Now,
		},
		Handles: &PendingHandles{
			Keys:   newKeyRing(t, "pending-1", "pending-secret-0123456789abcdef!!"),
			Issuer: "authcore",
			TTL:    10 * time.Minute,
			Now:    h.clock.Now,
		},
		Limiter:  h.limiter,
		Notifier: h.notifier,
		Accounts: h.store.Accounts(),
		Retry:    fastRetry,
	}
	return h
}
