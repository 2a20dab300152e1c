package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/logiscore/authcore/internal/auth/domain"
	"github.com/logiscore/authcore/internal/auth/identity"
	"github.com/logiscore/authcore/internal/auth/ratelimit"
	"github.com/logiscore/authcore/internal/auth/service"
	"github.com/logiscore/authcore/internal/auth/store/drivers/sqlite"
	"github.com/logiscore/authcore/pkg/authsdk"
	"github.com/logiscore/authcore/pkg/httpx"
	"github.com/logiscore/authcore/pkg/jwtx"
	"github.com/logiscore/authcore/pkg/slogx"
)

type inbox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (n *inbox) SendCode(_ context.Context, a domain.Account, c domain.VerificationCode) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.codes[a.ID] = c.Code
	return nil
}

func (n *inbox) last(t *testing.T) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.Len(t, n.codes, 1)
	for _, c := range n.codes {
		return c
	}
	return ""
}

type fakeGitHub struct{ err error }

func (fakeGitHub) Name() string { return identity.ProviderGitHub }

func (f fakeGitHub) ValidateAssertion(_ context.Context, raw string) (domain.Identity, error) {
	if f.err != nil {
		return domain.Identity{}, f.err
	}
	return domain.Identity{Subject: raw, Profile: domain.Profile{Username: "octocat", Email: "octo@example.com"}}, nil
}

// authorizingGitHub also serves the consent redirect.
type authorizingGitHub struct{ fakeGitHub }

func (authorizingGitHub) AuthCodeURL(state string) string {
	return "https://github.example/login/oauth/authorize?state=" + url.QueryEscape(state)
}

type testServer struct {
	srv   *httptest.Server
	store *sqlite.Store
	inbox *inbox
	orch  *service.AuthOrchestrator
}

func keyRing(t *testing.T, kid, secret string) *jwtx.KeyRing {
	t.Helper()
	s, err := jwtx.NewSignerHS256(kid, []byte(secret))
	require.NoError(t, err)
	kr, err := jwtx.NewKeyRing(s)
	require.NoError(t, err)
	return kr
}

func newTestServer(t *testing.T, github service.IdentityProvider) *testServer {
	t.Helper()
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	ib := &inbox{codes: map[string]string{}}
	broker := service.NewIdentityBroker(st, identity.EmailProvider{}, github)
	orch := &service.AuthOrchestrator{
		Broker: broker,
		Verification: &service.VerificationService{
			Codes:     st.VerificationCodes(),
			Generator: service.RandomCodeGenerator{},
		},
		Sessions: &service.SessionIssuer{Keys: keyRing(t, "s1", "session-secret-0123456789abcdef!!"), Issuer: "authcore"},
		Handles:  &service.PendingHandles{Keys: keyRing(t, "p1", "pending-secret-0123456789abcdef!!"), Issuer: "authcore"},
		Limiter:  ratelimit.NewStoreLimiter(st.VerificationAttempts(), ratelimit.Config{Limit: 3}),
		Notifier: ib,
		Accounts: st.Accounts(),
		Retry:    service.RetryPolicy{MaxTries: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond},
	}

	r := NewRouter(orch, st, "test", slogx.Discard())
	generous := httpx.RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}
	r.Limits = Limits{Strict: generous, Moderate: generous, Lenient: generous}
	if gh, ok := github.(GitHubAuthorizer); ok {
		r.GitHub = gh
	}
	r.ApplyRoutes()

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, store: st, inbox: ib, orch: orch}
}

func (ts *testServer) post(t *testing.T, path string, body any) (*http.Response, []byte) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := ts.srv.Client().Post(ts.srv.URL+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func (ts *testServer) get(t *testing.T, path, bearer string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, ts.srv.URL+path, nil)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := ts.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(b, &v))
	return v
}

func TestEmailLoginFlow(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, fakeGitHub{})

	resp, body := ts.post(t, "/v1/auth/email/login", authsdk.EmailLoginRequest{Email: "Ada@Example.com"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	pending := decode[authsdk.LoginResponse](t, body)
	require.True(t, pending.Pending())
	require.NotEmpty(t, pending.PendingToken)
	require.Empty(t, pending.AccessToken)
	require.InDelta(t, 600, pending.ExpiresIn, 2)
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	code := ts.inbox.last(t)

	resp, body = ts.post(t, "/v1/auth/verify", authsdk.VerifyRequest{PendingToken: pending.PendingToken, Code: code})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	done := decode[authsdk.LoginResponse](t, body)
	require.Equal(t, authsdk.StatusAuthenticated, done.Status)
	require.Equal(t, "Bearer", done.TokenType)
	require.Equal(t, "profile:read", done.Scope)
	require.Equal(t, 1800, done.ExpiresIn)
	require.NotNil(t, done.Account)
	require.Equal(t, "ada@example.com", done.Account.Email)
	require.Equal(t, "active", done.Account.Status)

	resp, body = ts.get(t, "/v1/auth/session", done.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	acct := decode[authsdk.Account](t, body)
	require.Equal(t, done.Account.ID, acct.ID)

	// Replay.
	resp, body = ts.post(t, "/v1/auth/verify", authsdk.VerifyRequest{PendingToken: pending.PendingToken, Code: code})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, authsdk.ErrorCodeInvalidCode, decode[authsdk.ErrorResponse](t, body).Error)
}

func TestVerify_GenericErrorsAndRateLimit(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, fakeGitHub{})

	_, body := ts.post(t, "/v1/auth/email/login", authsdk.EmailLoginRequest{Email: "ada@example.com"})
	pending := decode[authsdk.LoginResponse](t, body)
	code := ts.inbox.last(t)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for range 3 {
		resp, body := ts.post(t, "/v1/auth/verify", authsdk.VerifyRequest{PendingToken: pending.PendingToken, Code: wrong})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		e := decode[authsdk.ErrorResponse](t, body)
		require.Equal(t, authsdk.ErrorCodeInvalidCode, e.Error)
		require.Equal(t, "invalid or expired code", e.ErrorDescription)
	}

	resp, body := ts.post(t, "/v1/auth/verify", authsdk.VerifyRequest{PendingToken: pending.PendingToken, Code: code})
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.Equal(t, authsdk.ErrorCodeRateLimited, decode[authsdk.ErrorResponse](t, body).Error)
}

func TestResend(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, fakeGitHub{})

	_, body := ts.post(t, "/v1/auth/email/login", authsdk.EmailLoginRequest{Email: "ada@example.com"})
	pending := decode[authsdk.LoginResponse](t, body)

	resp, body := ts.post(t, "/v1/auth/resend", authsdk.ResendRequest{PendingToken: pending.PendingToken})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	again := decode[authsdk.LoginResponse](t, body)
	require.True(t, again.Pending())

	resp, _ = ts.post(t, "/v1/auth/verify", authsdk.VerifyRequest{PendingToken: again.PendingToken, Code: ts.inbox.last(t)})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGitHubLogin(t *testing.T) {
	t.Parallel()

	t.Run("new account is pending", func(t *testing.T) {
		ts := newTestServer(t, fakeGitHub{})
		resp, body := ts.post(t, "/v1/auth/github/login", authsdk.GitHubLoginRequest{Code: "4242"})
		require.Equal(t, http.StatusAccepted, resp.StatusCode, string(body))
	})

	t.Run("verified account authenticates", func(t *testing.T) {
		ts := newTestServer(t, fakeGitHub{})
		now := time.Now().UTC()
		require.NoError(t, ts.store.Accounts().CreateAccount(context.Background(), domain.Account{
			ID: "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", Provider: "github", Subject: "4242",
			Status: domain.AccountActive, CreatedAt: now, UpdatedAt: now,
		}))
		resp, body := ts.post(t, "/v1/auth/github/login", authsdk.GitHubLoginRequest{Code: "4242"})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		out := decode[authsdk.LoginResponse](t, body)
		require.NotEmpty(t, out.AccessToken)
		require.Equal(t, "octocat", out.Account.Username)
	})

	t.Run("provider errors", func(t *testing.T) {
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{service.ErrInvalidAssertion, http.StatusUnauthorized, authsdk.ErrorCodeInvalidAssertion},
			{service.ErrProviderUnavailable, http.StatusServiceUnavailable, authsdk.ErrorCodeProviderUnavailable},
		}
		for _, tc := range cases {
			ts := newTestServer(t, fakeGitHub{err: tc.err})
			resp, body := ts.post(t, "/v1/auth/github/login", authsdk.GitHubLoginRequest{Code: "x"})
			require.Equal(t, tc.status, resp.StatusCode)
			require.Equal(t, tc.code, decode[authsdk.ErrorResponse](t, body).Error)
		}
	})
}

func TestGitHubAuthorize(t *testing.T) {
	t.Parallel()

	noRedirect := func(ts *testServer) *http.Client {
		c := *ts.srv.Client()
		c.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
		return &c
	}

	t.Run("disabled", func(t *testing.T) {
		ts := newTestServer(t, fakeGitHub{})
		resp, err := noRedirect(ts).Get(ts.srv.URL + "/v1/auth/github/authorize")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("state round trip", func(t *testing.T) {
		ts := newTestServer(t, authorizingGitHub{})
		client := noRedirect(ts)

		resp, err := client.Get(ts.srv.URL + "/v1/auth/github/authorize")
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusFound, resp.StatusCode)

		loc, err := url.Parse(resp.Header.Get("Location"))
		require.NoError(t, err)
		state := loc.Query().Get("state")
		require.NotEmpty(t, state)

		var cookie *http.Cookie
		for _, c := range resp.Cookies() {
			if c.Name == githubStateCookie {
				cookie = c
			}
		}
		require.NotNil(t, cookie)
		require.Equal(t, state, cookie.Value)
		require.True(t, cookie.HttpOnly)

		login := func(state string, withCookie bool) int {
			raw, err := json.Marshal(authsdk.GitHubLoginRequest{Code: "4242", State: state})
			require.NoError(t, err)
			req, err := http.NewRequest(http.MethodPost, ts.srv.URL+"/v1/auth/github/login", bytes.NewReader(raw))
			require.NoError(t, err)
			req.Header.Set("Content-Type", "application/json")
			if withCookie {
				req.AddCookie(&http.Cookie{Name: githubStateCookie, Value: cookie.Value})
			}
			resp, err := client.Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			return resp.StatusCode
		}

		require.Equal(t, http.StatusBadRequest, login("forged", true))
		require.Equal(t, http.StatusBadRequest, login(state, false))
		require.Equal(t, http.StatusAccepted, login(state, true))
		require.Equal(t, http.StatusAccepted, login("", false))
	})
}

func TestBadRequests(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, fakeGitHub{})

	cases := []struct {
		path string
		body any
		code string
	}{
		{"/v1/auth/email/login", map[string]string{}, authsdk.ErrorCodeInvalidRequest},
		{"/v1/auth/email/login", map[string]string{"email": "a@example.com", "extra": "x"}, authsdk.ErrorCodeInvalidRequest},
		{"/v1/auth/email/login", authsdk.EmailLoginRequest{Email: "not-an-email"}, authsdk.ErrorCodeInvalidAssertion},
		{"/v1/auth/github/login", authsdk.GitHubLoginRequest{}, authsdk.ErrorCodeInvalidRequest},
		{"/v1/auth/verify", authsdk.VerifyRequest{PendingToken: "x"}, authsdk.ErrorCodeInvalidRequest},
		{"/v1/auth/verify", authsdk.VerifyRequest{PendingToken: "garbage", Code: "123456"}, authsdk.ErrorCodeInvalidPendingToken},
		{"/v1/auth/resend", authsdk.ResendRequest{}, authsdk.ErrorCodeInvalidRequest},
	}
	for _, tc := range cases {
		_, body := ts.post(t, tc.path, tc.body)
		require.Equal(t, tc.code, decode[authsdk.ErrorResponse](t, body).Error, "%s %v", tc.path, tc.body)
	}
}

func TestSessionEndpoint(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, fakeGitHub{})
	ctx := context.Background()

	resp, body := ts.get(t, "/v1/auth/session", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, authsdk.ErrorCodeInvalidToken, decode[authsdk.ErrorResponse](t, body).Error)
	require.Contains(t, resp.Header.Get("WWW-Authenticate"), "Bearer")

	resp, _ = ts.get(t, "/v1/auth/session", "garbage")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	now := time.Now().UTC()
	acct := domain.Account{ID: "acct-1", Provider: "email", Subject: "a@example.com", Status: domain.AccountActive, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, ts.store.Accounts().CreateAccount(ctx, acct))
	cred, err := ts.orch.Sessions.Issue(acct)
	require.NoError(t, err)

	ok, err := ts.store.Accounts().TransitionAccountStatus(ctx, acct.ID, domain.AccountActive, domain.AccountDisabled, now)
	require.NoError(t, err)
	require.True(t, ok)

	resp, body = ts.get(t, "/v1/auth/session", cred.Token)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, authsdk.ErrorCodeAccountDisabled, decode[authsdk.ErrorResponse](t, body).Error)

	expired := &service.SessionIssuer{
		Keys:   ts.orch.Sessions.Keys,
		Issuer: "authcore",
		Now:    func() time.Time { return now.Add(-time.Hour) },
	}
	old, err := expired.Issue(acct)
	require.NoError(t, err)
	resp, body = ts.get(t, "/v1/auth/session", old.Token)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, authsdk.ErrorCodeTokenExpired, decode[authsdk.ErrorResponse](t, body).Error)
}

func TestHealth(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, fakeGitHub{})

	resp, body := ts.get(t, "/livez", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "test", decode[authsdk.HealthResponse](t, body).Version)

	resp, body = ts.get(t, "/readyz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	h := decode[authsdk.HealthResponse](t, body)
	require.Equal(t, "ok", h.Checks.Database)
	require.Equal(t, "ok", h.Checks.Signer)

	resp, _ = ts.get(t, "/swagger/doc.json", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, ts.store.Close())
	resp, body = ts.get(t, "/readyz", "")
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	require.Equal(t, "degraded", decode[authsdk.HealthResponse](t, body).Status)
}

func TestAPIErrorMapping(t *testing.T) {
	t.Parallel()
	require.Equal(t, authsdk.ErrUnavailable, apiError(service.ErrStoreUnavailable))
	require.Equal(t, authsdk.ErrUnsupportedProvider, apiError(service.ErrUnknownProvider))
	require.Equal(t, authsdk.ErrServerError, apiError(context.Canceled))
}
