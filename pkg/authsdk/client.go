package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient talks to the login service.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// LoginWithEmail starts an email login. The response is always pending.
func (c *SDKClient) LoginWithEmail(ctx context.Context, email string) (*LoginResponse, error) {
	return c.login(ctx, "/v1/auth/email/login", EmailLoginRequest{Email: email})
}

// LoginWithGitHub exchanges a GitHub authorization code. The response is
// pending when the account still needs verification.
func (c *SDKClient) LoginWithGitHub(ctx context.Context, code string) (*LoginResponse, error) {
	return c.login(ctx, "/v1/auth/github/login", GitHubLoginRequest{Code: code})
}

// Verify submits the code for a pending login.
func (c *SDKClient) Verify(ctx context.Context, pendingToken, code string) (*LoginResponse, error) {
	return c.login(ctx, "/v1/auth/verify", VerifyRequest{PendingToken: pendingToken, Code: code})
}

// Resend replaces the outstanding code with a new one.
func (c *SDKClient) Resend(ctx context.Context, pendingToken string) (*LoginResponse, error) {
	return c.login(ctx, "/v1/auth/resend", ResendRequest{PendingToken: pendingToken})
}

// Session returns the account behind an access token.
func (c *SDKClient) Session(ctx context.Context, accessToken string) (*Account, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/auth/session", nil, map[string]string{
		"Authorization": "Bearer " + accessToken,
	})
	if err != nil {
		return nil, err
	}

	var acct Account
	if err := decodeJSON(resp, &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}

func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/livez")
}

func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/readyz")
}

func (c *SDKClient) login(ctx context.Context, path string, body any) (*LoginResponse, error) {
	resp, err := c.postJSON(ctx, path, body)
	if err != nil {
		return nil, err
	}

	var out LoginResponse
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *SDKClient) health(ctx context.Context, path string) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var h HealthResponse
	if err := decodeJSON(resp, &h); err != nil {
		return nil, err
	}
	return &h, nil
}
