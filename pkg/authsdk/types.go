package authsdk

import "time"

// ============================================================================
// Wire error
// ============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error            string `json:"error" example:"invalid_code"`
	ErrorDescription string `json:"error_description,omitempty" example:"invalid or expired code"`
}

// ============================================================================
// Login flow
// ============================================================================

// Login statuses.
const (
	StatusAuthenticated       = "authenticated"
	StatusVerificationPending = "verification_pending"
)

// EmailLoginRequest starts an email login. The address is the assertion;
// possession is proven by the code mailed to it.
type EmailLoginRequest struct {
	Email string `json:"email" example:"ada@example.com"`
}

// GitHubLoginRequest exchanges a GitHub OAuth authorization code. State
// must echo the value GitHub returned when the login began at
// /v1/auth/github/authorize.
type GitHubLoginRequest struct {
	Code  string `json:"code" example:"e72e16c7e42f292c6912"`
	State string `json:"state,omitempty"`
}

// VerifyRequest submits a verification code for a pending login.
type VerifyRequest struct {
	PendingToken string `json:"pending_token"`
	Code         string `json:"code" example:"482913"`
}

// ResendRequest asks for a fresh code, superseding the outstanding one.
type ResendRequest struct {
	PendingToken string `json:"pending_token"`
}

// LoginResponse is returned by every login step. When Status is
// verification_pending only PendingToken and ExpiresIn are set; when it is
// authenticated the access token fields and Account are set.
type LoginResponse struct {
	Status string `json:"status" example:"authenticated"`

	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty" example:"Bearer"`
	Scope       string `json:"scope,omitempty" example:"profile:read"`

	PendingToken string `json:"pending_token,omitempty"`

	// ExpiresIn is the lifetime in seconds of whichever token was returned.
	ExpiresIn int `json:"expires_in"`

	Account *Account `json:"account,omitempty"`
}

// Pending reports whether a code must be submitted to finish the login.
func (r *LoginResponse) Pending() bool { return r.Status == StatusVerificationPending }

// Account is the public view of an account.
type Account struct {
	ID          string    `json:"id" example:"01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV"`
	Provider    string    `json:"provider" example:"github"`
	Email       string    `json:"email,omitempty"`
	Username    string    `json:"username,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Status      string    `json:"status" example:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// ============================================================================
// Health
// ============================================================================

// HealthResponse is served by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status" example:"ok"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks lists readiness of critical dependencies.
type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
	Limiter  string `json:"limiter"`
}
