package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/logiscore/authcore/internal/auth/domain"
	"github.com/logiscore/authcore/internal/auth/identity"
	"github.com/logiscore/authcore/internal/auth/service"
	"github.com/logiscore/authcore/pkg/authsdk"
	"github.com/logiscore/authcore/pkg/httpx"
)

// LoginHandler serves the login state machine.
type LoginHandler struct {
	Orchestrator *service.AuthOrchestrator
	GitHub       GitHubAuthorizer
}

// HandleEmailLogin handles POST /v1/auth/email/login
//
//	@Summary		Start an email login
//	@Description	Emails a six-digit verification code to the address and returns a pending token.
//	@Description	New addresses are registered on first use.
//	@Tags			Login
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.EmailLoginRequest	true	"Email address"
//	@Success		202		{object}	authsdk.LoginResponse		"verification_pending"
//	@Failure		400		{object}	authsdk.ErrorResponse		"Malformed request"
//	@Failure		401		{object}	authsdk.ErrorResponse		"Invalid email address"
//	@Failure		403		{object}	authsdk.ErrorResponse		"Account disabled"
//	@Failure		429		{object}	authsdk.ErrorResponse		"Too many requests"
//	@Failure		503		{object}	authsdk.ErrorResponse		"Temporarily unavailable"
//	@Router			/v1/auth/email/login [post].
func (h *LoginHandler) HandleEmailLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.EmailLoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.Email) == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	h.begin(w, r, domain.Assertion{Provider: identity.ProviderEmail, Raw: req.Email})
}

// HandleGitHubLogin handles POST /v1/auth/github/login
//
//	@Summary		Log in with GitHub
//	@Description	Exchanges a GitHub OAuth authorization code. Known, verified accounts receive an access
//	@Description	token; new accounts must confirm a code emailed to their primary address first.
//	@Tags			Login
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.GitHubLoginRequest	true	"OAuth authorization code"
//	@Success		200		{object}	authsdk.LoginResponse		"authenticated"
//	@Success		202		{object}	authsdk.LoginResponse		"verification_pending"
//	@Failure		400		{object}	authsdk.ErrorResponse		"Malformed request, state mismatch or GitHub login disabled"
//	@Failure		401		{object}	authsdk.ErrorResponse		"Authorization code rejected"
//	@Failure		403		{object}	authsdk.ErrorResponse		"Account disabled"
//	@Failure		503		{object}	authsdk.ErrorResponse		"GitHub unavailable"
//	@Router			/v1/auth/github/login [post].
func (h *LoginHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.GitHubLoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.Code) == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if !checkGitHubState(w, r, req.State) {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	h.begin(w, r, domain.Assertion{Provider: identity.ProviderGitHub, Raw: req.Code})
}

func (h *LoginHandler) begin(w http.ResponseWriter, r *http.Request, a domain.Assertion) {
	res, err := h.Orchestrator.BeginLogin(r.Context(), a)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writeResult(w, res)
}

// HandleVerify handles POST /v1/auth/verify
//
//	@Summary		Submit a verification code
//	@Description	Completes a pending login. Every rejected code yields the same invalid_code error
//	@Description	whatever the cause. After too many attempts the login is refused with rate_limited.
//	@Tags			Login
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.VerifyRequest	true	"Pending token and code"
//	@Success		200		{object}	authsdk.LoginResponse	"authenticated"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Malformed request"
//	@Failure		401		{object}	authsdk.ErrorResponse	"invalid_code or invalid_pending_token"
//	@Failure		403		{object}	authsdk.ErrorResponse	"Account disabled"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Attempt budget exhausted"
//	@Failure		503		{object}	authsdk.ErrorResponse	"Temporarily unavailable"
//	@Router			/v1/auth/verify [post].
func (h *LoginHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req authsdk.VerifyRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil || req.PendingToken == "" || req.Code == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	res, err := h.Orchestrator.SubmitCode(r.Context(), req.PendingToken, strings.TrimSpace(req.Code))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writeResult(w, res)
}

// HandleResend handles POST /v1/auth/resend
//
//	@Summary		Resend a verification code
//	@Description	Issues a fresh code for a pending login. The previous code stops working.
//	@Tags			Login
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.ResendRequest	true	"Pending token"
//	@Success		202		{object}	authsdk.LoginResponse	"verification_pending"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Malformed request"
//	@Failure		401		{object}	authsdk.ErrorResponse	"invalid_pending_token"
//	@Failure		403		{object}	authsdk.ErrorResponse	"Account disabled"
//	@Failure		503		{object}	authsdk.ErrorResponse	"Temporarily unavailable"
//	@Router			/v1/auth/resend [post].
func (h *LoginHandler) HandleResend(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ResendRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil || req.PendingToken == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	res, err := h.Orchestrator.ResendCode(r.Context(), req.PendingToken)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writeResult(w, res)
}

func (h *LoginHandler) writeResult(w http.ResponseWriter, res service.LoginResult) {
	switch {
	case res.State == domain.LoginAuthenticated && res.Credential != nil:
		cred := res.Credential
		httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
			Status:      authsdk.StatusAuthenticated,
			AccessToken: cred.Token,
			TokenType:   "Bearer",
			Scope:       strings.Join(cred.Scopes, " "),
			ExpiresIn:   h.Orchestrator.Sessions.ExpiresIn(),
			Account:     toAccount(res.Account),
		})
	case res.State == domain.LoginVerificationPending && res.Pending != nil:
		httpx.WriteJSON(w, http.StatusAccepted, authsdk.LoginResponse{
			Status:       authsdk.StatusVerificationPending,
			PendingToken: res.Pending.Handle,
			ExpiresIn:    secondsUntil(res.Pending.ExpiresAt, time.Now()),
		})
	default:
		authsdk.ErrServerError.WriteError(w)
	}
}

func secondsUntil(t, from time.Time) int {
	return max(int(t.Sub(from)/time.Second), 0)
}

func toAccount(a domain.Account) *authsdk.Account {
	return &authsdk.Account{
		ID:          a.ID,
		Provider:    a.Provider,
		Email:       a.Email,
		Username:    a.Username,
		DisplayName: a.DisplayName,
		AvatarURL:   a.AvatarURL,
		Status:      string(a.Status),
		CreatedAt:   a.CreatedAt,
	}
}
