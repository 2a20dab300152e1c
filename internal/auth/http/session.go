package http

import (
	"context"
	"net/http"

	"github.com/logiscore/authcore/internal/auth/domain"
	"github.com/logiscore/authcore/pkg/authsdk"
	"github.com/logiscore/authcore/pkg/httpx"
)

type accountKey struct{}

// authenticate resolves a bearer credential to its account and stashes both
// principal and account on the context.
func (r *Router) authenticate(ctx context.Context, token string) (context.Context, error) {
	acct, claims, err := r.Orchestrator.AuthenticateSession(ctx, token)
	if err != nil {
		return nil, err
	}
	ctx = httpx.WithPrincipal(ctx, acct.ID, claims.Scopes)
	return context.WithValue(ctx, accountKey{}, acct), nil
}

// SessionHandler returns the account behind the bearer credential.
type SessionHandler struct{}

// ServeHTTP handles GET /v1/auth/session
//
//	@Summary		Current account
//	@Description	Returns the account the access token was issued to. Disabled accounts are refused.
//	@Tags			Session
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.Account			"Account profile"
//	@Failure		401	{object}	authsdk.ErrorResponse	"invalid_token or token_expired"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Account disabled or insufficient scope"
//	@Router			/v1/auth/session [get].
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	acct, ok := r.Context().Value(accountKey{}).(domain.Account)
	if !ok || acct.ID != httpx.SubjectFromContext(r.Context()) {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAccount(acct))
}
