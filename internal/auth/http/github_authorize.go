package http

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/logiscore/authcore/pkg/authsdk"
	"github.com/logiscore/authcore/pkg/cryptox"
)

const (
	githubStateCookie = "authcore_github_state"
	githubStateTTL    = 10 * time.Minute
)

// GitHubAuthorizer builds the GitHub consent URL for a given state.
type GitHubAuthorizer interface {
	AuthCodeURL(state string) string
}

// HandleGitHubAuthorize handles GET /v1/auth/github/authorize
//
//	@Summary		Start GitHub login
//	@Description	Redirects to GitHub's consent page. A state cookie is set which the subsequent
//	@Description	POST /v1/auth/github/login must echo in its state field.
//	@Tags			Login
//	@Success		302
//	@Failure		400	{object}	authsdk.ErrorResponse	"GitHub login disabled"
//	@Router			/v1/auth/github/authorize [get].
func (h *LoginHandler) HandleGitHubAuthorize(w http.ResponseWriter, r *http.Request) {
	if h.GitHub == nil {
		authsdk.ErrUnsupportedProvider.WriteError(w)
		return
	}

	state, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     githubStateCookie,
		Value:    state,
		Path:     "/v1/auth/github",
		MaxAge:   int(githubStateTTL / time.Second),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.GitHub.AuthCodeURL(state), http.StatusFound)
}

// checkGitHubState enforces the state round trip started by
// HandleGitHubAuthorize. A request that carries a state must carry the
// matching cookie. A request with neither comes from an API client that ran
// its own consent redirect; it only ever receives the credential in the
// response body, so no browser session can be planted through it. The
// cookie is cleared either way.
func checkGitHubState(w http.ResponseWriter, r *http.Request, state string) bool {
	c, err := r.Cookie(githubStateCookie)
	if err != nil {
		return state == ""
	}
	http.SetCookie(w, &http.Cookie{Name: githubStateCookie, Path: "/v1/auth/github", MaxAge: -1})
	if c.Value == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.Value), []byte(state)) == 1
}
