package http

import (
	"errors"
	"net/http"

	"github.com/logiscore/authcore/internal/auth/service"
	"github.com/logiscore/authcore/pkg/authsdk"
	"github.com/logiscore/authcore/pkg/httpx"
	"github.com/logiscore/authcore/pkg/slogx"
)

// apiError maps a service error to its wire form. Unknown errors become
// server_error.
func apiError(err error) *authsdk.APIError {
	switch {
	case errors.Is(err, service.ErrInvalidAssertion):
		return authsdk.ErrInvalidAssertion
	case errors.Is(err, service.ErrUnknownProvider):
		return authsdk.ErrUnsupportedProvider
	case errors.Is(err, service.ErrProviderUnavailable):
		return authsdk.ErrProviderUnavailable
	case errors.Is(err, service.ErrInvalidCode):
		return authsdk.ErrInvalidCode
	case errors.Is(err, service.ErrInvalidHandle):
		return authsdk.ErrInvalidPendingToken
	case errors.Is(err, service.ErrRateLimited):
		return authsdk.ErrRateLimited
	case errors.Is(err, service.ErrAccountDisabled):
		return authsdk.ErrAccountDisabled
	case errors.Is(err, service.ErrCredentialExpired):
		return authsdk.ErrTokenExpired
	case errors.Is(err, service.ErrInvalidCredential):
		return authsdk.ErrInvalidToken
	case errors.Is(err, service.ErrStoreUnavailable):
		return authsdk.ErrUnavailable
	default:
		return authsdk.ErrServerError
	}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	e := apiError(err)
	log := slogx.FromContext(r.Context())
	if e.StatusCode >= http.StatusInternalServerError {
		log.Error("request failed", "code", e.Code, "err", err)
		if id := slogx.RequestID(r.Context()); id != "" {
			e = &authsdk.APIError{
				StatusCode:  e.StatusCode,
				Code:        e.Code,
				Description: e.Description + " (request " + id + ")",
			}
		}
	} else {
		log.Debug("request rejected", "code", e.Code, "err", err)
	}
	e.WriteError(w)
}

// writeAuthnError answers a failed bearer authentication.
func writeAuthnError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, httpx.ErrNoBearer) {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}
	writeServiceError(w, r, err)
}
