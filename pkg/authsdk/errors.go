package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/logiscore/authcore/pkg/httpx"
)

// Error codes.
const (
	ErrorCodeInvalidRequest      = "invalid_request"
	ErrorCodeInvalidAssertion    = "invalid_assertion"
	ErrorCodeUnsupportedProvider = "unsupported_provider"
	ErrorCodeProviderUnavailable = "provider_unavailable"
	ErrorCodeInvalidCode         = "invalid_code"
	ErrorCodeInvalidPendingToken = "invalid_pending_token"
	ErrorCodeRateLimited         = "rate_limited"
	ErrorCodeInvalidToken        = "invalid_token"
	ErrorCodeTokenExpired        = "token_expired"
	ErrorCodeAccountDisabled     = "account_disabled"
	ErrorCodeUnavailable         = "temporarily_unavailable"
	ErrorCodeServerError         = "server_error"
)

// APIError is an error response from the service. Handlers use it to write
// responses and the client returns it for any non-2xx reply.
type APIError struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is matches on Code so callers can compare against the predefined errors.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Code == e.Code
}

// WriteError writes e as the JSON error body.
func (e *APIError) WriteError(w http.ResponseWriter) {
	if e.StatusCode == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer error="`+e.Code+`"`)
	}
	httpx.WriteJSON(w, e.StatusCode, ErrorResponse{Error: e.Code, ErrorDescription: e.Description})
}

var (
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required fields",
	}

	ErrInvalidAssertion = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidAssertion,
		Description: "the identity proof could not be validated",
	}

	ErrUnsupportedProvider = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeUnsupportedProvider,
		Description: "identity provider is not enabled",
	}

	ErrProviderUnavailable = &APIError{
		StatusCode:  http.StatusServiceUnavailable,
		Code:        ErrorCodeProviderUnavailable,
		Description: "identity provider is unavailable, try again",
	}

	// ErrInvalidCode covers every rejected code: unknown, used, expired or
	// wrong. The cause is never disclosed.
	ErrInvalidCode = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCode,
		Description: "invalid or expired code",
	}

	ErrInvalidPendingToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidPendingToken,
		Description: "login attempt is invalid or has expired, start again",
	}

	ErrRateLimited = &APIError{
		StatusCode:  http.StatusTooManyRequests,
		Code:        ErrorCodeRateLimited,
		Description: "too many attempts, try again later",
	}

	ErrInvalidToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "the access token is missing or invalid",
	}

	ErrTokenExpired = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeTokenExpired,
		Description: "the access token has expired",
	}

	ErrAccountDisabled = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeAccountDisabled,
		Description: "account is disabled",
	}

	ErrUnavailable = &APIError{
		StatusCode:  http.StatusServiceUnavailable,
		Code:        ErrorCodeUnavailable,
		Description: "service temporarily unavailable, try again",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// parseErrorResponse turns a non-2xx reply into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var er ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Code: er.Error, Description: er.ErrorDescription}
	}
	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
