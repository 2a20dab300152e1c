package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var ErrNoBearer = errors.New("httpx: missing bearer token")

// Authenticator validates a bearer token and returns a context carrying the
// caller's principal.
type Authenticator func(ctx context.Context, token string) (context.Context, error)

// BearerToken extracts the token from an RFC 6750 Authorization header.
func BearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	scheme, tok, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrNoBearer
	}
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return "", ErrNoBearer
	}
	return tok, nil
}

// AuthnMiddleware rejects requests without a valid bearer token. Failures
// are handed to onError, which owns the response.
func AuthnMiddleware(authn Authenticator, onError func(http.ResponseWriter, *http.Request, error)) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, err := BearerToken(r)
			if err == nil {
				var ctx context.Context
				if ctx, err = authn(r.Context(), tok); err == nil {
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}
			onError(w, r, err)
		})
	}
}

// RequireAllScopes answers 403 insufficient_scope unless every scope in
// required is present on the principal.
func RequireAllScopes(required ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			have := make(map[string]struct{})
			for _, s := range ScopesFromContext(r.Context()) {
				have[s] = struct{}{}
			}
			for _, s := range required {
				if _, ok := have[s]; !ok {
					w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+strings.Join(required, " ")+`"`)
					WriteJSON(w, http.StatusForbidden, ErrorBody{Error: "insufficient_scope"})
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
