package httpx

import "context"

type ctxKey string

const (
	ctxKeySubject ctxKey = "subject"
	ctxKeyScopes  ctxKey = "scopes"
)

// WithPrincipal records the authenticated subject and its scopes.
func WithPrincipal(ctx context.Context, subject string, scopes []string) context.Context {
	ctx = context.WithValue(ctx, ctxKeySubject, subject)
	return context.WithValue(ctx, ctxKeyScopes, scopes)
}

func SubjectFromContext(ctx context.Context) string {
	s, _ := ctx.Value(ctxKeySubject).(string)
	return s
}

func ScopesFromContext(ctx context.Context) []string {
	s, _ := ctx.Value(ctxKeyScopes).([]string)
	return s
}
