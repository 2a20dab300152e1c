package httpx

import "net/http"

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// Chain applies mws so the first one listed is the outermost.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Recover turns a handler panic into a 500 and hands the value to report.
func Recover(report func(r *http.Request, v any)) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					if v == http.ErrAbortHandler {
						panic(v)
					}
					if report != nil {
						report(r, v)
					}
					WriteJSON(w, http.StatusInternalServerError, ErrorBody{
						Error:            "server_error",
						ErrorDescription: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
