package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/logiscore/authcore/api/auth" // Swagger docs
	"github.com/logiscore/authcore/internal/auth/service"
	"github.com/logiscore/authcore/internal/auth/store"
	"github.com/logiscore/authcore/pkg/httpx"
	"github.com/logiscore/authcore/pkg/slogx"
)

// Limits are the per-IP request budgets applied to each route class.
type Limits struct {
	Strict   httpx.RateLimitConfig // code submission, login attempts
	Moderate httpx.RateLimitConfig // resend, session lookups
	Lenient  httpx.RateLimitConfig // health probes
}

var DefaultLimits = Limits{
	Strict:   httpx.RateLimitConfig{RequestsPerWindow: 10, Window: time.Minute, Burst: 5},
	Moderate: httpx.RateLimitConfig{RequestsPerWindow: 30, Window: time.Minute, Burst: 10},
	Lenient:  httpx.RateLimitConfig{RequestsPerWindow: 120, Window: time.Minute, Burst: 30},
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	Orchestrator *service.AuthOrchestrator
	Limits       Limits

	// ClientIP keys the per-IP limits. RemoteIP unless behind a proxy.
	ClientIP httpx.KeyExtractor

	// LimiterCheck reports attempt limiter health on /readyz. Optional.
	LimiterCheck func(ctx context.Context) error

	// GitHub enables the authorize redirect. Nil when GitHub login is off.
	GitHub GitHubAuthorizer
}

func NewRouter(orch *service.AuthOrchestrator, st store.Store, buildVersion string, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
		Orchestrator: orch,
		Limits:       DefaultLimits,
		ClientIP:     httpx.RemoteIP,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.Recover(func(req *http.Request, v any) {
			slogx.FromContext(req.Context()).Error("panic serving request", "panic", v, "path", req.URL.Path)
		}),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerLogin()
	r.registerSession()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			LogiScore Authentication Service API
//	@version		0.1.0
//	@description	Email and GitHub login with one-time verification codes.
//	@description
//	@description	A login either authenticates directly or returns a pending token; submit the emailed
//	@description	six-digit code with the pending token to receive a session access token.
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerLogin() {
	h := &LoginHandler{Orchestrator: r.Orchestrator, GitHub: r.GitHub}

	// Login starts - strict, each may send an email or hit GitHub
	r.Mux.Handle("POST /v1/auth/email/login",
		httpx.Chain(http.HandlerFunc(h.HandleEmailLogin),
			httpx.RateLimit(r.Limits.Strict, r.ClientIP),
		),
	)
	r.Mux.Handle("POST /v1/auth/github/login",
		httpx.Chain(http.HandlerFunc(h.HandleGitHubLogin),
			httpx.RateLimit(r.Limits.Strict, r.ClientIP),
		),
	)

	r.Mux.Handle("GET /v1/auth/github/authorize",
		httpx.Chain(http.HandlerFunc(h.HandleGitHubAuthorize),
			httpx.RateLimit(r.Limits.Moderate, r.ClientIP),
		),
	)

	// Code submission - strict by IP on top of the per-account attempt budget
	r.Mux.Handle("POST /v1/auth/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			httpx.RateLimit(r.Limits.Strict, r.ClientIP),
		),
	)
	r.Mux.Handle("POST /v1/auth/resend",
		httpx.Chain(http.HandlerFunc(h.HandleResend),
			httpx.RateLimit(r.Limits.Moderate, r.ClientIP),
		),
	)
}

func (r *Router) registerSession() {
	h := &SessionHandler{}

	secured := httpx.Chain(h,
		httpx.RateLimit(r.Limits.Moderate, r.ClientIP),
		httpx.AuthnMiddleware(r.authenticate, writeAuthnError),
		httpx.RequireAllScopes("profile:read"),
	)

	r.Mux.Handle("GET /v1/auth/session", secured)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimit(r.Limits.Lenient, r.ClientIP),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.Orchestrator.Sessions, r.LimiterCheck),
			httpx.RateLimit(r.Limits.Lenient, r.ClientIP),
		),
	)
}
