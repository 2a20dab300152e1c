package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	httpapi "github.com/logiscore/authcore/internal/auth/http"
	"github.com/logiscore/authcore/internal/auth/identity"
	"github.com/logiscore/authcore/internal/auth/notify"
	"github.com/logiscore/authcore/internal/auth/ratelimit"
	"github.com/logiscore/authcore/internal/auth/service"
	"github.com/logiscore/authcore/internal/auth/store"
	"github.com/logiscore/authcore/internal/auth/store/drivers/sqlite"
	"github.com/logiscore/authcore/pkg/httpx"
	"github.com/logiscore/authcore/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags "-X".
var BuildVersion = "v0.1.0"

// Application encapsulates the auth service and its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db     store.Store
	redis  *redis.Client // nil unless REDIS_URL is set
	keys   Keys
	github *identity.GitHubProvider // nil unless GITHUB_CLIENT_ID is set

	// Services
	orchestrator        *service.AuthOrchestrator
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	keys, err := InitKeys(cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize signing keys: %w", err)
	}
	app.keys = keys

	if err := app.initRedis(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests, stops housekeeping and closes storage.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase opens the database and applies migrations.
func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore("file:" + app.cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initRedis() error {
	if app.cfg.RedisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(app.cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	app.redis = redis.NewClient(opts)
	app.logger.Info("redis attempt limiter enabled", "addr", opts.Addr)
	return nil
}

// initServices wires the login flow.
func (app *Application) initServices() {
	cfg := app.cfg

	providers := []service.IdentityProvider{identity.EmailProvider{}}
	if cfg.GitHub.Enabled() {
		app.github = identity.NewGitHubProvider(identity.GitHubConfig{
			ClientID:     cfg.GitHub.ClientID,
			ClientSecret: cfg.GitHub.ClientSecret,
			RedirectURL:  cfg.GitHub.RedirectURI,
			Scopes:       cfg.GitHub.Scopes,
		})
		providers = append(providers, app.github)
		app.logger.Info("github login enabled")
	}

	broker := service.NewIdentityBroker(app.db, providers...)
	broker.RequireVerificationForNewAccounts = cfg.RequireVerification
	broker.ProviderTimeout = cfg.ProviderTimeout
	broker.StoreTimeout = cfg.StoreTimeout

	limits := ratelimit.Config{Limit: cfg.VerifyAttemptLimit, Window: cfg.VerifyAttemptWindow}
	var limiter service.AttemptLimiter
	if app.redis != nil {
		limiter = ratelimit.NewRedisLimiter(app.redis, "", limits)
	} else {
		limiter = ratelimit.NewStoreLimiter(app.db.VerificationAttempts(), limits)
	}

	var notifier service.CodeNotifier = notify.LogNotifier{}
	if cfg.SMTP.Enabled() {
		notifier = notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     cfg.SMTP.Server,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			Timeout:  cfg.DeliveryTimeout,
		})
	} else {
		app.logger.Warn("SMTP is not configured, verification codes will be logged")
	}

	retry := service.DefaultRetryPolicy
	retry.MaxTries = cfg.RetryMaxTries

	app.orchestrator = &service.AuthOrchestrator{
		Broker: broker,
		Verification: &service.VerificationService{
			Codes:        app.db.VerificationCodes(),
			Generator:    service.RandomCodeGenerator{},
			TTL:          cfg.CodeTTL,
			StoreTimeout: cfg.StoreTimeout,
		},
		Sessions: &service.SessionIssuer{
			Keys:     app.keys.Session,
			Issuer:   cfg.Issuer,
			Audience: cfg.Audience,
			TTL:      cfg.SessionTTL,
		},
		Handles: &service.PendingHandles{
			Keys:   app.keys.Pending,
			Issuer: cfg.Issuer,
			TTL:    cfg.CodeTTL,
		},
		Limiter:         limiter,
		Notifier:        notifier,
		Accounts:        app.db.Accounts(),
		Retry:           retry,
		DeliveryTimeout: cfg.DeliveryTimeout,
	}

	app.housekeepingService = service.NewHousekeepingService(app.db, app.logger, cfg.HousekeepingInterval)
	if cfg.VerifyAttemptWindow > app.housekeepingService.AttemptRetention {
		app.housekeepingService.AttemptRetention = cfg.VerifyAttemptWindow
	}
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.orchestrator, app.db, BuildVersion, app.logger)
	router.Limits = app.cfg.RateLimits.apply(httpapi.DefaultLimits)
	if app.cfg.TrustProxy {
		router.ClientIP = httpx.ForwardedIP
	}
	if app.github != nil {
		router.GitHub = app.github
	}
	if app.redis != nil {
		router.LimiterCheck = func(ctx context.Context) error {
			return app.redis.Ping(ctx).Err()
		}
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

func (c RateLimitsConfig) apply(l httpapi.Limits) httpapi.Limits {
	l.Strict = c.Strict.apply(l.Strict)
	l.Moderate = c.Moderate.apply(l.Moderate)
	l.Lenient = c.Lenient.apply(l.Lenient)
	return l
}

func (t RateLimitTier) apply(c httpx.RateLimitConfig) httpx.RateLimitConfig {
	if t.Requests > 0 {
		c.RequestsPerWindow = t.Requests
	}
	if t.WindowSec > 0 {
		c.Window = time.Duration(t.WindowSec) * time.Second
	}
	if t.Burst > 0 {
		c.Burst = t.Burst
	}
	return c
}
