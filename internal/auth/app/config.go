package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/logiscore/authcore/pkg/cryptox"
)

// Config holds the auth service configuration, read from the environment.
type Config struct {
	Issuer   string   `env:"AUTH_ISSUER" envDefault:"logiscore-auth"`
	Audience []string `env:"AUTH_AUDIENCE" envSeparator:","`

	// Secret seeds the HS256 session key and the pending-handle key via HKDF.
	Secret         string `env:"AUTH_SECRET"`
	PreviousSecret string `env:"AUTH_PREVIOUS_SECRET"`

	// SigningKeyFile switches session credentials to EdDSA (PKCS8 PEM).
	SigningKeyFile         string `env:"AUTH_SIGNING_KEY_FILE"`
	PreviousSigningKeyFile string `env:"AUTH_PREVIOUS_SIGNING_KEY_FILE"`
	KeyID                  string `env:"AUTH_KEY_ID" envDefault:"authcore-key-001"`
	PreviousKeyID          string `env:"AUTH_PREVIOUS_KEY_ID"`

	SessionTTL          time.Duration `env:"AUTH_SESSION_TTL" envDefault:"30m"`
	CodeTTL             time.Duration `env:"AUTH_CODE_TTL" envDefault:"10m"`
	RequireVerification bool          `env:"AUTH_REQUIRE_VERIFICATION" envDefault:"true"`
	VerifyAttemptLimit  int           `env:"AUTH_VERIFY_ATTEMPT_LIMIT" envDefault:"5"`
	VerifyAttemptWindow time.Duration `env:"AUTH_VERIFY_ATTEMPT_WINDOW" envDefault:"15m"`

	StoreTimeout    time.Duration `env:"AUTH_STORE_TIMEOUT" envDefault:"3s"`
	ProviderTimeout time.Duration `env:"AUTH_PROVIDER_TIMEOUT" envDefault:"10s"`
	DeliveryTimeout time.Duration `env:"AUTH_DELIVERY_TIMEOUT" envDefault:"10s"`
	RetryMaxTries   uint          `env:"AUTH_RETRY_MAX_TRIES" envDefault:"3"`

	DatabaseFile string `env:"AUTH_DATABASE_FILE" envDefault:"auth.db"`

	// RedisURL enables the Redis attempt limiter; the database is used otherwise.
	RedisURL string `env:"REDIS_URL"`

	GitHub     GitHubConfig     `envPrefix:"GITHUB_"`
	SMTP       SMTPConfig
	RateLimits RateLimitsConfig `envPrefix:"RATELIMIT_"`

	// TrustProxy keys per-IP limits on X-Forwarded-For.
	TrustProxy bool `env:"TRUST_PROXY" envDefault:"false"`

	Env                  string        `env:"ENV" envDefault:"dev"`
	LogLevel             string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat            string        `env:"LOG_FORMAT" envDefault:"json"`
	Port                 int           `env:"PORT" envDefault:"8080"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`
}

type GitHubConfig struct {
	ClientID     string   `env:"CLIENT_ID"`
	ClientSecret string   `env:"CLIENT_SECRET"`
	RedirectURI  string   `env:"REDIRECT_URI"`
	Scopes       []string `env:"SCOPES" envSeparator:","`
}

func (c GitHubConfig) Enabled() bool { return c.ClientID != "" }

// SMTPConfig keeps the variable names the mailer has always used. Without
// credentials codes are logged instead of sent.
type SMTPConfig struct {
	Server   string `env:"SMTP_SERVER" envDefault:"smtp.gmail.com"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"FROM_EMAIL" envDefault:"noreply@logiscore.com"`
}

func (c SMTPConfig) Enabled() bool { return c.Username != "" && c.Password != "" }

// RateLimitsConfig overrides the per-IP route budgets.
// Environment variables follow the pattern: RATELIMIT_{tier}_{field}
type RateLimitsConfig struct {
	Strict   RateLimitTier `envPrefix:"STRICT_"`
	Moderate RateLimitTier `envPrefix:"MODERATE_"`
	Lenient  RateLimitTier `envPrefix:"LENIENT_"`
}

// RateLimitTier fields left at zero keep the built-in value.
type RateLimitTier struct {
	Requests  int `env:"REQUESTS"`
	WindowSec int `env:"WINDOW_SEC"`
	Burst     int `env:"BURST"`
}

// LoadConfig parses the environment and validates the result.
func LoadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error

	if len(c.Secret) < cryptox.MinSecretSize {
		errs = append(errs, fmt.Errorf("AUTH_SECRET must be at least %d bytes", cryptox.MinSecretSize))
	}
	if c.PreviousSecret != "" && len(c.PreviousSecret) < cryptox.MinSecretSize {
		errs = append(errs, fmt.Errorf("AUTH_PREVIOUS_SECRET must be at least %d bytes", cryptox.MinSecretSize))
	}
	if c.KeyID == "" {
		errs = append(errs, errors.New("AUTH_KEY_ID must not be empty"))
	}
	if c.hasPreviousKey() && (c.PreviousKeyID == "" || c.PreviousKeyID == c.KeyID) {
		errs = append(errs, errors.New("AUTH_PREVIOUS_KEY_ID must be set and differ from AUTH_KEY_ID"))
	}
	if c.PreviousSigningKeyFile != "" && c.SigningKeyFile == "" {
		errs = append(errs, errors.New("AUTH_PREVIOUS_SIGNING_KEY_FILE requires AUTH_SIGNING_KEY_FILE"))
	}
	if c.StoreTimeout <= 0 || c.ProviderTimeout <= 0 || c.DeliveryTimeout <= 0 {
		errs = append(errs, errors.New("AUTH_STORE_TIMEOUT, AUTH_PROVIDER_TIMEOUT and AUTH_DELIVERY_TIMEOUT must be positive"))
	}
	if c.SessionTTL <= 0 || c.CodeTTL <= 0 {
		errs = append(errs, errors.New("AUTH_SESSION_TTL and AUTH_CODE_TTL must be positive"))
	}
	if c.VerifyAttemptLimit <= 0 || c.VerifyAttemptWindow <= 0 {
		errs = append(errs, errors.New("AUTH_VERIFY_ATTEMPT_LIMIT and AUTH_VERIFY_ATTEMPT_WINDOW must be positive"))
	}
	if c.RetryMaxTries == 0 {
		errs = append(errs, errors.New("AUTH_RETRY_MAX_TRIES must be at least 1"))
	}
	if c.GitHub.Enabled() && c.GitHub.ClientSecret == "" {
		errs = append(errs, errors.New("GITHUB_CLIENT_SECRET is required when GITHUB_CLIENT_ID is set"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}

	return errors.Join(errs...)
}

func (c Config) hasPreviousKey() bool {
	return c.PreviousSecret != "" || c.PreviousSigningKeyFile != ""
}
