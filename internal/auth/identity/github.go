package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/logiscore/authcore/internal/auth/domain"
	"github.com/logiscore/authcore/internal/auth/service"
)

const (
	ProviderGitHub = "github"

	defaultGitHubAPI = "https://api.github.com"
)

// GitHubConfig configures the GitHub OAuth app used for login.
type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// Endpoint and APIBaseURL override github.com, for tests and GHES.
	Endpoint   *oauth2.Endpoint
	APIBaseURL string

	HTTPClient *http.Client
	Now        func() time.Time
}

// GitHubProvider treats an OAuth authorization code as the assertion: the
// code is exchanged for a token and the user's profile is fetched with it.
type GitHubProvider struct {
	oauth   *oauth2.Config
	apiBase string
	client  *http.Client
	now     func() time.Time
}

func NewGitHubProvider(cfg GitHubConfig) *GitHubProvider {
	endpoint := github.Endpoint
	if cfg.Endpoint != nil {
		endpoint = *cfg.Endpoint
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"read:user", "user:email"}
	}
	apiBase := strings.TrimRight(cfg.APIBaseURL, "/")
	if apiBase == "" {
		apiBase = defaultGitHubAPI
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &GitHubProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		apiBase: apiBase,
		client:  client,
		now:     now,
	}
}

func (*GitHubProvider) Name() string { return ProviderGitHub }

// AuthCodeURL is where a client sends the user to obtain a code.
func (p *GitHubProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

func (p *GitHubProvider) ValidateAssertion(ctx context.Context, raw string) (domain.Identity, error) {
	code := strings.TrimSpace(raw)
	if code == "" {
		return domain.Identity{}, fmt.Errorf("%w: empty authorization code", service.ErrInvalidAssertion)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return domain.Identity{}, classifyExchange(err)
	}

	api := p.oauth.Client(ctx, tok)

	var user githubUser
	if err := p.get(ctx, api, "/user", &user); err != nil {
		return domain.Identity{}, err
	}
	if user.ID == 0 {
		return domain.Identity{}, fmt.Errorf("%w: github user has no id", service.ErrInvalidAssertion)
	}

	email := user.Email
	var emails []githubEmail
	if err := p.get(ctx, api, "/user/emails", &emails); err == nil {
		if primary := primaryEmail(emails); primary != "" {
			email = primary
		}
	} else if !errors.Is(err, service.ErrInvalidAssertion) {
		// The emails scope may not have been granted; only upstream
		// failures abort the login.
		return domain.Identity{}, err
	}

	return domain.Identity{
		Provider: ProviderGitHub,
		Subject:  strconv.FormatInt(user.ID, 10),
		Profile: domain.Profile{
			Email:       strings.ToLower(email),
			Username:    user.Login,
			DisplayName: firstNonEmpty(user.Name, user.Login),
			AvatarURL:   user.AvatarURL,
		},
		VerifiedAt: p.now().UTC(),
	}, nil
}

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func (p *GitHubProvider) get(ctx context.Context, client *http.Client, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBase+path, nil)
	if err != nil {
		return fmt.Errorf("build github request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: github %s: %w", service.ErrProviderUnavailable, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500, resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: github %s returned %d", service.ErrProviderUnavailable, path, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: github %s returned %d", service.ErrInvalidAssertion, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode github %s: %w", service.ErrProviderUnavailable, path, err)
	}
	return nil
}

// classifyExchange maps token endpoint failures: upstream trouble is
// transient, a rejected code is not.
func classifyExchange(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		if re.Response != nil && re.Response.StatusCode >= 500 {
			return fmt.Errorf("%w: token exchange: %w", service.ErrProviderUnavailable, err)
		}
		return fmt.Errorf("%w: token exchange: %w", service.ErrInvalidAssertion, err)
	}
	return fmt.Errorf("%w: token exchange: %w", service.ErrProviderUnavailable, err)
}

func primaryEmail(emails []githubEmail) string {
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

var _ service.IdentityProvider = (*GitHubProvider)(nil)
