package identity

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/logiscore/authcore/internal/auth/domain"
	"github.com/logiscore/authcore/internal/auth/service"
)

const ProviderEmail = "email"

// maxEmailLength is the RFC 5321 path limit.
const maxEmailLength = 254

// EmailProvider accepts a bare email address as the assertion. Nothing is
// proven by the address alone, so every identity it returns requires a
// verification code.
type EmailProvider struct {
	Now func() time.Time
}

func (EmailProvider) Name() string { return ProviderEmail }

func (p EmailProvider) ValidateAssertion(_ context.Context, raw string) (domain.Identity, error) {
	addr, err := NormalizeEmail(raw)
	if err != nil {
		return domain.Identity{}, err
	}

	local, _, _ := strings.Cut(addr, "@")
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	return domain.Identity{
		Provider: ProviderEmail,
		Subject:  addr,
		Profile: domain.Profile{
			Email:    addr,
			Username: local,
		},
		VerifiedAt: now().UTC(),
		StepUp:     true,
	}, nil
}

// NormalizeEmail trims and lowercases raw and checks that it is a single
// bare address.
func NormalizeEmail(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" || len(s) > maxEmailLength {
		return "", fmt.Errorf("%w: bad email length", service.ErrInvalidAssertion)
	}
	parsed, err := mail.ParseAddress(s)
	if err != nil || parsed.Address != s || parsed.Name != "" {
		return "", fmt.Errorf("%w: malformed email", service.ErrInvalidAssertion)
	}
	if _, domainPart, _ := strings.Cut(s, "@"); !strings.Contains(domainPart, ".") {
		return "", fmt.Errorf("%w: malformed email", service.ErrInvalidAssertion)
	}
	return s, nil
}

var _ service.IdentityProvider = EmailProvider{}
