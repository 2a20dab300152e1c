package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/logiscore/authcore/internal/auth/service"
)

func TestEmailProvider(t *testing.T) {
	t.Parallel()
	p := EmailProvider{}

	ident, err := p.ValidateAssertion(context.Background(), "  Alice@Example.COM ")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", ident.Subject)
	require.Equal(t, "alice@example.com", ident.Profile.Email)
	require.Equal(t, "alice", ident.Profile.Username)
	require.True(t, ident.StepUp)
	require.Equal(t, ProviderEmail, p.Name())
}

func TestNormalizeEmail_Rejects(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{
		"",
		"alice",
		"alice@",
		"@example.com",
		"alice@localhost",
		"Alice <alice@example.com>",
		"alice@example.com, bob@example.com",
	} {
		_, err := NormalizeEmail(raw)
		require.ErrorIs(t, err, service.ErrInvalidAssertion, "input %q", raw)
	}
}
