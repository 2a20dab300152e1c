// Package notify delivers verification codes to account holders.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/logiscore/authcore/internal/auth/domain"
	"github.com/logiscore/authcore/internal/auth/service"
	"github.com/logiscore/authcore/pkg/slogx"
)

var ErrNoRecipient = errors.New("notify: account has no email address")

// LogNotifier writes codes to the request logger instead of sending them.
// Development only.
type LogNotifier struct {
	Now func() time.Time
}

func (n LogNotifier) SendCode(ctx context.Context, account domain.Account, code domain.VerificationCode) error {
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	slogx.FromContext(ctx).Warn("verification code (not delivered)",
		slog.String("account_id", account.ID),
		slog.String("email", account.Email),
		slog.String("code", code.Code),
		slog.Int("expires_in_minutes", expiresInMinutes(code, now())),
	)
	return nil
}

func expiresInMinutes(code domain.VerificationCode, now time.Time) int {
	return int(code.ExpiresAt.Sub(now).Round(time.Minute) / time.Minute)
}

var _ service.CodeNotifier = LogNotifier{}
