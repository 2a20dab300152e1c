package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/logiscore/authcore/pkg/cryptox"
	"github.com/logiscore/authcore/pkg/jwtx"
)

const (
	sessionKeyInfo = "authcore session v1"
	pendingKeyInfo = "authcore pending v1"
)

// Keys are loaded once at startup and never change while the process runs.
type Keys struct {
	Session *jwtx.KeyRing
	Pending *jwtx.KeyRing
}

// InitKeys builds the session and pending-handle key rings.
//
// Session credentials are EdDSA when AUTH_SIGNING_KEY_FILE is set and HS256
// derived from AUTH_SECRET otherwise. Pending handles are always HS256 under
// a separately derived key. A previous key, when configured, is accepted for
// validation only.
func InitKeys(cfg Config, logger *slog.Logger) (Keys, error) {
	session, err := sessionRing(cfg)
	if err != nil {
		return Keys{}, fmt.Errorf("session keys: %w", err)
	}

	pendingCurrent, err := derivedSigner(cfg.KeyID, cfg.Secret, pendingKeyInfo)
	if err != nil {
		return Keys{}, fmt.Errorf("pending keys: %w", err)
	}
	var pendingPrev []jwtx.Signer
	if cfg.PreviousSecret != "" {
		s, err := derivedSigner(cfg.PreviousKeyID, cfg.PreviousSecret, pendingKeyInfo)
		if err != nil {
			return Keys{}, fmt.Errorf("pending keys: %w", err)
		}
		pendingPrev = append(pendingPrev, s)
	}
	pending, err := jwtx.NewKeyRing(pendingCurrent, pendingPrev...)
	if err != nil {
		return Keys{}, fmt.Errorf("pending keys: %w", err)
	}

	logger.Info("signing keys loaded",
		"algorithm", session.Current().Alg(),
		"kid", session.Current().KID(),
		"previous_key", cfg.hasPreviousKey(),
	)

	return Keys{Session: session, Pending: pending}, nil
}

func sessionRing(cfg Config) (*jwtx.KeyRing, error) {
	if cfg.SigningKeyFile == "" {
		current, err := derivedSigner(cfg.KeyID, cfg.Secret, sessionKeyInfo)
		if err != nil {
			return nil, err
		}
		var prev []jwtx.Signer
		if cfg.PreviousSecret != "" {
			s, err := derivedSigner(cfg.PreviousKeyID, cfg.PreviousSecret, sessionKeyInfo)
			if err != nil {
				return nil, err
			}
			prev = append(prev, s)
		}
		return jwtx.NewKeyRing(current, prev...)
	}

	current, err := pemSigner(cfg.KeyID, cfg.SigningKeyFile)
	if err != nil {
		return nil, err
	}
	var prev []jwtx.Signer
	if cfg.PreviousSigningKeyFile != "" {
		s, err := pemSigner(cfg.PreviousKeyID, cfg.PreviousSigningKeyFile)
		if err != nil {
			return nil, err
		}
		prev = append(prev, s)
	}
	return jwtx.NewKeyRing(current, prev...)
}

func derivedSigner(kid, secret, info string) (jwtx.Signer, error) {
	key, err := cryptox.DeriveKey([]byte(secret), info, 32)
	if err != nil {
		return nil, err
	}
	return jwtx.NewSignerHS256(kid, key)
}

func pemSigner(kid, path string) (jwtx.Signer, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read signing key: %w", err)
	}
	return jwtx.NewSignerEdDSA(kid, pem)
}
