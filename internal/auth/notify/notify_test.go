package notify

import (
	"context"
	"errors"
	"net"
	"net/smtp"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/logiscore/authcore/internal/auth/domain"
)

var t0 = time.Unix(1_700_000_000, 0).UTC()

func testCode() domain.VerificationCode {
	return domain.VerificationCode{AccountID: "acct-1", Code: "048213", IssuedAt: t0, ExpiresAt: t0.Add(10 * time.Minute)}
}

func TestSMTPNotifier_SendCode(t *testing.T) {
	t.Parallel()

	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
		gotAuth smtp.Auth
	)
	n := NewSMTPNotifier(SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p", From: "noreply@logiscore.com"})
	n.now = func() time.Time { return t0 }
	n.send = func(_ context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotTo, gotMsg = addr, a, to, string(msg)
		require.Equal(t, "noreply@logiscore.com", from)
		return nil
	}

	err := n.SendCode(context.Background(), domain.Account{ID: "acct-1", Email: "alice@example.com"}, testCode())
	require.NoError(t, err)
	require.Equal(t, "smtp.example.com:587", gotAddr)
	require.NotNil(t, gotAuth)
	require.Equal(t, []string{"alice@example.com"}, gotTo)
	require.Contains(t, gotMsg, "Subject: LogiScore Verification Code\r\n")
	require.Contains(t, gotMsg, "<strong>048213</strong>")
	require.Contains(t, gotMsg, "expire in 10 minutes")
	require.True(t, strings.Contains(gotMsg, "\r\n\r\n<html>"))
}

func TestSMTPNotifier_Errors(t *testing.T) {
	t.Parallel()
	n := NewSMTPNotifier(SMTPConfig{Host: "smtp.example.com", Port: 25, From: "noreply@logiscore.com"})

	err := n.SendCode(context.Background(), domain.Account{ID: "acct-1"}, testCode())
	require.ErrorIs(t, err, ErrNoRecipient)

	boom := errors.New("connection refused")
	n.send = func(context.Context, string, smtp.Auth, string, []string, []byte) error { return boom }
	err = n.SendCode(context.Background(), domain.Account{Email: "a@example.com"}, testCode())
	require.ErrorIs(t, err, boom)
}

// silentSMTP accepts connections and never sends a greeting.
func silentSMTP(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})
	return ln.Addr().(*net.TCPAddr).Port
}

func TestSMTPNotifier_SilentServer(t *testing.T) {
	t.Parallel()
	account := domain.Account{Email: "a@example.com"}

	t.Run("connection deadline", func(t *testing.T) {
		n := NewSMTPNotifier(SMTPConfig{Host: "127.0.0.1", Port: silentSMTP(t), From: "noreply@logiscore.com", Timeout: 100 * time.Millisecond})

		start := time.Now()
		err := n.SendCode(context.Background(), account, testCode())
		require.ErrorIs(t, err, os.ErrDeadlineExceeded)
		require.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("context cancellation", func(t *testing.T) {
		n := NewSMTPNotifier(SMTPConfig{Host: "127.0.0.1", Port: silentSMTP(t), From: "noreply@logiscore.com", Timeout: time.Minute})

		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(50*time.Millisecond, cancel)
		start := time.Now()
		err := n.SendCode(ctx, account, testCode())
		require.ErrorIs(t, err, context.Canceled)
		require.Less(t, time.Since(start), 5*time.Second)
	})
}

func TestLogNotifier(t *testing.T) {
	t.Parallel()
	err := LogNotifier{Now: func() time.Time { return t0 }}.SendCode(context.Background(), domain.Account{ID: "acct-1"}, testCode())
	require.NoError(t, err)
}
