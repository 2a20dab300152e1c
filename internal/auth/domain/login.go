package domain

import "time"

// LoginState is a step in the login state machine.
//
//	Start -> IdentityPending -> VerificationPending -> Authenticated
//	                         \-> Authenticated
//	any step -> Rejected
type LoginState int

const (
	LoginStart LoginState = iota
	LoginIdentityPending
	LoginVerificationPending
	LoginAuthenticated
	LoginRejected
)

func (s LoginState) String() string {
	switch s {
	case LoginStart:
		return "start"
	case LoginIdentityPending:
		return "identity_pending"
	case LoginVerificationPending:
		return "verification_pending"
	case LoginAuthenticated:
		return "authenticated"
	case LoginRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can leave s.
func (s LoginState) Terminal() bool {
	return s == LoginAuthenticated || s == LoginRejected
}

// PendingLogin is the signed handle returned while a code is outstanding.
type PendingLogin struct {
	Handle    string
	AccountID string
	ExpiresAt time.Time
}
