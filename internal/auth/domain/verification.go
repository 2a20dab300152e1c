package domain

import "time"

// VerificationCode is the single live code for an account. A new issuance
// replaces the row; Consumed only ever goes false to true.
type VerificationCode struct {
	AccountID  string
	Code       string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	Consumed   bool
	ConsumedAt *time.Time
}

type VerificationOutcome int

const (
	VerifySuccess VerificationOutcome = iota
	VerifyNotFound
	VerifyAlreadyUsed
	VerifyExpired
	VerifyMismatch
)

func (o VerificationOutcome) String() string {
	switch o {
	case VerifySuccess:
		return "success"
	case VerifyNotFound:
		return "not_found"
	case VerifyAlreadyUsed:
		return "already_used"
	case VerifyExpired:
		return "expired"
	case VerifyMismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}
