package domain

import "time"

// Assertion is the raw identity proof a caller presents, tagged with the
// provider that can validate it.
type Assertion struct {
	Provider string
	Raw      string
}

// Identity is a validated assertion.
type Identity struct {
	Provider   string
	Subject    string
	Profile    Profile
	VerifiedAt time.Time

	// StepUp is set when the provider did not prove possession on its own,
	// so a verification code must follow regardless of account status.
	StepUp bool
}
