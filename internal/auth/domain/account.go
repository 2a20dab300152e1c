package domain

import "time"

type AccountStatus string

const (
	AccountActive              AccountStatus = "active"
	AccountPendingVerification AccountStatus = "pending_verification"
	AccountDisabled            AccountStatus = "disabled"
)

func (s AccountStatus) Valid() bool {
	switch s {
	case AccountActive, AccountPendingVerification, AccountDisabled:
		return true
	}
	return false
}

// Account is keyed by ID and unique on (Provider, Subject). Accounts are
// never deleted, only disabled.
type Account struct {
	ID          string
	Provider    string // "email", "github"
	Subject     string // provider-scoped stable id
	Email       string
	Username    string
	DisplayName string
	AvatarURL   string
	Status      AccountStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Profile holds the fields refreshed from the provider on every login.
type Profile struct {
	Email       string
	Username    string
	DisplayName string
	AvatarURL   string
}

func (a Account) Profile() Profile {
	return Profile{Email: a.Email, Username: a.Username, DisplayName: a.DisplayName, AvatarURL: a.AvatarURL}
}
