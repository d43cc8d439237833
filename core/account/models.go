package account

import (
	"time"

	"github.com/scibridge/scibridge/core"
	"github.com/scibridge/scibridge/core/authz"
)

// Status tells whether an account may use the platform.
type Status string

const (
	StatusActive Status = "active"
	StatusBanned Status = "banned"
)

var AllStatuses = []Status{StatusActive, StatusBanned}

// ParseStatus returns the status matching `s`, case-insensitively.
func ParseStatus(s string) (Status, error) {
	status := Status(core.CleanString(s, true /* lower */))
	switch status {
	case StatusActive, StatusBanned:
		return status, nil
	}
	return "", ErrInvalidStatus
}

func (s Status) String() string { return string(s) }

// Account is the stored identity record. Credential fields never leave the process.
type Account struct {
	ID               string
	Name             string
	Email            string // normalized: trimmed, lower-cased
	PasswordHash     []byte
	Verified         bool
	VerificationCode string // empty once verified
	CodeIssuedAt     *time.Time
	Role             authz.Role
	Status           Status
	Organization     string
	CreatedAt        time.Time  // UTC
	VerifiedAt       *time.Time // UTC
	UpdatedAt        time.Time  // UTC
	LastLogin        *time.Time // UTC
	Version          int        // bumped by every successful update
}

func (a Account) IsActive() bool { return a.Status != StatusBanned }

// CanSignIn reports whether the account may hold a session.
func (a Account) CanSignIn() bool { return a.Verified && a.IsActive() }

// Profile returns the sanitized view exposed to clients.
func (a Account) Profile() Profile {
	return Profile{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		Verified:     a.Verified,
		Role:         a.Role,
		Status:       a.Status,
		Organization: a.Organization,
		CreatedAt:    a.CreatedAt,
		VerifiedAt:   a.VerifiedAt,
		UpdatedAt:    a.UpdatedAt,
		LastLogin:    a.LastLogin,
	}
}

func (a *Account) issueCode(code string, now time.Time) {
	a.VerificationCode = code
	a.CodeIssuedAt = &now
}

func (a *Account) markVerified(now time.Time) {
	a.Verified = true
	a.VerificationCode = ""
	a.CodeIssuedAt = nil
	a.VerifiedAt = &now
}

// codeExpired reports whether the pending code is older than `ttl`. A zero ttl never expires.
func (a Account) codeExpired(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 || a.CodeIssuedAt == nil {
		return false
	}
	return now.Sub(*a.CodeIssuedAt) > ttl
}

// Profile is the client-facing account view: it has no password hash and no verification code.
type Profile struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Verified     bool       `json:"verified"`
	Role         authz.Role `json:"role"`
	Status       Status     `json:"status"`
	Organization string     `json:"organization"`
	CreatedAt    time.Time  `json:"createdAt"`
	VerifiedAt   *time.Time `json:"verifiedAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	LastLogin    *time.Time `json:"lastLogin"`
}

// NewAccount contains information needed to register an Account.
type NewAccount struct {
	Name     string `json:"name" validate:"notblank,max=120"`
	Email    string `json:"email" validate:"notblank,max=254,email"`
	Password string `json:"password" validate:"required,max=128"`
}

func (na *NewAccount) clean() {
	na.Name = core.CleanString(na.Name)
	na.Email = core.NormalizeEmail(na.Email)
}

// NewVerifiedAccount is used by operators to provision an account without the email round trip.
type NewVerifiedAccount struct {
	NewAccount
	Role         authz.Role
	Organization string
}
