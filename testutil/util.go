package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/scibridge/scibridge/core"
	"github.com/scibridge/scibridge/core/account"
	"github.com/scibridge/scibridge/core/authz"
	"github.com/scibridge/scibridge/core/console"
)

// NewValidator returns a validator with every domain rule registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	account.InitValidators(validate, translator)
	console.InitValidators(validate, translator)
	return validate, translator
}

// AccountOpts tweaks the account stored by CreateAccount.
type AccountOpts struct {
	Role         authz.Role
	Status       account.Status
	Organization string
	Unverified   bool
	CreatedAt    time.Time
}

// CreateAccount stores an account straight into `repo`, verified and active unless opts say otherwise.
func CreateAccount(t *testing.T, repo account.Repository, name, email, pwd string, opts ...AccountOpts) account.Account {
	t.Helper()

	var opt AccountOpts
	if len(opts) > 0 {
		opt = opts[0]
	}
	tstamp := time.Now().UTC()
	if !opt.CreatedAt.IsZero() {
		tstamp = opt.CreatedAt.UTC()
	}
	if opt.Role == "" {
		opt.Role = authz.RoleStudent
	}
	if opt.Status == "" {
		opt.Status = account.StatusActive
	}

	acc := account.Account{
		Name:         name,
		Email:        core.NormalizeEmail(email),
		Role:         opt.Role,
		Status:       opt.Status,
		Organization: opt.Organization,
		CreatedAt:    tstamp,
		UpdatedAt:    tstamp,
	}
	if opt.Unverified {
		acc.VerificationCode = "ABC123"
		acc.CodeIssuedAt = &tstamp
	} else {
		acc.Verified = true
		acc.VerifiedAt = &tstamp
	}
	if pwd != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("CreateAccount() failed: %v", err)
		}
		acc.PasswordHash = hash
	}

	acc, err := repo.CreateAccount(context.Background(), acc)
	if err != nil {
		t.Fatalf("CreateAccount() failed: %v", err)
	}
	return acc
}

// Outbox is an EmailService that keeps rendered messages in memory.
type Outbox struct {
	mu       sync.Mutex
	messages []*core.EmailMessage
	Fail     error // returned by SendMessage when set
}

var _ core.EmailService = (*Outbox)(nil)

func (o *Outbox) SendMessage(_ context.Context, msg *core.EmailMessage) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.Fail != nil {
		return o.Fail
	}
	if err := msg.Render(core.TemplateContext{AppName: "SciBridge Forum", FrontendBaseURL: "http://localhost:5173"}); err != nil {
		return err
	}
	o.messages = append(o.messages, msg)
	return nil
}

func (o *Outbox) Configured() bool { return true }
func (o *Outbox) Name() string     { return "outbox" }

// Messages returns the messages sent so far.
func (o *Outbox) Messages() []*core.EmailMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*core.EmailMessage(nil), o.messages...)
}
