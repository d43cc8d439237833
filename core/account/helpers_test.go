package account

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/scibridge/scibridge/core"
)

// memRepo is a minimal Repository used by the service tests.
type memRepo struct {
	mu       sync.Mutex
	accounts map[string]Account
	// staleUpdates makes the next N UpdateAccount calls fail as if another writer won.
	staleUpdates int
}

func newMemRepo() *memRepo {
	return &memRepo{accounts: make(map[string]Account)}
}

func (r *memRepo) CreateAccount(_ context.Context, acc Account) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email == acc.Email {
			return Account{}, ErrEmailExists
		}
	}
	acc.ID = uuid.New().String()
	acc.Version = 1
	r.accounts[acc.ID] = acc
	return acc, nil
}

func (r *memRepo) GetAccountByID(_ context.Context, id string) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if acc, ok := r.accounts[id]; ok {
		return acc, nil
	}
	return Account{}, ErrNotFound
}

func (r *memRepo) GetAccountByEmail(_ context.Context, email string) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, acc := range r.accounts {
		if acc.Email == email {
			return acc, nil
		}
	}
	return Account{}, ErrNotFound
}

func (r *memRepo) QueryAllAccounts(_ context.Context) ([]Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	accs := make([]Account, 0, len(r.accounts))
	for _, acc := range r.accounts {
		accs = append(accs, acc)
	}
	return accs, nil
}

func (r *memRepo) UpdateAccount(_ context.Context, acc Account) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.accounts[acc.ID]
	if !ok {
		return Account{}, ErrNotFound
	}
	if r.staleUpdates > 0 {
		r.staleUpdates--
		return Account{}, ErrStaleAccount
	}
	if stored.Version != acc.Version {
		return Account{}, ErrStaleAccount
	}
	acc.Version++
	r.accounts[acc.ID] = acc
	return acc, nil
}

// outbox records sent messages and optionally fails.
type outbox struct {
	mu       sync.Mutex
	messages []*core.EmailMessage
	fail     error
}

func (o *outbox) SendMessage(_ context.Context, msg *core.EmailMessage) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail != nil {
		return o.fail
	}
	if err := msg.Render(core.TemplateContext{AppName: "SciBridge Forum", FrontendBaseURL: "http://localhost:5173"}); err != nil {
		return err
	}
	o.messages = append(o.messages, msg)
	return nil
}

func (o *outbox) Configured() bool { return o.fail == nil }
func (o *outbox) Name() string     { return "outbox" }

func (o *outbox) last(t *testing.T) *core.EmailMessage {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.messages) == 0 {
		t.Fatal("no message sent")
	}
	return o.messages[len(o.messages)-1]
}

func (o *outbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.messages)
}

var errSMTPDown = errors.New("dial tcp: connection refused")

func newTestService(t *testing.T, opts Options) (*Service, *memRepo, *outbox) {
	t.Helper()
	validate, translator := core.NewValidator()
	InitValidators(validate, translator)
	if opts.Hasher == nil {
		opts.Hasher = NewBcryptHasher(bcrypt.MinCost)
	}
	repo, box := newMemRepo(), new(outbox)
	return NewService(repo, box, validate, translator, opts), repo, box
}

// freezeTime pins nowFunc and returns a function that moves the clock.
func freezeTime(t *testing.T, start time.Time) func(d time.Duration) {
	t.Helper()
	now := start
	nowFunc = func() time.Time { return now }
	t.Cleanup(func() { nowFunc = time.Now })
	return func(d time.Duration) { now = now.Add(d) }
}

func codeFromMessage(t *testing.T, msg *core.EmailMessage) string {
	t.Helper()
	data, ok := msg.TemplateData.(verifyEmailData)
	if !ok {
		t.Fatalf("unexpected template data %T", msg.TemplateData)
	}
	if !strings.Contains(msg.TextContent, data.Code) {
		t.Fatalf("code %q missing from text body", data.Code)
	}
	return data.Code
}
