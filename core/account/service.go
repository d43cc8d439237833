package account

import (
	"context"
	"crypto/subtle"
	"net/mail"
	"sort"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/scibridge/scibridge/core"
	"github.com/scibridge/scibridge/core/authz"
)

const (
	maxUpdateAttempts     = 3
	verificationSubject   = "Verify your SciBridge Forum account"
	verificationTemplate  = "verify_email"
	defaultResendCooldown = time.Minute
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrNotFound           = errors.New("account not found")
	ErrEmailExists        = errors.New("an account with this email already exists")
	ErrAlreadyVerified    = errors.New("account already verified")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrCodeExpired        = errors.New("verification code expired")
	ErrNotVerified        = errors.New("account not verified")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrAccountBanned      = errors.New("account banned")
	ErrResendTooSoon      = errors.New("verification code requested too recently")
	ErrDeliveryFailed     = errors.New("could not send verification email")
	ErrStaleAccount       = errors.New("account was modified concurrently")
	ErrInvalidStatus      = errors.New("invalid status")

	errMissingVerifyFields = errors.New("email and verification code are required")
	errMissingLoginFields  = errors.New("email and password are required")
	errMissingEmail        = errors.New("email is required")

	// errNoChange aborts an update without writing.
	errNoChange = errors.New("no change")
)

// DeliveryError is returned by Register and ResendCode when the verification email could not be sent.
// The account itself is persisted.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string { return ErrDeliveryFailed.Error() + ": " + e.Err.Error() }
func (e *DeliveryError) Unwrap() error { return e.Err }
func (e *DeliveryError) Is(target error) bool {
	return target == ErrDeliveryFailed
}

type (
	// Repository is the account store. Emails passed in are already normalized.
	Repository interface {
		// CreateAccount assigns ID and Version and stores the account, failing with ErrEmailExists
		// if the email is taken. The check and the insert are atomic.
		CreateAccount(ctx context.Context, acc Account) (Account, error)
		GetAccountByID(ctx context.Context, id string) (Account, error)
		GetAccountByEmail(ctx context.Context, email string) (Account, error)
		QueryAllAccounts(ctx context.Context) ([]Account, error)
		// UpdateAccount replaces the stored account if its Version still matches `acc.Version`,
		// failing with ErrStaleAccount otherwise. The returned account carries the new Version.
		UpdateAccount(ctx context.Context, acc Account) (Account, error)
	}

	// Options tunes the lifecycle rules. Zero values fall back to defaults.
	Options struct {
		CodeTTL        time.Duration // 0 disables expiry
		ResendCooldown time.Duration // negative disables the cooldown
		Hasher         Hasher
		NewCode        CodeGenerator
	}

	// Service drives the account lifecycle: register, verify, sign in.
	Service struct {
		repo       Repository
		mailSvc    core.EmailService
		validate   *validator.Validate
		translator ut.Translator
		hasher     Hasher
		newCode    CodeGenerator
		codeTTL    time.Duration
		cooldown   time.Duration
	}

	verifyEmailData struct {
		Name string
		Code string
	}
)

// OptionsFromConfig maps the security configuration onto Options.
// A configured cooldown of 0 disables it, like a 0 code TTL.
func OptionsFromConfig(conf *core.Config) Options {
	cooldown := conf.Security.ResendCooldown
	if cooldown == 0 {
		cooldown = -1
	}
	return Options{
		CodeTTL:        conf.Security.VerificationCodeTTL,
		ResendCooldown: cooldown,
		Hasher:         NewBcryptHasher(conf.Security.BcryptCost),
	}
}

func NewService(repo Repository, mailSvc core.EmailService, validate *validator.Validate, translator ut.Translator, opts Options) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(mailSvc, "mailSvc"),
		vala.IsNotNil(validate, "validate"),
		vala.IsNotNil(translator, "translator"),
	).CheckAndPanic()

	if opts.Hasher == nil {
		opts.Hasher = NewBcryptHasher(0)
	}
	if opts.NewCode == nil {
		opts.NewCode = NewVerificationCode
	}
	if opts.ResendCooldown == 0 {
		opts.ResendCooldown = defaultResendCooldown
	}
	return &Service{
		repo:       repo,
		mailSvc:    mailSvc,
		validate:   validate,
		translator: translator,
		hasher:     opts.Hasher,
		newCode:    opts.NewCode,
		codeTTL:    opts.CodeTTL,
		cooldown:   opts.ResendCooldown,
	}
}

func (svc *Service) validateStruct(s interface{}) error {
	if err := svc.validate.Struct(s); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			return core.NewValidationError(nil, core.TranslateValidationErrors(verrs, svc.translator)...)
		}
		return err
	}
	return nil
}

// Register creates an unverified student account and emails it a verification code.
// On delivery failure the account stays persisted and a *DeliveryError is returned.
func (svc *Service) Register(ctx context.Context, na NewAccount) (Profile, error) {
	na.clean()
	if err := svc.validateStruct(na); err != nil {
		return Profile{}, err
	}
	if _, err := svc.repo.GetAccountByEmail(ctx, na.Email); err == nil {
		return Profile{}, ErrEmailExists
	} else if errors.Cause(err) != ErrNotFound {
		return Profile{}, err
	}

	code, err := svc.newCode()
	if err != nil {
		return Profile{}, err
	}
	acc, err := svc.create(ctx, na, authz.RoleStudent, "", func(acc *Account, now time.Time) {
		acc.issueCode(code, now)
	})
	if err != nil {
		return Profile{}, err
	}
	if err := svc.sendVerificationCode(ctx, acc); err != nil {
		return acc.Profile(), err
	}
	return acc.Profile(), nil
}

// CreateVerified provisions an already verified account, bypassing the email round trip.
func (svc *Service) CreateVerified(ctx context.Context, nva NewVerifiedAccount) (Profile, error) {
	na := nva.NewAccount
	na.clean()
	if err := svc.validateStruct(na); err != nil {
		return Profile{}, err
	}
	if nva.Role == "" {
		nva.Role = authz.RoleStudent
	}
	if !nva.Role.Valid() {
		return Profile{}, authz.ErrInvalidRole
	}
	acc, err := svc.create(ctx, na, nva.Role, core.CleanString(nva.Organization), func(acc *Account, now time.Time) {
		acc.markVerified(now)
	})
	if err != nil {
		return Profile{}, err
	}
	return acc.Profile(), nil
}

func (svc *Service) create(ctx context.Context, na NewAccount, role authz.Role, org string, init func(*Account, time.Time)) (Account, error) {
	hash, err := svc.hasher.Hash(na.Password)
	if err != nil {
		return Account{}, err
	}
	now := nowFunc().UTC()
	acc := Account{
		Name:         na.Name,
		Email:        na.Email,
		PasswordHash: hash,
		Role:         role,
		Status:       StatusActive,
		Organization: org,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	init(&acc, now)

	acc, err = svc.repo.CreateAccount(ctx, acc)
	if err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return Account{}, ErrEmailExists
		}
		return Account{}, errors.Wrap(err, "creating account")
	}
	return acc, nil
}

func (svc *Service) sendVerificationCode(ctx context.Context, acc Account) error {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: acc.Name, Address: acc.Email}},
		Subject:      verificationSubject,
		TemplateName: verificationTemplate,
		TemplateData: verifyEmailData{Name: acc.Name, Code: acc.VerificationCode},
	}
	if err := svc.mailSvc.SendMessage(ctx, msg); err != nil {
		return &DeliveryError{Err: err}
	}
	return nil
}

// Verify marks the account verified if `code` matches the pending one.
// Verifying an already verified account succeeds without checking the code.
func (svc *Service) Verify(ctx context.Context, email, code string) (Profile, error) {
	email, code = core.NormalizeEmail(email), normalizeCode(code)
	if email == "" || code == "" {
		return Profile{}, core.NewValidationError(errMissingVerifyFields)
	}

	acc, err := svc.update(ctx, byEmail(email), func(acc *Account, now time.Time) error {
		if acc.Verified {
			return errNoChange
		}
		if acc.VerificationCode == "" || subtle.ConstantTimeCompare([]byte(acc.VerificationCode), []byte(code)) != 1 {
			return ErrInvalidCode
		}
		if acc.codeExpired(svc.codeTTL, now) {
			return ErrCodeExpired
		}
		acc.markVerified(now)
		return nil
	})
	if err != nil {
		return Profile{}, err
	}
	return acc.Profile(), nil
}

// ResendCode issues a fresh code to an unverified account, invalidating the previous one.
func (svc *Service) ResendCode(ctx context.Context, email string) error {
	email = core.NormalizeEmail(email)
	if email == "" {
		return core.NewValidationError(errMissingEmail)
	}

	code, err := svc.newCode()
	if err != nil {
		return err
	}
	acc, err := svc.update(ctx, byEmail(email), func(acc *Account, now time.Time) error {
		if acc.Verified {
			return ErrAlreadyVerified
		}
		if acc.CodeIssuedAt != nil && now.Sub(*acc.CodeIssuedAt) < svc.cooldown {
			return ErrResendTooSoon
		}
		acc.issueCode(code, now)
		return nil
	})
	if err != nil {
		return err
	}
	return svc.sendVerificationCode(ctx, acc)
}

// Login checks the credentials and stamps LastLogin.
// Checks run in order: existence, verification, password, status.
func (svc *Service) Login(ctx context.Context, email, pwd string) (Profile, error) {
	email = core.NormalizeEmail(email)
	if email == "" || pwd == "" {
		return Profile{}, core.NewValidationError(errMissingLoginFields)
	}

	acc, err := svc.repo.GetAccountByEmail(ctx, email)
	if err != nil {
		return Profile{}, err
	}
	if !acc.Verified {
		return Profile{}, ErrNotVerified
	}
	ok, err := svc.hasher.Compare(acc.PasswordHash, pwd)
	if err != nil {
		return Profile{}, err
	}
	if !ok {
		return Profile{}, ErrInvalidCredentials
	}
	if !acc.IsActive() {
		return Profile{}, ErrAccountBanned
	}

	acc, err = svc.update(ctx, byID(acc.ID), func(acc *Account, now time.Time) error {
		acc.LastLogin = &now
		return nil
	})
	if err != nil {
		return Profile{}, err
	}
	return acc.Profile(), nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Account, error) {
	return svc.repo.GetAccountByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Account, error) {
	return svc.repo.GetAccountByEmail(ctx, core.NormalizeEmail(email))
}

// QueryAll returns every account sorted by creation time, oldest first.
func (svc *Service) QueryAll(ctx context.Context) ([]Account, error) {
	accs, err := svc.repo.QueryAllAccounts(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(accs, func(i, j int) bool { return accs[i].CreatedAt.Before(accs[j].CreatedAt) })
	return accs, nil
}

// UpdateRole sets the role and organization of an account. Permission checks are the caller's.
func (svc *Service) UpdateRole(ctx context.Context, id string, role authz.Role, org string) (Account, error) {
	if !role.Valid() {
		return Account{}, authz.ErrInvalidRole
	}
	org = core.CleanString(org)
	return svc.update(ctx, byID(id), func(acc *Account, _ time.Time) error {
		if acc.Role == role && acc.Organization == org {
			return errNoChange
		}
		acc.Role = role
		acc.Organization = org
		return nil
	})
}

// UpdateStatus activates or bans an account. Permission checks are the caller's.
func (svc *Service) UpdateStatus(ctx context.Context, id string, status Status) (Account, error) {
	status, err := ParseStatus(string(status))
	if err != nil {
		return Account{}, err
	}
	return svc.update(ctx, byID(id), func(acc *Account, _ time.Time) error {
		if acc.Status == status {
			return errNoChange
		}
		acc.Status = status
		return nil
	})
}

type lookup func(ctx context.Context, repo Repository) (Account, error)

func byID(id string) lookup {
	return func(ctx context.Context, repo Repository) (Account, error) {
		return repo.GetAccountByID(ctx, id)
	}
}

func byEmail(email string) lookup {
	return func(ctx context.Context, repo Repository) (Account, error) {
		return repo.GetAccountByEmail(ctx, email)
	}
}

// update runs a read-modify-write cycle, retrying when another writer got there first.
// `mutate` returning errNoChange skips the write.
func (svc *Service) update(ctx context.Context, get lookup, mutate func(acc *Account, now time.Time) error) (Account, error) {
	var lastErr error
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		acc, err := get(ctx, svc.repo)
		if err != nil {
			return Account{}, err
		}
		now := nowFunc().UTC()
		if err := mutate(&acc, now); err != nil {
			if err == errNoChange {
				return acc, nil
			}
			return Account{}, err
		}
		acc.UpdatedAt = now

		updated, err := svc.repo.UpdateAccount(ctx, acc)
		if err == nil {
			return updated, nil
		}
		if errors.Cause(err) != ErrStaleAccount {
			return Account{}, errors.Wrap(err, "updating account")
		}
		lastErr = err
	}
	return Account{}, lastErr
}
