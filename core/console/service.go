// Package console aggregates the admin dashboard and applies the privileged mutations behind it.
package console

import (
	"context"
	"sort"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/scibridge/scibridge/core"
	"github.com/scibridge/scibridge/core/account"
	"github.com/scibridge/scibridge/core/authz"
)

var (
	nowFunc = time.Now // mockable

	ErrCannotModerateSelf = errors.New("you cannot change your own role or status")
)

type (
	// Repository stores the console content. Items are append-only.
	Repository interface {
		CreateAnnouncement(ctx context.Context, a Announcement) (Announcement, error)
		QueryAnnouncements(ctx context.Context) ([]Announcement, error)
		CreateContest(ctx context.Context, c Contest) (Contest, error)
		QueryContests(ctx context.Context) ([]Contest, error)
		CreatePracticeSet(ctx context.Context, ps PracticeSet) (PracticeSet, error)
		QueryPracticeSets(ctx context.Context) ([]PracticeSet, error)
	}

	// Accounts is the part of the account service the console relies on.
	Accounts interface {
		GetByID(ctx context.Context, id string) (account.Account, error)
		QueryAll(ctx context.Context) ([]account.Account, error)
		UpdateRole(ctx context.Context, id string, role authz.Role, org string) (account.Account, error)
		UpdateStatus(ctx context.Context, id string, status account.Status) (account.Account, error)
	}

	Service struct {
		repo       Repository
		accounts   Accounts
		validate   *validator.Validate
		translator ut.Translator
	}
)

func NewService(repo Repository, accounts Accounts, validate *validator.Validate, translator ut.Translator) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(accounts, "accounts"),
		vala.IsNotNil(validate, "validate"),
		vala.IsNotNil(translator, "translator"),
	).CheckAndPanic()

	return &Service{repo: repo, accounts: accounts, validate: validate, translator: translator}
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

// authorize reloads the actor so that role or status changes apply immediately,
// then checks console access.
func (svc *Service) authorize(ctx context.Context, actor account.Account) (account.Account, error) {
	fresh, err := svc.accounts.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Cause(err) == account.ErrNotFound {
			return account.Account{}, authz.ErrForbidden
		}
		return account.Account{}, err
	}
	if !fresh.CanSignIn() || !authz.CanAccessAdminConsole(fresh.Role) {
		return account.Account{}, authz.ErrForbidden
	}
	return fresh, nil
}

// FetchDashboard returns every account and every piece of content, newest content first.
func (svc *Service) FetchDashboard(ctx context.Context, actor account.Account) (Dashboard, error) {
	viewer, err := svc.authorize(ctx, actor)
	if err != nil {
		return Dashboard{}, err
	}

	accs, err := svc.accounts.QueryAll(ctx)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "querying accounts")
	}
	users := make([]account.Profile, 0, len(accs))
	for _, acc := range accs {
		users = append(users, acc.Profile())
	}

	announcements, err := svc.repo.QueryAnnouncements(ctx)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "querying announcements")
	}
	sort.SliceStable(announcements, func(i, j int) bool {
		return announcements[i].CreatedAt.After(announcements[j].CreatedAt)
	})

	contests, err := svc.repo.QueryContests(ctx)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "querying contests")
	}
	sort.SliceStable(contests, func(i, j int) bool {
		return contests[i].CreatedAt.After(contests[j].CreatedAt)
	})

	practiceSets, err := svc.repo.QueryPracticeSets(ctx)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "querying practice sets")
	}
	sort.SliceStable(practiceSets, func(i, j int) bool {
		return practiceSets[i].CreatedAt.After(practiceSets[j].CreatedAt)
	})

	return Dashboard{
		Users:         users,
		Announcements: announcements,
		Contests:      contests,
		PracticeSets:  practiceSets,
		Viewer:        viewer.Profile(),
	}, nil
}

// UpdateUserRole changes the role and organization of an account. Admin only.
func (svc *Service) UpdateUserRole(ctx context.Context, actor account.Account, ur UpdateRole) (account.Profile, error) {
	actor, err := svc.authorize(ctx, actor)
	if err != nil {
		return account.Profile{}, err
	}
	if !authz.CanManageUsers(actor.Role) {
		return account.Profile{}, authz.ErrForbidden
	}

	ur.clean()
	if err := svc.validateStruct(ur); err != nil {
		return account.Profile{}, err
	}
	role, _ := authz.ParseRole(ur.Role)
	if !authz.CanAssignRole(actor.Role, role) {
		return account.Profile{}, authz.ErrForbidden
	}
	if ur.UserID == actor.ID && role != actor.Role {
		return account.Profile{}, ErrCannotModerateSelf
	}

	acc, err := svc.accounts.UpdateRole(ctx, ur.UserID, role, ur.Organization)
	if err != nil {
		return account.Profile{}, err
	}
	return acc.Profile(), nil
}

// UpdateUserStatus activates or bans an account. Admin only.
func (svc *Service) UpdateUserStatus(ctx context.Context, actor account.Account, us UpdateStatus) (account.Profile, error) {
	actor, err := svc.authorize(ctx, actor)
	if err != nil {
		return account.Profile{}, err
	}
	if !authz.CanManageUsers(actor.Role) {
		return account.Profile{}, authz.ErrForbidden
	}

	us.clean()
	if err := svc.validateStruct(us); err != nil {
		return account.Profile{}, err
	}
	status, _ := account.ParseStatus(us.Status)
	if us.UserID == actor.ID && status != actor.Status {
		return account.Profile{}, ErrCannotModerateSelf
	}

	acc, err := svc.accounts.UpdateStatus(ctx, us.UserID, status)
	if err != nil {
		return account.Profile{}, err
	}
	return acc.Profile(), nil
}

func (svc *Service) CreateAnnouncement(ctx context.Context, actor account.Account, na NewAnnouncement) (Announcement, error) {
	actor, err := svc.authorize(ctx, actor)
	if err != nil {
		return Announcement{}, err
	}
	na.clean()
	if err := svc.validateStruct(na); err != nil {
		return Announcement{}, err
	}
	audience, err := authz.ResolveAudience(actor.Role, actor.Organization, na.Audience)
	if err != nil {
		return Announcement{}, err
	}

	return svc.repo.CreateAnnouncement(ctx, Announcement{
		Title:     na.Title,
		Message:   na.Message,
		Audience:  audience,
		CreatedBy: actor.ID,
		CreatedAt: nowFunc().UTC(),
	})
}

func (svc *Service) CreateContest(ctx context.Context, actor account.Account, nc NewContest) (Contest, error) {
	actor, err := svc.authorize(ctx, actor)
	if err != nil {
		return Contest{}, err
	}
	nc.clean()
	if err := svc.validateStruct(nc); err != nil {
		return Contest{}, err
	}
	audience, err := authz.ResolveAudience(actor.Role, actor.Organization, nc.Audience)
	if err != nil {
		return Contest{}, err
	}
	deadline, _ := parseDeadline(nc.Deadline)

	return svc.repo.CreateContest(ctx, Contest{
		Name:        nc.Name,
		Description: nc.Description,
		Deadline:    deadline,
		Audience:    audience,
		CreatedBy:   actor.ID,
		CreatedAt:   nowFunc().UTC(),
	})
}

func (svc *Service) CreatePracticeSet(ctx context.Context, actor account.Account, np NewPracticeSet) (PracticeSet, error) {
	actor, err := svc.authorize(ctx, actor)
	if err != nil {
		return PracticeSet{}, err
	}
	np.clean()
	if err := svc.validateStruct(np); err != nil {
		return PracticeSet{}, err
	}
	audience, err := authz.ResolveAudience(actor.Role, actor.Organization, np.Audience)
	if err != nil {
		return PracticeSet{}, err
	}

	return svc.repo.CreatePracticeSet(ctx, PracticeSet{
		Title:       np.Title,
		FocusArea:   np.FocusArea,
		Description: np.Description,
		ResourceURL: np.ResourceURL,
		Audience:    audience,
		CreatedBy:   actor.ID,
		CreatedAt:   nowFunc().UTC(),
	})
}
