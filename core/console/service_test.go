package console_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scibridge/scibridge/core"
	"github.com/scibridge/scibridge/core/account"
	"github.com/scibridge/scibridge/core/authz"
	"github.com/scibridge/scibridge/core/console"
	inmemdb "github.com/scibridge/scibridge/storage/inmem"
	"github.com/scibridge/scibridge/testutil"
)

type fixture struct {
	svc      *console.Service
	accRepo  account.Repository
	admin    account.Account
	teacher  account.Account
	loner    account.Account // teacher without organization
	student  account.Account
	unverif  account.Account
	bannedTc account.Account
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := inmemdb.Open()
	accRepo := inmemdb.NewAccountRepository(db)
	validate, translator := testutil.NewValidator()
	accSvc := account.NewService(accRepo, new(testutil.Outbox), validate, translator, account.Options{})

	base := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	return fixture{
		svc:     console.NewService(inmemdb.NewConsoleRepository(db), accSvc, validate, translator),
		accRepo: accRepo,
		admin: testutil.CreateAccount(t, accRepo, "Admin", "admin@scibridge.org", "", testutil.AccountOpts{
			Role: authz.RoleAdmin, CreatedAt: base,
		}),
		teacher: testutil.CreateAccount(t, accRepo, "Ms. Lopez", "lopez@lincoln.edu", "", testutil.AccountOpts{
			Role: authz.RoleTeacher, Organization: "Lincoln High", CreatedAt: base.Add(time.Hour),
		}),
		loner: testutil.CreateAccount(t, accRepo, "Mr. Kim", "kim@tutor.org", "", testutil.AccountOpts{
			Role: authz.RoleTeacher, CreatedAt: base.Add(2 * time.Hour),
		}),
		student: testutil.CreateAccount(t, accRepo, "Leo", "leo@lincoln.edu", "", testutil.AccountOpts{
			Organization: "Lincoln High", CreatedAt: base.Add(3 * time.Hour),
		}),
		unverif: testutil.CreateAccount(t, accRepo, "Uma", "uma@x.com", "", testutil.AccountOpts{
			Role: authz.RoleAdmin, Unverified: true, CreatedAt: base.Add(4 * time.Hour),
		}),
		bannedTc: testutil.CreateAccount(t, accRepo, "Bo", "bo@x.com", "", testutil.AccountOpts{
			Role: authz.RoleTeacher, Status: account.StatusBanned, CreatedAt: base.Add(5 * time.Hour),
		}),
	}
}

func TestService_FetchDashboard(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   account.Account
		wantErr error
	}{
		{name: "student", actor: f.student, wantErr: authz.ErrForbidden},
		{name: "unverified admin", actor: f.unverif, wantErr: authz.ErrForbidden},
		{name: "banned teacher", actor: f.bannedTc, wantErr: authz.ErrForbidden},
		{name: "unknown actor", actor: account.Account{ID: "ghost", Role: authz.RoleAdmin}, wantErr: authz.ErrForbidden},
		{name: "teacher", actor: f.teacher},
		{name: "admin", actor: f.admin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dash, err := f.svc.FetchDashboard(ctx, tt.actor)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.actor.ID, dash.Viewer.ID)
			require.Len(t, dash.Users, 6)
			assert.Equal(t, f.admin.ID, dash.Users[0].ID)
			assert.Equal(t, f.bannedTc.ID, dash.Users[5].ID)
			assert.NotNil(t, dash.Announcements)
		})
	}

	t.Run("stale role claim is ignored", func(t *testing.T) {
		stale := f.student
		stale.Role = authz.RoleAdmin
		_, err := f.svc.FetchDashboard(ctx, stale)
		assert.Equal(t, authz.ErrForbidden, err)
	})
}

func TestService_ContentNewestFirst(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	now := time.Date(2024, 4, 14, 10, 0, 0, 0, time.UTC)
	defer console.SetNow(func() time.Time { return now })()

	for _, title := range []string{"first", "second", "third"} {
		_, err := f.svc.CreateAnnouncement(ctx, f.admin, console.NewAnnouncement{Title: title, Message: "hello"})
		require.NoError(t, err)
		now = now.Add(time.Minute)
	}

	dash, err := f.svc.FetchDashboard(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, dash.Announcements, 3)
	assert.Equal(t, "third", dash.Announcements[0].Title)
	assert.Equal(t, "first", dash.Announcements[2].Title)
}

func TestService_CreateAnnouncement(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tests := []struct {
		name         string
		actor        account.Account
		payload      console.NewAnnouncement
		wantAudience string
		wantErr      error
		wantInvalid  bool
	}{
		{name: "student", actor: f.student, payload: console.NewAnnouncement{Title: "t", Message: "m"}, wantErr: authz.ErrForbidden},
		{name: "missing title", actor: f.admin, payload: console.NewAnnouncement{Message: "m"}, wantInvalid: true},
		{name: "blank message", actor: f.admin, payload: console.NewAnnouncement{Title: "t", Message: "  "}, wantInvalid: true},
		{name: "admin global", actor: f.admin, payload: console.NewAnnouncement{Title: "t", Message: "m"}, wantAudience: authz.AudienceGlobal},
		{name: "admin any org", actor: f.admin, payload: console.NewAnnouncement{Title: "t", Message: "m", Audience: "Roosevelt"}, wantAudience: "Roosevelt"},
		{name: "teacher default org", actor: f.teacher, payload: console.NewAnnouncement{Title: "t", Message: "m"}, wantAudience: "Lincoln High"},
		{name: "teacher other org", actor: f.teacher, payload: console.NewAnnouncement{Title: "t", Message: "m", Audience: "Roosevelt"}, wantErr: authz.ErrForbidden},
		{name: "teacher with org global", actor: f.teacher, payload: console.NewAnnouncement{Title: "t", Message: "m", Audience: "global"}, wantErr: authz.ErrForbidden},
		{name: "teacher without org", actor: f.loner, payload: console.NewAnnouncement{Title: "t", Message: "m"}, wantAudience: authz.AudienceGlobal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := f.svc.CreateAnnouncement(ctx, tt.actor, tt.payload)
			if tt.wantInvalid {
				var verr *core.ValidationError
				assert.True(t, errors.As(err, &verr), "got %v", err)
				return
			}
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, a.ID)
			assert.Equal(t, tt.wantAudience, a.Audience)
			assert.Equal(t, tt.actor.ID, a.CreatedBy)
			assert.False(t, a.CreatedAt.IsZero())
		})
	}
}

func TestService_CreateContest(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	c, err := f.svc.CreateContest(ctx, f.teacher, console.NewContest{Name: "Science Fair", Description: "Build a volcano", Deadline: "2024-06-01"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), c.Deadline)
	assert.Equal(t, "Lincoln High", c.Audience)

	c, err = f.svc.CreateContest(ctx, f.admin, console.NewContest{Name: "Essay", Description: "Write", Deadline: "2024-06-01T12:00:00+02:00"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), c.Deadline)

	_, err = f.svc.CreateContest(ctx, f.admin, console.NewContest{Name: "Essay", Description: "Write", Deadline: "next friday"})
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.FieldMap(), "deadline")
}

func TestService_CreatePracticeSet(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	ps, err := f.svc.CreatePracticeSet(ctx, f.admin, console.NewPracticeSet{
		Title: "Lab verbs", FocusArea: "Chemistry", Description: "Drills", ResourceURL: "https://example.org/verbs",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/verbs", ps.ResourceURL)

	_, err = f.svc.CreatePracticeSet(ctx, f.admin, console.NewPracticeSet{
		Title: "Lab verbs", FocusArea: "Chemistry", Description: "Drills", ResourceURL: "not a url",
	})
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.FieldMap(), "resourceUrl")

	_, err = f.svc.CreatePracticeSet(ctx, f.student, console.NewPracticeSet{Title: "x", FocusArea: "y", Description: "z"})
	assert.Equal(t, authz.ErrForbidden, err)
}

func TestService_UpdateUserRole(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   account.Account
		payload console.UpdateRole
		wantErr error
	}{
		{name: "teacher cannot", actor: f.teacher, payload: console.UpdateRole{UserID: f.student.ID, Role: "teacher"}, wantErr: authz.ErrForbidden},
		{name: "student cannot", actor: f.student, payload: console.UpdateRole{UserID: f.student.ID, Role: "admin"}, wantErr: authz.ErrForbidden},
		{name: "unknown user", actor: f.admin, payload: console.UpdateRole{UserID: "ghost", Role: "teacher"}, wantErr: account.ErrNotFound},
		{name: "self demotion", actor: f.admin, payload: console.UpdateRole{UserID: f.admin.ID, Role: "student"}, wantErr: console.ErrCannotModerateSelf},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.UpdateUserRole(ctx, tt.actor, tt.payload)
			assert.Equal(t, tt.wantErr, errors.Cause(err))
		})
	}

	t.Run("invalid role", func(t *testing.T) {
		_, err := f.svc.UpdateUserRole(ctx, f.admin, console.UpdateRole{UserID: f.student.ID, Role: "owner"})
		var verr *core.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Contains(t, verr.FieldMap(), "role")
	})

	t.Run("promotion", func(t *testing.T) {
		prof, err := f.svc.UpdateUserRole(ctx, f.admin, console.UpdateRole{UserID: f.student.ID, Role: " Teacher ", Organization: "Roosevelt"})
		require.NoError(t, err)
		assert.Equal(t, authz.RoleTeacher, prof.Role)
		assert.Equal(t, "Roosevelt", prof.Organization)

		// the promoted account can open the console right away
		_, err = f.svc.FetchDashboard(ctx, f.student)
		assert.NoError(t, err)
	})

	t.Run("admin may change own organization", func(t *testing.T) {
		prof, err := f.svc.UpdateUserRole(ctx, f.admin, console.UpdateRole{UserID: f.admin.ID, Role: "admin", Organization: "District"})
		require.NoError(t, err)
		assert.Equal(t, "District", prof.Organization)
	})
}

func TestService_UpdateUserStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.UpdateUserStatus(ctx, f.teacher, console.UpdateStatus{UserID: f.student.ID, Status: "banned"})
	assert.Equal(t, authz.ErrForbidden, err)

	_, err = f.svc.UpdateUserStatus(ctx, f.admin, console.UpdateStatus{UserID: f.admin.ID, Status: "banned"})
	assert.Equal(t, console.ErrCannotModerateSelf, err)

	_, err = f.svc.UpdateUserStatus(ctx, f.admin, console.UpdateStatus{UserID: f.student.ID, Status: "frozen"})
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr))

	prof, err := f.svc.UpdateUserStatus(ctx, f.admin, console.UpdateStatus{UserID: f.teacher.ID, Status: "BANNED"})
	require.NoError(t, err)
	assert.Equal(t, account.StatusBanned, prof.Status)

	// a banned teacher loses console access immediately
	_, err = f.svc.FetchDashboard(ctx, f.teacher)
	assert.Equal(t, authz.ErrForbidden, err)

	prof, err = f.svc.UpdateUserStatus(ctx, f.admin, console.UpdateStatus{UserID: f.teacher.ID, Status: "active"})
	require.NoError(t, err)
	assert.Equal(t, account.StatusActive, prof.Status)
}
