package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr error
	}{
		{in: "student", want: RoleStudent},
		{in: " Teacher ", want: RoleTeacher},
		{in: "ADMIN", want: RoleAdmin},
		{in: "owner", wantErr: ErrInvalidRole},
		{in: "", wantErr: ErrInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMaxRolePriority(t *testing.T) {
	assert.Equal(t, 0, MaxRolePriority())
	assert.Equal(t, 0, MaxRolePriority(Role("ghost")))
	assert.Equal(t, RolePriority(RoleTeacher), MaxRolePriority(RoleStudent, RoleTeacher))
	assert.Equal(t, RolePriority(RoleAdmin), MaxRolePriority(RoleAdmin, RoleStudent))
}

func TestConsolePredicates(t *testing.T) {
	tests := []struct {
		role          Role
		wantConsole   bool
		wantUserAdmin bool
	}{
		{role: RoleStudent},
		{role: RoleTeacher, wantConsole: true},
		{role: RoleAdmin, wantConsole: true, wantUserAdmin: true},
		{role: Role("ghost")},
	}
	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			assert.Equal(t, tt.wantConsole, CanAccessAdminConsole(tt.role))
			assert.Equal(t, tt.wantUserAdmin, CanManageUsers(tt.role))
		})
	}
}

func TestCanAssignRole(t *testing.T) {
	for _, target := range AllRoles {
		assert.True(t, CanAssignRole(RoleAdmin, target), target)
		assert.False(t, CanAssignRole(RoleTeacher, target), target)
		assert.False(t, CanAssignRole(RoleStudent, target), target)
	}
	assert.False(t, CanAssignRole(RoleAdmin, Role("owner")))
}

func TestResolveAudience(t *testing.T) {
	tests := []struct {
		name      string
		role      Role
		org       string
		requested string
		want      string
		wantErr   error
	}{
		{name: "admin default", role: RoleAdmin, want: AudienceGlobal},
		{name: "admin with org default", role: RoleAdmin, org: "Lincoln High", want: "Lincoln High"},
		{name: "admin any audience", role: RoleAdmin, org: "Lincoln High", requested: "Roosevelt Middle", want: "Roosevelt Middle"},
		{name: "admin global normalized", role: RoleAdmin, requested: " GLOBAL ", want: AudienceGlobal},
		{name: "teacher default org", role: RoleTeacher, org: "Lincoln High", want: "Lincoln High"},
		{name: "teacher own org any case", role: RoleTeacher, org: "Lincoln High", requested: "lincoln high", want: "lincoln high"},
		{name: "teacher other org", role: RoleTeacher, org: "Lincoln High", requested: "Roosevelt Middle", wantErr: ErrForbidden},
		{name: "teacher with org cannot go global", role: RoleTeacher, org: "Lincoln High", requested: "global", wantErr: ErrForbidden},
		{name: "teacher without org global", role: RoleTeacher, want: AudienceGlobal},
		{name: "teacher without org other", role: RoleTeacher, requested: "Lincoln High", wantErr: ErrForbidden},
		{name: "student", role: RoleStudent, wantErr: ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveAudience(tt.role, tt.org, tt.requested)
			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
