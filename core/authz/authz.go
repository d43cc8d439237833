// Package authz holds the role model and the permission predicates used by every privileged operation.
package authz

import (
	"strings"

	"github.com/pkg/errors"
)

// Role is the privilege level of an account.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"

	// AudienceGlobal targets every learner regardless of organization.
	AudienceGlobal = "global"
)

var (
	ErrForbidden   = errors.New("you do not have permission to perform this action")
	ErrInvalidRole = errors.New("invalid role")

	AllRoles = []Role{RoleStudent, RoleTeacher, RoleAdmin}

	rolePriorities = map[Role]int{
		// Admins: 30 - 21
		RoleAdmin: 30,

		// Teachers: 20 - 11
		RoleTeacher: 11,

		// Students: 10 - 1
		RoleStudent: 1,
	}
)

// ParseRole returns the role matching `s`, case-insensitively.
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	if !role.Valid() {
		return "", ErrInvalidRole
	}
	return role, nil
}

func (r Role) Valid() bool {
	_, ok := rolePriorities[r]
	return ok
}

func (r Role) String() string { return string(r) }

// RolePriority ranks roles; unknown roles rank 0.
func RolePriority(role Role) int {
	return rolePriorities[role]
}

func MaxRolePriority(roles ...Role) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

// CanAccessAdminConsole reports whether the role may open the admin console.
func CanAccessAdminConsole(role Role) bool {
	return role == RoleTeacher || role == RoleAdmin
}

// CanManageUsers reports whether the role may change other accounts' role, organization or status.
func CanManageUsers(role Role) bool {
	return role == RoleAdmin
}

// CanAssignRole reports whether `actor` may grant `target`: never above its own rank.
func CanAssignRole(actor, target Role) bool {
	return CanManageUsers(actor) && target.Valid() && RolePriority(target) <= RolePriority(actor)
}

// DefaultAudience is the audience used when none is requested: the organization if any, global otherwise.
func DefaultAudience(organization string) string {
	if org := strings.TrimSpace(organization); org != "" {
		return org
	}
	return AudienceGlobal
}

// CanSetAudience reports whether an actor with `role` belonging to `organization` may target `audience`.
// Admins may target any audience; teachers only their default one.
func CanSetAudience(role Role, organization, audience string) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleTeacher:
		return sameAudience(DefaultAudience(organization), audience)
	default:
		return false
	}
}

// ResolveAudience returns the effective audience for a new piece of content.
func ResolveAudience(role Role, organization, requested string) (string, error) {
	audience := strings.TrimSpace(requested)
	if audience == "" {
		audience = DefaultAudience(organization)
	}
	if strings.EqualFold(audience, AudienceGlobal) {
		audience = AudienceGlobal
	}
	if !CanSetAudience(role, organization, audience) {
		return "", ErrForbidden
	}
	return audience, nil
}

func sameAudience(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
