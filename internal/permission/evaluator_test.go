package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"

	authdomain "fieldline-backend/internal/auth/domain"
)

func TestAdminFastPath(t *testing.T) {
	admin := &authdomain.User{ID: "u1", Role: authdomain.SystemRoleAdmin}
	e := NewEvaluator(admin, nil)

	// Even categories/actions absent from every default matrix pass.
	assert.True(t, e.Can(CategoryInbox, ActionDelete))
	assert.True(t, e.Can("made_up_category", "made_up_action"))
	assert.True(t, e.CanAccess("settings"))
	assert.True(t, e.CanAccess("unknown_feature"))
}

func TestAdminWithCustomRoleIsRestricted(t *testing.T) {
	// An admin explicitly demoted to a custom role loses the bypass.
	admin := &authdomain.User{ID: "u1", Role: authdomain.SystemRoleAdmin, CustomRoleID: "r1"}
	role := &authdomain.Role{
		ID: "r1",
		Permissions: authdomain.PermissionMatrix{
			CategoryInbox: {ActionView: true},
		},
	}

	e := NewEvaluator(admin, role)
	assert.True(t, e.Can(CategoryInbox, ActionView))
	assert.False(t, e.Can(CategoryInbox, ActionClose))
	assert.False(t, e.Can(CategorySettings, ActionManage))
}

func TestCustomRoleUsedVerbatim(t *testing.T) {
	user := &authdomain.User{ID: "u1", Role: authdomain.SystemRoleMember, CustomRoleID: "r1", IsFieldTechnician: true}
	role := &authdomain.Role{
		ID: "r1",
		Permissions: authdomain.PermissionMatrix{
			CategoryProjects: {ActionView: true, ActionEdit: true},
		},
	}

	e := NewEvaluator(user, role)
	assert.True(t, e.Can(CategoryProjects, ActionEdit))
	// Technician defaults must not be merged in.
	assert.False(t, e.Can(CategoryInbox, ActionView))
	assert.False(t, e.Can(CategoryJobs, ActionViewOwnOnly))
}

func TestDanglingCustomRoleFailsClosedToReadOnly(t *testing.T) {
	user := &authdomain.User{ID: "u1", Role: authdomain.SystemRoleMember, CustomRoleID: "deleted-role"}

	e := NewEvaluator(user, nil)
	assert.True(t, e.Can(CategoryInbox, ActionView))
	assert.False(t, e.Can(CategoryInbox, ActionClose))
	assert.False(t, e.Can(CategorySettings, ActionManage))
}

func TestTechnicianDefaults(t *testing.T) {
	tech := &authdomain.User{ID: "u1", Role: authdomain.SystemRoleMember, IsFieldTechnician: true}
	e := NewEvaluator(tech, nil)

	assert.True(t, e.Can(CategoryInbox, ActionSend))
	assert.True(t, e.Can(CategoryJobs, ActionViewOwnOnly))
	assert.False(t, e.Can(CategoryJobs, ActionView))
	assert.False(t, e.Can(CategoryTeam, ActionManage))
}

func TestFailClosedOnUnknownPermission(t *testing.T) {
	user := &authdomain.User{ID: "u1", Role: authdomain.SystemRoleMember}
	e := NewEvaluator(user, nil)

	assert.NotPanics(t, func() {
		assert.False(t, e.Can("nonexistent_category", "x"))
		assert.False(t, e.Can(CategoryInbox, "nonexistent_action"))
	})
}

func TestNilUserHasNoAccess(t *testing.T) {
	e := NewEvaluator(nil, nil)

	assert.False(t, e.Can(CategoryInbox, ActionView))
	assert.False(t, e.CanAccess("inbox"))
}

func TestCanAccessIsAnOrOfChecks(t *testing.T) {
	// Limited-scope schedule view still opens the schedule page.
	role := &authdomain.Role{
		ID: "r1",
		Permissions: authdomain.PermissionMatrix{
			CategorySchedule: {ActionViewOwnOnly: true},
		},
	}
	user := &authdomain.User{ID: "u1", CustomRoleID: "r1"}

	e := NewEvaluator(user, role)
	assert.True(t, e.CanAccess("schedule"))
	assert.False(t, e.Can(CategorySchedule, ActionView))
	assert.False(t, e.CanAccess("inbox"))
}

func TestCustomRoleWithNilMatrix(t *testing.T) {
	user := &authdomain.User{ID: "u1", CustomRoleID: "r1"}
	role := &authdomain.Role{ID: "r1", Permissions: nil}

	e := NewEvaluator(user, role)
	assert.False(t, e.Can(CategoryInbox, ActionView))
}
