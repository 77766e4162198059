package permission

import authdomain "fieldline-backend/internal/auth/domain"

// Permission categories.
const (
	CategoryInbox     = "inbox"
	CategoryProjects  = "projects"
	CategoryJobs      = "jobs"
	CategoryCustomers = "customers"
	CategorySchedule  = "schedule"
	CategoryTeam      = "team"
	CategorySettings  = "settings"
)

// Permission actions.
const (
	ActionView        = "view"
	ActionViewOwnOnly = "view_own_only"
	ActionCreate      = "create"
	ActionEdit        = "edit"
	ActionDelete      = "delete"
	ActionClose       = "close"
	ActionAssign      = "assign"
	ActionLink        = "link"
	ActionSend        = "send"
	ActionManage      = "manage"
)

var allCategories = []string{
	CategoryInbox,
	CategoryProjects,
	CategoryJobs,
	CategoryCustomers,
	CategorySchedule,
	CategoryTeam,
	CategorySettings,
}

var allActions = []string{
	ActionView,
	ActionViewOwnOnly,
	ActionCreate,
	ActionEdit,
	ActionDelete,
	ActionClose,
	ActionAssign,
	ActionLink,
	ActionSend,
	ActionManage,
}

// FullAccessMatrix grants every action in every category. This is the
// default for administrators without a custom role.
func FullAccessMatrix() authdomain.PermissionMatrix {
	m := authdomain.PermissionMatrix{}
	for _, cat := range allCategories {
		m[cat] = map[string]bool{}
		for _, act := range allActions {
			m[cat][act] = true
		}
	}
	return m
}

// TechnicianMatrix is the default for field technicians: they work their
// own jobs and schedule, read the inbox and send replies, but do not manage
// team or settings.
func TechnicianMatrix() authdomain.PermissionMatrix {
	return authdomain.PermissionMatrix{
		CategoryInbox: {
			ActionView:  true,
			ActionSend:  true,
			ActionClose: true,
			ActionLink:  true,
		},
		CategoryProjects: {
			ActionViewOwnOnly: true,
		},
		CategoryJobs: {
			ActionViewOwnOnly: true,
			ActionEdit:        true,
		},
		CategoryCustomers: {
			ActionView: true,
		},
		CategorySchedule: {
			ActionViewOwnOnly: true,
		},
	}
}

// ReadOnlyMatrix is the fallback for everyone else, and for users whose
// custom role record cannot be loaded.
func ReadOnlyMatrix() authdomain.PermissionMatrix {
	return authdomain.PermissionMatrix{
		CategoryInbox:     {ActionView: true},
		CategoryProjects:  {ActionView: true},
		CategoryJobs:      {ActionView: true},
		CategoryCustomers: {ActionView: true},
		CategorySchedule:  {ActionView: true},
	}
}

// featureCheck names one (category, action) pair a feature may be unlocked by.
type featureCheck struct {
	category string
	action   string
}

// featureChecks maps a UI feature to the checks that grant access to it.
// The checks are OR-ed: a limited-scope grant still opens the page.
var featureChecks = map[string][]featureCheck{
	"inbox":     {{CategoryInbox, ActionView}},
	"projects":  {{CategoryProjects, ActionView}, {CategoryProjects, ActionViewOwnOnly}},
	"jobs":      {{CategoryJobs, ActionView}, {CategoryJobs, ActionViewOwnOnly}},
	"customers": {{CategoryCustomers, ActionView}},
	"schedule":  {{CategorySchedule, ActionView}, {CategorySchedule, ActionViewOwnOnly}},
	"team":      {{CategoryTeam, ActionView}, {CategoryTeam, ActionManage}},
	"settings":  {{CategorySettings, ActionManage}},
}
