// Package permission resolves the effective permission matrix for a user
// and answers capability checks. Every ambiguous state resolves to "no
// access": a missing user, category, action or role record never grants
// anything.
package permission

import (
	authdomain "fieldline-backend/internal/auth/domain"
)

// Evaluator answers Can/CanAccess for one resolved user. Build it once per
// request from the authenticated user and their custom role (if any).
type Evaluator struct {
	matrix      authdomain.PermissionMatrix
	adminBypass bool
}

// NewEvaluator resolves the effective matrix. Resolution order:
//
//  1. custom role record, used verbatim (no merge with defaults)
//  2. admin system role: full access, matrix bypassed entirely
//  3. field technician defaults
//  4. read-only defaults
//
// A nil user (failed or missing authentication) gets an empty matrix. A
// user whose custom_role_id points at a missing role record falls to the
// read-only matrix, not the system-role defaults: the admin who assigned
// the role took that user off defaults on purpose.
func NewEvaluator(user *authdomain.User, customRole *authdomain.Role) *Evaluator {
	if user == nil {
		return &Evaluator{matrix: authdomain.PermissionMatrix{}}
	}

	if user.CustomRoleID != "" {
		if customRole != nil {
			matrix := customRole.Permissions
			if matrix == nil {
				matrix = authdomain.PermissionMatrix{}
			}
			return &Evaluator{matrix: matrix}
		}
		return &Evaluator{matrix: ReadOnlyMatrix()}
	}

	if user.Role == authdomain.SystemRoleAdmin {
		return &Evaluator{matrix: FullAccessMatrix(), adminBypass: true}
	}

	if user.IsFieldTechnician {
		return &Evaluator{matrix: TechnicianMatrix()}
	}

	return &Evaluator{matrix: ReadOnlyMatrix()}
}

// Can reports whether the user may perform action within category.
// Administrators without a custom role always pass, regardless of matrix
// contents.
func (e *Evaluator) Can(category, action string) bool {
	if e.adminBypass {
		return true
	}
	actions, ok := e.matrix[category]
	if !ok {
		return false
	}
	return actions[action]
}

// CanAccess reports whether a named feature is visible to the user. Unknown
// features are denied.
func (e *Evaluator) CanAccess(feature string) bool {
	if e.adminBypass {
		return true
	}
	checks, ok := featureChecks[feature]
	if !ok {
		return false
	}
	for _, c := range checks {
		if e.Can(c.category, c.action) {
			return true
		}
	}
	return false
}

// Matrix returns the resolved matrix, for the /me payload the frontend uses
// to hide disabled actions proactively.
func (e *Evaluator) Matrix() authdomain.PermissionMatrix {
	return e.matrix
}
