package usecase

import (
	"context"

	authdomain "fieldline-backend/internal/auth/domain"
	authdto "fieldline-backend/internal/auth/dto"
	"fieldline-backend/internal/permission"
)

// AuthUsecase defines authentication, session and role-management use cases.
type AuthUsecase interface {
	Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error)
	Register(req *authdto.RegisterRequest) (*authdto.TokenResponse, error)
	GoogleSignIn(idToken string) (*authdto.TokenResponse, error)
	RefreshToken(refreshToken string) (*authdto.TokenResponse, error)
	Logout(refreshToken string) error
	ValidateToken(tokenString string) (*authdomain.User, error)

	// ResolvePermissions loads the user's custom role (if any) and builds
	// the evaluator. It never fails open: a broken role lookup produces a
	// restricted evaluator.
	ResolvePermissions(user *authdomain.User) *permission.Evaluator

	RegisterFCMToken(userID, token string) error
	UnregisterFCMToken(token string) error

	ListTeamMembers() ([]*authdomain.User, error)

	CreateRole(userID string, req *authdto.RoleRequest) (*authdomain.Role, error)
	ListRoles() ([]*authdomain.Role, error)
	UpdateRole(id string, req *authdto.RoleRequest) (*authdomain.Role, error)
	DeleteRole(id string) error

	// Shared mailbox connection (admin): authorization-code exchange that
	// lands Gmail-scoped tokens on the mailbox user record.
	MailboxAuthURL() string
	ConnectMailbox(ctx context.Context, code string) (*authdomain.User, error)
	DisconnectMailbox(ctx context.Context) error
	MailboxStatus() (*authdto.MailboxStatusResponse, error)
}
