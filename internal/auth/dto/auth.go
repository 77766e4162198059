package dto

import authdomain "fieldline-backend/internal/auth/domain"

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

type GoogleSignInRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	User         *authdomain.User `json:"user"`
}

// MeResponse is the /me payload: the user plus their resolved permission
// matrix so the frontend can hide disabled actions up front.
type MeResponse struct {
	User        *authdomain.User            `json:"user"`
	Permissions authdomain.PermissionMatrix `json:"permissions"`
	Features    map[string]bool             `json:"features"`
}

type RoleRequest struct {
	Name        string                      `json:"name" binding:"required"`
	Description string                      `json:"description"`
	Permissions authdomain.PermissionMatrix `json:"permissions" binding:"required"`
}

type RegisterFCMTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type ConnectMailboxRequest struct {
	Code string `json:"code" binding:"required"`
}

type MailboxStatusResponse struct {
	Email     string `json:"email"`
	Connected bool   `json:"connected"`
}
