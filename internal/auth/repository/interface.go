package repository

import authdomain "fieldline-backend/internal/auth/domain"

// UserRepository defines persistence for users and refresh tokens.
type UserRepository interface {
	Create(user *authdomain.User) error
	FindByEmail(email string) (*authdomain.User, error)
	FindByID(id string) (*authdomain.User, error)
	List() ([]*authdomain.User, error)
	Update(user *authdomain.User) error
	SaveRefreshToken(token *authdomain.RefreshToken) error
	FindRefreshToken(token string) (*authdomain.RefreshToken, error)
	DeleteRefreshToken(token string) error
}

// RoleRepository defines persistence for custom permission roles.
type RoleRepository interface {
	Create(role *authdomain.Role) error
	FindByID(id string) (*authdomain.Role, error)
	List() ([]*authdomain.Role, error)
	Update(role *authdomain.Role) error
	Delete(id string) error
}

// FCMTokenRepository defines persistence for push-notification device tokens.
type FCMTokenRepository interface {
	Save(token *authdomain.FCMToken) error
	GetTokensByUserID(userID string) ([]*authdomain.FCMToken, error)
	DeleteToken(token string) error
}
