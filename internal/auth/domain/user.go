package domain

import "time"

// System roles. A user with a custom role is evaluated against that role's
// matrix instead of the system-role defaults.
const (
	SystemRoleAdmin  = "admin"
	SystemRoleMember = "member"
)

type User struct {
	ID                string    `json:"id" gorm:"primaryKey"`
	Email             string    `json:"email" gorm:"uniqueIndex;not null"`
	Password          string    `json:"-"` // Never return password in JSON
	Name              string    `json:"name"`
	AvatarURL         string    `json:"avatar_url,omitempty"`
	Provider          string    `json:"provider"` // "email" or "google"
	Role              string    `json:"role" gorm:"default:member"`
	CustomRoleID      string    `json:"custom_role_id,omitempty" gorm:"index"`
	IsFieldTechnician bool      `json:"is_field_technician" gorm:"default:false"`
	AccessToken       string    `json:"-"` // Gmail OAuth tokens, server-side only
	RefreshToken      string    `json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type RefreshToken struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FCMToken is a registered push-notification device token.
type FCMToken struct {
	Token     string    `json:"token" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"index;not null"`
	CreatedAt time.Time `json:"created_at"`
}
