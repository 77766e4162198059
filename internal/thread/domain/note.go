package domain

import "time"

// InternalNote is a collaboration note on a thread, visible to the team only.
type InternalNote struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	ThreadID  string    `json:"thread_id" gorm:"index;not null"`
	UserID    string    `json:"user_id" gorm:"not null"`
	UserName  string    `json:"user_name"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (InternalNote) TableName() string {
	return "internal_notes"
}
