package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// PermissionMatrix maps category -> action -> allowed. Anything absent is
// denied.
type PermissionMatrix map[string]map[string]bool

// Value implements driver.Valuer so the matrix persists as a JSON column.
func (m PermissionMatrix) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *PermissionMatrix) Scan(value interface{}) error {
	if value == nil {
		*m = PermissionMatrix{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, m)
}

// Role is an admin-defined permission matrix that overrides the
// system-role-derived defaults for any user pointing at it.
type Role struct {
	ID          string           `json:"id" gorm:"primaryKey"`
	Name        string           `json:"name" gorm:"uniqueIndex;not null"`
	Description string           `json:"description,omitempty"`
	Permissions PermissionMatrix `json:"permissions" gorm:"type:jsonb"`
	CreatedBy   string           `json:"created_by"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (Role) TableName() string {
	return "roles"
}
