package domain

import "time"

// Project is a larger piece of work (e.g. a full gate installation) that
// email threads link to as their primary business record.
type Project struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Number      string    `json:"number" gorm:"uniqueIndex;not null"`
	Title       string    `json:"title" gorm:"not null"`
	CustomerID  string    `json:"customer_id,omitempty" gorm:"index"`
	Status      string    `json:"status" gorm:"default:active"` // active, completed, cancelled
	AssignedTo  string    `json:"assigned_to,omitempty" gorm:"index"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Project) TableName() string {
	return "projects"
}

// Job is a single scheduled visit or repair, optionally under a project.
type Job struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	Number      string     `json:"number" gorm:"uniqueIndex;not null"`
	ProjectID   string     `json:"project_id,omitempty" gorm:"index"`
	CustomerID  string     `json:"customer_id,omitempty" gorm:"index"`
	Status      string     `json:"status" gorm:"default:scheduled"` // scheduled, in_progress, done, cancelled
	AssignedTo  string     `json:"assigned_to,omitempty" gorm:"index"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Job) TableName() string {
	return "jobs"
}

// Customer is the party a project or job is performed for.
type Customer struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Email     string    `json:"email,omitempty" gorm:"index"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Customer) TableName() string {
	return "customers"
}
