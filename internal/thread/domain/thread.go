package domain

import "time"

// UserStatus is the manually set workflow status of a thread.
// Empty means the thread is open; "closed" is the only manual state.
type UserStatus string

const (
	UserStatusOpen   UserStatus = ""
	UserStatusClosed UserStatus = "closed"
)

// InferredState is the system-computed triage state of a thread.
type InferredState string

const (
	InferredNone              InferredState = "none"
	InferredNeedsReply        InferredState = "needs_reply"
	InferredWaitingOnCustomer InferredState = "waiting_on_customer"
)

// NextActionStatus is the coarse triage bucket the AI assigns on sync.
type NextActionStatus string

const (
	NextActionNeedsAction NextActionStatus = "needs_action"
	NextActionWaiting     NextActionStatus = "waiting"
	NextActionFYI         NextActionStatus = "fyi"
)

// EmailThread mirrors a Gmail conversation into our own record store,
// carrying the workflow, assignment and linking metadata the inbox works on.
type EmailThread struct {
	ID            string `json:"id" gorm:"primaryKey"`
	GmailThreadID string `json:"gmail_thread_id" gorm:"uniqueIndex;not null"`
	Subject       string `json:"subject"`
	Snippet       string `json:"snippet"`

	// Workflow
	Unread                bool             `json:"unread" gorm:"default:false"`
	UserStatus            UserStatus       `json:"user_status" gorm:"index"`
	NextActionStatus      NextActionStatus `json:"next_action_status" gorm:"default:needs_action"`
	InferredState         InferredState    `json:"inferred_state" gorm:"default:none"`
	LastInternalMessageAt *time.Time       `json:"last_internal_message_at"`
	LastExternalMessageAt *time.Time       `json:"last_external_message_at"`

	// Pin / close metadata
	PinnedAt       *time.Time `json:"pinned_at" gorm:"index"`
	PinnedByUserID string     `json:"pinned_by_user_id,omitempty"`
	ClosedAt       *time.Time `json:"closed_at"`
	ClosedBy       string     `json:"closed_by,omitempty"`

	// Primary link to a business record. project_id takes precedence over
	// job_id everywhere a single link is displayed.
	ProjectID     string `json:"project_id,omitempty" gorm:"index"`
	ProjectNumber string `json:"project_number,omitempty"`
	ProjectTitle  string `json:"project_title,omitempty"`
	JobID         string `json:"job_id,omitempty" gorm:"index"`
	JobNumber     string `json:"job_number,omitempty"`

	// Pre-migration link columns. Kept so old rows still round-trip; never
	// read when resolving the displayed link.
	LegacyLinkedProjectID string `json:"linked_project_id,omitempty" gorm:"column:linked_project_id"`
	LegacyLinkedJobID     string `json:"linked_job_id,omitempty" gorm:"column:linked_job_id"`

	// AI triage output
	AISummary               string     `json:"ai_summary,omitempty" gorm:"column:ai_summary"`
	AISuggestedAction       string     `json:"ai_suggested_action,omitempty" gorm:"column:ai_suggested_action"`
	AISuggestedRecordID     string     `json:"ai_suggested_record_id,omitempty" gorm:"column:ai_suggested_record_id"`
	AISuggestedTitle        string     `json:"ai_suggested_title,omitempty" gorm:"column:ai_suggested_title"`
	AITriagedAt             *time.Time `json:"ai_triaged_at,omitempty" gorm:"column:ai_triaged_at"`
	AISuggestionRejectedAt  *time.Time `json:"ai_suggestion_rejected_at,omitempty" gorm:"column:ai_suggestion_rejected_at"`
	AISuggestionDismissedAt *time.Time `json:"ai_suggestion_dismissed_at,omitempty" gorm:"column:ai_suggestion_dismissed_at"`

	// Assignment
	AssignedTo     string     `json:"assigned_to,omitempty" gorm:"index"`
	AssignedToName string     `json:"assigned_to_name,omitempty"`
	AssignedAt     *time.Time `json:"assigned_at,omitempty"`

	IsDeleted bool      `json:"is_deleted" gorm:"index;default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (EmailThread) TableName() string {
	return "email_threads"
}
