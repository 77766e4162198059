package domain

import "time"

// Audit event types emitted by thread actions.
const (
	AuditThreadClosed     = "THREAD_CLOSED"
	AuditThreadReopened   = "THREAD_REOPENED"
	AuditThreadPinned     = "THREAD_PINNED"
	AuditThreadUnpinned   = "THREAD_UNPINNED"
	AuditThreadAssigned   = "THREAD_ASSIGNED"
	AuditThreadLinked     = "THREAD_LINKED"
	AuditThreadUnlinked   = "THREAD_UNLINKED"
	AuditSuggestionAction = "AI_SUGGESTION_ACTIONED"
)

// EmailAudit records who did what to a thread. Writes are best-effort; the
// inbox never depends on an audit row existing.
type EmailAudit struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Type      string    `json:"type" gorm:"index;not null"`
	ThreadID  string    `json:"thread_id" gorm:"index"`
	UserID    string    `json:"user_id"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (EmailAudit) TableName() string {
	return "email_audits"
}
