package repository

import (
	threaddomain "fieldline-backend/internal/thread/domain"
)

// ThreadFilter narrows a thread listing. Zero values mean "no constraint".
type ThreadFilter struct {
	View       string // "open", "closed", "pinned", "unlinked", "all"
	AssignedTo string
	ProjectID  string
	JobID      string
	Search     string // subject/snippet substring
	Limit      int
	Offset     int
}

// ThreadRepository defines persistence for email threads.
type ThreadRepository interface {
	Create(thread *threaddomain.EmailThread) error
	Save(thread *threaddomain.EmailThread) error
	FindByID(id string) (*threaddomain.EmailThread, error)
	FindByGmailThreadID(gmailThreadID string) (*threaddomain.EmailThread, error)
	List(filter ThreadFilter) ([]*threaddomain.EmailThread, int64, error)

	// UpdateFields applies a partial update. Last write wins; there is no
	// optimistic locking on threads.
	UpdateFields(id string, fields map[string]interface{}) error
	SoftDelete(id string) error
}

// MessageRepository defines persistence for messages within threads.
type MessageRepository interface {
	Upsert(message *threaddomain.EmailMessage) error
	ListByThread(threadID string) ([]*threaddomain.EmailMessage, error)
}

// NoteRepository defines persistence for internal collaboration notes.
type NoteRepository interface {
	Create(note *threaddomain.InternalNote) error
	Update(note *threaddomain.InternalNote) error
	FindByID(id string) (*threaddomain.InternalNote, error)
	ListByThread(threadID string) ([]*threaddomain.InternalNote, error)
	Delete(id string) error
}

// LinkedEntityRepository defines persistence for thread/message-to-record
// annotations.
type LinkedEntityRepository interface {
	Create(link *threaddomain.LinkedEntity) error
	ListByThread(threadID string) ([]*threaddomain.LinkedEntity, error)
	Delete(id string) error
}

// AuditRepository persists audit events and serves the history panel.
type AuditRepository interface {
	Save(event *threaddomain.EmailAudit) error
	ListByThread(threadID string, limit int) ([]*threaddomain.EmailAudit, error)
}
