package usecase

import (
	"context"
	"errors"
	"time"

	threaddomain "fieldline-backend/internal/thread/domain"
	"fieldline-backend/internal/thread/repository"
	"fieldline-backend/internal/thread/status"
	gmailpkg "fieldline-backend/pkg/gmail"
)

var (
	ErrThreadNotFound = errors.New("thread not found")
	ErrNoRecipient    = errors.New("thread has no external recipient")
	ErrNoSuggestion   = errors.New("thread has no pending AI suggestion")
)

// ThreadView is a thread row with its derived display state. The derived
// fields are computed at read time, never stored.
type ThreadView struct {
	*threaddomain.EmailThread
	EffectiveState threaddomain.InferredState `json:"effective_state"`
	StatusChip     *status.StatusChip         `json:"status_chip,omitempty"`
	LinkChip       *status.LinkChip           `json:"link_chip,omitempty"`
	Pinned         bool                       `json:"pinned"`
}

// ThreadList is one page of inbox rows.
type ThreadList struct {
	Threads []*ThreadView `json:"threads"`
	Total   int64         `json:"total"`
}

// ThreadDetail is the full conversation view.
type ThreadDetail struct {
	*ThreadView
	Messages []*threaddomain.EmailMessage `json:"messages"`
	Notes    []*threaddomain.InternalNote `json:"notes"`
	Links    []*threaddomain.LinkedEntity `json:"links"`
	History  []*threaddomain.EmailAudit   `json:"history"`
}

// SearchHit is one semantic search result.
type SearchHit struct {
	Thread   *ThreadView `json:"thread"`
	Distance float64     `json:"distance"`
}

// MailboxCredentials supplies OAuth tokens for the shared company mailbox
// and persists refreshed tokens.
type MailboxCredentials interface {
	Credentials() (accessToken, refreshToken string, onRefresh gmailpkg.TokenUpdateFunc, err error)
}

// ThreadIndexer is the vector index used for semantic search. Implemented
// by pkg/chroma; nil disables indexing.
type ThreadIndexer interface {
	UpsertThread(ctx context.Context, threadID, subject, body string) error
	Search(ctx context.Context, query string, limit int) ([]string, []float64, error)
	DeleteThread(ctx context.Context, threadID string) error
}

// AssignmentNotifier pushes an out-of-band notification when a thread is
// assigned. Implemented by the notification service.
type AssignmentNotifier interface {
	PushAssignment(thread *threaddomain.EmailThread, assigneeID, assignedByName string)
}

// ThreadUsecase defines the inbox business logic.
type ThreadUsecase interface {
	// SetAssignmentNotifier wires the push channel for assignment events.
	// Called once during startup; assignment works without it.
	SetAssignmentNotifier(notifier AssignmentNotifier)

	// Reading
	ListThreads(filter repository.ThreadFilter) (*ThreadList, error)
	GetThread(threadID string) (*ThreadDetail, error)
	SemanticSearch(ctx context.Context, query string, limit int) ([]*SearchHit, error)

	// Workflow actions
	CloseThread(threadID, userID string) error
	ReopenThread(threadID, userID string) error
	PinThread(threadID, userID string) error
	UnpinThread(threadID, userID string) error
	AssignThread(threadID, assigneeID, actorID string) error
	DeleteThread(ctx context.Context, threadID, actorID string) error

	// Primary linking
	LinkProject(threadID, projectID, actorID string) error
	LinkJob(threadID, jobID, actorID string) error
	Unlink(threadID, actorID string) error

	// Linked-entity annotations
	AddLink(threadID string, link *threaddomain.LinkedEntity) error
	RemoveLink(threadID, linkID string) error

	// AI suggestion lifecycle
	AcceptSuggestion(ctx context.Context, threadID, actorID string) error
	RejectSuggestion(threadID, actorID string) error
	DismissSuggestion(threadID, actorID string) error
	ProcessThreadWithAI(ctx context.Context, threadID string) error
	DraftReply(ctx context.Context, threadID string) (string, error)
	SummarizeThread(ctx context.Context, threadID string) (string, error)

	// Notes
	AddNote(threadID, userID, userName, body string) (*threaddomain.InternalNote, error)
	UpdateNote(noteID, body string) error
	DeleteNote(noteID string) error

	// Mail
	SendReply(ctx context.Context, threadID, actorID, actorName, body string) error
	SyncInbox(ctx context.Context) (int, error)
	SyncGmailThread(ctx context.Context, gmailThreadID string) (*threaddomain.EmailThread, bool, error)
}

// nowFunc lets tests control time.
type nowFunc func() time.Time
