package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"fieldline-backend/internal/audit"
	authrepo "fieldline-backend/internal/auth/repository"
	projectrepo "fieldline-backend/internal/project/repository"
	threaddomain "fieldline-backend/internal/thread/domain"
	"fieldline-backend/internal/thread/repository"
	"fieldline-backend/internal/thread/status"
	"fieldline-backend/pkg/ai"
	gmailpkg "fieldline-backend/pkg/gmail"

	"github.com/google/uuid"
)

// Deps bundles the collaborators of the thread usecase. Recorder, AI,
// Gmail and Index may be nil; the corresponding features degrade to no-ops
// or errors instead of panics.
type Deps struct {
	Threads  repository.ThreadRepository
	Messages repository.MessageRepository
	Notes    repository.NoteRepository
	Links    repository.LinkedEntityRepository
	Audits   repository.AuditRepository
	Projects projectrepo.ProjectRepository
	Users    authrepo.UserRepository
	Recorder *audit.Recorder
	AI       ai.Provider
	Gmail    *gmailpkg.Service
	Mailbox  MailboxCredentials
	Index    ThreadIndexer
}

type threadUsecase struct {
	deps     Deps
	now      nowFunc
	notifier AssignmentNotifier
}

func NewThreadUsecase(deps Deps) ThreadUsecase {
	return &threadUsecase{
		deps: deps,
		now:  time.Now,
	}
}

func (u *threadUsecase) SetAssignmentNotifier(notifier AssignmentNotifier) {
	u.notifier = notifier
}

// view decorates a stored thread with its derived display state.
func (u *threadUsecase) view(t *threaddomain.EmailThread) *ThreadView {
	return &ThreadView{
		EmailThread:    t,
		EffectiveState: status.ComputeEffectiveState(t, u.now()),
		StatusChip:     status.ThreadStatusChip(t),
		LinkChip:       status.ThreadLinkChip(t),
		Pinned:         status.IsPinned(t),
	}
}

func (u *threadUsecase) ListThreads(filter repository.ThreadFilter) (*ThreadList, error) {
	threads, total, err := u.deps.Threads.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}

	views := make([]*ThreadView, 0, len(threads))
	for _, t := range threads {
		views = append(views, u.view(t))
	}

	return &ThreadList{Threads: views, Total: total}, nil
}

func (u *threadUsecase) GetThread(threadID string) (*ThreadDetail, error) {
	t, err := u.deps.Threads.FindByID(threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load thread: %w", err)
	}
	if t == nil {
		return nil, ErrThreadNotFound
	}

	messages, err := u.deps.Messages.ListByThread(threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	notes, err := u.deps.Notes.ListByThread(threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load notes: %w", err)
	}

	links, err := u.deps.Links.ListByThread(threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load linked entities: %w", err)
	}

	// History is display-only; a failed read should not break the detail view.
	history, err := u.deps.Audits.ListByThread(threadID, 50)
	if err != nil {
		log.Printf("[Thread] Failed to load audit history for %s: %v", threadID, err)
		history = nil
	}

	// Opening the detail view marks the thread read, locally and in Gmail.
	// Both writes are best-effort.
	if t.Unread {
		t.Unread = false
		if err := u.deps.Threads.UpdateFields(threadID, map[string]interface{}{"unread": false}); err != nil {
			log.Printf("[Thread] Failed to clear unread flag for %s: %v", threadID, err)
		}
		if u.deps.Gmail != nil && u.deps.Mailbox != nil && t.GmailThreadID != "" {
			go u.markGmailThreadRead(t.GmailThreadID)
		}
	}

	return &ThreadDetail{
		ThreadView: u.view(t),
		Messages:   messages,
		Notes:      notes,
		Links:      links,
		History:    history,
	}, nil
}

// markGmailThreadRead clears the UNREAD label in Gmail so the mailbox stays
// in step with the inbox UI.
func (u *threadUsecase) markGmailThreadRead(gmailThreadID string) {
	access, refresh, onRefresh, err := u.deps.Mailbox.Credentials()
	if err != nil {
		log.Printf("[Thread] Mailbox unavailable, skipping mark-read for %s: %v", gmailThreadID, err)
		return
	}
	if err := u.deps.Gmail.MarkThreadRead(context.Background(), access, refresh, gmailThreadID, onRefresh); err != nil {
		log.Printf("[Thread] Failed to mark Gmail thread %s read: %v", gmailThreadID, err)
	}
}

// record emits an audit event if a recorder is wired. Fire-and-forget: the
// primary mutation has already committed by the time this runs.
func (u *threadUsecase) record(eventType, threadID, userID, detail string) {
	if u.deps.Recorder == nil {
		return
	}
	u.deps.Recorder.Record(audit.Event{
		Type:     eventType,
		ThreadID: threadID,
		UserID:   userID,
		Detail:   detail,
	})
}

// mustExist loads a thread and maps missing rows to ErrThreadNotFound.
func (u *threadUsecase) mustExist(threadID string) (*threaddomain.EmailThread, error) {
	t, err := u.deps.Threads.FindByID(threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load thread: %w", err)
	}
	if t == nil {
		return nil, ErrThreadNotFound
	}
	return t, nil
}

func (u *threadUsecase) CloseThread(threadID, userID string) error {
	if _, err := u.mustExist(threadID); err != nil {
		return err
	}

	now := u.now()
	err := u.deps.Threads.UpdateFields(threadID, map[string]interface{}{
		"user_status": threaddomain.UserStatusClosed,
		"closed_at":   now,
		"closed_by":   userID,
	})
	if err != nil {
		return fmt.Errorf("failed to close thread: %w", err)
	}

	u.record(threaddomain.AuditThreadClosed, threadID, userID, "")
	return nil
}

func (u *threadUsecase) ReopenThread(threadID, userID string) error {
	if _, err := u.mustExist(threadID); err != nil {
		return err
	}

	err := u.deps.Threads.UpdateFields(threadID, map[string]interface{}{
		"user_status": threaddomain.UserStatusOpen,
		"closed_at":   nil,
		"closed_by":   "",
	})
	if err != nil {
		return fmt.Errorf("failed to reopen thread: %w", err)
	}

	u.record(threaddomain.AuditThreadReopened, threadID, userID, "")
	return nil
}

func (u *threadUsecase) PinThread(threadID, userID string) error {
	if _, err := u.mustExist(threadID); err != nil {
		return err
	}

	now := u.now()
	err := u.deps.Threads.UpdateFields(threadID, map[string]interface{}{
		"pinned_at":         now,
		"pinned_by_user_id": userID,
	})
	if err != nil {
		return fmt.Errorf("failed to pin thread: %w", err)
	}

	u.record(threaddomain.AuditThreadPinned, threadID, userID, "")
	return nil
}

func (u *threadUsecase) UnpinThread(threadID, userID string) error {
	if _, err := u.mustExist(threadID); err != nil {
		return err
	}

	err := u.deps.Threads.UpdateFields(threadID, map[string]interface{}{
		"pinned_at":         nil,
		"pinned_by_user_id": "",
	})
	if err != nil {
		return fmt.Errorf("failed to unpin thread: %w", err)
	}

	u.record(threaddomain.AuditThreadUnpinned, threadID, userID, "")
	return nil
}

func (u *threadUsecase) AssignThread(threadID, assigneeID, actorID string) error {
	if _, err := u.mustExist(threadID); err != nil {
		return err
	}

	fields := map[string]interface{}{
		"assigned_to":      assigneeID,
		"assigned_to_name": "",
		"assigned_at":      nil,
	}

	assigneeName := ""
	if assigneeID != "" {
		assignee, err := u.deps.Users.FindByID(assigneeID)
		if err != nil {
			return fmt.Errorf("failed to load assignee: %w", err)
		}
		if assignee == nil {
			return fmt.Errorf("assignee %s not found", assigneeID)
		}
		assigneeName = assignee.Name
		fields["assigned_to_name"] = assigneeName
		fields["assigned_at"] = u.now()
	}

	if err := u.deps.Threads.UpdateFields(threadID, fields); err != nil {
		return fmt.Errorf("failed to assign thread: %w", err)
	}

	u.record(threaddomain.AuditThreadAssigned, threadID, actorID, assigneeName)

	if u.notifier != nil && assigneeID != "" && assigneeID != actorID {
		actorName := ""
		if actor, err := u.deps.Users.FindByID(actorID); err == nil && actor != nil {
			actorName = actor.Name
		}
		t, err := u.deps.Threads.FindByID(threadID)
		if err == nil && t != nil {
			go u.notifier.PushAssignment(t, assigneeID, actorName)
		}
	}

	return nil
}

func (u *threadUsecase) DeleteThread(ctx context.Context, threadID, actorID string) error {
	if _, err := u.mustExist(threadID); err != nil {
		return err
	}

	if err := u.deps.Threads.SoftDelete(threadID); err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}

	// Drop the vector index entry so search stops returning the thread.
	if u.deps.Index != nil {
		if err := u.deps.Index.DeleteThread(ctx, threadID); err != nil {
			log.Printf("[Thread] Failed to remove %s from search index: %v", threadID, err)
		}
	}

	return nil
}

// Notes

func (u *threadUsecase) AddNote(threadID, userID, userName, body string) (*threaddomain.InternalNote, error) {
	if _, err := u.mustExist(threadID); err != nil {
		return nil, err
	}

	note := &threaddomain.InternalNote{
		ID:       uuid.New().String(),
		ThreadID: threadID,
		UserID:   userID,
		UserName: userName,
		Body:     body,
	}
	if err := u.deps.Notes.Create(note); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	return note, nil
}

func (u *threadUsecase) UpdateNote(noteID, body string) error {
	note, err := u.deps.Notes.FindByID(noteID)
	if err != nil {
		return fmt.Errorf("failed to load note: %w", err)
	}
	if note == nil {
		return fmt.Errorf("note %s not found", noteID)
	}

	note.Body = body
	if err := u.deps.Notes.Update(note); err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	return nil
}

func (u *threadUsecase) DeleteNote(noteID string) error {
	if err := u.deps.Notes.Delete(noteID); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return nil
}

// Mail

// SendReply sends an in-thread reply through the shared mailbox, records the
// outbound message locally and flips the thread to waiting_on_customer.
func (u *threadUsecase) SendReply(ctx context.Context, threadID, actorID, actorName, body string) error {
	t, err := u.mustExist(threadID)
	if err != nil {
		return err
	}

	messages, err := u.deps.Messages.ListByThread(threadID)
	if err != nil {
		return fmt.Errorf("failed to load messages: %w", err)
	}

	// Reply goes to the sender of the newest inbound message.
	var lastInbound *threaddomain.EmailMessage
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Direction == threaddomain.DirectionInbound {
			lastInbound = messages[i]
			break
		}
	}
	if lastInbound == nil {
		return ErrNoRecipient
	}

	access, refresh, onRefresh, err := u.deps.Mailbox.Credentials()
	if err != nil {
		return fmt.Errorf("failed to load mailbox credentials: %w", err)
	}

	subject := t.Subject
	if subject != "" && !strings.HasPrefix(strings.ToLower(subject), "re:") {
		subject = "Re: " + subject
	}

	inReplyTo, references := replyThreadingHeaders(messages, lastInbound)
	sentID, err := u.deps.Gmail.SendReply(ctx, access, refresh, gmailpkg.ReplyRequest{
		GmailThreadID: t.GmailThreadID,
		To:            lastInbound.FromEmail,
		FromName:      actorName,
		Subject:       subject,
		Body:          body,
		InReplyTo:     inReplyTo,
		References:    references,
	}, onRefresh)
	if err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}

	now := u.now()

	// Record the outbound message locally; the next Gmail sync will
	// reconcile by gmail_message_id.
	outbound := &threaddomain.EmailMessage{
		ID:             uuid.New().String(),
		ThreadID:       threadID,
		GmailMessageID: sentID,
		Direction:      threaddomain.DirectionOutbound,
		FromName:       actorName,
		ToEmails:       lastInbound.FromEmail,
		Subject:        subject,
		BodyHTML:       body,
		Snippet:        gmailpkg.PlainPreview(body, true, 200),
		SentAt:         now,
	}
	if err := u.deps.Messages.Upsert(outbound); err != nil {
		log.Printf("[Thread] Failed to store outbound message for %s: %v", threadID, err)
	}

	// An outbound reply means the ball is in the customer's court.
	err = u.deps.Threads.UpdateFields(threadID, map[string]interface{}{
		"inferred_state":           threaddomain.InferredWaitingOnCustomer,
		"next_action_status":       threaddomain.NextActionWaiting,
		"last_internal_message_at": now,
	})
	if err != nil {
		return fmt.Errorf("failed to update thread state after reply: %w", err)
	}

	return nil
}

// replyThreadingHeaders builds the In-Reply-To and References values for a
// reply so mail clients keep the conversation in one thread. References
// carries every known Message-ID in order; In-Reply-To names the message
// being answered.
func replyThreadingHeaders(messages []*threaddomain.EmailMessage, lastInbound *threaddomain.EmailMessage) (inReplyTo, references string) {
	if lastInbound != nil {
		inReplyTo = lastInbound.RFC822ID
	}
	ids := make([]string, 0, len(messages))
	for _, m := range messages {
		if m.RFC822ID != "" {
			ids = append(ids, m.RFC822ID)
		}
	}
	references = strings.Join(ids, " ")
	if references == "" {
		references = inReplyTo
	}
	return inReplyTo, references
}

// SyncInbox pulls the first pages of the shared inbox and reconciles them
// into local thread records. Returns the number of threads touched.
func (u *threadUsecase) SyncInbox(ctx context.Context) (int, error) {
	access, refresh, onRefresh, err := u.deps.Mailbox.Credentials()
	if err != nil {
		return 0, fmt.Errorf("failed to load mailbox credentials: %w", err)
	}

	synced := 0
	pageToken := ""
	for page := 0; page < 4; page++ {
		threads, next, err := u.deps.Gmail.ListThreads(ctx, access, refresh, 50, pageToken, onRefresh)
		if err != nil {
			return synced, fmt.Errorf("failed to list Gmail threads: %w", err)
		}

		for _, nt := range threads {
			if _, _, err := u.reconcileThread(ctx, nt); err != nil {
				log.Printf("[Sync] Failed to reconcile thread %s: %v", nt.GmailThreadID, err)
				continue
			}
			synced++
		}

		if next == "" {
			break
		}
		pageToken = next
	}

	log.Printf("[Sync] Reconciled %d threads", synced)
	return synced, nil
}

// SyncGmailThread fetches one thread from Gmail and reconciles it. The bool
// result reports whether a new external message arrived.
func (u *threadUsecase) SyncGmailThread(ctx context.Context, gmailThreadID string) (*threaddomain.EmailThread, bool, error) {
	access, refresh, onRefresh, err := u.deps.Mailbox.Credentials()
	if err != nil {
		return nil, false, fmt.Errorf("failed to load mailbox credentials: %w", err)
	}

	nt, err := u.deps.Gmail.GetThread(ctx, access, refresh, gmailThreadID, onRefresh)
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch Gmail thread: %w", err)
	}
	if nt == nil {
		return nil, false, nil
	}

	return u.reconcileThread(ctx, nt)
}

// reconcileThread merges a normalized Gmail thread into the local store:
// upserts the thread row and its messages, and re-derives the inferred
// state from the newest message's direction.
func (u *threadUsecase) reconcileThread(ctx context.Context, nt *gmailpkg.NormalizedThread) (*threaddomain.EmailThread, bool, error) {
	if nt == nil || len(nt.Messages) == 0 {
		return nil, false, nil
	}

	t, err := u.deps.Threads.FindByGmailThreadID(nt.GmailThreadID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up thread: %w", err)
	}

	isNew := t == nil
	if isNew {
		t = &threaddomain.EmailThread{
			ID:            uuid.New().String(),
			GmailThreadID: nt.GmailThreadID,
			InferredState: threaddomain.InferredNone,
		}
	}

	t.Subject = nt.Subject
	t.Snippet = nt.Snippet

	var lastInternal, lastExternal *time.Time
	newExternal := false
	unread := false
	for i := range nt.Messages {
		nm := &nt.Messages[i]

		direction := threaddomain.DirectionInbound
		if nm.SentByUs {
			direction = threaddomain.DirectionOutbound
		}
		if !nm.SentByUs && nm.Unread {
			unread = true
		}

		sentAt := nm.ReceivedAt
		if nm.SentByUs {
			if lastInternal == nil || sentAt.After(*lastInternal) {
				ts := sentAt
				lastInternal = &ts
			}
		} else {
			if lastExternal == nil || sentAt.After(*lastExternal) {
				ts := sentAt
				lastExternal = &ts
			}
			if t.LastExternalMessageAt == nil || sentAt.After(*t.LastExternalMessageAt) {
				newExternal = true
			}
		}

		msg := &threaddomain.EmailMessage{
			ID:             uuid.New().String(),
			ThreadID:       t.ID,
			GmailMessageID: nm.GmailMessageID,
			RFC822ID:       nm.RFC822ID,
			Direction:      direction,
			FromEmail:      nm.FromEmail,
			FromName:       nm.FromName,
			ToEmails:       nm.To,
			Subject:        nm.Subject,
			Snippet:        nm.Snippet,
			SentAt:         sentAt,
		}
		if nm.IsHTML {
			msg.BodyHTML = nm.Body
			msg.BodyText = gmailpkg.PlainPreview(nm.Body, true, 0)
		} else {
			msg.BodyText = nm.Body
		}

		if err := u.deps.Messages.Upsert(msg); err != nil {
			log.Printf("[Sync] Failed to upsert message %s: %v", nm.GmailMessageID, err)
		}
	}

	if lastInternal != nil {
		t.LastInternalMessageAt = lastInternal
	}
	if lastExternal != nil {
		t.LastExternalMessageAt = lastExternal
	}
	t.Unread = unread

	// Direction of the newest message drives the inferred state: a customer
	// message needs a reply, our own message means we are waiting on them.
	last := nt.Messages[len(nt.Messages)-1]
	if last.SentByUs {
		t.InferredState = threaddomain.InferredWaitingOnCustomer
		t.NextActionStatus = threaddomain.NextActionWaiting
	} else {
		t.InferredState = threaddomain.InferredNeedsReply
		t.NextActionStatus = threaddomain.NextActionNeedsAction
	}

	if isNew {
		if err := u.deps.Threads.Create(t); err != nil {
			return nil, false, fmt.Errorf("failed to create thread: %w", err)
		}
	} else {
		if err := u.deps.Threads.Save(t); err != nil {
			return nil, false, fmt.Errorf("failed to save thread: %w", err)
		}
	}

	// Secondary effects: vector index refresh and AI triage for threads
	// with fresh customer mail. Both are best-effort.
	if u.deps.Index != nil {
		body := last.Body
		if err := u.deps.Index.UpsertThread(ctx, t.ID, t.Subject, gmailpkg.PlainPreview(body, last.IsHTML, 0)); err != nil {
			log.Printf("[Sync] Failed to index thread %s: %v", t.ID, err)
		}
	}

	if newExternal && u.deps.AI != nil {
		if err := u.ProcessThreadWithAI(ctx, t.ID); err != nil {
			log.Printf("[Sync] AI triage failed for thread %s: %v", t.ID, err)
		}
	}

	return t, newExternal, nil
}
