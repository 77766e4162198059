package usecase

import (
	"context"
	"fmt"
	"strings"

	threaddomain "fieldline-backend/internal/thread/domain"
	"fieldline-backend/pkg/ai"
)

// ProcessThreadWithAI runs triage on a thread: the model proposes an
// inferred state, a one-line summary and optionally an action (link or
// create a project/job). Results land in the thread's ai_* columns; a
// previously rejected suggestion is not re-raised.
func (u *threadUsecase) ProcessThreadWithAI(ctx context.Context, threadID string) error {
	if u.deps.AI == nil {
		return fmt.Errorf("no AI provider configured")
	}

	t, err := u.mustExist(threadID)
	if err != nil {
		return err
	}

	messages, err := u.deps.Messages.ListByThread(threadID)
	if err != nil {
		return fmt.Errorf("failed to load messages: %w", err)
	}
	if len(messages) == 0 {
		return nil
	}

	latest := messages[len(messages)-1]

	hints, err := u.projectHints()
	if err != nil {
		// Triage still works without matching hints.
		hints = nil
	}

	suggestion, err := u.deps.AI.SuggestTriage(ctx, ai.TriageRequest{
		Subject:       t.Subject,
		LatestMessage: messageText(latest),
		FromCustomer:  latest.Direction == threaddomain.DirectionInbound,
		CustomerEmail: latest.FromEmail,
		KnownProjects: hints,
	})
	if err != nil {
		return fmt.Errorf("triage failed: %w", err)
	}

	fields := map[string]interface{}{
		"ai_summary":    suggestion.Summary,
		"ai_triaged_at": u.now(),
	}

	switch suggestion.InferredState {
	case string(threaddomain.InferredNeedsReply):
		fields["inferred_state"] = threaddomain.InferredNeedsReply
		fields["next_action_status"] = threaddomain.NextActionNeedsAction
	case string(threaddomain.InferredWaitingOnCustomer):
		fields["inferred_state"] = threaddomain.InferredWaitingOnCustomer
		fields["next_action_status"] = threaddomain.NextActionWaiting
	case string(threaddomain.InferredNone):
		fields["inferred_state"] = threaddomain.InferredNone
		fields["next_action_status"] = threaddomain.NextActionFYI
	}

	// Do not re-suggest after the team already said no.
	if suggestion.Action.Type != ai.ActionNone && t.AISuggestionRejectedAt == nil {
		recordID := suggestion.Action.ProjectID
		if recordID == "" {
			recordID = suggestion.Action.JobID
		}
		fields["ai_suggested_action"] = string(suggestion.Action.Type)
		fields["ai_suggested_record_id"] = recordID
		fields["ai_suggested_title"] = suggestion.Action.Title
		fields["ai_suggestion_dismissed_at"] = nil
	}

	if err := u.deps.Threads.UpdateFields(threadID, fields); err != nil {
		return fmt.Errorf("failed to store triage result: %w", err)
	}

	return nil
}

// DraftReply asks the model for a reply draft over the whole conversation.
// The draft is returned to the caller, never sent or stored.
func (u *threadUsecase) DraftReply(ctx context.Context, threadID string) (string, error) {
	if u.deps.AI == nil {
		return "", fmt.Errorf("no AI provider configured")
	}

	t, err := u.mustExist(threadID)
	if err != nil {
		return "", err
	}

	messages, err := u.deps.Messages.ListByThread(threadID)
	if err != nil {
		return "", fmt.Errorf("failed to load messages: %w", err)
	}

	draft, err := u.deps.AI.DraftReply(ctx, threadTranscript(t, messages))
	if err != nil {
		return "", fmt.Errorf("failed to draft reply: %w", err)
	}

	return strings.TrimSpace(draft), nil
}

// SummarizeThread asks the model for a fresh summary of the whole
// conversation and stores it on the thread. Returns the summary text.
func (u *threadUsecase) SummarizeThread(ctx context.Context, threadID string) (string, error) {
	if u.deps.AI == nil {
		return "", fmt.Errorf("no AI provider configured")
	}

	t, err := u.mustExist(threadID)
	if err != nil {
		return "", err
	}

	messages, err := u.deps.Messages.ListByThread(threadID)
	if err != nil {
		return "", fmt.Errorf("failed to load messages: %w", err)
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("thread has no messages to summarize")
	}

	summary, err := u.deps.AI.SummarizeThread(ctx, threadTranscript(t, messages))
	if err != nil {
		return "", fmt.Errorf("failed to summarize thread: %w", err)
	}
	summary = strings.TrimSpace(summary)

	if err := u.deps.Threads.UpdateFields(threadID, map[string]interface{}{
		"ai_summary": summary,
	}); err != nil {
		return "", fmt.Errorf("failed to store summary: %w", err)
	}

	return summary, nil
}

// projectHints loads recent projects for the model's link matching.
func (u *threadUsecase) projectHints() ([]ai.ProjectHint, error) {
	projects, err := u.deps.Projects.ListProjects("", 25)
	if err != nil {
		return nil, err
	}

	hints := make([]ai.ProjectHint, 0, len(projects))
	for _, p := range projects {
		hints = append(hints, ai.ProjectHint{ID: p.ID, Number: p.Number, Title: p.Title})
	}
	return hints, nil
}

func messageText(m *threaddomain.EmailMessage) string {
	if m.BodyText != "" {
		return m.BodyText
	}
	if m.BodyHTML != "" {
		return m.BodyHTML
	}
	return m.Snippet
}

// threadTranscript flattens a conversation for summarize/draft prompts.
func threadTranscript(t *threaddomain.EmailThread, messages []*threaddomain.EmailMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\n\n", t.Subject)
	for _, m := range messages {
		who := m.FromEmail
		if m.Direction == threaddomain.DirectionOutbound {
			who = "us"
		}
		fmt.Fprintf(&b, "[%s] %s:\n%s\n\n", m.SentAt.Format("2006-01-02 15:04"), who, messageText(m))
	}
	return b.String()
}
