package usecase

import (
	"context"
	"fmt"

	projectdomain "fieldline-backend/internal/project/domain"
	threaddomain "fieldline-backend/internal/thread/domain"
	"fieldline-backend/pkg/ai"

	"github.com/google/uuid"
)

// LinkProject sets a project as the thread's primary business record.
// Linking a project supersedes any job link, and the legacy link columns
// are cleared so stale pre-migration values can never resurface.
func (u *threadUsecase) LinkProject(threadID, projectID, actorID string) error {
	if _, err := u.mustExist(threadID); err != nil {
		return err
	}

	project, err := u.deps.Projects.FindProjectByID(projectID)
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}
	if project == nil {
		return fmt.Errorf("project %s not found", projectID)
	}

	err = u.deps.Threads.UpdateFields(threadID, map[string]interface{}{
		"project_id":        project.ID,
		"project_number":    project.Number,
		"project_title":     project.Title,
		"job_id":            "",
		"job_number":        "",
		"linked_project_id": "",
		"linked_job_id":     "",
	})
	if err != nil {
		return fmt.Errorf("failed to link project: %w", err)
	}

	u.record(threaddomain.AuditThreadLinked, threadID, actorID, "project "+project.Number)
	return nil
}

// LinkJob sets a job as the thread's primary business record.
func (u *threadUsecase) LinkJob(threadID, jobID, actorID string) error {
	if _, err := u.mustExist(threadID); err != nil {
		return err
	}

	job, err := u.deps.Projects.FindJobByID(jobID)
	if err != nil {
		return fmt.Errorf("failed to load job: %w", err)
	}
	if job == nil {
		return fmt.Errorf("job %s not found", jobID)
	}

	err = u.deps.Threads.UpdateFields(threadID, map[string]interface{}{
		"project_id":        "",
		"project_number":    "",
		"project_title":     "",
		"job_id":            job.ID,
		"job_number":        job.Number,
		"linked_project_id": "",
		"linked_job_id":     "",
	})
	if err != nil {
		return fmt.Errorf("failed to link job: %w", err)
	}

	u.record(threaddomain.AuditThreadLinked, threadID, actorID, "job "+job.Number)
	return nil
}

// Unlink clears the thread's primary link entirely.
func (u *threadUsecase) Unlink(threadID, actorID string) error {
	if _, err := u.mustExist(threadID); err != nil {
		return err
	}

	err := u.deps.Threads.UpdateFields(threadID, map[string]interface{}{
		"project_id":        "",
		"project_number":    "",
		"project_title":     "",
		"job_id":            "",
		"job_number":        "",
		"linked_project_id": "",
		"linked_job_id":     "",
	})
	if err != nil {
		return fmt.Errorf("failed to unlink thread: %w", err)
	}

	u.record(threaddomain.AuditThreadUnlinked, threadID, actorID, "")
	return nil
}

// AddLink attaches a many-to-many annotation between the thread and a
// business record. Annotations are independent of the primary link.
func (u *threadUsecase) AddLink(threadID string, link *threaddomain.LinkedEntity) error {
	if _, err := u.mustExist(threadID); err != nil {
		return err
	}

	if link.ID == "" {
		link.ID = uuid.New().String()
	}
	link.EmailThreadID = threadID

	if err := u.deps.Links.Create(link); err != nil {
		return fmt.Errorf("failed to create linked entity: %w", err)
	}
	return nil
}

func (u *threadUsecase) RemoveLink(threadID, linkID string) error {
	if _, err := u.mustExist(threadID); err != nil {
		return err
	}

	if err := u.deps.Links.Delete(linkID); err != nil {
		return fmt.Errorf("failed to delete linked entity: %w", err)
	}
	return nil
}

// AI suggestion lifecycle

// AcceptSuggestion applies the thread's pending AI suggestion and clears it.
func (u *threadUsecase) AcceptSuggestion(ctx context.Context, threadID, actorID string) error {
	t, err := u.mustExist(threadID)
	if err != nil {
		return err
	}

	// The stored record id targets a project or a job depending on the
	// action type; applySuggestedAction reads the right one.
	action := ai.SuggestedAction{
		Type:      ai.SuggestedActionType(t.AISuggestedAction),
		ProjectID: t.AISuggestedRecordID,
		JobID:     t.AISuggestedRecordID,
		Title:     t.AISuggestedTitle,
	}
	if action.Type == "" || action.Type == ai.ActionNone {
		return ErrNoSuggestion
	}

	if err := u.applySuggestedAction(threadID, actorID, action); err != nil {
		return err
	}

	if err := u.clearSuggestion(threadID, nil, nil); err != nil {
		return err
	}

	u.record(threaddomain.AuditSuggestionAction, threadID, actorID, "accepted "+string(action.Type))
	return nil
}

// RejectSuggestion discards the suggestion and remembers the rejection so
// triage does not immediately re-suggest the same thing.
func (u *threadUsecase) RejectSuggestion(threadID, actorID string) error {
	if _, err := u.mustExist(threadID); err != nil {
		return err
	}

	now := u.now()
	if err := u.clearSuggestion(threadID, &now, nil); err != nil {
		return err
	}

	u.record(threaddomain.AuditSuggestionAction, threadID, actorID, "rejected")
	return nil
}

// DismissSuggestion hides the suggestion without judging it.
func (u *threadUsecase) DismissSuggestion(threadID, actorID string) error {
	if _, err := u.mustExist(threadID); err != nil {
		return err
	}

	now := u.now()
	if err := u.clearSuggestion(threadID, nil, &now); err != nil {
		return err
	}

	u.record(threaddomain.AuditSuggestionAction, threadID, actorID, "dismissed")
	return nil
}

// applySuggestedAction dispatches on the suggestion type. The switch is
// exhaustive over ai.SuggestedActionType; unknown types are an error, not
// a silent no-op.
func (u *threadUsecase) applySuggestedAction(threadID, actorID string, action ai.SuggestedAction) error {
	switch action.Type {
	case ai.ActionLinkProject:
		return u.LinkProject(threadID, action.ProjectID, actorID)

	case ai.ActionLinkJob:
		return u.LinkJob(threadID, action.JobID, actorID)

	case ai.ActionCreateProject:
		project := &projectdomain.Project{
			Title:       action.Title,
			Number:      generateRecordNumber("P"),
			Description: action.Description,
		}
		if err := u.deps.Projects.CreateProject(project); err != nil {
			return fmt.Errorf("failed to create suggested project: %w", err)
		}
		return u.LinkProject(threadID, project.ID, actorID)

	case ai.ActionCreateJob:
		job := &projectdomain.Job{
			Number:      generateRecordNumber("J"),
			Description: action.Description,
		}
		if err := u.deps.Projects.CreateJob(job); err != nil {
			return fmt.Errorf("failed to create suggested job: %w", err)
		}
		return u.LinkJob(threadID, job.ID, actorID)

	case ai.ActionNone:
		return ErrNoSuggestion

	default:
		return fmt.Errorf("unknown suggested action type %q", action.Type)
	}
}

func (u *threadUsecase) clearSuggestion(threadID string, rejectedAt, dismissedAt interface{}) error {
	err := u.deps.Threads.UpdateFields(threadID, map[string]interface{}{
		"ai_suggested_action":        "",
		"ai_suggested_record_id":     "",
		"ai_suggested_title":         "",
		"ai_suggestion_rejected_at":  rejectedAt,
		"ai_suggestion_dismissed_at": dismissedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to clear suggestion: %w", err)
	}
	return nil
}

// generateRecordNumber creates a short human-facing number for records
// created out of AI suggestions.
func generateRecordNumber(prefix string) string {
	id := uuid.New().String()
	return prefix + "-" + id[:8]
}
