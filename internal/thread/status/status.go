// Package status derives a thread's display state from its stored workflow
// fields. Everything here is pure: list views call these per row on every
// render, so there must be no I/O and no hidden clock.
package status

import (
	"time"

	threaddomain "fieldline-backend/internal/thread/domain"
)

// WaitingAutoClearDays is how long a waiting_on_customer thread stays
// flagged after our last internal message before it silently clears.
const WaitingAutoClearDays = 14

// ComputeEffectiveState returns the canonical display state of a thread at
// the given instant. It is never stored; both list and detail views derive
// it from the same fields so they cannot drift.
//
// Rules, in order:
//   - nil thread or manually closed thread: none (closing always wins)
//   - waiting_on_customer decays to none once at least WaitingAutoClearDays
//     full days have passed since the last internal message
//   - waiting_on_customer without a last-internal-message timestamp never
//     decays (no reference point to measure from)
//   - needs_reply never decays by time; only a reply or a close resolves it
func ComputeEffectiveState(t *threaddomain.EmailThread, now time.Time) threaddomain.InferredState {
	if t == nil {
		return threaddomain.InferredNone
	}
	if t.UserStatus == threaddomain.UserStatusClosed {
		return threaddomain.InferredNone
	}

	base := t.InferredState
	if base == "" {
		base = threaddomain.InferredNone
	}

	if base == threaddomain.InferredWaitingOnCustomer && t.LastInternalMessageAt != nil {
		if now.Sub(*t.LastInternalMessageAt) >= WaitingAutoClearDays*24*time.Hour {
			return threaddomain.InferredNone
		}
	}

	return base
}

// StatusChip is a small badge shown on a thread row.
type StatusChip struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// ThreadStatusChip returns a badge only for the manual closed state. All
// other states surface through ComputeEffectiveState so that UI surfaces
// can opt into badges and inference independently.
func ThreadStatusChip(t *threaddomain.EmailThread) *StatusChip {
	if t == nil || t.UserStatus != threaddomain.UserStatusClosed {
		return nil
	}
	return &StatusChip{Label: "Closed", Color: "gray"}
}

// LinkChip describes the primary business-record link shown on a thread.
type LinkChip struct {
	Type   threaddomain.LinkedEntityType `json:"type"`
	Number string                        `json:"number"`
	Title  string                        `json:"title,omitempty"`
}

// ThreadLinkChip resolves the primary link badge: project wins over job.
// Only the canonical project_id/job_id fields are consulted; the legacy
// linked_* columns can hold stale pre-migration values.
func ThreadLinkChip(t *threaddomain.EmailThread) *LinkChip {
	if t == nil {
		return nil
	}
	if t.ProjectID != "" {
		return &LinkChip{Type: threaddomain.LinkedEntityProject, Number: t.ProjectNumber, Title: t.ProjectTitle}
	}
	if t.JobID != "" {
		return &LinkChip{Type: threaddomain.LinkedEntityJob, Number: t.JobNumber}
	}
	return nil
}

// IsPinned reports whether a thread is pinned to the top of the inbox.
func IsPinned(t *threaddomain.EmailThread) bool {
	return t != nil && t.PinnedAt != nil
}
