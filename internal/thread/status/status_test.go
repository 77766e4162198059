package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	threaddomain "fieldline-backend/internal/thread/domain"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func tsp(s string) *time.Time {
	t := ts(s)
	return &t
}

func TestComputeEffectiveState_ClosedOverridesEverything(t *testing.T) {
	now := ts("2024-06-01T00:00:00Z")

	for _, state := range []threaddomain.InferredState{
		threaddomain.InferredNeedsReply,
		threaddomain.InferredWaitingOnCustomer,
		threaddomain.InferredNone,
	} {
		thread := &threaddomain.EmailThread{
			UserStatus:            threaddomain.UserStatusClosed,
			InferredState:         state,
			LastInternalMessageAt: tsp("2024-01-01T00:00:00Z"),
		}
		assert.Equal(t, threaddomain.InferredNone, ComputeEffectiveState(thread, now), "state %q", state)
	}
}

func TestComputeEffectiveState_DecayBoundary(t *testing.T) {
	last := ts("2024-01-01T00:00:00Z")
	thread := &threaddomain.EmailThread{
		InferredState:         threaddomain.InferredWaitingOnCustomer,
		LastInternalMessageAt: &last,
	}

	// Exactly 14 full days clears.
	atBoundary := last.Add(WaitingAutoClearDays * 24 * time.Hour)
	assert.Equal(t, threaddomain.InferredNone, ComputeEffectiveState(thread, atBoundary))

	// 13.999 days does not.
	justBefore := atBoundary.Add(-90 * time.Second)
	assert.Equal(t, threaddomain.InferredWaitingOnCustomer, ComputeEffectiveState(thread, justBefore))

	// Well past the boundary stays cleared.
	assert.Equal(t, threaddomain.InferredNone, ComputeEffectiveState(thread, atBoundary.AddDate(1, 0, 0)))
}

func TestComputeEffectiveState_NoDecayWithoutReference(t *testing.T) {
	thread := &threaddomain.EmailThread{
		InferredState:         threaddomain.InferredWaitingOnCustomer,
		LastInternalMessageAt: nil,
	}

	for _, now := range []time.Time{
		ts("2024-01-01T00:00:00Z"),
		ts("2030-01-01T00:00:00Z"),
	} {
		assert.Equal(t, threaddomain.InferredWaitingOnCustomer, ComputeEffectiveState(thread, now))
	}
}

func TestComputeEffectiveState_NeedsReplyIsTimeInvariant(t *testing.T) {
	last := ts("2000-01-01T00:00:00Z")
	thread := &threaddomain.EmailThread{
		InferredState:         threaddomain.InferredNeedsReply,
		LastInternalMessageAt: &last,
	}

	// Decades after the last internal message, needs_reply still stands.
	assert.Equal(t, threaddomain.InferredNeedsReply, ComputeEffectiveState(thread, ts("2040-01-01T00:00:00Z")))
}

func TestComputeEffectiveState_NilThread(t *testing.T) {
	assert.Equal(t, threaddomain.InferredNone, ComputeEffectiveState(nil, time.Now()))
}

func TestComputeEffectiveState_EmptyInferredStateDefaultsToNone(t *testing.T) {
	thread := &threaddomain.EmailThread{}
	assert.Equal(t, threaddomain.InferredNone, ComputeEffectiveState(thread, time.Now()))
}

func TestComputeEffectiveState_EndToEndScenario(t *testing.T) {
	thread := &threaddomain.EmailThread{
		InferredState:         threaddomain.InferredWaitingOnCustomer,
		LastInternalMessageAt: tsp("2024-01-01T00:00:00Z"),
	}

	// 19 days later the waiting flag has cleared.
	assert.Equal(t, threaddomain.InferredNone, ComputeEffectiveState(thread, ts("2024-01-20T00:00:00Z")))
	// 4 days later it is still waiting.
	assert.Equal(t, threaddomain.InferredWaitingOnCustomer, ComputeEffectiveState(thread, ts("2024-01-05T00:00:00Z")))
}

func TestThreadStatusChip(t *testing.T) {
	open := &threaddomain.EmailThread{InferredState: threaddomain.InferredNeedsReply}
	assert.Nil(t, ThreadStatusChip(open))
	assert.Nil(t, ThreadStatusChip(nil))

	closed := &threaddomain.EmailThread{UserStatus: threaddomain.UserStatusClosed}
	chip := ThreadStatusChip(closed)
	if assert.NotNil(t, chip) {
		assert.Equal(t, "Closed", chip.Label)
	}
}

func TestThreadLinkChip_ProjectPrecedence(t *testing.T) {
	thread := &threaddomain.EmailThread{
		ProjectID:     "p1",
		ProjectNumber: "P-1042",
		ProjectTitle:  "Smith driveway gate",
		JobID:         "j1",
		JobNumber:     "J-77",
	}

	chip := ThreadLinkChip(thread)
	if assert.NotNil(t, chip) {
		assert.Equal(t, threaddomain.LinkedEntityProject, chip.Type)
		assert.Equal(t, "P-1042", chip.Number)
		assert.Equal(t, "Smith driveway gate", chip.Title)
	}
}

func TestThreadLinkChip_JobFallbackAndLegacyIgnored(t *testing.T) {
	jobOnly := &threaddomain.EmailThread{JobID: "j1", JobNumber: "J-77"}
	chip := ThreadLinkChip(jobOnly)
	if assert.NotNil(t, chip) {
		assert.Equal(t, threaddomain.LinkedEntityJob, chip.Type)
		assert.Equal(t, "J-77", chip.Number)
	}

	// A stale legacy link must not produce a chip.
	legacyOnly := &threaddomain.EmailThread{LegacyLinkedProjectID: "old-p", LegacyLinkedJobID: "old-j"}
	assert.Nil(t, ThreadLinkChip(legacyOnly))
	assert.Nil(t, ThreadLinkChip(nil))
}

func TestIsPinned(t *testing.T) {
	assert.False(t, IsPinned(nil))
	assert.False(t, IsPinned(&threaddomain.EmailThread{}))
	assert.True(t, IsPinned(&threaddomain.EmailThread{PinnedAt: tsp("2024-01-01T00:00:00Z")}))
}
