package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"fieldline-backend/internal/audit"
	authdomain "fieldline-backend/internal/auth/domain"
	projectdomain "fieldline-backend/internal/project/domain"
	threaddomain "fieldline-backend/internal/thread/domain"
	"fieldline-backend/internal/thread/repository"
	"fieldline-backend/pkg/ai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeThreadRepo keeps threads in memory and records every partial update.
type fakeThreadRepo struct {
	threads     map[string]*threaddomain.EmailThread
	updates     []map[string]interface{}
	failUpdates bool
}

func newFakeThreadRepo(threads ...*threaddomain.EmailThread) *fakeThreadRepo {
	repo := &fakeThreadRepo{threads: map[string]*threaddomain.EmailThread{}}
	for _, t := range threads {
		repo.threads[t.ID] = t
	}
	return repo
}

func (f *fakeThreadRepo) Create(t *threaddomain.EmailThread) error {
	f.threads[t.ID] = t
	return nil
}

func (f *fakeThreadRepo) Save(t *threaddomain.EmailThread) error {
	f.threads[t.ID] = t
	return nil
}

func (f *fakeThreadRepo) FindByID(id string) (*threaddomain.EmailThread, error) {
	return f.threads[id], nil
}

func (f *fakeThreadRepo) FindByGmailThreadID(gmailThreadID string) (*threaddomain.EmailThread, error) {
	for _, t := range f.threads {
		if t.GmailThreadID == gmailThreadID {
			return t, nil
		}
	}
	return nil, nil
}

func (f *fakeThreadRepo) List(filter repository.ThreadFilter) ([]*threaddomain.EmailThread, int64, error) {
	var out []*threaddomain.EmailThread
	for _, t := range f.threads {
		out = append(out, t)
	}
	return out, int64(len(out)), nil
}

func (f *fakeThreadRepo) UpdateFields(id string, fields map[string]interface{}) error {
	if f.failUpdates {
		return errors.New("update failed")
	}
	f.updates = append(f.updates, fields)
	return nil
}

func (f *fakeThreadRepo) SoftDelete(id string) error {
	if t, ok := f.threads[id]; ok {
		t.IsDeleted = true
	}
	return nil
}

func (f *fakeThreadRepo) lastUpdate() map[string]interface{} {
	if len(f.updates) == 0 {
		return nil
	}
	return f.updates[len(f.updates)-1]
}

type fakeMessageRepo struct {
	messages []*threaddomain.EmailMessage
}

func (f *fakeMessageRepo) Upsert(m *threaddomain.EmailMessage) error {
	f.messages = append(f.messages, m)
	return nil
}

func (f *fakeMessageRepo) ListByThread(threadID string) ([]*threaddomain.EmailMessage, error) {
	var out []*threaddomain.EmailMessage
	for _, m := range f.messages {
		if m.ThreadID == threadID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeNoteRepo struct {
	notes map[string]*threaddomain.InternalNote
}

func (f *fakeNoteRepo) Create(n *threaddomain.InternalNote) error {
	if f.notes == nil {
		f.notes = map[string]*threaddomain.InternalNote{}
	}
	f.notes[n.ID] = n
	return nil
}

func (f *fakeNoteRepo) Update(n *threaddomain.InternalNote) error {
	f.notes[n.ID] = n
	return nil
}

func (f *fakeNoteRepo) FindByID(id string) (*threaddomain.InternalNote, error) {
	return f.notes[id], nil
}

func (f *fakeNoteRepo) ListByThread(threadID string) ([]*threaddomain.InternalNote, error) {
	return nil, nil
}

func (f *fakeNoteRepo) Delete(id string) error {
	delete(f.notes, id)
	return nil
}

type fakeLinkRepo struct {
	links []*threaddomain.LinkedEntity
}

func (f *fakeLinkRepo) Create(l *threaddomain.LinkedEntity) error {
	f.links = append(f.links, l)
	return nil
}

func (f *fakeLinkRepo) ListByThread(threadID string) ([]*threaddomain.LinkedEntity, error) {
	return f.links, nil
}

func (f *fakeLinkRepo) Delete(id string) error { return nil }

type fakeAuditRepo struct{}

func (f *fakeAuditRepo) Save(e *threaddomain.EmailAudit) error { return nil }
func (f *fakeAuditRepo) ListByThread(threadID string, limit int) ([]*threaddomain.EmailAudit, error) {
	return nil, nil
}

type fakeProjectRepo struct {
	projects map[string]*projectdomain.Project
	jobs     map[string]*projectdomain.Job
	created  []*projectdomain.Project
}

func (f *fakeProjectRepo) CreateProject(p *projectdomain.Project) error {
	if p.ID == "" {
		p.ID = "generated-project"
	}
	if f.projects == nil {
		f.projects = map[string]*projectdomain.Project{}
	}
	f.projects[p.ID] = p
	f.created = append(f.created, p)
	return nil
}

func (f *fakeProjectRepo) FindProjectByID(id string) (*projectdomain.Project, error) {
	return f.projects[id], nil
}

func (f *fakeProjectRepo) ListProjects(search string, limit int) ([]*projectdomain.Project, error) {
	var out []*projectdomain.Project
	for _, p := range f.projects {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProjectRepo) CreateJob(j *projectdomain.Job) error {
	if j.ID == "" {
		j.ID = "generated-job"
	}
	if f.jobs == nil {
		f.jobs = map[string]*projectdomain.Job{}
	}
	f.jobs[j.ID] = j
	return nil
}

func (f *fakeProjectRepo) FindJobByID(id string) (*projectdomain.Job, error) {
	return f.jobs[id], nil
}

func (f *fakeProjectRepo) ListJobs(search string, limit int) ([]*projectdomain.Job, error) {
	return nil, nil
}

func (f *fakeProjectRepo) FindCustomerByEmail(email string) (*projectdomain.Customer, error) {
	return nil, nil
}

type fakeUserRepo struct {
	users map[string]*authdomain.User
}

func (f *fakeUserRepo) Create(u *authdomain.User) error                { return nil }
func (f *fakeUserRepo) FindByEmail(e string) (*authdomain.User, error) { return nil, nil }
func (f *fakeUserRepo) FindByID(id string) (*authdomain.User, error) {
	return f.users[id], nil
}
func (f *fakeUserRepo) List() ([]*authdomain.User, error)                 { return nil, nil }
func (f *fakeUserRepo) Update(u *authdomain.User) error                   { return nil }
func (f *fakeUserRepo) SaveRefreshToken(t *authdomain.RefreshToken) error { return nil }
func (f *fakeUserRepo) FindRefreshToken(t string) (*authdomain.RefreshToken, error) {
	return nil, nil
}
func (f *fakeUserRepo) DeleteRefreshToken(t string) error { return nil }

// failingAuditStore always fails, simulating an unreachable audit table.
type failingAuditStore struct{}

func (f *failingAuditStore) Save(e *threaddomain.EmailAudit) error {
	return errors.New("audit store down")
}

func newTestUsecase(threads *fakeThreadRepo, recorder *audit.Recorder) *threadUsecase {
	u := NewThreadUsecase(Deps{
		Threads:  threads,
		Messages: &fakeMessageRepo{},
		Notes:    &fakeNoteRepo{},
		Links:    &fakeLinkRepo{},
		Audits:   &fakeAuditRepo{},
		Projects: &fakeProjectRepo{},
		Users:    &fakeUserRepo{},
		Recorder: recorder,
	}).(*threadUsecase)
	return u
}

func TestCloseThreadPersistsWhenAuditStoreIsDown(t *testing.T) {
	threads := newFakeThreadRepo(&threaddomain.EmailThread{ID: "t1"})

	recorder := audit.NewRecorder(&failingAuditStore{}, 1)
	recorder.Start()
	defer recorder.Stop()

	u := newTestUsecase(threads, recorder)

	err := u.CloseThread("t1", "user-1")
	require.NoError(t, err)

	update := threads.lastUpdate()
	require.NotNil(t, update)
	assert.Equal(t, threaddomain.UserStatusClosed, update["user_status"])
	assert.Equal(t, "user-1", update["closed_by"])
	assert.NotNil(t, update["closed_at"])
}

func TestCloseThreadNotFound(t *testing.T) {
	u := newTestUsecase(newFakeThreadRepo(), nil)

	err := u.CloseThread("missing", "user-1")
	assert.ErrorIs(t, err, ErrThreadNotFound)
}

func TestReopenThreadClearsCloseMetadata(t *testing.T) {
	threads := newFakeThreadRepo(&threaddomain.EmailThread{ID: "t1", UserStatus: threaddomain.UserStatusClosed})
	u := newTestUsecase(threads, nil)

	require.NoError(t, u.ReopenThread("t1", "user-1"))

	update := threads.lastUpdate()
	assert.Equal(t, threaddomain.UserStatusOpen, update["user_status"])
	assert.Nil(t, update["closed_at"])
	assert.Equal(t, "", update["closed_by"])
}

func TestPinAndUnpinThread(t *testing.T) {
	threads := newFakeThreadRepo(&threaddomain.EmailThread{ID: "t1"})
	u := newTestUsecase(threads, nil)

	require.NoError(t, u.PinThread("t1", "user-1"))
	assert.NotNil(t, threads.lastUpdate()["pinned_at"])
	assert.Equal(t, "user-1", threads.lastUpdate()["pinned_by_user_id"])

	require.NoError(t, u.UnpinThread("t1", "user-1"))
	assert.Nil(t, threads.lastUpdate()["pinned_at"])
}

func TestPrimaryMutationFailureIsSurfaced(t *testing.T) {
	threads := newFakeThreadRepo(&threaddomain.EmailThread{ID: "t1"})
	threads.failUpdates = true
	u := newTestUsecase(threads, nil)

	err := u.CloseThread("t1", "user-1")
	assert.Error(t, err)
}

func TestAssignThreadResolvesAssigneeName(t *testing.T) {
	threads := newFakeThreadRepo(&threaddomain.EmailThread{ID: "t1"})
	u := newTestUsecase(threads, nil)
	u.deps.Users = &fakeUserRepo{users: map[string]*authdomain.User{
		"tech-1": {ID: "tech-1", Name: "Sam Rivera"},
	}}

	require.NoError(t, u.AssignThread("t1", "tech-1", "admin-1"))

	update := threads.lastUpdate()
	assert.Equal(t, "tech-1", update["assigned_to"])
	assert.Equal(t, "Sam Rivera", update["assigned_to_name"])
	assert.NotNil(t, update["assigned_at"])
}

func TestAssignThreadUnknownAssignee(t *testing.T) {
	threads := newFakeThreadRepo(&threaddomain.EmailThread{ID: "t1"})
	u := newTestUsecase(threads, nil)

	err := u.AssignThread("t1", "nobody", "admin-1")
	assert.Error(t, err)
	assert.Empty(t, threads.updates)
}

func TestUnassignClearsAssignment(t *testing.T) {
	threads := newFakeThreadRepo(&threaddomain.EmailThread{ID: "t1", AssignedTo: "tech-1"})
	u := newTestUsecase(threads, nil)

	require.NoError(t, u.AssignThread("t1", "", "admin-1"))

	update := threads.lastUpdate()
	assert.Equal(t, "", update["assigned_to"])
	assert.Nil(t, update["assigned_at"])
}

func TestLinkProjectClearsJobAndLegacyColumns(t *testing.T) {
	threads := newFakeThreadRepo(&threaddomain.EmailThread{
		ID:                    "t1",
		JobID:                 "job-9",
		JobNumber:             "J-9",
		LegacyLinkedProjectID: "stale",
	})
	u := newTestUsecase(threads, nil)
	u.deps.Projects = &fakeProjectRepo{projects: map[string]*projectdomain.Project{
		"p1": {ID: "p1", Number: "P-100", Title: "Gate install"},
	}}

	require.NoError(t, u.LinkProject("t1", "p1", "user-1"))

	update := threads.lastUpdate()
	assert.Equal(t, "p1", update["project_id"])
	assert.Equal(t, "P-100", update["project_number"])
	assert.Equal(t, "", update["job_id"])
	assert.Equal(t, "", update["linked_project_id"])
	assert.Equal(t, "", update["linked_job_id"])
}

func TestLinkProjectUnknownProject(t *testing.T) {
	threads := newFakeThreadRepo(&threaddomain.EmailThread{ID: "t1"})
	u := newTestUsecase(threads, nil)

	err := u.LinkProject("t1", "missing", "user-1")
	assert.Error(t, err)
	assert.Empty(t, threads.updates)
}

func TestUnlinkClearsEverything(t *testing.T) {
	threads := newFakeThreadRepo(&threaddomain.EmailThread{ID: "t1", ProjectID: "p1"})
	u := newTestUsecase(threads, nil)

	require.NoError(t, u.Unlink("t1", "user-1"))

	update := threads.lastUpdate()
	for _, field := range []string{"project_id", "project_number", "project_title", "job_id", "job_number", "linked_project_id", "linked_job_id"} {
		assert.Equal(t, "", update[field], field)
	}
}

func TestAcceptSuggestionLinkProject(t *testing.T) {
	threads := newFakeThreadRepo(&threaddomain.EmailThread{
		ID:                  "t1",
		AISuggestedAction:   "link_project",
		AISuggestedRecordID: "p1",
	})
	u := newTestUsecase(threads, nil)
	u.deps.Projects = &fakeProjectRepo{projects: map[string]*projectdomain.Project{
		"p1": {ID: "p1", Number: "P-100", Title: "Gate install"},
	}}

	require.NoError(t, u.AcceptSuggestion(context.Background(), "t1", "user-1"))

	// Two updates: the link itself, then the suggestion clear.
	require.Len(t, threads.updates, 2)
	assert.Equal(t, "p1", threads.updates[0]["project_id"])
	assert.Equal(t, "", threads.updates[1]["ai_suggested_action"])
}

func TestAcceptSuggestionCreateProject(t *testing.T) {
	threads := newFakeThreadRepo(&threaddomain.EmailThread{
		ID:                "t1",
		AISuggestedAction: "create_project",
		AISuggestedTitle:  "New opener for Main St",
	})
	u := newTestUsecase(threads, nil)
	projects := &fakeProjectRepo{}
	u.deps.Projects = projects

	require.NoError(t, u.AcceptSuggestion(context.Background(), "t1", "user-1"))

	require.Len(t, projects.created, 1)
	assert.Equal(t, "New opener for Main St", projects.created[0].Title)
	assert.Equal(t, projects.created[0].ID, threads.updates[0]["project_id"])
}

func TestAcceptSuggestionWithoutPending(t *testing.T) {
	threads := newFakeThreadRepo(&threaddomain.EmailThread{ID: "t1"})
	u := newTestUsecase(threads, nil)

	err := u.AcceptSuggestion(context.Background(), "t1", "user-1")
	assert.ErrorIs(t, err, ErrNoSuggestion)
}

func TestRejectSuggestionSetsRejectedAt(t *testing.T) {
	threads := newFakeThreadRepo(&threaddomain.EmailThread{ID: "t1", AISuggestedAction: "link_project"})
	u := newTestUsecase(threads, nil)

	require.NoError(t, u.RejectSuggestion("t1", "user-1"))

	update := threads.lastUpdate()
	assert.Equal(t, "", update["ai_suggested_action"])
	assert.NotNil(t, update["ai_suggestion_rejected_at"])
	assert.Nil(t, update["ai_suggestion_dismissed_at"])
}

func TestListThreadsComputesEffectiveStatePerRow(t *testing.T) {
	old := time.Now().Add(-20 * 24 * time.Hour)
	recent := time.Now().Add(-time.Hour)

	threads := newFakeThreadRepo(
		&threaddomain.EmailThread{ID: "decayed", InferredState: threaddomain.InferredWaitingOnCustomer, LastInternalMessageAt: &old},
		&threaddomain.EmailThread{ID: "waiting", InferredState: threaddomain.InferredWaitingOnCustomer, LastInternalMessageAt: &recent},
	)
	u := newTestUsecase(threads, nil)

	list, err := u.ListThreads(repository.ThreadFilter{})
	require.NoError(t, err)
	require.Len(t, list.Threads, 2)

	byID := map[string]*ThreadView{}
	for _, v := range list.Threads {
		byID[v.EmailThread.ID] = v
	}
	assert.Equal(t, threaddomain.InferredNone, byID["decayed"].EffectiveState)
	assert.Equal(t, threaddomain.InferredWaitingOnCustomer, byID["waiting"].EffectiveState)
}

func TestAddNote(t *testing.T) {
	threads := newFakeThreadRepo(&threaddomain.EmailThread{ID: "t1"})
	u := newTestUsecase(threads, nil)

	note, err := u.AddNote("t1", "user-1", "Sam", "call back tomorrow")
	require.NoError(t, err)
	assert.NotEmpty(t, note.ID)
	assert.Equal(t, "t1", note.ThreadID)

	require.NoError(t, u.UpdateNote(note.ID, "call back Friday"))
	updated, _ := u.deps.Notes.FindByID(note.ID)
	assert.Equal(t, "call back Friday", updated.Body)
}

// stubAI returns canned model output.
type stubAI struct {
	summary string
	draft   string
}

func (s *stubAI) SummarizeThread(ctx context.Context, threadText string) (string, error) {
	return s.summary, nil
}

func (s *stubAI) SuggestTriage(ctx context.Context, req ai.TriageRequest) (*ai.TriageSuggestion, error) {
	return &ai.TriageSuggestion{}, nil
}

func (s *stubAI) DraftReply(ctx context.Context, threadText string) (string, error) {
	return s.draft, nil
}

func TestGetThreadClearsUnreadFlag(t *testing.T) {
	threads := newFakeThreadRepo(&threaddomain.EmailThread{ID: "t1", Unread: true})
	u := newTestUsecase(threads, nil)

	detail, err := u.GetThread("t1")
	require.NoError(t, err)

	assert.False(t, detail.EmailThread.Unread)
	update := threads.lastUpdate()
	require.NotNil(t, update)
	assert.Equal(t, false, update["unread"])
}

func TestGetThreadLeavesReadThreadAlone(t *testing.T) {
	threads := newFakeThreadRepo(&threaddomain.EmailThread{ID: "t1"})
	u := newTestUsecase(threads, nil)

	_, err := u.GetThread("t1")
	require.NoError(t, err)
	assert.Empty(t, threads.updates)
}

func TestSummarizeThreadStoresTrimmedSummary(t *testing.T) {
	threads := newFakeThreadRepo(&threaddomain.EmailThread{ID: "t1", Subject: "Leaking valve"})
	u := newTestUsecase(threads, nil)
	u.deps.AI = &stubAI{summary: "  Customer reports a leaking valve.\n"}
	u.deps.Messages.Upsert(&threaddomain.EmailMessage{
		ID:       "m1",
		ThreadID: "t1",
		BodyText: "The valve on site 4 is leaking again.",
	})

	summary, err := u.SummarizeThread(context.Background(), "t1")
	require.NoError(t, err)

	assert.Equal(t, "Customer reports a leaking valve.", summary)
	update := threads.lastUpdate()
	require.NotNil(t, update)
	assert.Equal(t, "Customer reports a leaking valve.", update["ai_summary"])
}

func TestSummarizeThreadWithoutMessages(t *testing.T) {
	threads := newFakeThreadRepo(&threaddomain.EmailThread{ID: "t1"})
	u := newTestUsecase(threads, nil)
	u.deps.AI = &stubAI{summary: "irrelevant"}

	_, err := u.SummarizeThread(context.Background(), "t1")
	assert.Error(t, err)
	assert.Empty(t, threads.updates)
}

func TestReplyThreadingHeaders(t *testing.T) {
	messages := []*threaddomain.EmailMessage{
		{ID: "m1", RFC822ID: "<a@mail.gmail.com>"},
		{ID: "m2"}, // stored before the header column existed
		{ID: "m3", RFC822ID: "<b@mail.gmail.com>"},
	}

	inReplyTo, references := replyThreadingHeaders(messages, messages[2])
	assert.Equal(t, "<b@mail.gmail.com>", inReplyTo)
	assert.Equal(t, "<a@mail.gmail.com> <b@mail.gmail.com>", references)
}

func TestReplyThreadingHeadersFallBackToInReplyTo(t *testing.T) {
	last := &threaddomain.EmailMessage{ID: "m1", RFC822ID: "<only@mail.gmail.com>"}

	inReplyTo, references := replyThreadingHeaders(nil, last)
	assert.Equal(t, "<only@mail.gmail.com>", inReplyTo)
	assert.Equal(t, "<only@mail.gmail.com>", references)
}
