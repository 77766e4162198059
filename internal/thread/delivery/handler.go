package delivery

import (
	"errors"
	"net/http"
	"strconv"

	authdelivery "fieldline-backend/internal/auth/delivery"
	"fieldline-backend/internal/notes"
	"fieldline-backend/internal/presence"
	threaddomain "fieldline-backend/internal/thread/domain"
	"fieldline-backend/internal/thread/repository"
	"fieldline-backend/internal/thread/usecase"

	"github.com/gin-gonic/gin"
)

// ThreadHandler serves the inbox HTTP API.
type ThreadHandler struct {
	threadUsecase usecase.ThreadUsecase
	autosaver     *notes.Autosaver
	presence      *presence.Service
}

func NewThreadHandler(threadUsecase usecase.ThreadUsecase, autosaver *notes.Autosaver, presenceService *presence.Service) *ThreadHandler {
	return &ThreadHandler{
		threadUsecase: threadUsecase,
		autosaver:     autosaver,
		presence:      presenceService,
	}
}

func respondThreadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrThreadNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "thread not found"})
	case errors.Is(err, usecase.ErrNoSuggestion):
		c.JSON(http.StatusConflict, gin.H{"error": "thread has no pending suggestion"})
	case errors.Is(err, usecase.ErrNoRecipient):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "thread has no external recipient"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// List handles GET /api/threads
func (h *ThreadHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	filter := repository.ThreadFilter{
		View:       c.DefaultQuery("view", "open"),
		AssignedTo: c.Query("assigned_to"),
		ProjectID:  c.Query("project_id"),
		JobID:      c.Query("job_id"),
		Search:     c.Query("search"),
		Limit:      limit,
		Offset:     offset,
	}

	list, err := h.threadUsecase.ListThreads(filter)
	if err != nil {
		respondThreadError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// Get handles GET /api/threads/:id
func (h *ThreadHandler) Get(c *gin.Context) {
	detail, err := h.threadUsecase.GetThread(c.Param("id"))
	if err != nil {
		respondThreadError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Search handles GET /api/threads/search?q=...
func (h *ThreadHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	hits, err := h.threadUsecase.SemanticSearch(c.Request.Context(), query, limit)
	if err != nil {
		respondThreadError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": hits})
}

// Close handles POST /api/threads/:id/close
func (h *ThreadHandler) Close(c *gin.Context) {
	if err := h.threadUsecase.CloseThread(c.Param("id"), c.GetString("userID")); err != nil {
		respondThreadError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "thread closed"})
}

// Reopen handles POST /api/threads/:id/reopen
func (h *ThreadHandler) Reopen(c *gin.Context) {
	if err := h.threadUsecase.ReopenThread(c.Param("id"), c.GetString("userID")); err != nil {
		respondThreadError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "thread reopened"})
}

// Pin handles POST /api/threads/:id/pin
func (h *ThreadHandler) Pin(c *gin.Context) {
	if err := h.threadUsecase.PinThread(c.Param("id"), c.GetString("userID")); err != nil {
		respondThreadError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "thread pinned"})
}

// Unpin handles POST /api/threads/:id/unpin
func (h *ThreadHandler) Unpin(c *gin.Context) {
	if err := h.threadUsecase.UnpinThread(c.Param("id"), c.GetString("userID")); err != nil {
		respondThreadError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "thread unpinned"})
}

// Delete handles DELETE /api/threads/:id
func (h *ThreadHandler) Delete(c *gin.Context) {
	if err := h.threadUsecase.DeleteThread(c.Request.Context(), c.Param("id"), c.GetString("userID")); err != nil {
		respondThreadError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "thread deleted"})
}

type assignRequest struct {
	AssigneeID string `json:"assignee_id"`
}

// Assign handles POST /api/threads/:id/assign
func (h *ThreadHandler) Assign(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.threadUsecase.AssignThread(c.Param("id"), req.AssigneeID, c.GetString("userID")); err != nil {
		respondThreadError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "thread assigned"})
}

type linkRequest struct {
	ProjectID string `json:"project_id"`
	JobID     string `json:"job_id"`
}

// Link handles POST /api/threads/:id/link
func (h *ThreadHandler) Link(c *gin.Context) {
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	threadID := c.Param("id")
	userID := c.GetString("userID")

	var err error
	switch {
	case req.ProjectID != "":
		err = h.threadUsecase.LinkProject(threadID, req.ProjectID, userID)
	case req.JobID != "":
		err = h.threadUsecase.LinkJob(threadID, req.JobID, userID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "project_id or job_id is required"})
		return
	}
	if err != nil {
		respondThreadError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "thread linked"})
}

// Unlink handles POST /api/threads/:id/unlink
func (h *ThreadHandler) Unlink(c *gin.Context) {
	if err := h.threadUsecase.Unlink(c.Param("id"), c.GetString("userID")); err != nil {
		respondThreadError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "thread unlinked"})
}

type addLinkRequest struct {
	EntityType string `json:"entity_type" binding:"required"`
	EntityID   string `json:"entity_id" binding:"required"`
	EntityName string `json:"entity_name"`
	MessageID  string `json:"message_id"`
}

// AddLink handles POST /api/threads/:id/links
func (h *ThreadHandler) AddLink(c *gin.Context) {
	var req addLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	link := &threaddomain.LinkedEntity{
		EntityType:     threaddomain.LinkedEntityType(req.EntityType),
		EntityID:       req.EntityID,
		EntityName:     req.EntityName,
		EmailMessageID: req.MessageID,
		CreatedBy:      c.GetString("userID"),
	}

	if err := h.threadUsecase.AddLink(c.Param("id"), link); err != nil {
		respondThreadError(c, err)
		return
	}
	c.JSON(http.StatusCreated, link)
}

// RemoveLink handles DELETE /api/threads/:id/links/:linkId
func (h *ThreadHandler) RemoveLink(c *gin.Context) {
	if err := h.threadUsecase.RemoveLink(c.Param("id"), c.Param("linkId")); err != nil {
		respondThreadError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "link removed"})
}

// AcceptSuggestion handles POST /api/threads/:id/suggestion/accept
func (h *ThreadHandler) AcceptSuggestion(c *gin.Context) {
	if err := h.threadUsecase.AcceptSuggestion(c.Request.Context(), c.Param("id"), c.GetString("userID")); err != nil {
		respondThreadError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "suggestion accepted"})
}

// RejectSuggestion handles POST /api/threads/:id/suggestion/reject
func (h *ThreadHandler) RejectSuggestion(c *gin.Context) {
	if err := h.threadUsecase.RejectSuggestion(c.Param("id"), c.GetString("userID")); err != nil {
		respondThreadError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "suggestion rejected"})
}

// DismissSuggestion handles POST /api/threads/:id/suggestion/dismiss
func (h *ThreadHandler) DismissSuggestion(c *gin.Context) {
	if err := h.threadUsecase.DismissSuggestion(c.Param("id"), c.GetString("userID")); err != nil {
		respondThreadError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "suggestion dismissed"})
}

// Triage handles POST /api/threads/:id/triage, a manual AI re-run.
func (h *ThreadHandler) Triage(c *gin.Context) {
	if err := h.threadUsecase.ProcessThreadWithAI(c.Request.Context(), c.Param("id")); err != nil {
		respondThreadError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "triage completed"})
}

// DraftReply handles POST /api/threads/:id/draft
func (h *ThreadHandler) DraftReply(c *gin.Context) {
	draft, err := h.threadUsecase.DraftReply(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondThreadError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": draft})
}

// Summarize handles POST /api/threads/:id/summarize
func (h *ThreadHandler) Summarize(c *gin.Context) {
	summary, err := h.threadUsecase.SummarizeThread(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondThreadError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

type replyRequest struct {
	Body string `json:"body" binding:"required"`
}

// Reply handles POST /api/threads/:id/reply
func (h *ThreadHandler) Reply(c *gin.Context) {
	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := authdelivery.CurrentUser(c)
	name := ""
	if user != nil {
		name = user.Name
	}

	if err := h.threadUsecase.SendReply(c.Request.Context(), c.Param("id"), c.GetString("userID"), name, req.Body); err != nil {
		respondThreadError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reply sent"})
}

// Sync handles POST /api/threads/sync, a manual full inbox sync.
func (h *ThreadHandler) Sync(c *gin.Context) {
	count, err := h.threadUsecase.SyncInbox(c.Request.Context())
	if err != nil {
		respondThreadError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"synced": count})
}

// Notes

type noteRequest struct {
	Body string `json:"body" binding:"required"`
}

// AddNote handles POST /api/threads/:id/notes
func (h *ThreadHandler) AddNote(c *gin.Context) {
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := authdelivery.CurrentUser(c)
	name := ""
	if user != nil {
		name = user.Name
	}

	note, err := h.threadUsecase.AddNote(c.Param("id"), c.GetString("userID"), name, req.Body)
	if err != nil {
		respondThreadError(c, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}

// UpdateNote handles PUT /api/threads/:id/notes/:noteId. The write is
// debounced; clients can hammer this on every keystroke.
func (h *ThreadHandler) UpdateNote(c *gin.Context) {
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.autosaver.Queue(c.Param("noteId"), req.Body); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "autosave is shutting down"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "note queued"})
}

// FlushNote handles POST /api/threads/:id/notes/:noteId/flush. The client
// calls this on blur/navigation to persist immediately.
func (h *ThreadHandler) FlushNote(c *gin.Context) {
	if err := h.autosaver.Flush(c.Param("noteId")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "note saved"})
}

// DeleteNote handles DELETE /api/threads/:id/notes/:noteId
func (h *ThreadHandler) DeleteNote(c *gin.Context) {
	if err := h.threadUsecase.DeleteNote(c.Param("noteId")); err != nil {
		respondThreadError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "note deleted"})
}

// Presence

// Heartbeat handles POST /api/threads/:id/presence
func (h *ThreadHandler) Heartbeat(c *gin.Context) {
	if h.presence == nil {
		c.JSON(http.StatusOK, gin.H{"viewers": []presence.Viewer{}})
		return
	}

	user := authdelivery.CurrentUser(c)
	name := ""
	if user != nil {
		name = user.Name
	}

	threadID := c.Param("id")
	h.presence.Heartbeat(c.Request.Context(), threadID, c.GetString("userID"), name)
	c.JSON(http.StatusOK, gin.H{"viewers": h.presence.Viewers(c.Request.Context(), threadID)})
}

// LeavePresence handles DELETE /api/threads/:id/presence
func (h *ThreadHandler) LeavePresence(c *gin.Context) {
	if h.presence != nil {
		h.presence.Leave(c.Request.Context(), c.Param("id"), c.GetString("userID"))
	}
	c.JSON(http.StatusOK, gin.H{"message": "left"})
}
