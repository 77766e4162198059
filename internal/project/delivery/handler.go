package delivery

import (
	"net/http"
	"strconv"

	projectdomain "fieldline-backend/internal/project/domain"
	"fieldline-backend/internal/project/repository"

	"github.com/gin-gonic/gin"
)

// ProjectHandler serves the project/job lookup and CRUD endpoints that
// thread linking depends on.
type ProjectHandler struct {
	repo repository.ProjectRepository
}

func NewProjectHandler(repo repository.ProjectRepository) *ProjectHandler {
	return &ProjectHandler{repo: repo}
}

// ListProjects handles GET /api/projects?search=...
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))

	projects, err := h.repo.ListProjects(c.Query("search"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// GetProject handles GET /api/projects/:id
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, err := h.repo.FindProjectByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if project == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	c.JSON(http.StatusOK, project)
}

type projectRequest struct {
	Number      string `json:"number" binding:"required"`
	Title       string `json:"title" binding:"required"`
	CustomerID  string `json:"customer_id"`
	Description string `json:"description"`
}

// CreateProject handles POST /api/projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project := &projectdomain.Project{
		Number:      req.Number,
		Title:       req.Title,
		CustomerID:  req.CustomerID,
		Description: req.Description,
	}
	if err := h.repo.CreateProject(project); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, project)
}

// ListJobs handles GET /api/jobs?search=...
func (h *ProjectHandler) ListJobs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))

	jobs, err := h.repo.ListJobs(c.Query("search"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// GetJob handles GET /api/jobs/:id
func (h *ProjectHandler) GetJob(c *gin.Context) {
	job, err := h.repo.FindJobByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

type jobRequest struct {
	Number      string `json:"number" binding:"required"`
	ProjectID   string `json:"project_id"`
	CustomerID  string `json:"customer_id"`
	Description string `json:"description"`
}

// CreateJob handles POST /api/jobs
func (h *ProjectHandler) CreateJob(c *gin.Context) {
	var req jobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job := &projectdomain.Job{
		Number:      req.Number,
		ProjectID:   req.ProjectID,
		CustomerID:  req.CustomerID,
		Description: req.Description,
	}
	if err := h.repo.CreateJob(job); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, job)
}
