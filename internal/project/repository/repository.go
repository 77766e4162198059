package repository

import (
	"errors"
	"time"

	projectdomain "fieldline-backend/internal/project/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProjectRepository defines persistence for projects, jobs and customers.
type ProjectRepository interface {
	CreateProject(project *projectdomain.Project) error
	FindProjectByID(id string) (*projectdomain.Project, error)
	ListProjects(search string, limit int) ([]*projectdomain.Project, error)
	CreateJob(job *projectdomain.Job) error
	FindJobByID(id string) (*projectdomain.Job, error)
	ListJobs(search string, limit int) ([]*projectdomain.Job, error)
	FindCustomerByEmail(email string) (*projectdomain.Customer, error)
}

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) CreateProject(project *projectdomain.Project) error {
	if project.ID == "" {
		project.ID = uuid.New().String()
	}
	project.CreatedAt = time.Now()
	project.UpdatedAt = time.Now()
	return r.db.Create(project).Error
}

func (r *projectRepository) FindProjectByID(id string) (*projectdomain.Project, error) {
	var project projectdomain.Project
	err := r.db.Where("id = ?", id).First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) ListProjects(search string, limit int) ([]*projectdomain.Project, error) {
	if limit <= 0 {
		limit = 25
	}
	query := r.db.Model(&projectdomain.Project{})
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("number ILIKE ? OR title ILIKE ?", pattern, pattern)
	}

	var projects []*projectdomain.Project
	if err := query.Order("created_at desc").Limit(limit).Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *projectRepository) CreateJob(job *projectdomain.Job) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	job.CreatedAt = time.Now()
	job.UpdatedAt = time.Now()
	return r.db.Create(job).Error
}

func (r *projectRepository) FindJobByID(id string) (*projectdomain.Job, error) {
	var job projectdomain.Job
	err := r.db.Where("id = ?", id).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

func (r *projectRepository) ListJobs(search string, limit int) ([]*projectdomain.Job, error) {
	if limit <= 0 {
		limit = 25
	}
	query := r.db.Model(&projectdomain.Job{})
	if search != "" {
		query = query.Where("number ILIKE ?", "%"+search+"%")
	}

	var jobs []*projectdomain.Job
	if err := query.Order("created_at desc").Limit(limit).Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *projectRepository) FindCustomerByEmail(email string) (*projectdomain.Customer, error) {
	var customer projectdomain.Customer
	err := r.db.Where("email = ?", email).First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}
