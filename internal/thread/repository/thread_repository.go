package repository

import (
	"errors"
	"time"

	threaddomain "fieldline-backend/internal/thread/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type threadRepository struct {
	db *gorm.DB
}

func NewThreadRepository(db *gorm.DB) ThreadRepository {
	return &threadRepository{db: db}
}

func (r *threadRepository) Create(thread *threaddomain.EmailThread) error {
	if thread.ID == "" {
		thread.ID = uuid.New().String()
	}
	thread.CreatedAt = time.Now()
	thread.UpdatedAt = time.Now()
	return r.db.Create(thread).Error
}

func (r *threadRepository) Save(thread *threaddomain.EmailThread) error {
	thread.UpdatedAt = time.Now()
	return r.db.Save(thread).Error
}

func (r *threadRepository) FindByID(id string) (*threaddomain.EmailThread, error) {
	var thread threaddomain.EmailThread
	err := r.db.Where("id = ? AND is_deleted = ?", id, false).First(&thread).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &thread, nil
}

func (r *threadRepository) FindByGmailThreadID(gmailThreadID string) (*threaddomain.EmailThread, error) {
	var thread threaddomain.EmailThread
	err := r.db.Where("gmail_thread_id = ?", gmailThreadID).First(&thread).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &thread, nil
}

func (r *threadRepository) List(filter ThreadFilter) ([]*threaddomain.EmailThread, int64, error) {
	query := r.db.Model(&threaddomain.EmailThread{}).Where("is_deleted = ?", false)

	switch filter.View {
	case "closed":
		query = query.Where("user_status = ?", threaddomain.UserStatusClosed)
	case "pinned":
		query = query.Where("pinned_at IS NOT NULL")
	case "unlinked":
		query = query.Where("project_id = '' AND job_id = ''")
	case "all":
		// no constraint
	default: // "open" and unset
		query = query.Where("user_status <> ?", threaddomain.UserStatusClosed)
	}

	if filter.AssignedTo != "" {
		query = query.Where("assigned_to = ?", filter.AssignedTo)
	}
	if filter.ProjectID != "" {
		query = query.Where("project_id = ?", filter.ProjectID)
	}
	if filter.JobID != "" {
		query = query.Where("job_id = ?", filter.JobID)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("subject ILIKE ? OR snippet ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Pinned threads float to the top, then most recent activity first.
	query = query.Order("pinned_at DESC NULLS LAST").
		Order("last_external_message_at DESC NULLS LAST")

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var threads []*threaddomain.EmailThread
	if err := query.Find(&threads).Error; err != nil {
		return nil, 0, err
	}
	return threads, total, nil
}

func (r *threadRepository) UpdateFields(id string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	return r.db.Model(&threaddomain.EmailThread{}).Where("id = ?", id).Updates(fields).Error
}

func (r *threadRepository) SoftDelete(id string) error {
	return r.UpdateFields(id, map[string]interface{}{"is_deleted": true})
}
