package repository

import (
	threaddomain "fieldline-backend/internal/thread/domain"

	"gorm.io/gorm"
)

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Save(event *threaddomain.EmailAudit) error {
	return r.db.Create(event).Error
}

func (r *auditRepository) ListByThread(threadID string, limit int) ([]*threaddomain.EmailAudit, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []*threaddomain.EmailAudit
	if err := r.db.Where("thread_id = ?", threadID).Order("timestamp desc").Limit(limit).Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
