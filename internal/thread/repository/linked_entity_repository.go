package repository

import (
	"time"

	threaddomain "fieldline-backend/internal/thread/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type linkedEntityRepository struct {
	db *gorm.DB
}

func NewLinkedEntityRepository(db *gorm.DB) LinkedEntityRepository {
	return &linkedEntityRepository{db: db}
}

func (r *linkedEntityRepository) Create(link *threaddomain.LinkedEntity) error {
	if link.ID == "" {
		link.ID = uuid.New().String()
	}
	link.CreatedAt = time.Now()
	return r.db.Create(link).Error
}

func (r *linkedEntityRepository) ListByThread(threadID string) ([]*threaddomain.LinkedEntity, error) {
	var links []*threaddomain.LinkedEntity
	if err := r.db.Where("email_thread_id = ?", threadID).Order("created_at asc").Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

func (r *linkedEntityRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&threaddomain.LinkedEntity{}).Error
}
