package repository

import (
	"errors"
	"time"

	threaddomain "fieldline-backend/internal/thread/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type noteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) NoteRepository {
	return &noteRepository{db: db}
}

func (r *noteRepository) Create(note *threaddomain.InternalNote) error {
	if note.ID == "" {
		note.ID = uuid.New().String()
	}
	note.CreatedAt = time.Now()
	note.UpdatedAt = time.Now()
	return r.db.Create(note).Error
}

func (r *noteRepository) Update(note *threaddomain.InternalNote) error {
	note.UpdatedAt = time.Now()
	return r.db.Save(note).Error
}

func (r *noteRepository) FindByID(id string) (*threaddomain.InternalNote, error) {
	var note threaddomain.InternalNote
	err := r.db.Where("id = ?", id).First(&note).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &note, nil
}

func (r *noteRepository) ListByThread(threadID string) ([]*threaddomain.InternalNote, error) {
	var notes []*threaddomain.InternalNote
	if err := r.db.Where("thread_id = ?", threadID).Order("created_at asc").Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *noteRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&threaddomain.InternalNote{}).Error
}
