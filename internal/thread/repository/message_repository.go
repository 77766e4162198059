package repository

import (
	"time"

	threaddomain "fieldline-backend/internal/thread/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Upsert inserts the message or refreshes it if the Gmail message was
// already synced. Sync runs repeatedly over the same history window, so
// conflicts are the normal case.
func (r *messageRepository) Upsert(message *threaddomain.EmailMessage) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	message.CreatedAt = time.Now()
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "gmail_message_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"snippet", "body_text", "body_html", "has_attachments",
		}),
	}).Create(message).Error
}

func (r *messageRepository) ListByThread(threadID string) ([]*threaddomain.EmailMessage, error) {
	var messages []*threaddomain.EmailMessage
	if err := r.db.Where("thread_id = ?", threadID).Order("sent_at asc").Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}
