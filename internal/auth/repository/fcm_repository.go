package repository

import (
	"time"

	authdomain "fieldline-backend/internal/auth/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type fcmTokenRepository struct {
	db *gorm.DB
}

func NewFCMTokenRepository(db *gorm.DB) FCMTokenRepository {
	return &fcmTokenRepository{db: db}
}

func (r *fcmTokenRepository) Save(token *authdomain.FCMToken) error {
	token.CreatedAt = time.Now()
	// Re-registering an existing token just moves it to the current user.
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "created_at"}),
	}).Create(token).Error
}

func (r *fcmTokenRepository) GetTokensByUserID(userID string) ([]*authdomain.FCMToken, error) {
	var tokens []*authdomain.FCMToken
	if err := r.db.Where("user_id = ?", userID).Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *fcmTokenRepository) DeleteToken(token string) error {
	return r.db.Where("token = ?", token).Delete(&authdomain.FCMToken{}).Error
}
