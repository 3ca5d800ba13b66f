package repository

import (
	"github.com/devsync/teamchat-api/internal/database"
	"github.com/devsync/teamchat-api/internal/models"
	"github.com/devsync/teamchat-api/internal/utils"
	"gorm.io/gorm"
)

// GormMessageRepository is a GORM implementation of MessageRepository
type GormMessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &GormMessageRepository{db: db}
}

// Create creates a new message
func (r *GormMessageRepository) Create(msg *models.Message) error {
	return r.db.Omit("Sender").Create(msg).Error
}

// ListByChat lists messages oldest first with the sender loaded
func (r *GormMessageRepository) ListByChat(chatID uint64, params utils.PaginationParams) ([]models.Message, int64, error) {
	byChat := func(db *gorm.DB) *gorm.DB {
		return db.Model(&models.Message{}).Where("chat_id = ?", chatID)
	}

	var total int64
	if err := r.db.Scopes(byChat).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	messages := []models.Message{}
	err := r.db.Scopes(byChat, database.Paginate(params)).
		Preload("Sender").
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}
