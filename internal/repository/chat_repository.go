package repository

import (
	"time"

	"github.com/devsync/teamchat-api/internal/models"
	"gorm.io/gorm"
)

// GormChatRepository is a GORM implementation of ChatRepository
type GormChatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new ChatRepository
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &GormChatRepository{db: db}
}

func (r *GormChatRepository) populated() *gorm.DB {
	return r.db.
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("joined_at ASC, user_id ASC") }).
		Preload("Members.User").
		Preload("GroupAdmin").
		Preload("LatestMessage").
		Preload("LatestMessage.Sender")
}

func (r *GormChatRepository) memberOf(userID uint64) *gorm.DB {
	return r.db.Model(&models.ChatMember{}).Select("chat_id").Where("user_id = ?", userID)
}

// CreateWithMembers creates a chat and its membership rows atomically
func (r *GormChatRepository) CreateWithMembers(chat *models.Chat, memberIDs []uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Members", "GroupAdmin", "LatestMessage").Create(chat).Error; err != nil {
			return err
		}

		now := time.Now()
		members := make([]models.ChatMember, 0, len(memberIDs))
		for _, id := range memberIDs {
			members = append(members, models.ChatMember{ChatID: chat.ID, UserID: id, JoinedAt: now})
		}
		if len(members) == 0 {
			return nil
		}
		return tx.Omit("User").Create(&members).Error
	})
}

// FindByID loads a chat with members, admin and latest message
func (r *GormChatRepository) FindByID(id uint64) (*models.Chat, error) {
	var chat models.Chat
	if err := r.populated().First(&chat, id).Error; err != nil {
		return nil, translate(err)
	}
	return &chat, nil
}

// FindDirect finds the non-group chat between two users
func (r *GormChatRepository) FindDirect(userA, userB uint64) (*models.Chat, error) {
	var chat models.Chat
	err := r.populated().
		Where("is_group_chat = ?", false).
		Where("id IN (?)", r.memberOf(userA)).
		Where("id IN (?)", r.memberOf(userB)).
		First(&chat).Error
	if err != nil {
		return nil, translate(err)
	}
	return &chat, nil
}

// ListForUser lists chats containing userID, most recently updated first
func (r *GormChatRepository) ListForUser(userID uint64) ([]models.Chat, error) {
	chats := []models.Chat{}
	err := r.populated().
		Where("id IN (?)", r.memberOf(userID)).
		Order("updated_at DESC").
		Find(&chats).Error
	if err != nil {
		return nil, err
	}
	return chats, nil
}

// Rename sets the chat's display name
func (r *GormChatRepository) Rename(id uint64, name string) error {
	res := r.db.Model(&models.Chat{}).Where("id = ?", id).Update("chat_name", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddMember adds a membership row and touches the chat
func (r *GormChatRepository) AddMember(chatID, userID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		member := models.ChatMember{ChatID: chatID, UserID: userID, JoinedAt: time.Now()}
		if err := tx.Omit("User").Create(&member).Error; err != nil {
			return err
		}
		return touch(tx, chatID)
	})
}

// RemoveMember deletes a membership row and touches the chat
func (r *GormChatRepository) RemoveMember(chatID, userID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("chat_id = ? AND user_id = ?", chatID, userID).Delete(&models.ChatMember{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return touch(tx, chatID)
	})
}

// IsMember reports whether userID belongs to chatID
func (r *GormChatRepository) IsMember(chatID, userID uint64) (bool, error) {
	var count int64
	err := r.db.Model(&models.ChatMember{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count).Error
	return count > 0, err
}

// SetLatestMessage points the chat at messageID and touches it
func (r *GormChatRepository) SetLatestMessage(chatID, messageID uint64) error {
	return r.db.Model(&models.Chat{}).Where("id = ?", chatID).
		Updates(map[string]any{"latest_message_id": messageID, "updated_at": time.Now()}).Error
}

// SetMeeting stores the lazily created meeting details
func (r *GormChatRepository) SetMeeting(chatID uint64, meetingID, joinURL, password string) error {
	res := r.db.Model(&models.Chat{}).Where("id = ?", chatID).
		Updates(map[string]any{"meeting_id": meetingID, "join_url": joinURL, "meeting_password": password})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func touch(tx *gorm.DB, chatID uint64) error {
	return tx.Model(&models.Chat{}).Where("id = ?", chatID).Update("updated_at", time.Now()).Error
}
