package models

import (
	"time"
)

type Chat struct {
	ID              uint64  `gorm:"primarykey" json:"id"`
	ChatName        string  `gorm:"type:varchar(255)" json:"chat_name"`
	IsGroupChat     bool    `gorm:"not null;default:false" json:"is_group_chat"`
	RepositoryName  string  `gorm:"type:varchar(255)" json:"repository_name,omitempty"`
	GroupAdminID    *uint64 `json:"group_admin_id,omitempty"`
	LatestMessageID *uint64 `json:"latest_message_id,omitempty"`

	MeetingID       *string   `gorm:"type:varchar(64)" json:"meeting_id,omitempty"`
	JoinURL         *string   `gorm:"type:varchar(512)" json:"join_url,omitempty"`
	MeetingPassword *string   `gorm:"type:varchar(64)" json:"password,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Relations
	Members       []ChatMember `gorm:"foreignKey:ChatID" json:"members,omitempty"`
	GroupAdmin    *User        `gorm:"foreignKey:GroupAdminID" json:"group_admin,omitempty"`
	LatestMessage *Message     `gorm:"foreignKey:LatestMessageID" json:"latest_message,omitempty"`
}

// HasMember reports whether userID is in the loaded member list.
func (c Chat) HasMember(userID uint64) bool {
	for _, m := range c.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// IsAdmin reports whether userID is the group admin.
func (c Chat) IsAdmin(userID uint64) bool {
	return c.GroupAdminID != nil && *c.GroupAdminID == userID
}

type ChatMember struct {
	ChatID   uint64    `gorm:"primarykey" json:"chat_id"`
	UserID   uint64    `gorm:"primarykey" json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
