package models

import "time"

type Message struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	ChatID    uint64    `gorm:"not null;index" json:"chat_id"`
	SenderID  uint64    `gorm:"not null" json:"sender_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Sender User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}
