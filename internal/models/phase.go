package models

import "time"

// Phase groups tasks of a chat. Order is dense (1..N) per chat.
type Phase struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	PhaseName string    `gorm:"type:varchar(255);not null" json:"phase_name"`
	ChatID    uint64    `gorm:"not null;index" json:"chat_id"`
	Order     int       `gorm:"column:sort_order;not null" json:"order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
