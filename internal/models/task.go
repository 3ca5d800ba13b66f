package models

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// Task belongs to a phase. Order is dense (1..N) per phase.
type Task struct {
	ID           uint64     `gorm:"primarykey" json:"id"`
	Description  string     `gorm:"type:text;not null" json:"description"`
	AssignedToID uint64     `gorm:"not null" json:"assigned_to"`
	DueDate      *time.Time `json:"due_date"`
	Completed    bool       `gorm:"not null;default:false" json:"completed"`
	Status       TaskStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	ChatID       uint64     `gorm:"not null;index" json:"chat_id"`
	PhaseID      uint64     `gorm:"not null;index" json:"phase_id"`
	Order        int        `gorm:"column:sort_order;not null" json:"order"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Relations
	AssignedTo User `gorm:"foreignKey:AssignedToID" json:"-"`
}
