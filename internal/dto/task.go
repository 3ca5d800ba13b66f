package dto

import (
	"time"

	"github.com/devsync/teamchat-api/internal/models"
)

// PhaseDTO represents a phase in API responses
type PhaseDTO struct {
	ID        uint64    `json:"id"`
	PhaseName string    `json:"phase_name"`
	ChatID    uint64    `json:"chat_id"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID             uint64            `json:"id"`
	Description    string            `json:"description"`
	AssignedTo     uint64            `json:"assigned_to"`
	AssignedToName string            `json:"assigned_to_name"`
	DueDate        *time.Time        `json:"due_date"`
	Status         models.TaskStatus `json:"status"`
	Completed      bool              `json:"completed"`
	ChatID         uint64            `json:"chat_id"`
	PhaseID        uint64            `json:"phase_id"`
	Order          int               `json:"order"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// ToPhaseDTO converts a phase model to DTO
func ToPhaseDTO(phase models.Phase) PhaseDTO {
	return PhaseDTO{
		ID:        phase.ID,
		PhaseName: phase.PhaseName,
		ChatID:    phase.ChatID,
		Order:     phase.Order,
		CreatedAt: phase.CreatedAt,
	}
}

// ToPhaseDTOs converts a slice of phases
func ToPhaseDTOs(phases []models.Phase) []PhaseDTO {
	out := make([]PhaseDTO, len(phases))
	for i, p := range phases {
		out[i] = ToPhaseDTO(p)
	}
	return out
}

// ToTaskDTO converts a task model to DTO
func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		ID:             task.ID,
		Description:    task.Description,
		AssignedTo:     task.AssignedToID,
		AssignedToName: task.AssignedTo.Name,
		DueDate:        task.DueDate,
		Status:         task.Status,
		Completed:      task.Completed,
		ChatID:         task.ChatID,
		PhaseID:        task.PhaseID,
		Order:          task.Order,
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
	}
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	out := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		out[i] = ToTaskDTO(t)
	}
	return out
}
