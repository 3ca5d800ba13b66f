package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/devsync/teamchat-api/internal/models"
	"github.com/devsync/teamchat-api/internal/repository"
)

// TaskService handles the ordered tasks of a phase.
type TaskService struct {
	taskRepo  repository.TaskRepository
	chatRepo  repository.ChatRepository
	aiService *AIService
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, chatRepo repository.ChatRepository, aiService *AIService) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		chatRepo:  chatRepo,
		aiService: aiService,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Description  string
	AssignedToID uint64
	DueDate      *time.Time
	Status       models.TaskStatus
}

// AddTask appends a task to phase. The chat is taken from the phase.
func (s *TaskService) AddTask(phase *models.Phase, input CreateTaskInput) (*models.Task, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, validationError("description is required")
	}
	if input.AssignedToID == 0 {
		return nil, validationError("assignedTo is required")
	}
	status := input.Status
	if status == "" {
		status = models.TaskStatusPending
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %w", ErrValidation, ErrInvalidTaskStatus)
	}

	member, err := s.chatRepo.IsMember(phase.ChatID, input.AssignedToID)
	if err != nil {
		return nil, fmt.Errorf("failed to check assignee: %w", err)
	}
	if !member {
		return nil, fmt.Errorf("%w: %w", ErrValidation, ErrAssigneeNotChatMember)
	}

	task := &models.Task{
		Description:  description,
		AssignedToID: input.AssignedToID,
		DueDate:      input.DueDate,
		Status:       status,
		Completed:    status == models.TaskStatusCompleted,
		ChatID:       phase.ChatID,
		PhaseID:      phase.ID,
	}
	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return s.GetTask(phase.ID, task.ID)
}

// ListTasks returns a phase's tasks by order with assignees loaded.
func (s *TaskService) ListTasks(phaseID uint64) ([]models.Task, error) {
	tasks, err := s.taskRepo.ListByPhase(phaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask loads a task of phaseID.
func (s *TaskService) GetTask(phaseID, taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "AssignedTo")
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	if task.PhaseID != phaseID {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// UpdateStatus moves a task to status.
func (s *TaskService) UpdateStatus(phaseID, taskID uint64, status models.TaskStatus) (*models.Task, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %w", ErrValidation, ErrInvalidTaskStatus)
	}
	if _, err := s.GetTask(phaseID, taskID); err != nil {
		return nil, err
	}
	if err := s.taskRepo.UpdateStatus(taskID, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return s.GetTask(phaseID, taskID)
}

// DeleteTask removes a task; later tasks of the phase move up by one.
func (s *TaskService) DeleteTask(phaseID, taskID uint64) error {
	task, err := s.GetTask(phaseID, taskID)
	if err != nil {
		return err
	}
	if err := s.taskRepo.Delete(task); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// SuggestTasks asks the AI service for task ideas for phase. Nothing is
// persisted.
func (s *TaskService) SuggestTasks(ctx context.Context, phase *models.Phase, text string) ([]SuggestedTask, error) {
	if s.aiService == nil || !s.aiService.Enabled() {
		return nil, ErrAIServiceNotConfigured
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, validationError("text is required")
	}
	suggestions, err := s.aiService.SuggestTasks(ctx, phase.PhaseName, text)
	if err != nil {
		return nil, err
	}
	if len(suggestions) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	return suggestions, nil
}
