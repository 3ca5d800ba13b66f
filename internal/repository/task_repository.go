package repository

import (
	"github.com/devsync/teamchat-api/internal/database"
	"github.com/devsync/teamchat-api/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create appends a task at order count+1 within its phase
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		order, err := nextOrder(tx, &models.Task{}, "phase_id", task.PhaseID)
		if err != nil {
			return err
		}
		task.Order = order
		return tx.Omit("AssignedTo").Create(task).Error
	})
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	// Apply preloading if specified
	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, translate(err)
	}
	return &task, nil
}

// ListByPhase lists tasks by order with the assignee loaded
func (r *GormTaskRepository) ListByPhase(phaseID uint64) ([]models.Task, error) {
	tasks := []models.Task{}
	err := r.db.Scopes(database.Ordered).
		Preload("AssignedTo").
		Where("phase_id = ?", phaseID).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// UpdateStatus sets status and the derived completed flag
func (r *GormTaskRepository) UpdateStatus(id uint64, status models.TaskStatus) error {
	res := r.db.Model(&models.Task{}).Where("id = ?", id).Updates(map[string]any{
		"status":    status,
		"completed": status == models.TaskStatusCompleted,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the task and closes the order gap
func (r *GormTaskRepository) Delete(task *models.Task) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Task{}, task.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return closeGap(tx, &models.Task{}, "phase_id", task.PhaseID, task.Order)
	})
}
