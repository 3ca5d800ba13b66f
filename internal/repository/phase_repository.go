package repository

import (
	"github.com/devsync/teamchat-api/internal/database"
	"github.com/devsync/teamchat-api/internal/models"
	"gorm.io/gorm"
)

// GormPhaseRepository is a GORM implementation of PhaseRepository
type GormPhaseRepository struct {
	db *gorm.DB
}

// NewPhaseRepository creates a new PhaseRepository
func NewPhaseRepository(db *gorm.DB) PhaseRepository {
	return &GormPhaseRepository{db: db}
}

// Create appends a phase at order count+1
func (r *GormPhaseRepository) Create(phase *models.Phase) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		order, err := nextOrder(tx, &models.Phase{}, "chat_id", phase.ChatID)
		if err != nil {
			return err
		}
		phase.Order = order
		return tx.Create(phase).Error
	})
}

// FindByID finds a phase by ID
func (r *GormPhaseRepository) FindByID(id uint64) (*models.Phase, error) {
	var phase models.Phase
	if err := r.db.First(&phase, id).Error; err != nil {
		return nil, translate(err)
	}
	return &phase, nil
}

// ListByChat lists phases by order
func (r *GormPhaseRepository) ListByChat(chatID uint64) ([]models.Phase, error) {
	phases := []models.Phase{}
	if err := r.db.Scopes(database.Ordered).Where("chat_id = ?", chatID).Find(&phases).Error; err != nil {
		return nil, err
	}
	return phases, nil
}

// CountIncompleteTasks counts tasks of the phase not yet completed
func (r *GormPhaseRepository) CountIncompleteTasks(phaseID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Task{}).
		Where("phase_id = ? AND status <> ?", phaseID, models.TaskStatusCompleted).
		Count(&count).Error
	return count, err
}

// Delete removes the phase and its (completed) tasks and closes the order gap
func (r *GormPhaseRepository) Delete(phase *models.Phase) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("phase_id = ?", phase.ID).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Phase{}, phase.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return closeGap(tx, &models.Phase{}, "chat_id", phase.ChatID, phase.Order)
	})
}
