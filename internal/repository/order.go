package repository

import (
	"fmt"

	"gorm.io/gorm"
)

// nextOrder returns count+1 for rows of model under parentColumn = parentID.
func nextOrder(tx *gorm.DB, model any, parentColumn string, parentID uint64) (int, error) {
	var count int64
	if err := tx.Model(model).Where(parentColumn+" = ?", parentID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count siblings: %w", err)
	}
	return int(count) + 1, nil
}

// closeGap shifts every sibling after a removed position down by one.
func closeGap(tx *gorm.DB, model any, parentColumn string, parentID uint64, removed int) error {
	err := tx.Model(model).
		Where(parentColumn+" = ? AND sort_order > ?", parentID, removed).
		UpdateColumn("sort_order", gorm.Expr("sort_order - ?", 1)).Error
	if err != nil {
		return fmt.Errorf("failed to renumber: %w", err)
	}
	return nil
}
