package database

import (
	"gorm.io/gorm"

	"github.com/devsync/teamchat-api/internal/utils"
)

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// Ordered sorts by the dense position column.
func Ordered(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC")
}
