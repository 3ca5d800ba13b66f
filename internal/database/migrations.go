package database

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type index struct {
	table   string
	name    string
	columns string
}

var indexes = []index{
	// Ordered listings
	{"phases", "idx_phases_chat_order", "chat_id, sort_order"},
	{"tasks", "idx_tasks_phase_order", "phase_id, sort_order"},
	{"tasks", "idx_tasks_assigned_to_id", "assigned_to_id"},

	// Membership lookups by user
	{"chat_members", "idx_chat_members_user_id", "user_id"},

	// Message history
	{"messages", "idx_messages_chat_created", "chat_id, created_at"},
	{"chats", "idx_chats_updated_at", "updated_at"},
}

// AddIndexes creates composite indexes that gorm tags do not express.
func AddIndexes(db *gorm.DB) error {
	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.table, idx.name) {
			log.Debug().Str("index", idx.name).Msg("index already exists, skipping")
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
		log.Debug().Str("index", idx.name).Str("table", idx.table).Msg("created index")
	}
	return nil
}
