package database

import (
	"fmt"

	"github.com/taskboard/taskboard-api/internal/models"
	"gorm.io/gorm"
)

// AddIndexes adds the composite indexes the query paths depend on: task
// listing filters by (owner, status) and (owner, priority), and audit
// queries order by timestamp within a user or action.
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		model   interface{}
		table   string
		name    string
		columns string
	}{
		{&models.Task{}, "tasks", "idx_tasks_user_status", "user_id, status"},
		{&models.Task{}, "tasks", "idx_tasks_user_priority", "user_id, priority"},
		{&models.Task{}, "tasks", "idx_tasks_created_at", "created_at"},
		{&models.AuditLog{}, "audit_logs", "idx_audit_logs_user_timestamp", "user_id, timestamp"},
		{&models.AuditLog{}, "audit_logs", "idx_audit_logs_action_timestamp", "action, timestamp"},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.model, idx.name) {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}
