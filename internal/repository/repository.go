package repository

import (
	"time"

	"github.com/taskboard/taskboard-api/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// CreateWithAudit creates a user and its registration audit entry
	// within a single transaction.
	CreateWithAudit(user *models.User, entry *models.AuditLog) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username (stored lowercase)
	FindByUsername(username string) (*models.User, error)

	// FindByEmail finds a user by email (stored lowercase)
	FindByEmail(email string) (*models.User, error)
}

// TaskRepository defines the interface for task data access. Mutating
// methods take the matching audit entry so both rows commit atomically.
type TaskRepository interface {
	// CreateWithAudit creates a task and its audit entry in one transaction.
	CreateWithAudit(task *models.Task, entry *models.AuditLog) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// UpdateWithAudit saves a task and its audit entry in one transaction.
	UpdateWithAudit(task *models.Task, entry *models.AuditLog) error

	// DeleteWithAudit inserts the audit entry, then deletes the task row,
	// in one transaction. The entry is written first so the trail records
	// the task even if the delete fails partway.
	DeleteWithAudit(id uint64, entry *models.AuditLog) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	UserID   uint64
	Status   *models.TaskStatus
	Priority *models.TaskPriority
	Search   string
	Page     int
	PageSize int
}

// AuditRepository defines the interface for audit log data access
type AuditRepository interface {
	// Create appends a single audit entry
	Create(entry *models.AuditLog) error

	// List retrieves audit entries with filtering and pagination,
	// newest first
	List(filter AuditFilter) ([]models.AuditLog, int64, error)

	// Purge removes entries older than the given time, or all entries
	// when before is nil. Returns the number of rows removed.
	Purge(before *time.Time) (int64, error)
}

// AuditFilter holds filtering options for listing audit entries
type AuditFilter struct {
	Username string
	Action   *models.AuditAction
	Feature  string
	Status   *models.AuditStatus
	Page     int
	PageSize int
}
