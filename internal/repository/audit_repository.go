package repository

import (
	"strings"
	"time"

	"github.com/taskboard/taskboard-api/internal/database"
	"github.com/taskboard/taskboard-api/internal/models"
	"github.com/taskboard/taskboard-api/internal/utils"
	"gorm.io/gorm"
)

// GormAuditRepository is a GORM implementation of AuditRepository
type GormAuditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &GormAuditRepository{db: db}
}

// Create appends a single audit entry
func (r *GormAuditRepository) Create(entry *models.AuditLog) error {
	return r.db.Create(entry).Error
}

// List retrieves audit entries newest first with filtering and pagination.
// The username filter is a case-insensitive substring match over the
// referenced user.
func (r *GormAuditRepository) List(filter AuditFilter) ([]models.AuditLog, int64, error) {
	var entries []models.AuditLog

	query := r.db.Model(&models.AuditLog{})

	if filter.Username != "" {
		term := "%" + strings.ToLower(filter.Username) + "%"
		query = query.
			Joins("LEFT JOIN users ON users.id = audit_logs.user_id").
			Where("LOWER(users.username) LIKE ?", term)
	}
	if filter.Action != nil {
		query = query.Where("audit_logs.action = ?", *filter.Action)
	}
	if filter.Feature != "" {
		term := "%" + strings.ToLower(filter.Feature) + "%"
		query = query.Where("LOWER(audit_logs.feature) LIKE ?", term)
	}
	if filter.Status != nil {
		query = query.Where("audit_logs.status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("audit_logs.timestamp DESC")

	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.PaginationParams{
			Page:   filter.Page,
			Limit:  filter.PageSize,
			Offset: (filter.Page - 1) * filter.PageSize,
		}))
	}

	if err := listQuery.Preload("User").Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// Purge removes entries older than before, or every entry when before is nil.
func (r *GormAuditRepository) Purge(before *time.Time) (int64, error) {
	query := r.db.Model(&models.AuditLog{})

	if before != nil {
		query = query.Where("timestamp < ?", *before)
	} else {
		query = query.Where("1 = 1")
	}

	result := query.Delete(&models.AuditLog{})
	return result.RowsAffected, result.Error
}
