package dto

import (
	"time"

	"github.com/taskboard/taskboard-api/internal/models"
)

// AuditLogDTO represents an audit entry in admin API responses
type AuditLogDTO struct {
	ID          uint64             `json:"id"`
	Timestamp   time.Time          `json:"timestamp"`
	Username    string             `json:"username"`
	Action      models.AuditAction `json:"action"`
	Feature     string             `json:"feature"`
	Description string             `json:"description"`
	IPAddress   string             `json:"ip_address,omitempty"`
	Status      models.AuditStatus `json:"status"`
}

// ToAuditLogDTO converts an AuditLog model to AuditLogDTO. The username is
// empty when the referenced user has since been deleted.
func ToAuditLogDTO(entry models.AuditLog) AuditLogDTO {
	dto := AuditLogDTO{
		ID:          entry.ID,
		Timestamp:   entry.Timestamp,
		Action:      entry.Action,
		Feature:     entry.Feature,
		Description: entry.Description,
		IPAddress:   entry.IPAddress,
		Status:      entry.Status,
	}

	if entry.User != nil {
		dto.Username = entry.User.Username
	}

	return dto
}

// ToAuditLogDTOs converts a slice of AuditLog models
func ToAuditLogDTOs(entries []models.AuditLog) []AuditLogDTO {
	items := make([]AuditLogDTO, len(entries))
	for i, entry := range entries {
		items[i] = ToAuditLogDTO(entry)
	}
	return items
}
