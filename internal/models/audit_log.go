package models

import (
	"time"
)

type AuditAction string

const (
	AuditActionCreate AuditAction = "CREATE"
	AuditActionUpdate AuditAction = "UPDATE"
	AuditActionDelete AuditAction = "DELETE"
	AuditActionError  AuditAction = "ERROR"
)

// Valid reports whether the action is one of the allowed values.
func (a AuditAction) Valid() bool {
	switch a {
	case AuditActionCreate, AuditActionUpdate, AuditActionDelete, AuditActionError:
		return true
	}
	return false
}

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "SUCCESS"
	AuditStatusFailed  AuditStatus = "FAILED"
)

// Valid reports whether the status is one of the allowed values.
func (s AuditStatus) Valid() bool {
	return s == AuditStatusSuccess || s == AuditStatusFailed
}

// AuditLog is an append-only record of one action taken against the system.
// Rows are never updated; they survive deletion of the referenced user via
// SET NULL so the trail outlives the actor.
type AuditLog struct {
	ID          uint64      `gorm:"primarykey" json:"id"`
	Timestamp   time.Time   `gorm:"autoCreateTime;index" json:"timestamp"`
	UserID      *uint64     `gorm:"index" json:"user_id"`
	Action      AuditAction `gorm:"type:varchar(20);not null;index" json:"action"`
	Feature     string      `gorm:"type:varchar(100);not null;index" json:"feature"`
	Description string      `gorm:"type:text;not null" json:"description"`
	IPAddress   string      `gorm:"type:varchar(45)" json:"ip_address,omitempty"`
	Status      AuditStatus `gorm:"type:varchar(20);not null;default:'SUCCESS';index" json:"status"`

	// Relations
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`
}
