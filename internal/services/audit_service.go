package services

import (
	"time"

	"github.com/taskboard/taskboard-api/internal/apperrors"
	"github.com/taskboard/taskboard-api/internal/models"
	"github.com/taskboard/taskboard-api/internal/repository"
	"go.uber.org/zap"
)

// RecordInput describes one activity to append to the audit trail.
type RecordInput struct {
	User        *models.User
	Action      models.AuditAction
	Feature     string
	Description string
	IPAddress   string
	Status      models.AuditStatus
}

// AuditService appends immutable activity records and mirrors each one to
// the process logger. Entries written inside a repository transaction are
// built with Entry and mirrored afterwards with Emit; standalone entries
// (failure paths, login events) go through Record.
type AuditService struct {
	auditRepo repository.AuditRepository
	logger    *zap.Logger
}

// NewAuditService creates a new AuditService.
func NewAuditService(auditRepo repository.AuditRepository, logger *zap.Logger) *AuditService {
	return &AuditService{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// Entry builds an audit row from the input without persisting it.
func (s *AuditService) Entry(input RecordInput) *models.AuditLog {
	entry := &models.AuditLog{
		Action:      input.Action,
		Feature:     input.Feature,
		Description: input.Description,
		IPAddress:   input.IPAddress,
		Status:      input.Status,
	}
	if input.User != nil {
		entry.UserID = &input.User.ID
		entry.User = input.User
	}
	return entry
}

// Record appends one entry and mirrors it to the process logger. A storage
// failure here is fatal for the operation, never swallowed.
func (s *AuditService) Record(input RecordInput) (*models.AuditLog, error) {
	entry := s.Entry(input)

	if err := s.auditRepo.Create(entry); err != nil {
		return nil, apperrors.NewStorage("failed to record audit entry", err)
	}

	s.Emit(entry)
	return entry, nil
}

// Emit mirrors an already-persisted entry to the process logger at Info for
// successes and Error for failures.
func (s *AuditService) Emit(entry *models.AuditLog) {
	username := "anonymous"
	if entry.User != nil {
		username = entry.User.Username
	}

	fields := []zap.Field{
		zap.String("action", string(entry.Action)),
		zap.String("feature", entry.Feature),
		zap.String("description", entry.Description),
		zap.String("user", username),
		zap.String("ip", entry.IPAddress),
		zap.String("status", string(entry.Status)),
	}

	if entry.Status == models.AuditStatusSuccess {
		s.logger.Info("audit", fields...)
	} else {
		s.logger.Error("audit", fields...)
	}
}

// List returns audit entries for the admin surface, newest first.
func (s *AuditService) List(filter repository.AuditFilter) ([]models.AuditLog, int64, error) {
	entries, total, err := s.auditRepo.List(filter)
	if err != nil {
		return nil, 0, apperrors.NewStorage("failed to list audit entries", err)
	}
	return entries, total, nil
}

// Purge removes entries older than before (all entries when nil) and
// records the purge itself so the trail never ends silently.
func (s *AuditService) Purge(before *time.Time, actor *models.User, ip string) (int64, error) {
	removed, err := s.auditRepo.Purge(before)
	if err != nil {
		return 0, apperrors.NewStorage("failed to purge audit entries", err)
	}

	description := "Purged all audit entries"
	if before != nil {
		description = "Purged audit entries older than " + before.Format(time.RFC3339)
	}

	if _, err := s.Record(RecordInput{
		User:        actor,
		Action:      models.AuditActionDelete,
		Feature:     "audit",
		Description: description,
		IPAddress:   ip,
		Status:      models.AuditStatusSuccess,
	}); err != nil {
		return removed, err
	}

	return removed, nil
}
