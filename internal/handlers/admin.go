package handlers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskboard/taskboard-api/internal/apperrors"
	"github.com/taskboard/taskboard-api/internal/dto"
	"github.com/taskboard/taskboard-api/internal/middleware"
	"github.com/taskboard/taskboard-api/internal/models"
	"github.com/taskboard/taskboard-api/internal/repository"
	"github.com/taskboard/taskboard-api/internal/services"
	"github.com/taskboard/taskboard-api/internal/utils"
)

// AdminHandler serves the superuser-only audit surface.
type AdminHandler struct {
	auditService *services.AuditService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(auditService *services.AuditService) *AdminHandler {
	return &AdminHandler{
		auditService: auditService,
	}
}

// ListAuditLogs returns audit entries newest first with optional filters:
// user (username substring), action (exact), feature (substring), status
// (exact).
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	filter := repository.AuditFilter{
		Username: c.Query("user"),
		Feature:  c.Query("feature"),
		Page:     params.Page,
		PageSize: params.Limit,
	}
	fields := map[string]string{}
	if action := c.Query("action"); action != "" {
		a := models.AuditAction(action)
		if !a.Valid() {
			fields["action"] = "Action must be one of: CREATE, UPDATE, DELETE, ERROR"
		} else {
			filter.Action = &a
		}
	}
	if status := c.Query("status"); status != "" {
		s := models.AuditStatus(status)
		if !s.Valid() {
			fields["status"] = "Status must be one of: SUCCESS, FAILED"
		} else {
			filter.Status = &s
		}
	}
	if len(fields) > 0 {
		apperrors.RespondError(c, apperrors.NewValidation("Validation failed", fields))
		return
	}

	entries, total, err := h.auditService.List(filter)
	if err != nil {
		apperrors.RespondError(c, err)
		return
	}

	respondPage(c, "Audit logs retrieved successfully", params, total, dto.ToAuditLogDTOs(entries))
}

// PurgeAuditLogs wipes audit entries, optionally only those older than the
// RFC3339 timestamp in the "before" query parameter.
func (h *AdminHandler) PurgeAuditLogs(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	var before *time.Time
	if raw := c.Query("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			apperrors.BadRequest(c, "before must be an RFC3339 timestamp")
			return
		}
		before = &parsed
	}

	removed, err := h.auditService.Purge(before, user, middleware.ClientIP(c))
	if err != nil {
		apperrors.RespondError(c, err)
		return
	}

	respondOK(c, fmt.Sprintf("Purged %d audit entries", removed), gin.H{"removed": removed})
}
