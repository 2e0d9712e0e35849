package handler

import (
	"net/http"
	"strconv"

	"github.com/Fedevops/tyr-crm-ai-sub001/internal/apperr"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/audit"
	"github.com/labstack/echo/v4"
)

// AuditLogHandler serves scoped reads of the audit trail.
type AuditLogHandler struct {
	recorder *audit.Recorder
}

// NewAuditLogHandler creates an audit log handler.
func NewAuditLogHandler(recorder *audit.Recorder) *AuditLogHandler {
	return &AuditLogHandler{recorder: recorder}
}

// List returns audit entries visible to the principal, newest first.
// Admins see all entries for their tenant, members only their own.
func (h *AuditLogHandler) List(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	limit, offset := pagination(c)

	var entityID *uint
	if raw := c.QueryParam("entity_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid entity_id"})
		}
		v := uint(id)
		entityID = &v
	}

	entries, err := h.recorder.List(p, c.QueryParam("entity_type"), entityID, limit, offset)
	if err != nil {
		return apperr.Write(c, err)
	}

	return c.JSON(http.StatusOK, entries)
}
