package handler

import (
	"errors"
	"net/http"

	"github.com/Fedevops/tyr-crm-ai-sub001/internal/apperr"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/model"
	"github.com/Fedevops/tyr-crm-ai-sub001/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PartnerHandler serves the read-only partner portal. Partner principals
// never see tenant data beyond the leads their own organization referred.
type PartnerHandler struct {
	db *gorm.DB
}

// NewPartnerHandler creates a partner portal handler.
func NewPartnerHandler(db *gorm.DB) *PartnerHandler {
	return &PartnerHandler{db: db}
}

// Profile returns the authenticated partner user's organization profile.
func (h *PartnerHandler) Profile(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	var org model.PartnerOrg
	if err := h.db.First(&org, p.PartnerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Write(c, apperr.NotFound("record not found"))
		}
		return apperr.Write(c, apperr.Internal(err))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":       org.ID,
		"name":     org.Name,
		"cnpj":     org.CNPJ,
		"status":   org.Status,
		"email":    p.Email,
		"is_owner": p.IsOwner,
	})
}

// Leads returns the leads referred by the partner's organization,
// regardless of which tenant they landed in.
func (h *PartnerHandler) Leads(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	limit, offset := pagination(c)
	query := h.db.Where("partner_id = ?", p.PartnerID)

	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var leads []model.Lead
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&leads).Error; err != nil {
		logger.FromEcho(c).Error("Failed to list partner leads", zap.Error(err))
		return apperr.Write(c, apperr.Internal(err))
	}

	// Partners get a trimmed projection, not the full tenant record.
	type partnerLead struct {
		ID        uint   `json:"id"`
		Name      string `json:"name"`
		Company   string `json:"company"`
		Status    string `json:"status"`
		CreatedAt string `json:"created_at"`
	}
	out := make([]partnerLead, 0, len(leads))
	for _, l := range leads {
		out = append(out, partnerLead{
			ID:        l.ID,
			Name:      l.Name,
			Company:   l.Company,
			Status:    l.Status,
			CreatedAt: l.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}

	return c.JSON(http.StatusOK, out)
}
