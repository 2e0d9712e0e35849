package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Fedevops/tyr-crm-ai-sub001/internal/apperr"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/audit"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/model"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/principal"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/scope"
	"github.com/Fedevops/tyr-crm-ai-sub001/pkg/logger"
	"github.com/Fedevops/tyr-crm-ai-sub001/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OpportunityRequest defines the structure for opportunity creation/update
// requests
type OpportunityRequest struct {
	Name      string     `json:"name"`
	AccountID *uint      `json:"account_id"`
	ContactID *uint      `json:"contact_id"`
	Amount    *float64   `json:"amount"`
	CloseDate *time.Time `json:"close_date"`
	OwnerID   *uint      `json:"owner_id"`
}

// OpportunityHandler serves the opportunity endpoints.
type OpportunityHandler struct {
	db       *gorm.DB
	recorder *audit.Recorder
}

// NewOpportunityHandler creates an opportunity handler.
func NewOpportunityHandler(db *gorm.DB, recorder *audit.Recorder) *OpportunityHandler {
	return &OpportunityHandler{db: db, recorder: recorder}
}

// List returns the opportunities visible to the principal.
func (h *OpportunityHandler) List(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	limit, offset := pagination(c)
	query := h.db.Scopes(scope.Visible(p))

	if stage := c.QueryParam("stage"); stage != "" {
		query = query.Where("stage = ?", stage)
	}
	if accountID := c.QueryParam("account_id"); accountID != "" {
		query = query.Where("account_id = ?", accountID)
	}

	var opportunities []model.Opportunity
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&opportunities).Error; err != nil {
		logger.FromEcho(c).Error("Failed to list opportunities", zap.Error(err))
		return apperr.Write(c, apperr.Internal(err))
	}

	return c.JSON(http.StatusOK, opportunities)
}

// Get returns a single opportunity.
func (h *OpportunityHandler) Get(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	opportunity, err := h.load(c, p)
	if err != nil {
		return apperr.Write(c, err)
	}

	return c.JSON(http.StatusOK, opportunity)
}

// Create creates a new opportunity.
func (h *OpportunityHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	var req OpportunityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	opportunity := model.Opportunity{
		TenantID:    p.TenantID,
		OwnerID:     scope.DefaultOwner(p, req.OwnerID),
		CreatedByID: p.ID,
		Name:        req.Name,
		AccountID:   req.AccountID,
		ContactID:   req.ContactID,
		Stage:       model.StageProspecting,
		CloseDate:   req.CloseDate,
	}
	if req.Amount != nil {
		opportunity.Amount = *req.Amount
	}

	if err := h.db.Create(&opportunity).Error; err != nil {
		log.Error("Failed to create opportunity", zap.Error(err))
		return apperr.Write(c, apperr.Internal(err))
	}

	prometheus.RecordEntityOperation("opportunity", "create")
	h.recorder.Record(p, "opportunity", opportunity.ID, audit.ActionCreate)

	return c.JSON(http.StatusCreated, opportunity)
}

// Update modifies an opportunity.
func (h *OpportunityHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	var req OpportunityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	opportunity, err := h.load(c, p)
	if err != nil {
		return apperr.Write(c, err)
	}

	type change struct{ field, old, new string }
	var changes []change

	if req.Name != "" && req.Name != opportunity.Name {
		changes = append(changes, change{"name", opportunity.Name, req.Name})
		opportunity.Name = req.Name
	}
	if req.Amount != nil && *req.Amount != opportunity.Amount {
		changes = append(changes, change{"amount",
			fmt.Sprintf("%.2f", opportunity.Amount), fmt.Sprintf("%.2f", *req.Amount)})
		opportunity.Amount = *req.Amount
	}
	if req.AccountID != nil {
		opportunity.AccountID = req.AccountID
	}
	if req.ContactID != nil {
		opportunity.ContactID = req.ContactID
	}
	if req.CloseDate != nil {
		opportunity.CloseDate = req.CloseDate
	}

	newOwner := scope.OwnerForUpdate(p, opportunity.OwnerID, req.OwnerID)
	if formatOwner(newOwner) != formatOwner(opportunity.OwnerID) {
		changes = append(changes, change{"owner_id", formatOwner(opportunity.OwnerID), formatOwner(newOwner)})
		opportunity.OwnerID = newOwner
	}

	if err := h.db.Save(opportunity).Error; err != nil {
		log.Error("Failed to update opportunity", zap.Uint("opportunity_id", opportunity.ID), zap.Error(err))
		return apperr.Write(c, apperr.Internal(err))
	}

	prometheus.RecordEntityOperation("opportunity", "update")
	for _, ch := range changes {
		action := audit.ActionUpdate
		if ch.field == "owner_id" {
			action = audit.ActionAssign
		}
		h.recorder.Record(p, "opportunity", opportunity.ID, action, audit.WithField(ch.field, ch.old, ch.new))
	}

	return c.JSON(http.StatusOK, opportunity)
}

// UpdateStage transitions the opportunity's pipeline stage.
func (h *OpportunityHandler) UpdateStage(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	var req struct {
		Stage string `json:"stage"`
	}
	if err := c.Bind(&req); err != nil || req.Stage == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "stage is required"})
	}

	opportunity, err := h.load(c, p)
	if err != nil {
		return apperr.Write(c, err)
	}

	old := opportunity.Stage
	if old == req.Stage {
		return c.JSON(http.StatusOK, opportunity)
	}

	opportunity.Stage = req.Stage
	if err := h.db.Save(opportunity).Error; err != nil {
		return apperr.Write(c, apperr.Internal(err))
	}

	prometheus.RecordEntityOperation("opportunity", "stage_change")
	h.recorder.Record(p, "opportunity", opportunity.ID, audit.ActionStageChange,
		audit.WithField("stage", old, req.Stage))

	return c.JSON(http.StatusOK, opportunity)
}

// Delete soft-deletes an opportunity.
func (h *OpportunityHandler) Delete(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	opportunity, err := h.load(c, p)
	if err != nil {
		return apperr.Write(c, err)
	}

	if err := h.db.Delete(opportunity).Error; err != nil {
		return apperr.Write(c, apperr.Internal(err))
	}

	prometheus.RecordEntityOperation("opportunity", "delete")
	h.recorder.Record(p, "opportunity", opportunity.ID, audit.ActionDelete)

	return c.JSON(http.StatusOK, echo.Map{"message": "opportunity deleted"})
}

func (h *OpportunityHandler) load(c echo.Context, p *principal.Principal) (*model.Opportunity, error) {
	id, err := pathID(c)
	if err != nil {
		return nil, err
	}

	var opportunity model.Opportunity
	if err := h.db.First(&opportunity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("record not found")
		}
		return nil, apperr.Internal(err)
	}

	if err := scope.RequireAccess(p, &opportunity); err != nil {
		return nil, err
	}
	return &opportunity, nil
}
