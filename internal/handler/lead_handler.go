package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Fedevops/tyr-crm-ai-sub001/internal/apperr"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/audit"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/limits"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/model"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/principal"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/scope"
	"github.com/Fedevops/tyr-crm-ai-sub001/pkg/logger"
	"github.com/Fedevops/tyr-crm-ai-sub001/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LeadRequest defines the structure for lead creation/update requests
type LeadRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Source  string `json:"source"`
	Score   *int   `json:"score"`
	OwnerID *uint  `json:"owner_id"`
}

// LeadHandler serves the lead endpoints.
type LeadHandler struct {
	db       *gorm.DB
	limiter  *limits.Limiter
	recorder *audit.Recorder
}

// NewLeadHandler creates a lead handler.
func NewLeadHandler(db *gorm.DB, limiter *limits.Limiter, recorder *audit.Recorder) *LeadHandler {
	return &LeadHandler{db: db, limiter: limiter, recorder: recorder}
}

// List returns the leads visible to the principal.
func (h *LeadHandler) List(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	limit, offset := pagination(c)
	query := h.db.Scopes(scope.Visible(p))

	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if source := c.QueryParam("source"); source != "" {
		query = query.Where("source = ?", source)
	}

	var leads []model.Lead
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&leads).Error; err != nil {
		logger.FromEcho(c).Error("Failed to list leads", zap.Error(err))
		return apperr.Write(c, apperr.Internal(err))
	}

	return c.JSON(http.StatusOK, leads)
}

// Get returns a single lead. Denied access reads as absence.
func (h *LeadHandler) Get(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	lead, err := h.load(c, p)
	if err != nil {
		return apperr.Write(c, err)
	}

	return c.JSON(http.StatusOK, lead)
}

// Create creates a new lead owned by the requested or current user.
func (h *LeadHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	var req LeadRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	// The leads metric always passes; the check stays so the flow is
	// uniform with every other create.
	if err := h.limiter.CheckLimit(p.TenantID, limits.MetricLeads); err != nil {
		prometheus.RecordLimitDenied(string(limits.MetricLeads))
		return apperr.Write(c, err)
	}

	lead := model.Lead{
		TenantID:    p.TenantID,
		OwnerID:     scope.DefaultOwner(p, req.OwnerID),
		CreatedByID: p.ID,
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Company:     req.Company,
		Source:      req.Source,
		Status:      model.LeadStatusNew,
	}
	if req.Score != nil {
		lead.Score = *req.Score
	}

	if err := h.db.Create(&lead).Error; err != nil {
		log.Error("Failed to create lead", zap.Error(err))
		return apperr.Write(c, apperr.Internal(err))
	}

	prometheus.RecordEntityOperation("lead", "create")
	h.recorder.Record(p, "lead", lead.ID, audit.ActionCreate)

	log.Info("Lead created",
		zap.Uint("lead_id", lead.ID),
		zap.String("name", lead.Name))
	return c.JSON(http.StatusCreated, lead)
}

// Update modifies a lead, recording one audit entry per changed field.
// Owner reassignment by non-admins to anyone but themselves is silently
// ignored.
func (h *LeadHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	var req LeadRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	lead, err := h.load(c, p)
	if err != nil {
		return apperr.Write(c, err)
	}

	type change struct{ field, old, new string }
	var changes []change

	if req.Name != "" && req.Name != lead.Name {
		changes = append(changes, change{"name", lead.Name, req.Name})
		lead.Name = req.Name
	}
	if req.Email != "" && req.Email != lead.Email {
		changes = append(changes, change{"email", lead.Email, req.Email})
		lead.Email = req.Email
	}
	if req.Phone != "" && req.Phone != lead.Phone {
		changes = append(changes, change{"phone", lead.Phone, req.Phone})
		lead.Phone = req.Phone
	}
	if req.Company != "" && req.Company != lead.Company {
		changes = append(changes, change{"company", lead.Company, req.Company})
		lead.Company = req.Company
	}
	if req.Source != "" && req.Source != lead.Source {
		changes = append(changes, change{"source", lead.Source, req.Source})
		lead.Source = req.Source
	}
	if req.Score != nil && *req.Score != lead.Score {
		changes = append(changes, change{"score", fmt.Sprint(lead.Score), fmt.Sprint(*req.Score)})
		lead.Score = *req.Score
	}

	newOwner := scope.OwnerForUpdate(p, lead.OwnerID, req.OwnerID)
	ownerChanged := formatOwner(newOwner) != formatOwner(lead.OwnerID)
	if ownerChanged {
		changes = append(changes, change{"owner_id", formatOwner(lead.OwnerID), formatOwner(newOwner)})
		lead.OwnerID = newOwner
	}

	if err := h.db.Save(lead).Error; err != nil {
		log.Error("Failed to update lead", zap.Uint("lead_id", lead.ID), zap.Error(err))
		return apperr.Write(c, apperr.Internal(err))
	}

	prometheus.RecordEntityOperation("lead", "update")
	for _, ch := range changes {
		action := audit.ActionUpdate
		if ch.field == "owner_id" {
			action = audit.ActionAssign
		}
		h.recorder.Record(p, "lead", lead.ID, action, audit.WithField(ch.field, ch.old, ch.new))
	}

	return c.JSON(http.StatusOK, lead)
}

// Delete soft-deletes a lead.
func (h *LeadHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	lead, err := h.load(c, p)
	if err != nil {
		return apperr.Write(c, err)
	}

	if err := h.db.Delete(lead).Error; err != nil {
		log.Error("Failed to delete lead", zap.Uint("lead_id", lead.ID), zap.Error(err))
		return apperr.Write(c, apperr.Internal(err))
	}

	prometheus.RecordEntityOperation("lead", "delete")
	h.recorder.Record(p, "lead", lead.ID, audit.ActionDelete)

	return c.JSON(http.StatusOK, echo.Map{"message": "lead deleted"})
}

// Assign sets the lead's owner.
func (h *LeadHandler) Assign(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	var req struct {
		OwnerID *uint `json:"owner_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	lead, err := h.load(c, p)
	if err != nil {
		return apperr.Write(c, err)
	}

	newOwner := scope.OwnerForUpdate(p, lead.OwnerID, req.OwnerID)
	if formatOwner(newOwner) == formatOwner(lead.OwnerID) {
		return c.JSON(http.StatusOK, lead)
	}

	oldOwner := lead.OwnerID
	lead.OwnerID = newOwner
	if err := h.db.Save(lead).Error; err != nil {
		return apperr.Write(c, apperr.Internal(err))
	}

	prometheus.RecordEntityOperation("lead", "assign")
	h.recorder.Record(p, "lead", lead.ID, audit.ActionAssign,
		audit.WithField("owner_id", formatOwner(oldOwner), formatOwner(newOwner)))

	return c.JSON(http.StatusOK, lead)
}

// UpdateStatus transitions the lead's status.
func (h *LeadHandler) UpdateStatus(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}

	lead, err := h.load(c, p)
	if err != nil {
		return apperr.Write(c, err)
	}

	old := lead.Status
	if old == req.Status {
		return c.JSON(http.StatusOK, lead)
	}

	lead.Status = req.Status
	if err := h.db.Save(lead).Error; err != nil {
		return apperr.Write(c, apperr.Internal(err))
	}

	prometheus.RecordEntityOperation("lead", "status_change")
	h.recorder.Record(p, "lead", lead.ID, audit.ActionStatusChange,
		audit.WithField("status", old, req.Status))

	return c.JSON(http.StatusOK, lead)
}

// ConvertRequest carries optional details for the records created by a
// conversion.
type ConvertRequest struct {
	AccountName       string  `json:"account_name"`
	CNPJ              string  `json:"cnpj"`
	OpportunityName   string  `json:"opportunity_name"`
	OpportunityAmount float64 `json:"opportunity_amount"`
}

// Convert turns a qualified lead into an account, a contact and an open
// opportunity. The three records are created in one transaction; the lead
// is marked converted.
func (h *LeadHandler) Convert(c echo.Context) error {
	log := logger.FromEcho(c)
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	var req ConvertRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	lead, err := h.load(c, p)
	if err != nil {
		return apperr.Write(c, err)
	}

	if lead.Status == model.LeadStatusConverted {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "lead is already converted"})
	}

	accountName := req.AccountName
	if accountName == "" {
		accountName = lead.Company
	}
	if accountName == "" {
		accountName = lead.Name
	}
	opportunityName := req.OpportunityName
	if opportunityName == "" {
		opportunityName = accountName
	}

	var account model.Account
	var contact model.Contact
	var opportunity model.Opportunity

	err = h.db.Transaction(func(tx *gorm.DB) error {
		account = model.Account{
			TenantID:    p.TenantID,
			OwnerID:     lead.OwnerID,
			CreatedByID: p.ID,
			Name:        accountName,
			CNPJ:        optString(req.CNPJ),
			Phone:       lead.Phone,
		}
		if err := tx.Create(&account).Error; err != nil {
			return err
		}

		contact = model.Contact{
			TenantID:    p.TenantID,
			OwnerID:     lead.OwnerID,
			CreatedByID: p.ID,
			Name:        lead.Name,
			Email:       lead.Email,
			Phone:       lead.Phone,
			AccountID:   &account.ID,
		}
		if err := tx.Create(&contact).Error; err != nil {
			return err
		}

		opportunity = model.Opportunity{
			TenantID:    p.TenantID,
			OwnerID:     lead.OwnerID,
			CreatedByID: p.ID,
			Name:        opportunityName,
			AccountID:   &account.ID,
			ContactID:   &contact.ID,
			Amount:      req.OpportunityAmount,
			Stage:       model.StageProspecting,
		}
		if err := tx.Create(&opportunity).Error; err != nil {
			return err
		}

		now := time.Now()
		lead.Status = model.LeadStatusConverted
		lead.AccountID = &account.ID
		lead.ConvertedAt = &now
		return tx.Save(lead).Error
	})
	if err != nil {
		log.Error("Failed to convert lead", zap.Uint("lead_id", lead.ID), zap.Error(err))
		return apperr.Write(c, apperr.Internal(err))
	}

	prometheus.LeadConvertedCounter.Inc()
	prometheus.RecordEntityOperation("lead", "convert")
	h.recorder.Record(p, "lead", lead.ID, audit.ActionConvert,
		audit.WithMetadata(fmt.Sprintf(`{"account_id":%d,"contact_id":%d,"opportunity_id":%d}`,
			account.ID, contact.ID, opportunity.ID)))

	log.Info("Lead converted",
		zap.Uint("lead_id", lead.ID),
		zap.Uint("account_id", account.ID),
		zap.Uint("opportunity_id", opportunity.ID))

	return c.JSON(http.StatusCreated, echo.Map{
		"lead":        lead,
		"account":     account,
		"contact":     contact,
		"opportunity": opportunity,
	})
}

// load fetches the lead by id and enforces access. Out-of-tenant and
// other-owner records read as not found.
func (h *LeadHandler) load(c echo.Context, p *principal.Principal) (*model.Lead, error) {
	id, err := pathID(c)
	if err != nil {
		return nil, err
	}

	var lead model.Lead
	if err := h.db.First(&lead, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("record not found")
		}
		return nil, apperr.Internal(err)
	}

	if err := scope.RequireAccess(p, &lead); err != nil {
		return nil, err
	}
	return &lead, nil
}
