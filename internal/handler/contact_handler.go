package handler

import (
	"errors"
	"net/http"

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

// ContactRequest defines the structure for contact creation/update requests
type ContactRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Title     string `json:"title"`
	AccountID *uint  `json:"account_id"`
	OwnerID   *uint  `json:"owner_id"`
}

// ContactHandler serves the contact endpoints.
type ContactHandler struct {
	db       *gorm.DB
	recorder *audit.Recorder
}

// NewContactHandler creates a contact handler.
func NewContactHandler(db *gorm.DB, recorder *audit.Recorder) *ContactHandler {
	return &ContactHandler{db: db, recorder: recorder}
}

// List returns the contacts visible to the principal.
func (h *ContactHandler) List(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	limit, offset := pagination(c)
	query := h.db.Scopes(scope.Visible(p))

	if accountID := c.QueryParam("account_id"); accountID != "" {
		query = query.Where("account_id = ?", accountID)
	}

	var contacts []model.Contact
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&contacts).Error; err != nil {
		logger.FromEcho(c).Error("Failed to list contacts", zap.Error(err))
		return apperr.Write(c, apperr.Internal(err))
	}

	return c.JSON(http.StatusOK, contacts)
}

// Get returns a single contact.
func (h *ContactHandler) Get(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	contact, err := h.load(c, p)
	if err != nil {
		return apperr.Write(c, err)
	}

	return c.JSON(http.StatusOK, contact)
}

// Create creates a new contact.
func (h *ContactHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	var req ContactRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	contact := model.Contact{
		TenantID:    p.TenantID,
		OwnerID:     scope.DefaultOwner(p, req.OwnerID),
		CreatedByID: p.ID,
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Title:       req.Title,
		AccountID:   req.AccountID,
	}

	if err := h.db.Create(&contact).Error; err != nil {
		log.Error("Failed to create contact", zap.Error(err))
		return apperr.Write(c, apperr.Internal(err))
	}

	prometheus.RecordEntityOperation("contact", "create")
	h.recorder.Record(p, "contact", contact.ID, audit.ActionCreate)

	return c.JSON(http.StatusCreated, contact)
}

// Update modifies a contact.
func (h *ContactHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	var req ContactRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	contact, err := h.load(c, p)
	if err != nil {
		return apperr.Write(c, err)
	}

	type change struct{ field, old, new string }
	var changes []change

	if req.Name != "" && req.Name != contact.Name {
		changes = append(changes, change{"name", contact.Name, req.Name})
		contact.Name = req.Name
	}
	if req.Email != "" && req.Email != contact.Email {
		changes = append(changes, change{"email", contact.Email, req.Email})
		contact.Email = req.Email
	}
	if req.Phone != "" && req.Phone != contact.Phone {
		changes = append(changes, change{"phone", contact.Phone, req.Phone})
		contact.Phone = req.Phone
	}
	if req.Title != "" && req.Title != contact.Title {
		changes = append(changes, change{"title", contact.Title, req.Title})
		contact.Title = req.Title
	}
	if req.AccountID != nil {
		contact.AccountID = req.AccountID
	}

	newOwner := scope.OwnerForUpdate(p, contact.OwnerID, req.OwnerID)
	if formatOwner(newOwner) != formatOwner(contact.OwnerID) {
		changes = append(changes, change{"owner_id", formatOwner(contact.OwnerID), formatOwner(newOwner)})
		contact.OwnerID = newOwner
	}

	if err := h.db.Save(contact).Error; err != nil {
		log.Error("Failed to update contact", zap.Uint("contact_id", contact.ID), zap.Error(err))
		return apperr.Write(c, apperr.Internal(err))
	}

	prometheus.RecordEntityOperation("contact", "update")
	for _, ch := range changes {
		action := audit.ActionUpdate
		if ch.field == "owner_id" {
			action = audit.ActionAssign
		}
		h.recorder.Record(p, "contact", contact.ID, action, audit.WithField(ch.field, ch.old, ch.new))
	}

	return c.JSON(http.StatusOK, contact)
}

// Delete soft-deletes a contact.
func (h *ContactHandler) Delete(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	contact, err := h.load(c, p)
	if err != nil {
		return apperr.Write(c, err)
	}

	if err := h.db.Delete(contact).Error; err != nil {
		return apperr.Write(c, apperr.Internal(err))
	}

	prometheus.RecordEntityOperation("contact", "delete")
	h.recorder.Record(p, "contact", contact.ID, audit.ActionDelete)

	return c.JSON(http.StatusOK, echo.Map{"message": "contact deleted"})
}

func (h *ContactHandler) load(c echo.Context, p *principal.Principal) (*model.Contact, error) {
	id, err := pathID(c)
	if err != nil {
		return nil, err
	}

	var contact model.Contact
	if err := h.db.First(&contact, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("record not found")
		}
		return nil, apperr.Internal(err)
	}

	if err := scope.RequireAccess(p, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}
