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

// AccountRequest defines the structure for account creation/update requests
type AccountRequest struct {
	Name     string `json:"name"`
	CNPJ     string `json:"cnpj"`
	Website  string `json:"website"`
	Industry string `json:"industry"`
	Phone    string `json:"phone"`
	OwnerID  *uint  `json:"owner_id"`
}

// AccountHandler serves the account endpoints.
type AccountHandler struct {
	db       *gorm.DB
	recorder *audit.Recorder
}

// NewAccountHandler creates an account handler.
func NewAccountHandler(db *gorm.DB, recorder *audit.Recorder) *AccountHandler {
	return &AccountHandler{db: db, recorder: recorder}
}

// List returns the accounts visible to the principal.
func (h *AccountHandler) List(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	limit, offset := pagination(c)
	query := h.db.Scopes(scope.Visible(p))

	if industry := c.QueryParam("industry"); industry != "" {
		query = query.Where("industry = ?", industry)
	}

	var accounts []model.Account
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&accounts).Error; err != nil {
		logger.FromEcho(c).Error("Failed to list accounts", zap.Error(err))
		return apperr.Write(c, apperr.Internal(err))
	}

	return c.JSON(http.StatusOK, accounts)
}

// Get returns a single account.
func (h *AccountHandler) Get(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	account, err := h.load(c, p)
	if err != nil {
		return apperr.Write(c, err)
	}

	return c.JSON(http.StatusOK, account)
}

// Create creates a new account. CNPJ must be unique within the tenant.
func (h *AccountHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	var req AccountRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	if req.CNPJ != "" {
		var count int64
		h.db.Model(&model.Account{}).Where("tenant_id = ? AND cnpj = ?", p.TenantID, req.CNPJ).Count(&count)
		if count > 0 {
			log.Warn("Account with this CNPJ already exists", zap.String("cnpj", req.CNPJ))
			return apperr.Write(c, apperr.Conflict("account with this CNPJ already exists"))
		}
	}

	account := model.Account{
		TenantID:    p.TenantID,
		OwnerID:     scope.DefaultOwner(p, req.OwnerID),
		CreatedByID: p.ID,
		Name:        req.Name,
		CNPJ:        optString(req.CNPJ),
		Website:     req.Website,
		Industry:    req.Industry,
		Phone:       req.Phone,
	}

	if err := h.db.Create(&account).Error; err != nil {
		log.Error("Failed to create account", zap.Error(err))
		return apperr.Write(c, apperr.Internal(err))
	}

	prometheus.RecordEntityOperation("account", "create")
	h.recorder.Record(p, "account", account.ID, audit.ActionCreate)

	return c.JSON(http.StatusCreated, account)
}

// Update modifies an account.
func (h *AccountHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	var req AccountRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	account, err := h.load(c, p)
	if err != nil {
		return apperr.Write(c, err)
	}

	if req.CNPJ != "" && req.CNPJ != formatString(account.CNPJ) {
		var count int64
		h.db.Model(&model.Account{}).
			Where("tenant_id = ? AND cnpj = ? AND id != ?", p.TenantID, req.CNPJ, account.ID).
			Count(&count)
		if count > 0 {
			return apperr.Write(c, apperr.Conflict("account with this CNPJ already exists"))
		}
	}

	type change struct{ field, old, new string }
	var changes []change

	if req.Name != "" && req.Name != account.Name {
		changes = append(changes, change{"name", account.Name, req.Name})
		account.Name = req.Name
	}
	if req.CNPJ != "" && req.CNPJ != formatString(account.CNPJ) {
		changes = append(changes, change{"cnpj", formatString(account.CNPJ), req.CNPJ})
		account.CNPJ = optString(req.CNPJ)
	}
	if req.Website != "" && req.Website != account.Website {
		changes = append(changes, change{"website", account.Website, req.Website})
		account.Website = req.Website
	}
	if req.Industry != "" && req.Industry != account.Industry {
		changes = append(changes, change{"industry", account.Industry, req.Industry})
		account.Industry = req.Industry
	}
	if req.Phone != "" && req.Phone != account.Phone {
		changes = append(changes, change{"phone", account.Phone, req.Phone})
		account.Phone = req.Phone
	}

	newOwner := scope.OwnerForUpdate(p, account.OwnerID, req.OwnerID)
	if formatOwner(newOwner) != formatOwner(account.OwnerID) {
		changes = append(changes, change{"owner_id", formatOwner(account.OwnerID), formatOwner(newOwner)})
		account.OwnerID = newOwner
	}

	if err := h.db.Save(account).Error; err != nil {
		log.Error("Failed to update account", zap.Uint("account_id", account.ID), zap.Error(err))
		return apperr.Write(c, apperr.Internal(err))
	}

	prometheus.RecordEntityOperation("account", "update")
	for _, ch := range changes {
		action := audit.ActionUpdate
		if ch.field == "owner_id" {
			action = audit.ActionAssign
		}
		h.recorder.Record(p, "account", account.ID, action, audit.WithField(ch.field, ch.old, ch.new))
	}

	return c.JSON(http.StatusOK, account)
}

// Delete soft-deletes an account.
func (h *AccountHandler) Delete(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	account, err := h.load(c, p)
	if err != nil {
		return apperr.Write(c, err)
	}

	if err := h.db.Delete(account).Error; err != nil {
		return apperr.Write(c, apperr.Internal(err))
	}

	prometheus.RecordEntityOperation("account", "delete")
	h.recorder.Record(p, "account", account.ID, audit.ActionDelete)

	return c.JSON(http.StatusOK, echo.Map{"message": "account deleted"})
}

func (h *AccountHandler) load(c echo.Context, p *principal.Principal) (*model.Account, error) {
	id, err := pathID(c)
	if err != nil {
		return nil, err
	}

	var account model.Account
	if err := h.db.First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("record not found")
		}
		return nil, apperr.Internal(err)
	}

	if err := scope.RequireAccess(p, &account); err != nil {
		return nil, err
	}
	return &account, nil
}
