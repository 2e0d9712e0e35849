package handler

import (
	"errors"
	"fmt"
	"net/http"

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

// ItemRequest defines the structure for item creation/update requests
type ItemRequest struct {
	SKU         string   `json:"sku"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Active      *bool    `json:"active"`
	OwnerID     *uint    `json:"owner_id"`
}

// ItemHandler serves the catalog item endpoints.
type ItemHandler struct {
	db       *gorm.DB
	limiter  *limits.Limiter
	recorder *audit.Recorder
}

// NewItemHandler creates an item handler.
func NewItemHandler(db *gorm.DB, limiter *limits.Limiter, recorder *audit.Recorder) *ItemHandler {
	return &ItemHandler{db: db, limiter: limiter, recorder: recorder}
}

// List returns the items visible to the principal.
func (h *ItemHandler) List(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	limit, offset := pagination(c)
	query := h.db.Scopes(scope.Visible(p))

	if active := c.QueryParam("active"); active != "" {
		query = query.Where("active = ?", active == "true")
	}

	var items []model.Item
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		logger.FromEcho(c).Error("Failed to list items", zap.Error(err))
		return apperr.Write(c, apperr.Internal(err))
	}

	return c.JSON(http.StatusOK, items)
}

// Get returns a single item.
func (h *ItemHandler) Get(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	item, err := h.load(c, p)
	if err != nil {
		return apperr.Write(c, err)
	}

	return c.JSON(http.StatusOK, item)
}

// Create creates a new item. SKU must be unique within the tenant, and the
// tenant's item cap applies.
func (h *ItemHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	var req ItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.SKU == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sku and name are required"})
	}

	if err := h.limiter.CheckLimit(p.TenantID, limits.MetricItems); err != nil {
		prometheus.RecordLimitDenied(string(limits.MetricItems))
		return apperr.Write(c, err)
	}

	var count int64
	h.db.Model(&model.Item{}).Where("tenant_id = ? AND sku = ?", p.TenantID, req.SKU).Count(&count)
	if count > 0 {
		log.Warn("Item with this SKU already exists", zap.String("sku", req.SKU))
		return apperr.Write(c, apperr.Conflict("item with this SKU already exists"))
	}

	item := model.Item{
		TenantID:    p.TenantID,
		OwnerID:     scope.DefaultOwner(p, req.OwnerID),
		CreatedByID: p.ID,
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Active:      true,
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.Active != nil {
		item.Active = *req.Active
	}

	if err := h.db.Create(&item).Error; err != nil {
		log.Error("Failed to create item", zap.Error(err))
		return apperr.Write(c, apperr.Internal(err))
	}

	prometheus.RecordEntityOperation("item", "create")
	h.recorder.Record(p, "item", item.ID, audit.ActionCreate)

	return c.JSON(http.StatusCreated, item)
}

// Update modifies an item.
func (h *ItemHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	var req ItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	item, err := h.load(c, p)
	if err != nil {
		return apperr.Write(c, err)
	}

	if req.SKU != "" && req.SKU != item.SKU {
		var count int64
		h.db.Model(&model.Item{}).
			Where("tenant_id = ? AND sku = ? AND id != ?", p.TenantID, req.SKU, item.ID).
			Count(&count)
		if count > 0 {
			return apperr.Write(c, apperr.Conflict("item with this SKU already exists"))
		}
	}

	type change struct{ field, old, new string }
	var changes []change

	if req.SKU != "" && req.SKU != item.SKU {
		changes = append(changes, change{"sku", item.SKU, req.SKU})
		item.SKU = req.SKU
	}
	if req.Name != "" && req.Name != item.Name {
		changes = append(changes, change{"name", item.Name, req.Name})
		item.Name = req.Name
	}
	if req.Description != "" && req.Description != item.Description {
		changes = append(changes, change{"description", item.Description, req.Description})
		item.Description = req.Description
	}
	if req.Price != nil && *req.Price != item.Price {
		changes = append(changes, change{"price",
			fmt.Sprintf("%.2f", item.Price), fmt.Sprintf("%.2f", *req.Price)})
		item.Price = *req.Price
	}
	if req.Active != nil && *req.Active != item.Active {
		changes = append(changes, change{"active", fmt.Sprint(item.Active), fmt.Sprint(*req.Active)})
		item.Active = *req.Active
	}

	newOwner := scope.OwnerForUpdate(p, item.OwnerID, req.OwnerID)
	if formatOwner(newOwner) != formatOwner(item.OwnerID) {
		changes = append(changes, change{"owner_id", formatOwner(item.OwnerID), formatOwner(newOwner)})
		item.OwnerID = newOwner
	}

	if err := h.db.Save(item).Error; err != nil {
		log.Error("Failed to update item", zap.Uint("item_id", item.ID), zap.Error(err))
		return apperr.Write(c, apperr.Internal(err))
	}

	prometheus.RecordEntityOperation("item", "update")
	for _, ch := range changes {
		action := audit.ActionUpdate
		if ch.field == "owner_id" {
			action = audit.ActionAssign
		}
		h.recorder.Record(p, "item", item.ID, action, audit.WithField(ch.field, ch.old, ch.new))
	}

	return c.JSON(http.StatusOK, item)
}

// Delete soft-deletes an item.
func (h *ItemHandler) Delete(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	item, err := h.load(c, p)
	if err != nil {
		return apperr.Write(c, err)
	}

	if err := h.db.Delete(item).Error; err != nil {
		return apperr.Write(c, apperr.Internal(err))
	}

	prometheus.RecordEntityOperation("item", "delete")
	h.recorder.Record(p, "item", item.ID, audit.ActionDelete)

	return c.JSON(http.StatusOK, echo.Map{"message": "item deleted"})
}

func (h *ItemHandler) load(c echo.Context, p *principal.Principal) (*model.Item, error) {
	id, err := pathID(c)
	if err != nil {
		return nil, err
	}

	var item model.Item
	if err := h.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("record not found")
		}
		return nil, apperr.Internal(err)
	}

	if err := scope.RequireAccess(p, &item); err != nil {
		return nil, err
	}
	return &item, nil
}
