package handler

import (
	"errors"
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

// AppointmentRequest defines the structure for appointment creation/update
// requests
type AppointmentRequest struct {
	Title     string     `json:"title"`
	StartsAt  *time.Time `json:"starts_at"`
	EndsAt    *time.Time `json:"ends_at"`
	Location  string     `json:"location"`
	Notes     string     `json:"notes"`
	ContactID *uint      `json:"contact_id"`
	OwnerID   *uint      `json:"owner_id"`
}

// AppointmentHandler serves the appointment endpoints.
type AppointmentHandler struct {
	db       *gorm.DB
	recorder *audit.Recorder
}

// NewAppointmentHandler creates an appointment handler.
func NewAppointmentHandler(db *gorm.DB, recorder *audit.Recorder) *AppointmentHandler {
	return &AppointmentHandler{db: db, recorder: recorder}
}

// List returns the appointments visible to the principal.
func (h *AppointmentHandler) List(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	limit, offset := pagination(c)
	query := h.db.Scopes(scope.Visible(p))

	if from := c.QueryParam("from"); from != "" {
		query = query.Where("starts_at >= ?", from)
	}
	if to := c.QueryParam("to"); to != "" {
		query = query.Where("starts_at < ?", to)
	}

	var appointments []model.Appointment
	if err := query.Order("starts_at ASC").Limit(limit).Offset(offset).Find(&appointments).Error; err != nil {
		logger.FromEcho(c).Error("Failed to list appointments", zap.Error(err))
		return apperr.Write(c, apperr.Internal(err))
	}

	return c.JSON(http.StatusOK, appointments)
}

// Get returns a single appointment.
func (h *AppointmentHandler) Get(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	appointment, err := h.load(c, p)
	if err != nil {
		return apperr.Write(c, err)
	}

	return c.JSON(http.StatusOK, appointment)
}

// Create creates a new appointment.
func (h *AppointmentHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	var req AppointmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.Title == "" || req.StartsAt == nil || req.EndsAt == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title, starts_at and ends_at are required"})
	}
	if !req.EndsAt.After(*req.StartsAt) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be after starts_at"})
	}

	appointment := model.Appointment{
		TenantID:    p.TenantID,
		OwnerID:     scope.DefaultOwner(p, req.OwnerID),
		CreatedByID: p.ID,
		Title:       req.Title,
		StartsAt:    *req.StartsAt,
		EndsAt:      *req.EndsAt,
		Location:    req.Location,
		Notes:       req.Notes,
		ContactID:   req.ContactID,
	}

	if err := h.db.Create(&appointment).Error; err != nil {
		log.Error("Failed to create appointment", zap.Error(err))
		return apperr.Write(c, apperr.Internal(err))
	}

	prometheus.RecordEntityOperation("appointment", "create")
	h.recorder.Record(p, "appointment", appointment.ID, audit.ActionCreate)

	return c.JSON(http.StatusCreated, appointment)
}

// Update modifies an appointment.
func (h *AppointmentHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	var req AppointmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	appointment, err := h.load(c, p)
	if err != nil {
		return apperr.Write(c, err)
	}

	type change struct{ field, old, new string }
	var changes []change

	if req.Title != "" && req.Title != appointment.Title {
		changes = append(changes, change{"title", appointment.Title, req.Title})
		appointment.Title = req.Title
	}
	if req.StartsAt != nil && !req.StartsAt.Equal(appointment.StartsAt) {
		changes = append(changes, change{"starts_at",
			appointment.StartsAt.Format(time.RFC3339), req.StartsAt.Format(time.RFC3339)})
		appointment.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil && !req.EndsAt.Equal(appointment.EndsAt) {
		changes = append(changes, change{"ends_at",
			appointment.EndsAt.Format(time.RFC3339), req.EndsAt.Format(time.RFC3339)})
		appointment.EndsAt = *req.EndsAt
	}
	if req.Location != "" && req.Location != appointment.Location {
		changes = append(changes, change{"location", appointment.Location, req.Location})
		appointment.Location = req.Location
	}
	if req.Notes != "" && req.Notes != appointment.Notes {
		appointment.Notes = req.Notes
	}
	if req.ContactID != nil {
		appointment.ContactID = req.ContactID
	}

	newOwner := scope.OwnerForUpdate(p, appointment.OwnerID, req.OwnerID)
	if formatOwner(newOwner) != formatOwner(appointment.OwnerID) {
		changes = append(changes, change{"owner_id", formatOwner(appointment.OwnerID), formatOwner(newOwner)})
		appointment.OwnerID = newOwner
	}

	if err := h.db.Save(appointment).Error; err != nil {
		log.Error("Failed to update appointment", zap.Uint("appointment_id", appointment.ID), zap.Error(err))
		return apperr.Write(c, apperr.Internal(err))
	}

	prometheus.RecordEntityOperation("appointment", "update")
	for _, ch := range changes {
		action := audit.ActionUpdate
		if ch.field == "owner_id" {
			action = audit.ActionAssign
		}
		h.recorder.Record(p, "appointment", appointment.ID, action, audit.WithField(ch.field, ch.old, ch.new))
	}

	return c.JSON(http.StatusOK, appointment)
}

// Delete soft-deletes an appointment.
func (h *AppointmentHandler) Delete(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	appointment, err := h.load(c, p)
	if err != nil {
		return apperr.Write(c, err)
	}

	if err := h.db.Delete(appointment).Error; err != nil {
		return apperr.Write(c, apperr.Internal(err))
	}

	prometheus.RecordEntityOperation("appointment", "delete")
	h.recorder.Record(p, "appointment", appointment.ID, audit.ActionDelete)

	return c.JSON(http.StatusOK, echo.Map{"message": "appointment deleted"})
}

func (h *AppointmentHandler) load(c echo.Context, p *principal.Principal) (*model.Appointment, error) {
	id, err := pathID(c)
	if err != nil {
		return nil, err
	}

	var appointment model.Appointment
	if err := h.db.First(&appointment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("record not found")
		}
		return nil, apperr.Internal(err)
	}

	if err := scope.RequireAccess(p, &appointment); err != nil {
		return nil, err
	}
	return &appointment, nil
}
