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

// TaskRequest defines the structure for task creation/update requests
type TaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Done        *bool      `json:"done"`
	RelatedType string     `json:"related_type"`
	RelatedID   *uint      `json:"related_id"`
	OwnerID     *uint      `json:"owner_id"`
}

// TaskHandler serves the task endpoints.
type TaskHandler struct {
	db       *gorm.DB
	recorder *audit.Recorder
}

// NewTaskHandler creates a task handler.
func NewTaskHandler(db *gorm.DB, recorder *audit.Recorder) *TaskHandler {
	return &TaskHandler{db: db, recorder: recorder}
}

// List returns the tasks visible to the principal.
func (h *TaskHandler) List(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	limit, offset := pagination(c)
	query := h.db.Scopes(scope.Visible(p))

	if done := c.QueryParam("done"); done != "" {
		query = query.Where("done = ?", done == "true")
	}

	var tasks []model.Task
	if err := query.Order("due_date ASC NULLS LAST").Limit(limit).Offset(offset).Find(&tasks).Error; err != nil {
		logger.FromEcho(c).Error("Failed to list tasks", zap.Error(err))
		return apperr.Write(c, apperr.Internal(err))
	}

	return c.JSON(http.StatusOK, tasks)
}

// Get returns a single task.
func (h *TaskHandler) Get(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	task, err := h.load(c, p)
	if err != nil {
		return apperr.Write(c, err)
	}

	return c.JSON(http.StatusOK, task)
}

// Create creates a new task.
func (h *TaskHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	var req TaskRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}

	task := model.Task{
		TenantID:    p.TenantID,
		OwnerID:     scope.DefaultOwner(p, req.OwnerID),
		CreatedByID: p.ID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		RelatedType: req.RelatedType,
		RelatedID:   req.RelatedID,
	}

	if err := h.db.Create(&task).Error; err != nil {
		log.Error("Failed to create task", zap.Error(err))
		return apperr.Write(c, apperr.Internal(err))
	}

	prometheus.RecordEntityOperation("task", "create")
	h.recorder.Record(p, "task", task.ID, audit.ActionCreate)

	return c.JSON(http.StatusCreated, task)
}

// Update modifies a task.
func (h *TaskHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	var req TaskRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	task, err := h.load(c, p)
	if err != nil {
		return apperr.Write(c, err)
	}

	type change struct{ field, old, new string }
	var changes []change

	if req.Title != "" && req.Title != task.Title {
		changes = append(changes, change{"title", task.Title, req.Title})
		task.Title = req.Title
	}
	if req.Description != "" && req.Description != task.Description {
		changes = append(changes, change{"description", task.Description, req.Description})
		task.Description = req.Description
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.Done != nil && *req.Done != task.Done {
		changes = append(changes, change{"done", fmt.Sprint(task.Done), fmt.Sprint(*req.Done)})
		task.Done = *req.Done
	}

	newOwner := scope.OwnerForUpdate(p, task.OwnerID, req.OwnerID)
	if formatOwner(newOwner) != formatOwner(task.OwnerID) {
		changes = append(changes, change{"owner_id", formatOwner(task.OwnerID), formatOwner(newOwner)})
		task.OwnerID = newOwner
	}

	if err := h.db.Save(task).Error; err != nil {
		log.Error("Failed to update task", zap.Uint("task_id", task.ID), zap.Error(err))
		return apperr.Write(c, apperr.Internal(err))
	}

	prometheus.RecordEntityOperation("task", "update")
	for _, ch := range changes {
		action := audit.ActionUpdate
		if ch.field == "owner_id" {
			action = audit.ActionAssign
		}
		h.recorder.Record(p, "task", task.ID, action, audit.WithField(ch.field, ch.old, ch.new))
	}

	return c.JSON(http.StatusOK, task)
}

// Delete soft-deletes a task.
func (h *TaskHandler) Delete(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	task, err := h.load(c, p)
	if err != nil {
		return apperr.Write(c, err)
	}

	if err := h.db.Delete(task).Error; err != nil {
		return apperr.Write(c, apperr.Internal(err))
	}

	prometheus.RecordEntityOperation("task", "delete")
	h.recorder.Record(p, "task", task.ID, audit.ActionDelete)

	return c.JSON(http.StatusOK, echo.Map{"message": "task deleted"})
}

func (h *TaskHandler) load(c echo.Context, p *principal.Principal) (*model.Task, error) {
	id, err := pathID(c)
	if err != nil {
		return nil, err
	}

	var task model.Task
	if err := h.db.First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("record not found")
		}
		return nil, apperr.Internal(err)
	}

	if err := scope.RequireAccess(p, &task); err != nil {
		return nil, err
	}
	return &task, nil
}
