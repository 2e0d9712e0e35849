package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Fedevops/tyr-crm-ai-sub001/internal/apperr"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/audit"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/limits"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/model"
	"github.com/Fedevops/tyr-crm-ai-sub001/pkg/logger"
	"github.com/Fedevops/tyr-crm-ai-sub001/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserRequest defines the structure for tenant user management requests
type UserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Active   *bool  `json:"active"`
}

// UserHandler serves tenant user management. All operations require the
// ADMIN role.
type UserHandler struct {
	db       *gorm.DB
	limiter  *limits.Limiter
	recorder *audit.Recorder
}

// NewUserHandler creates a user handler.
func NewUserHandler(db *gorm.DB, limiter *limits.Limiter, recorder *audit.Recorder) *UserHandler {
	return &UserHandler{db: db, limiter: limiter, recorder: recorder}
}

// List returns the users of the principal's tenant.
func (h *UserHandler) List(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}
	if !p.IsAdmin() {
		return apperr.Write(c, apperr.Forbidden("admin role required"))
	}

	limit, offset := pagination(c)

	var users []model.User
	if err := h.db.Where("tenant_id = ?", p.TenantID).
		Order("created_at ASC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		logger.FromEcho(c).Error("Failed to list users", zap.Error(err))
		return apperr.Write(c, apperr.Internal(err))
	}

	return c.JSON(http.StatusOK, users)
}

// Create adds a user to the principal's tenant, subject to the tenant's
// active-user cap.
func (h *UserHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}
	if !p.IsAdmin() {
		return apperr.Write(c, apperr.Forbidden("admin role required"))
	}

	var req UserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}
	if req.Role != "" && req.Role != model.RoleAdmin && req.Role != model.RoleMember {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be ADMIN or MEMBER"})
	}

	if err := h.limiter.CheckLimit(p.TenantID, limits.MetricUsers); err != nil {
		prometheus.RecordLimitDenied(string(limits.MetricUsers))
		return apperr.Write(c, err)
	}

	var count int64
	h.db.Model(&model.User{}).Where("email = ?", req.Email).Count(&count)
	if count > 0 {
		log.Warn("User with this email already exists", zap.String("email", req.Email))
		return apperr.Write(c, apperr.Conflict("user with this email already exists"))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return apperr.Write(c, apperr.Internal(err))
	}

	role := req.Role
	if role == "" {
		role = model.RoleMember
	}

	user := model.User{
		TenantID: p.TenantID,
		Email:    req.Email,
		Password: string(hashed),
		Name:     req.Name,
		Role:     role,
		Active:   true,
	}

	if err := h.db.Create(&user).Error; err != nil {
		log.Error("Failed to create user", zap.Error(err))
		return apperr.Write(c, apperr.Internal(err))
	}

	prometheus.RecordEntityOperation("user", "create")
	h.recorder.Record(p, "user", user.ID, audit.ActionCreate)

	return c.JSON(http.StatusCreated, user)
}

// Update changes a tenant user's name, role or active flag.
func (h *UserHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)
	p, err := currentPrincipal(c)
	if err != nil {
		return apperr.Write(c, err)
	}
	if !p.IsAdmin() {
		return apperr.Write(c, apperr.Forbidden("admin role required"))
	}

	var req UserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.Role != "" && req.Role != model.RoleAdmin && req.Role != model.RoleMember {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be ADMIN or MEMBER"})
	}

	id, err := pathID(c)
	if err != nil {
		return apperr.Write(c, err)
	}

	var user model.User
	if err := h.db.Where("id = ? AND tenant_id = ?", id, p.TenantID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Write(c, apperr.NotFound("record not found"))
		}
		return apperr.Write(c, apperr.Internal(err))
	}

	type change struct{ field, old, new string }
	var changes []change

	if req.Name != "" && req.Name != user.Name {
		changes = append(changes, change{"name", user.Name, req.Name})
		user.Name = req.Name
	}
	if req.Role != "" && req.Role != user.Role {
		changes = append(changes, change{"role", user.Role, req.Role})
		user.Role = req.Role
	}
	if req.Active != nil && *req.Active != user.Active {
		changes = append(changes, change{"active",
			strconv.FormatBool(user.Active), strconv.FormatBool(*req.Active)})
		user.Active = *req.Active
	}
	if req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return apperr.Write(c, apperr.Internal(err))
		}
		user.Password = string(hashed)
	}

	if err := h.db.Save(&user).Error; err != nil {
		log.Error("Failed to update user", zap.Uint("user_id", user.ID), zap.Error(err))
		return apperr.Write(c, apperr.Internal(err))
	}

	prometheus.RecordEntityOperation("user", "update")
	for _, ch := range changes {
		h.recorder.Record(p, "user", user.ID, audit.ActionUpdate, audit.WithField(ch.field, ch.old, ch.new))
	}

	return c.JSON(http.StatusOK, user)
}
