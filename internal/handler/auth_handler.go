package handler

import (
	"net/http"
	"time"

	"github.com/Fedevops/tyr-crm-ai-sub001/internal/apperr"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/model"
	"github.com/Fedevops/tyr-crm-ai-sub001/pkg/jwtutil"
	"github.com/Fedevops/tyr-crm-ai-sub001/pkg/logger"
	"github.com/Fedevops/tyr-crm-ai-sub001/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthHandler serves registration and login for tenant users and the
// partner portal.
type AuthHandler struct {
	db    *gorm.DB
	codec *jwtutil.JWTUtil
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(db *gorm.DB, codec *jwtutil.JWTUtil) *AuthHandler {
	return &AuthHandler{db: db, codec: codec}
}

// Register creates a new tenant and its first (admin) user.
func (h *AuthHandler) Register(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		TenantName string `json:"tenant_name"`
		Name       string `json:"name"`
		Email      string `json:"email"`
		Password   string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.TenantName == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_name, email and password are required"})
	}

	var existing model.User
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		log.Warn("Email already registered", zap.String("email", req.Email))
		prometheus.RecordAuthError("email_already_exists")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
	}

	var tenantCount int64
	h.db.Model(&model.Tenant{}).Where("name = ?", req.TenantName).Count(&tenantCount)
	if tenantCount > 0 {
		log.Warn("Tenant name already registered", zap.String("tenant_name", req.TenantName))
		prometheus.RecordAuthError("tenant_already_exists")
		return apperr.Write(c, apperr.Conflict("tenant name already registered"))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	var user model.User
	err = h.db.Transaction(func(tx *gorm.DB) error {
		tenant := model.Tenant{
			Name:   req.TenantName,
			Plan:   model.PlanStarter,
			Active: true,
		}
		if err := tx.Create(&tenant).Error; err != nil {
			return err
		}

		user = model.User{
			TenantID: tenant.ID,
			Email:    req.Email,
			Password: string(hashed),
			Name:     req.Name,
			Role:     model.RoleAdmin,
			Active:   true,
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		log.Error("Failed to register tenant", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	log.Info("Tenant registered",
		zap.String("tenant_name", req.TenantName),
		zap.String("email", user.Email))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "registered successfully",
		"user": echo.Map{
			"id":        user.ID,
			"tenant_id": user.TenantID,
			"email":     user.Email,
			"role":      user.Role,
		},
	})
}

// Login authenticates a tenant user and issues a bearer token.
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.LoginCounter.WithLabelValues("user").Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		log.Warn("User not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if !user.Active {
		log.Warn("Inactive user attempted login", zap.String("email", req.Email))
		prometheus.RecordAuthError("inactive_account")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account is inactive"})
	}

	token, err := h.codec.Issue(user.ID, jwtutil.KindUser, jwtutil.SessionClaims{
		Email:    user.Email,
		TenantID: &user.TenantID,
	})
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.Uint("tenant_id", user.TenantID),
		zap.String("role", user.Role))

	return c.JSON(http.StatusOK, echo.Map{
		"access_token": token,
		"token_type":   "bearer",
		"user": echo.Map{
			"id":        user.ID,
			"tenant_id": user.TenantID,
			"email":     user.Email,
			"role":      user.Role,
		},
	})
}

// PartnerLogin authenticates a partner user and issues a partner-kind
// bearer token. The token is only usable on partner routes.
func (h *AuthHandler) PartnerLogin(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.LoginCounter.WithLabelValues("partner").Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse partner login request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	var user model.PartnerUser
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		log.Warn("Partner user not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if !user.Active {
		prometheus.RecordAuthError("inactive_account")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account is inactive"})
	}

	var org model.PartnerOrg
	if err := h.db.First(&org, user.PartnerID).Error; err != nil || org.Status != model.PartnerStatusApproved {
		log.Warn("Partner organization not approved",
			zap.String("email", req.Email),
			zap.Uint("partner_id", user.PartnerID))
		prometheus.RecordAuthError("partner_not_approved")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "partner organization is not approved"})
	}

	token, err := h.codec.Issue(user.ID, jwtutil.KindPartner, jwtutil.SessionClaims{
		Email:     user.Email,
		PartnerID: &user.PartnerID,
	})
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("Partner user logged in",
		zap.String("email", user.Email),
		zap.Uint("partner_id", user.PartnerID))

	return c.JSON(http.StatusOK, echo.Map{
		"access_token": token,
		"token_type":   "bearer",
		"partner": echo.Map{
			"id":   org.ID,
			"name": org.Name,
		},
	})
}
