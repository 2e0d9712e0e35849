package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// HealthHandler reports service liveness and database connectivity.
type HealthHandler struct {
	db        *gorm.DB
	service   string
	startedAt time.Time
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(db *gorm.DB, service string) *HealthHandler {
	return &HealthHandler{db: db, service: service, startedAt: time.Now()}
}

// Check returns 200 when the service and its database are reachable,
// 503 when the database ping fails.
func (h *HealthHandler) Check(c echo.Context) error {
	status := http.StatusOK
	overall := "ok"
	dbStatus := "up"

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request().Context())
	}
	if err != nil {
		status = http.StatusServiceUnavailable
		overall = "degraded"
		dbStatus = "down"
	}

	return c.JSON(status, echo.Map{
		"service":  h.service,
		"status":   overall,
		"database": dbStatus,
		"uptime":   time.Since(h.startedAt).Round(time.Second).String(),
	})
}
