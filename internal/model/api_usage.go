package model

import (
	"time"
)

// APIUsage counts authenticated API calls per tenant, bucketed by calendar
// month ("2026-08"). Incremented best-effort by middleware and read by the
// usage limiter for the api_calls metric.
type APIUsage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TenantID  uint      `json:"tenant_id" gorm:"not null;uniqueIndex:idx_api_usage_tenant_month"`
	Month     string    `json:"month" gorm:"type:varchar(7);not null;uniqueIndex:idx_api_usage_tenant_month"`
	Calls     int64     `json:"calls" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
