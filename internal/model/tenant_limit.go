package model

import (
	"time"
)

// Unlimited marks a limit column as uncapped.
const Unlimited = -1

// TenantLimit holds per-tenant resource maxima. One row per tenant, lazily
// created from the plan defaults on first check. A value of -1 in any max
// column means unlimited.
type TenantLimit struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	TenantID    uint      `json:"tenant_id" gorm:"uniqueIndex;not null"`
	PlanType    string    `json:"plan_type" gorm:"type:varchar(20);not null;default:'STARTER'"`
	MaxLeads    int       `json:"max_leads" gorm:"not null"`
	MaxUsers    int       `json:"max_users" gorm:"not null"`
	MaxItems    int       `json:"max_items" gorm:"not null"`
	MaxAPICalls int       `json:"max_api_calls" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
