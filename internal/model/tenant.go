package model

import (
	"time"

	"gorm.io/gorm"
)

// Plan tiers. Limits for each tier live in the limits package; ENTERPRISE
// is always treated as unlimited regardless of stored maxima.
const (
	PlanStarter    = "STARTER"
	PlanPro        = "PRO"
	PlanEnterprise = "ENTERPRISE"
)

// Tenant represents an isolated customer organization. Every business
// record in the system is partitioned by tenant id.
type Tenant struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"type:varchar(100);uniqueIndex"`
	Plan      string         `json:"plan" gorm:"type:varchar(20);not null;default:'STARTER'"`
	Active    bool           `json:"active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
