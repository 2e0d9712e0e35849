package model

import (
	"time"

	"gorm.io/gorm"
)

// Appointment represents a scheduled meeting
type Appointment struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	TenantID    uint           `json:"tenant_id" gorm:"index;not null"`
	OwnerID     *uint          `json:"owner_id" gorm:"index"`
	CreatedByID uint           `json:"created_by_id" gorm:"not null"`
	Title       string         `json:"title" gorm:"type:varchar(200);not null"`
	StartsAt    time.Time      `json:"starts_at" gorm:"not null"`
	EndsAt      time.Time      `json:"ends_at" gorm:"not null"`
	Location    string         `json:"location" gorm:"type:varchar(200)"`
	Notes       string         `json:"notes" gorm:"type:text"`
	ContactID   *uint          `json:"contact_id,omitempty" gorm:"index"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (a *Appointment) TenantRef() uint { return a.TenantID }
func (a *Appointment) OwnerRef() *uint { return a.OwnerID }
