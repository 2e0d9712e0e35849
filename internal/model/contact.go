package model

import (
	"time"

	"gorm.io/gorm"
)

// Contact represents a person at a customer account
type Contact struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	TenantID    uint           `json:"tenant_id" gorm:"index;not null"`
	OwnerID     *uint          `json:"owner_id" gorm:"index"`
	CreatedByID uint           `json:"created_by_id" gorm:"not null"`
	Name        string         `json:"name" gorm:"type:varchar(100);not null"`
	Email       string         `json:"email" gorm:"type:varchar(100)"`
	Phone       string         `json:"phone" gorm:"type:varchar(30)"`
	Title       string         `json:"title" gorm:"type:varchar(100)"`
	AccountID   *uint          `json:"account_id,omitempty" gorm:"index"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (c *Contact) TenantRef() uint { return c.TenantID }
func (c *Contact) OwnerRef() *uint { return c.OwnerID }
