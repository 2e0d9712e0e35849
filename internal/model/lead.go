package model

import (
	"time"

	"gorm.io/gorm"
)

// Lead statuses.
const (
	LeadStatusNew       = "NEW"
	LeadStatusContacted = "CONTACTED"
	LeadStatusQualified = "QUALIFIED"
	LeadStatusLost      = "LOST"
	LeadStatusConverted = "CONVERTED"
)

// Lead represents a prospective customer. A lead may be referred by a
// partner organization, and is replaced by an account/contact/opportunity
// trio once converted.
type Lead struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	TenantID    uint           `json:"tenant_id" gorm:"index;not null"`
	OwnerID     *uint          `json:"owner_id" gorm:"index"`
	CreatedByID uint           `json:"created_by_id" gorm:"not null"`
	Name        string         `json:"name" gorm:"type:varchar(100);not null"`
	Email       string         `json:"email" gorm:"type:varchar(100)"`
	Phone       string         `json:"phone" gorm:"type:varchar(30)"`
	Company     string         `json:"company" gorm:"type:varchar(100)"`
	Source      string         `json:"source" gorm:"type:varchar(50)"`
	Status      string         `json:"status" gorm:"type:varchar(20);not null;default:'NEW'"`
	Score       int            `json:"score" gorm:"default:0"`
	PartnerID   *uint          `json:"partner_id,omitempty" gorm:"index"`
	AccountID   *uint          `json:"account_id,omitempty"`
	ConvertedAt *time.Time     `json:"converted_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (l *Lead) TenantRef() uint { return l.TenantID }
func (l *Lead) OwnerRef() *uint { return l.OwnerID }
