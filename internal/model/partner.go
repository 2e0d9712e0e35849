package model

import (
	"time"

	"gorm.io/gorm"
)

// Partner organization statuses. Partner users can only authenticate while
// their organization is approved.
const (
	PartnerStatusPending   = "PENDING"
	PartnerStatusApproved  = "APPROVED"
	PartnerStatusSuspended = "SUSPENDED"
)

// PartnerOrg represents a referral partner organization
type PartnerOrg struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"type:varchar(100);not null"`
	CNPJ      string         `json:"cnpj" gorm:"type:varchar(18);uniqueIndex"`
	Status    string         `json:"status" gorm:"type:varchar(20);not null;default:'PENDING'"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// PartnerUser represents a user belonging to a partner organization
type PartnerUser struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	PartnerID uint           `json:"partner_id" gorm:"index;not null"`
	Email     string         `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	Password  string         `json:"-" gorm:"type:varchar(255)"`
	Name      string         `json:"name" gorm:"type:varchar(100)"`
	Active    bool           `json:"active" gorm:"default:true"`
	IsOwner   bool           `json:"is_owner" gorm:"default:false"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Partner PartnerOrg `json:"partner,omitempty" gorm:"foreignKey:PartnerID"`
}
