package model

import (
	"time"

	"gorm.io/gorm"
)

// Opportunity stages.
const (
	StageProspecting   = "PROSPECTING"
	StageQualification = "QUALIFICATION"
	StageProposal      = "PROPOSAL"
	StageNegotiation   = "NEGOTIATION"
	StageClosedWon     = "CLOSED_WON"
	StageClosedLost    = "CLOSED_LOST"
)

// Opportunity represents a potential deal attached to an account
type Opportunity struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	TenantID    uint           `json:"tenant_id" gorm:"index;not null"`
	OwnerID     *uint          `json:"owner_id" gorm:"index"`
	CreatedByID uint           `json:"created_by_id" gorm:"not null"`
	Name        string         `json:"name" gorm:"type:varchar(100);not null"`
	AccountID   *uint          `json:"account_id,omitempty" gorm:"index"`
	ContactID   *uint          `json:"contact_id,omitempty"`
	Amount      float64        `json:"amount" gorm:"default:0"`
	Stage       string         `json:"stage" gorm:"type:varchar(20);not null;default:'PROSPECTING'"`
	CloseDate   *time.Time     `json:"close_date,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (o *Opportunity) TenantRef() uint { return o.TenantID }
func (o *Opportunity) OwnerRef() *uint { return o.OwnerID }
