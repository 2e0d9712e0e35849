package model

import (
	"time"

	"gorm.io/gorm"
)

// Account represents a customer company. CNPJ is unique within a tenant;
// it is nullable so accounts without one never collide on the index.
type Account struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	TenantID    uint           `json:"tenant_id" gorm:"index;not null;uniqueIndex:idx_accounts_tenant_cnpj"`
	OwnerID     *uint          `json:"owner_id" gorm:"index"`
	CreatedByID uint           `json:"created_by_id" gorm:"not null"`
	Name        string         `json:"name" gorm:"type:varchar(100);not null"`
	CNPJ        *string        `json:"cnpj,omitempty" gorm:"type:varchar(18);uniqueIndex:idx_accounts_tenant_cnpj"`
	Website     string         `json:"website" gorm:"type:varchar(200)"`
	Industry    string         `json:"industry" gorm:"type:varchar(50)"`
	Phone       string         `json:"phone" gorm:"type:varchar(30)"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (a *Account) TenantRef() uint { return a.TenantID }
func (a *Account) OwnerRef() *uint { return a.OwnerID }
