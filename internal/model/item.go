package model

import (
	"time"

	"gorm.io/gorm"
)

// Item represents a product or service sold by the tenant. SKU is unique
// within a tenant.
type Item struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	TenantID    uint           `json:"tenant_id" gorm:"index;not null;uniqueIndex:idx_items_tenant_sku"`
	OwnerID     *uint          `json:"owner_id" gorm:"index"`
	CreatedByID uint           `json:"created_by_id" gorm:"not null"`
	SKU         string         `json:"sku" gorm:"type:varchar(50);not null;uniqueIndex:idx_items_tenant_sku"`
	Name        string         `json:"name" gorm:"type:varchar(100);not null"`
	Description string         `json:"description" gorm:"type:text"`
	Price       float64        `json:"price" gorm:"default:0"`
	Active      bool           `json:"active" gorm:"default:true"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (i *Item) TenantRef() uint { return i.TenantID }
func (i *Item) OwnerRef() *uint { return i.OwnerID }
