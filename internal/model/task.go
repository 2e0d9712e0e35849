package model

import (
	"time"

	"gorm.io/gorm"
)

// Task represents a to-do attached to another CRM record
type Task struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	TenantID    uint           `json:"tenant_id" gorm:"index;not null"`
	OwnerID     *uint          `json:"owner_id" gorm:"index"`
	CreatedByID uint           `json:"created_by_id" gorm:"not null"`
	Title       string         `json:"title" gorm:"type:varchar(200);not null"`
	Description string         `json:"description" gorm:"type:text"`
	DueDate     *time.Time     `json:"due_date,omitempty"`
	Done        bool           `json:"done" gorm:"default:false"`
	RelatedType string         `json:"related_type,omitempty" gorm:"type:varchar(30)"`
	RelatedID   *uint          `json:"related_id,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (t *Task) TenantRef() uint { return t.TenantID }
func (t *Task) OwnerRef() *uint { return t.OwnerID }
