package model

import (
	"time"
)

// AuditLog is an immutable change record. Rows are only ever appended;
// nothing in the service updates or deletes them, so there is no UpdatedAt
// and no soft delete.
type AuditLog struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	TenantID   uint      `json:"tenant_id" gorm:"index;not null"`
	UserID     uint      `json:"user_id" gorm:"index;not null"`
	EntityType string    `json:"entity_type" gorm:"type:varchar(30);not null;index:idx_audit_entity"`
	EntityID   uint      `json:"entity_id" gorm:"not null;index:idx_audit_entity"`
	Action     string    `json:"action" gorm:"type:varchar(20);not null"`
	FieldName  string    `json:"field_name,omitempty" gorm:"type:varchar(50)"`
	OldValue   string    `json:"old_value,omitempty" gorm:"type:text"`
	NewValue   string    `json:"new_value,omitempty" gorm:"type:text"`
	Metadata   string    `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt  time.Time `json:"created_at"`
}
